package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const gracefulShutdownTimeout = 5 * time.Second

// Run serves handler on address until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, logger *zap.Logger, address string, handler http.Handler) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return Serve(ctx, logger, listener, handler)
}

// Serve is Run with an existing listener.
func Serve(ctx context.Context, logger *zap.Logger, listener net.Listener, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
	}()

	logger.Info("server listening",
		zap.String("op", "server.Serve"),
		zap.String("address", listener.Addr().String()),
	)
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("server stopped", zap.String("op", "server.Serve"))
	return nil
}
