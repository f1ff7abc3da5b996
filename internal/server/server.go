// Package server exposes the calculators and the shared baseline over HTTP
// and serves the embedded web UI.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/internal/calculator"
	"github.com/iwvelando/bizcalc/internal/metrics"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/output"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Options wires the handler to its collaborators. Nil fields get defaults.
type Options struct {
	Logger        *zap.Logger
	Registry      *calculator.Registry
	Store         *baseline.Store
	Metrics       *metrics.Metrics
	MaxUploadSize int64
	Version       string
}

type handler struct {
	logger        *zap.Logger
	registry      *calculator.Registry
	store         *baseline.Store
	metrics       *metrics.Metrics
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// calculator API.
func NewHandler(opts Options) (http.Handler, error) {
	h := &handler{
		logger:        opts.Logger,
		registry:      opts.Registry,
		store:         opts.Store,
		metrics:       opts.Metrics,
		maxUploadSize: opts.MaxUploadSize,
		version:       strings.TrimSpace(opts.Version),
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.registry == nil {
		h.registry = calculator.NewRegistry(h.logger)
	}
	if h.store == nil {
		store, err := baseline.NewStore(baseline.Defaults())
		if err != nil {
			return nil, err
		}
		h.store = store
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	if h.maxUploadSize <= 0 {
		h.maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if h.version == "" {
		h.version = "dev"
	}

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare embedded static files: %w", err)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/calculators", h.handleListCalculators)
		r.Post("/calculators/{name}", h.handleRunCalculator)
		r.Get("/baseline", h.handleGetBaseline)
		r.Put("/baseline", h.handleUpdateBaseline)
		r.Post("/baseline/reset", h.handleResetBaseline)
	})
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	r.Handle("/*", http.FileServer(http.FS(sub)))

	return r, nil
}

type calculatorInfo struct {
	Name         string             `json:"name"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	RequiresFile bool               `json:"requiresFile"`
	Fields       []calculator.Field `json:"fields"`
}

type runRequest struct {
	Inputs map[string]any `json:"inputs"`
}

type baselineResponse struct {
	Baseline baseline.Params   `json:"baseline"`
	Keys     []string          `json:"keys"`
	Labels   map[string]string `json:"labels"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleListCalculators(w http.ResponseWriter, _ *http.Request) {
	p := h.store.Get()
	calculators := h.registry.All()
	infos := make([]calculatorInfo, 0, len(calculators))
	for _, c := range calculators {
		fields := c.Fields(p)
		if fields == nil {
			fields = []calculator.Field{}
		}
		infos = append(infos, calculatorInfo{
			Name:         c.Name(),
			Title:        c.Title(),
			Description:  c.Description(),
			RequiresFile: c.RequiresFile(),
			Fields:       fields,
		})
	}
	h.writeJSON(w, http.StatusOK, infos)
}

func (h *handler) handleRunCalculator(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRunCalculator"
	start := time.Now()
	name := chi.URLParam(r, "name")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.OutputFormatJSON
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	calc, err := h.registry.Lookup(name)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}

	var req runRequest
	if status, err := h.decodeBody(w, r, &req); err != nil {
		h.metrics.ObserveCalculation(calc.Name(), metrics.StatusInvalid)
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	rep, err := calc.Run(h.store.Get(), req.Inputs)
	if err != nil {
		var inputErr *calculator.InputError
		if errors.As(err, &inputErr) {
			h.metrics.ObserveCalculation(calc.Name(), metrics.StatusInvalid)
			h.respondFieldError(w, inputErr, op)
			return
		}
		h.metrics.ObserveCalculation(calc.Name(), metrics.StatusError)
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.metrics.ObserveCalculation(calc.Name(), metrics.StatusOK)

	var buf bytes.Buffer
	if err := output.Write(&buf, rep, format); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render report: %v", err), op)
		return
	}

	h.logger.Info("calculation served",
		zap.String("op", op),
		zap.String("request_id", requestIDFrom(r)),
		zap.String("calculator", calc.Name()),
		zap.String("format", format),
		zap.Duration("duration", time.Since(start)),
	)

	w.Header().Set("Content-Type", output.ContentType(format))
	if format == constants.OutputFormatCSV || format == constants.OutputFormatXLSX {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s.%s"`, calc.Name(), output.FileExtension(format)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) handleGetBaseline(w http.ResponseWriter, _ *http.Request) {
	h.writeBaseline(w, h.store.Get())
}

func (h *handler) handleUpdateBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateBaseline"

	var overrides map[string]float64
	if status, err := h.decodeBody(w, r, &overrides); err != nil {
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	updated, err := h.store.Update(overrides)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.logger.Info("baseline updated",
		zap.String("op", op),
		zap.String("request_id", requestIDFrom(r)),
		zap.Int("changed", len(overrides)),
	)
	h.writeBaseline(w, updated)
}

func (h *handler) handleResetBaseline(w http.ResponseWriter, r *http.Request) {
	params := h.store.Reset()
	h.logger.Info("baseline reset",
		zap.String("op", "server.handleResetBaseline"),
		zap.String("request_id", requestIDFrom(r)),
	)
	h.writeBaseline(w, params)
}

func (h *handler) writeBaseline(w http.ResponseWriter, p baseline.Params) {
	h.writeJSON(w, http.StatusOK, baselineResponse{
		Baseline: p,
		Keys:     baseline.Keys(),
		Labels:   baseline.Labels,
	})
}

// decodeBody reads a size-limited JSON body into v. An empty body leaves v
// untouched. The returned status is meaningful only with an error.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds limit of %d bytes", h.maxUploadSize)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return http.StatusOK, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to decode request body: %w", err)
	}
	return http.StatusOK, nil
}

func (h *handler) respondFieldError(w http.ResponseWriter, err *calculator.InputError, op string) {
	h.logger.Info("calculation rejected",
		zap.String("op", op),
		zap.String("calculator", err.Calculator),
		zap.String("field", err.Field),
		zap.String("error", err.Message),
	)
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: err.Field})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
