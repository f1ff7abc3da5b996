package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/internal/metrics"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, maxUploadSize int64) http.Handler {
	t.Helper()
	h, err := NewHandler(Options{Logger: zap.NewNop(), MaxUploadSize: maxUploadSize, Version: "1.2.3"})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v (%s)", err, rr.Body.String())
	}
	return resp
}

func TestHandleVersion(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodGet, "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"version":"1.2.3"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestRequestIDIsPreserved(t *testing.T) {
	const id = "0b8f8b2e-6c1e-4d3f-9d2a-1f8f5d5c6a7b"
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, id)
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("expected request id %s, got %s", id, got)
	}
}

func TestHandleListCalculators(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodGet, "/api/calculators", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var infos []calculatorInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(infos) != 8 {
		t.Fatalf("expected 8 calculators, got %d", len(infos))
	}
	if infos[0].Name != "breakeven" || len(infos[0].Fields) == 0 {
		t.Fatalf("unexpected first calculator %+v", infos[0])
	}
	if infos[4].Name != "qspm" || !infos[4].RequiresFile {
		t.Fatalf("expected qspm to require a document, got %+v", infos[4])
	}
}

func TestHandleRunCalculator(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodPost, "/api/calculators/breakeven", `{"inputs": {"fixedCosts": 50000}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var rep report.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	m, ok := rep.Metric("breakEvenUnits")
	if !ok || m.Value != 2500 {
		t.Fatalf("expected 2500 break-even units, got %+v", m)
	}
}

func TestHandleRunCalculatorEmptyBodyUsesDefaults(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodPost, "/api/calculators/EOQ", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleRunCalculatorDownloads(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(h, http.MethodPost, "/api/calculators/pricing?format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %s", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), `filename="pricing.csv"`) {
		t.Fatalf("unexpected content disposition %s", rr.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rr.Body.String(), "key,label,value,unit") {
		t.Fatalf("unexpected CSV body %s", rr.Body.String())
	}

	rr = do(h, http.MethodPost, "/api/calculators/leasing?format=xlsx", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	_ = f.Close()
}

func TestHandleRunCalculatorErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
		field  string
	}{
		{"Unknown calculator", "/api/calculators/npv", "", http.StatusNotFound, ""},
		{"Invalid input", "/api/calculators/breakeven", `{"inputs": {"pricePerUnit": 10}}`, http.StatusBadRequest, "pricePerUnit"},
		{"Malformed JSON", "/api/calculators/breakeven", `{"inputs":`, http.StatusBadRequest, ""},
		{"Unsupported format", "/api/calculators/breakeven?format=yaml", "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(newTestHandler(t, 0), http.MethodPost, tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			resp := decodeError(t, rr)
			if resp.Error == "" {
				t.Fatal("expected error message")
			}
			if resp.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, resp.Field)
			}
		})
	}
}

func TestHandleRunCalculatorBodyTooLarge(t *testing.T) {
	body := `{"inputs": {"fixedCosts": 1` + strings.Repeat("0", 200) + `}}`
	rr := do(newTestHandler(t, 64), http.MethodPost, "/api/calculators/breakeven", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestBaselineEndpoints(t *testing.T) {
	h := newTestHandler(t, 0)

	rr := do(h, http.MethodPut, "/api/baseline", `{"pricePerUnit": 40}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp baselineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode baseline: %v", err)
	}
	if resp.Baseline.PricePerUnit != 40 || resp.Baseline.FixedCosts != 100000 {
		t.Fatalf("unexpected baseline %+v", resp.Baseline)
	}

	// Calculators pick up the edited baseline.
	rr = do(h, http.MethodPost, "/api/calculators/breakeven", "")
	var rep report.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if m, _ := rep.Metric("breakEvenUnits"); m.Value != 10000 {
		t.Fatalf("expected 10000 break-even units, got %v", m.Value)
	}

	rr = do(h, http.MethodPut, "/api/baseline", `{"margin": 5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown key, got %d", rr.Code)
	}
	rr = do(h, http.MethodPut, "/api/baseline", `{"daysInYear": 300}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid day count, got %d", rr.Code)
	}

	rr = do(h, http.MethodPost, "/api/baseline/reset", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode baseline: %v", err)
	}
	if resp.Baseline != baseline.Defaults() {
		t.Fatalf("expected defaults after reset, got %+v", resp.Baseline)
	}

	rr = do(h, http.MethodGet, "/api/baseline", "")
	if rr.Code != http.StatusOK || len(resp.Keys) != 9 {
		t.Fatalf("unexpected baseline response %d %v", rr.Code, resp.Keys)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodDelete, "/api/baseline", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h, err := NewHandler(Options{Metrics: m})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	do(h, http.MethodPost, "/api/calculators/ccc", "")
	do(h, http.MethodPost, "/api/calculators/ccc", `{"inputs": {"cogs": 0}}`)

	rr := do(h, http.MethodGet, "/metrics", "")
	body := rr.Body.String()
	for _, want := range []string{
		`bizcalc_calculations_total{calculator="ccc",status="ok"} 1`,
		`bizcalc_calculations_total{calculator="ccc",status="invalid"} 1`,
		`bizcalc_http_requests_total{code="200",method="POST",path="/api/calculators/{name}"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestStaticAssetsServed(t *testing.T) {
	rr := do(newTestHandler(t, 0), http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<title>bizcalc</title>") {
		t.Fatal("expected index page")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, nil, listener, newTestHandler(t, 0))
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/version")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
