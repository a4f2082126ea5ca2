package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(logger *slog.Logger, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Tracing(), Logging(logger), Metrics(reg))
	r.GET("/ok", func(c *gin.Context) {
		GetLogger(c).Info("inside handler")
		c.String(http.StatusOK, "ok")
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return r
}

func TestLogging_RequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(slog.New(slog.NewJSONHandler(&buf, nil)), prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("expected request id to be echoed, got %q", w.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("expected request id in logs, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "inside handler") {
		t.Errorf("expected handler to log through the request logger")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a generated request id")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), reg)

	for _, p := range []string{"/ok", "/ok", "/boom", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	n, err := testutil.GatherAndCount(reg, "bikemap_http_requests_total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 label sets (ok, boom, unmatched), got %d", n)
	}
	n, _ = testutil.GatherAndCount(reg, "bikemap_http_request_errors_total")
	if n != 2 {
		t.Errorf("expected 2 error label sets, got %d", n)
	}
}

func TestGetLogger_Default(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if GetLogger(c) != slog.Default() {
		t.Errorf("expected default logger outside a request")
	}
}
