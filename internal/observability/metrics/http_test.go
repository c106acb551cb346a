package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTPRequest(t *testing.T) {
	c := New("")
	c.ObserveHTTPRequest("GET /api/tasks", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	c.ObserveHTTPRequest("GET /api/tasks", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	c.ObserveHTTPRequest("POST /api/tasks", http.MethodPost, http.StatusInternalServerError, time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET /api/tasks", http.MethodGet, "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.errors.WithLabelValues("POST /api/tasks", http.MethodPost)); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.ToFloat64(c.errors.WithLabelValues("GET /api/tasks", http.MethodGet)); got != 0 {
		t.Fatalf("expected no errors for successful route, got %v", got)
	}
}

func TestHandlerExposition(t *testing.T) {
	c := New("taskboard")
	c.ObserveHTTPRequest("GET /healthz", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`taskboard_http_requests_total{code="200",handler="GET /healthz",method="GET"} 1`,
		"taskboard_http_request_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveHTTPRequest("x", http.MethodGet, http.StatusOK, time.Millisecond)
	if err := c.RegisterDB("tasks", (*sql.DB)(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
