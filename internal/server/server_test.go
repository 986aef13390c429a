package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"focus-reminders/internal/metrics"
	"focus-reminders/internal/service"
)

type stubChecker struct {
	summary service.Summary
	err     error
	calls   int
}

func (s *stubChecker) RunScheduledCheck(context.Context) (service.Summary, error) {
	s.calls++
	return s.summary, s.err
}

func do(t *testing.T, h http.Handler, path, auth string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return w, body
}

func TestCronReportsSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &stubChecker{summary: service.Summary{Processed: 3, Notified: 2, Failed: 1, Skipped: 1, Timestamp: "2024-07-15T13:05:00Z"}}
	r := New(checker, Options{}, zerolog.Nop())

	w, body := do(t, r, "/cron", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["success"] != true || body["processed"] != float64(3) || body["notified"] != float64(2) ||
		body["failed"] != float64(1) || body["skipped"] != float64(1) || body["timestamp"] != "2024-07-15T13:05:00Z" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCronFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &stubChecker{err: errors.New("database is locked")}
	r := New(checker, Options{}, zerolog.Nop())

	w, body := do(t, r, "/cron", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["success"] != false || body["error"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
	if strings.Contains(w.Body.String(), "locked") {
		t.Fatal("internal error leaked to the caller")
	}
}

func TestCronSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{name: "missing", auth: "", status: http.StatusUnauthorized},
		{name: "wrong", auth: "Bearer nope", status: http.StatusUnauthorized},
		{name: "no scheme", auth: "s3cret", status: http.StatusUnauthorized},
		{name: "valid", auth: "Bearer s3cret", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubChecker{}
			r := New(checker, Options{CronSecret: "s3cret"}, zerolog.Nop())
			w, _ := do(t, r, "/cron", tt.auth)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusOK && checker.calls != 0 {
				t.Fatal("check ran without authorization")
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveDispatch(service.ReasonNotified)

	r := New(&stubChecker{}, Options{Gatherer: reg}, zerolog.Nop())

	w, body := do(t, r, "/healthz", "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz = %d %v", w.Code, body)
	}

	w, _ = do(t, r, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `focus_dispatches_total{result="notified"} 1`) {
		t.Fatalf("metrics output missing dispatch counter:\n%s", w.Body.String())
	}
}

func TestPanicRecovered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(panicChecker{}, Options{}, zerolog.Nop())
	w, body := do(t, r, "/cron", "")
	if w.Code != http.StatusInternalServerError || body["success"] != false {
		t.Fatalf("got %d %v", w.Code, body)
	}
}

type panicChecker struct{}

func (panicChecker) RunScheduledCheck(context.Context) (service.Summary, error) {
	panic("boom")
}
