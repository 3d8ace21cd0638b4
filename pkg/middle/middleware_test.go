package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	wrapped := RequestIDMiddleware(zap.NewNop())(inner)

	req := httptest.NewRequest(http.MethodGet, "/reps", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if seen == "" || !strings.HasPrefix(seen, "req-") {
		t.Fatalf("request id in context = %q, want a req- id", seen)
	}
	if got := rr.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID header = %q, want %q", got, seen)
	}

	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reps", nil))
	if rr.Header().Get("X-Request-ID") == seen {
		t.Error("two requests shared a request id")
	}
}

func TestRequestIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reps", nil)
	if got := RequestID(req.Context()); got != "" {
		t.Errorf("RequestID on an unstamped context = %q, want empty", got)
	}
}

func TestLoggingMiddlewareRecoversPanic(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/classify", nil)
	rr := httptest.NewRecorder()
	LoggingMiddleware(zap.NewNop())(inner).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %d, want 500", rr.Code)
	}
}
