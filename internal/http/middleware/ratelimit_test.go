package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("expected burst to be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("expected third request to be rejected")
	}
	// Other IPs have their own bucket.
	if !rl.Allow("5.6.7.8") {
		t.Fatal("expected separate bucket per IP")
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	mw := RateLimit(0.0001, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings/slots", nil)
	req.Header.Set("X-Real-Ip", "9.9.9.9")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After hint on 429")
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
}
