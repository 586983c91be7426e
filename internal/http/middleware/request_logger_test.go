package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggerPreservesResponse(t *testing.T) {
	mw := RequestLogger(nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/bookings/slots", nil)
	req.Header.Set(TenantHeader, "salon-42")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status not preserved through wrapper: got %d", rec.Code)
	}
	if rec.Body.String() != `{"ok": true}` {
		t.Fatalf("body not preserved: %q", rec.Body.String())
	}
}
