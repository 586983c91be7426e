package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/velvetdesk/salon-api/internal/tenancy"
)

func TestRequireTenantRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bookings/slots", nil)
	rec := httptest.NewRecorder()

	RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRequireTenantScopesContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/bookings/slots", nil)
	req.Header.Set(TenantHeader, "salon-42")
	rec := httptest.NewRecorder()

	called := false
	RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		tenantID, ok := tenancy.TenantIDFromContext(r.Context())
		if !ok || tenantID != "salon-42" {
			t.Fatalf("unexpected tenant in context: %q %v", tenantID, ok)
		}
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to be called")
	}
}
