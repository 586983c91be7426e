package middleware

import (
	"net/http"
	"strings"

	"github.com/velvetdesk/salon-api/internal/tenancy"
)

// TenantHeader is the header carrying the salon identifier on every
// API request.
const TenantHeader = "X-Tenant-Id"

// RequireTenant reads the tenant header, stores it on the request context
// and rejects requests without one. Every data access downstream is scoped
// by this value.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenantID == "" {
			http.Error(w, `{"error": "missing tenant header"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithTenantID(r.Context(), tenantID)))
	})
}
