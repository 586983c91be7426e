package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velvetdesk/salon-api/internal/schedule"
	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides HTTP endpoints for tenant settings.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi router with settings routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/working-hours", h.GetWorkingHours)
	r.Put("/working-hours", h.UpdateWorkingHours)
	return r
}

// GetWorkingHours returns the tenant's hours (defaults if unset).
// GET /admin/settings/working-hours
func (h *Handler) GetWorkingHours(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	hours, err := h.store.GetWorkingHours(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to get working hours", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hours); err != nil {
		h.logger.Error("failed to encode working hours", "tenant_id", tenantID, "error", err)
	}
}

// UpdateWorkingHours replaces the tenant's hours.
// PUT /admin/settings/working-hours
func (h *Handler) UpdateWorkingHours(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	var hours schedule.WorkingHours
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.SetWorkingHours(r.Context(), tenantID, hours); err != nil {
		h.logger.Warn("rejected working hours update", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "invalid working hours"}`, http.StatusBadRequest)
		return
	}
	h.logger.Info("working hours updated", "tenant_id", tenantID)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hours); err != nil {
		h.logger.Error("failed to encode working hours", "tenant_id", tenantID, "error", err)
	}
}
