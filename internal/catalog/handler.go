package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides HTTP endpoints for catalog management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a catalog HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with service CRUD routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{serviceID}", h.Get)
	r.Put("/{serviceID}", h.Update)
	r.Delete("/{serviceID}", h.Delete)
	return r
}

// upsertRequest carries the raw duration + unit pair; normalization to
// minutes happens here, before anything reaches the scheduling core.
type upsertRequest struct {
	Name              string      `json:"name"`
	Duration          int         `json:"duration"`
	DurationUnit      string      `json:"duration_unit,omitempty"` // minutes|hours
	PriceCents        int64       `json:"price_cents"`
	CommissionPercent float64     `json:"commission_percent"`
	ProfessionalIDs   []uuid.UUID `json:"professional_ids,omitempty"`
}

// List returns the tenant's service menu.
// GET /admin/services
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list services", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"services": list})
}

// Create adds a service to the menu.
// POST /admin/services
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error": "name required"}`, http.StatusBadRequest)
		return
	}
	minutes, err := NormalizeDuration(req.Duration, req.DurationUnit)
	if err != nil {
		http.Error(w, `{"error": "invalid duration"}`, http.StatusBadRequest)
		return
	}
	created, err := h.repo.Create(r.Context(), &Service{
		TenantID:          tenantID,
		Name:              req.Name,
		DurationMinutes:   minutes,
		PriceCents:        req.PriceCents,
		CommissionPercent: req.CommissionPercent,
		ProfessionalIDs:   req.ProfessionalIDs,
	})
	if err != nil {
		h.logger.Error("failed to create service", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("service created", "tenant_id", tenantID, "service_id", created.ID, "duration_minutes", created.DurationMinutes)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, created)
}

// Get returns one service.
// GET /admin/services/{serviceID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	s, err := h.repo.Get(r.Context(), tenantID, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get service", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, s)
}

// Update edits a service.
// PUT /admin/services/{serviceID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	existing, err := h.repo.Get(r.Context(), tenantID, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load service", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Duration != 0 {
		minutes, err := NormalizeDuration(req.Duration, req.DurationUnit)
		if err != nil {
			http.Error(w, `{"error": "invalid duration"}`, http.StatusBadRequest)
			return
		}
		existing.DurationMinutes = minutes
	}
	if req.PriceCents > 0 {
		existing.PriceCents = req.PriceCents
	}
	if req.CommissionPercent > 0 {
		existing.CommissionPercent = req.CommissionPercent
	}
	if req.ProfessionalIDs != nil {
		existing.ProfessionalIDs = req.ProfessionalIDs
	}
	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		h.logger.Error("failed to update service", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("service updated", "tenant_id", tenantID, "service_id", updated.ID)
	writeJSON(w, h.logger, updated)
}

// Delete removes a service.
// DELETE /admin/services/{serviceID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	err := h.repo.Delete(r.Context(), tenantID, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete service", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, `{"error": "invalid service id"}`, http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return tenantID, id, true
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
