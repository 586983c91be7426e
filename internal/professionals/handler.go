package professionals

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides HTTP endpoints for roster management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a roster HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with professional CRUD routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{professionalID}", h.Get)
	r.Put("/{professionalID}", h.Update)
	r.Delete("/{professionalID}", h.Delete)
	return r
}

type upsertRequest struct {
	Name          string `json:"name"`
	Status        Status `json:"status,omitempty"`
	DailyCapacity int    `json:"daily_capacity,omitempty"`
}

// List returns the tenant's roster.
// GET /admin/professionals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list professionals", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"professionals": list})
}

// Create adds a professional to the roster.
// POST /admin/professionals
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
	if req.Status != "" && !req.Status.Valid() {
		http.Error(w, `{"error": "unknown status"}`, http.StatusBadRequest)
		return
	}
	created, err := h.repo.Create(r.Context(), &Professional{
		TenantID:      tenantID,
		Name:          req.Name,
		Status:        req.Status,
		DailyCapacity: req.DailyCapacity,
	})
	if err != nil {
		h.logger.Error("failed to create professional", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("professional created", "tenant_id", tenantID, "professional_id", created.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, created)
}

// Get returns one professional.
// GET /admin/professionals/{professionalID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	p, err := h.repo.Get(r.Context(), tenantID, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get professional", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, p)
}

// Update edits name, status or capacity.
// PUT /admin/professionals/{professionalID}
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
		h.logger.Error("failed to load professional", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			http.Error(w, `{"error": "unknown status"}`, http.StatusBadRequest)
			return
		}
		existing.Status = req.Status
	}
	if req.DailyCapacity > 0 {
		existing.DailyCapacity = req.DailyCapacity
	}
	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		h.logger.Error("failed to update professional", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("professional updated", "tenant_id", tenantID, "professional_id", updated.ID, "status", updated.Status)
	writeJSON(w, h.logger, updated)
}

// Delete removes a professional.
// DELETE /admin/professionals/{professionalID}
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
		h.logger.Error("failed to delete professional", "tenant_id", tenantID, "error", err)
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
	id, err := uuid.Parse(chi.URLParam(r, "professionalID"))
	if err != nil {
		http.Error(w, `{"error": "invalid professional id"}`, http.StatusBadRequest)
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
