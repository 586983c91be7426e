package finance

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides HTTP endpoints for the ledger.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a finance HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with ledger routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Record)
	r.Get("/summary", h.Summary)
	r.Delete("/{entryID}", h.Delete)
	return r
}

type entryRequest struct {
	Kind        EntryKind `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	EntryDate   string    `json:"entry_date,omitempty"`
}

// List returns entries for a period, defaulting to the current month.
// GET /admin/finance?from=&to=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	from, to, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, `{"error": "invalid period, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	list, err := h.repo.List(r.Context(), tenantID, from, to)
	if err != nil {
		h.logger.Error("failed to list ledger entries", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"entries": list})
}

// Record appends a manual ledger entry.
// POST /admin/finance
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	entry := &Entry{
		TenantID:    tenantID,
		Kind:        req.Kind,
		AmountCents: req.AmountCents,
		Description: req.Description,
	}
	if req.EntryDate != "" {
		date, err := time.Parse(time.DateOnly, req.EntryDate)
		if err != nil {
			http.Error(w, `{"error": "invalid entry_date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		entry.EntryDate = date
	}
	stored, err := h.repo.Record(r.Context(), entry)
	if errors.Is(err, ErrInvalidEntry) {
		http.Error(w, `{"error": "invalid entry"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("failed to record ledger entry", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("ledger entry recorded", "tenant_id", tenantID, "entry_id", stored.ID, "kind", stored.Kind)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, stored)
}

// Summary aggregates the period per entry kind.
// GET /admin/finance/summary?from=&to=
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	from, to, err := periodFromQuery(r)
	if err != nil {
		http.Error(w, `{"error": "invalid period, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	summary, err := h.repo.Summarize(r.Context(), tenantID, from, to)
	if err != nil {
		h.logger.Error("failed to summarize ledger", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, summary)
}

// Delete removes an entry.
// DELETE /admin/finance/{entryID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		http.Error(w, `{"error": "invalid entry id"}`, http.StatusBadRequest)
		return
	}
	err = h.repo.Delete(r.Context(), tenantID, id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete ledger entry", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func periodFromQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
