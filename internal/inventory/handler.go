package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides HTTP endpoints for stock management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates an inventory HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with product and movement routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/low-stock", h.LowStock)
	r.Get("/{productID}", h.Get)
	r.Put("/{productID}", h.Update)
	r.Delete("/{productID}", h.Delete)
	r.Get("/{productID}/movements", h.Movements)
	r.Post("/{productID}/movements", h.Record)
	return r
}

type productRequest struct {
	Name          string `json:"name"`
	SKU           string `json:"sku,omitempty"`
	PriceCents    int64  `json:"price_cents"`
	LowStockLevel int    `json:"low_stock_level"`
}

type movementRequest struct {
	Kind     MovementKind `json:"kind"`
	Quantity int          `json:"quantity"`
	Note     string       `json:"note,omitempty"`
}

// List returns the tenant's products with current stock levels.
// GET /admin/products
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list products", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"products": list})
}

// LowStock returns products at or below their restock threshold.
// GET /admin/products/low-stock
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	list, err := h.repo.LowStock(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list low stock", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"products": list})
}

// Create adds a product.
// POST /admin/products
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error": "name required"}`, http.StatusBadRequest)
		return
	}
	created, err := h.repo.Create(r.Context(), &Product{
		TenantID:      tenantID,
		Name:          req.Name,
		SKU:           req.SKU,
		PriceCents:    req.PriceCents,
		LowStockLevel: req.LowStockLevel,
	})
	if err != nil {
		h.logger.Error("failed to create product", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("product created", "tenant_id", tenantID, "product_id", created.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, created)
}

// Get returns one product.
// GET /admin/products/{productID}
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
		h.logger.Error("failed to get product", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, p)
}

// Update edits product attributes.
// PUT /admin/products/{productID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req productRequest
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
		h.logger.Error("failed to load product", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.SKU != "" {
		existing.SKU = req.SKU
	}
	if req.PriceCents > 0 {
		existing.PriceCents = req.PriceCents
	}
	if req.LowStockLevel > 0 {
		existing.LowStockLevel = req.LowStockLevel
	}
	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		h.logger.Error("failed to update product", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, updated)
}

// Delete removes a product.
// DELETE /admin/products/{productID}
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
		h.logger.Error("failed to delete product", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Record appends a stock movement.
// POST /admin/products/{productID}/movements
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	stored, err := h.repo.Record(r.Context(), &Movement{
		TenantID:  tenantID,
		ProductID: id,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if errors.Is(err, ErrInvalidMovement) {
		http.Error(w, `{"error": "invalid movement"}`, http.StatusBadRequest)
		return
	}
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to record movement", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("stock movement recorded", "tenant_id", tenantID, "product_id", id, "kind", stored.Kind, "quantity", stored.Quantity)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, stored)
}

// Movements returns a product's movement history.
// GET /admin/products/{productID}/movements
func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	list, err := h.repo.Movements(r.Context(), tenantID, id)
	if err != nil {
		h.logger.Error("failed to list movements", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"movements": list})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		http.Error(w, `{"error": "invalid product id"}`, http.StatusBadRequest)
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
