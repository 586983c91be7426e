package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetdesk/salon-api/internal/schedule"
	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// Handler provides the public booking endpoints and the admin agenda.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a bookings HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// PublicRoutes returns the client-facing routes: slot discovery and
// proposing a pending booking.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/slots", h.Slots)
	r.Post("/", h.Propose)
	return r
}

// AdminRoutes returns the agenda and lifecycle routes.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDay)
	r.Post("/", h.AdminCreate)
	r.Get("/{bookingID}", h.Get)
	r.Post("/{bookingID}/confirm", h.Confirm)
	r.Post("/{bookingID}/cancel", h.Cancel)
	r.Post("/{bookingID}/complete", h.Complete)
	r.Post("/{bookingID}/reschedule", h.Reschedule)
	return r
}

type proposeRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	ServiceID      uuid.UUID `json:"service_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Slots returns the advisory slot grid for a professional, service and date.
// GET /bookings/slots?professional_id=&service_id=&date=
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	professionalID, err := uuid.Parse(r.URL.Query().Get("professional_id"))
	if err != nil {
		http.Error(w, `{"error": "invalid professional_id"}`, http.StatusBadRequest)
		return
	}
	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		http.Error(w, `{"error": "invalid service_id"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), tenantID, professionalID, serviceID, date)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to compute slots", err)
		return
	}
	writeJSON(w, h.logger, map[string]any{
		"date":  date.Format(time.DateOnly),
		"slots": slots,
	})
}

// Propose creates a pending booking for the public flow.
// POST /bookings
func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	h.propose(w, r, false)
}

// AdminCreate creates a confirmed booking directly, for walk-ins and
// phone bookings taken at the desk.
// POST /admin/bookings
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	h.propose(w, r, true)
}

func (h *Handler) propose(w http.ResponseWriter, r *http.Request, confirmed bool) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.ProfessionalID == uuid.Nil || req.ServiceID == uuid.Nil {
		http.Error(w, `{"error": "professional_id and service_id required"}`, http.StatusBadRequest)
		return
	}
	if req.ClientName == "" {
		http.Error(w, `{"error": "client_name required"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.service.Propose(r.Context(), ProposeRequest{
		TenantID:       tenantID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		Date:           date,
		Time:           req.Time,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		Confirmed:      confirmed,
	})
	if err != nil {
		h.writeError(w, r, tenantID, "failed to propose booking", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.logger, booking)
}

// ListDay returns the professional's agenda for one date, any status.
// GET /admin/bookings?professional_id=&date=
func (h *Handler) ListDay(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}
	professionalID, err := uuid.Parse(r.URL.Query().Get("professional_id"))
	if err != nil {
		http.Error(w, `{"error": "invalid professional_id"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	list, err := h.service.ListDay(r.Context(), tenantID, professionalID, date)
	if err != nil {
		h.logger.Error("failed to list bookings", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, map[string]any{"bookings": list})
}

// Get returns one booking.
// GET /admin/bookings/{bookingID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	booking, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to get booking", err)
		return
	}
	writeJSON(w, h.logger, booking)
}

// Confirm transitions a pending booking to confirmed.
// POST /admin/bookings/{bookingID}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	booking, err := h.service.Confirm(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to confirm booking", err)
		return
	}
	writeJSON(w, h.logger, booking)
}

// Cancel transitions a live booking to cancelled.
// POST /admin/bookings/{bookingID}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	booking, err := h.service.Cancel(r.Context(), tenantID, id)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to cancel booking", err)
		return
	}
	writeJSON(w, h.logger, booking)
}

// Complete transitions a confirmed booking to completed and records the
// professional's commission.
// POST /admin/bookings/{bookingID}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var body struct {
		CompletedBy string `json:"completed_by"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
			return
		}
	}
	booking, err := h.service.Complete(r.Context(), tenantID, id, body.CompletedBy)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to complete booking", err)
		return
	}
	writeJSON(w, h.logger, booking)
}

// Reschedule moves a live booking to a new date and time.
// POST /admin/bookings/{bookingID}/reschedule
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, `{"error": "invalid date, expected YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	booking, err := h.service.Reschedule(r.Context(), tenantID, id, date, req.Time)
	if err != nil {
		h.writeError(w, r, tenantID, "failed to reschedule booking", err)
		return
	}
	writeJSON(w, h.logger, booking)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error": "invalid booking id"}`, http.StatusBadRequest)
		return "", uuid.Nil, false
	}
	return tenantID, id, true
}

// writeError maps the booking error taxonomy onto HTTP statuses. Slot
// conflicts and transition races are 409 so clients retry with fresh
// state instead of treating them as hard failures.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, tenantID, msg string, err error) {
	switch {
	case errors.Is(err, ErrSlotConflict):
		http.Error(w, `{"error": "slot no longer available"}`, http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, `{"error": "invalid status transition"}`, http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	case errors.Is(err, schedule.ErrInvalidTimeFormat):
		http.Error(w, `{"error": "invalid time, expected HH:MM"}`, http.StatusBadRequest)
	case errors.Is(err, ErrOutsideWorkingHours):
		http.Error(w, `{"error": "outside working hours"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrConfigurationMissing):
		http.Error(w, `{"error": "booking configuration missing"}`, http.StatusUnprocessableEntity)
	default:
		h.logger.Error(msg, "tenant_id", tenantID, "path", r.URL.Path, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Warn(msg, "tenant_id", tenantID, "path", r.URL.Path, "error", err)
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
