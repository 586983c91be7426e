package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/velvetdesk/salon-api/internal/catalog"
	"github.com/velvetdesk/salon-api/internal/observability/metrics"
	"github.com/velvetdesk/salon-api/internal/professionals"
	"github.com/velvetdesk/salon-api/internal/schedule"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

var bookingsTracer = otel.Tracer("salon.internal.appointments")

// CatalogReader resolves services and their normalized durations.
type CatalogReader interface {
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*catalog.Service, error)
	EligibleForProfessional(ctx context.Context, serviceID, professionalID uuid.UUID) (bool, error)
}

// RosterReader resolves professionals.
type RosterReader interface {
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*professionals.Professional, error)
}

// HoursReader provides the tenant's working hours. The same reader feeds
// the write path and the slot grid so the two can never disagree.
type HoursReader interface {
	GetWorkingHours(ctx context.Context, tenantID string) (schedule.WorkingHours, error)
}

// CommissionRecorder books the professional's cut when an appointment
// completes. Failures are logged, never propagated: finance accounting is
// downstream of the state transition, not part of it.
type CommissionRecorder interface {
	RecordCommission(ctx context.Context, tenantID string, bookingID, professionalID uuid.UUID, amountCents int64, description string) error
}

// Service drives the booking state machine and the slot grid.
type Service struct {
	repo        *Repository
	catalog     CatalogReader
	roster      RosterReader
	hours       HoursReader
	finance     CommissionRecorder
	cache       *SlotCache
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	granularity int
	now         func() time.Time
}

// NewService constructs a bookings service.
func NewService(repo *Repository, cat CatalogReader, roster RosterReader, hours HoursReader, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:        repo,
		catalog:     cat,
		roster:      roster,
		hours:       hours,
		logger:      logger,
		granularity: 30,
		now:         time.Now,
	}
}

// WithCache attaches a slot grid cache.
func (s *Service) WithCache(cache *SlotCache) *Service {
	s.cache = cache
	return s
}

// WithMetrics attaches booking-flow metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// WithFinance attaches the commission recorder used on completion.
func (s *Service) WithFinance(f CommissionRecorder) *Service {
	s.finance = f
	return s
}

// WithGranularity overrides the default 30-minute booking grid.
func (s *Service) WithGranularity(minutes int) *Service {
	if minutes > 0 {
		s.granularity = minutes
	}
	return s
}

// WithClock overrides wall-clock time for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// ProposeRequest is a candidate booking from either the public flow
// (Confirmed=false, persists pending) or the admin flow (Confirmed=true).
type ProposeRequest struct {
	TenantID       string
	ProfessionalID uuid.UUID
	ServiceID      uuid.UUID
	Date           time.Time
	Time           string
	ClientName     string
	ClientPhone    string
	Confirmed      bool
}

// Propose validates the candidate and writes it against authoritative
// current state. ErrSlotConflict means another caller won the interval
// between the client's read and this write; the client should re-fetch
// slots and choose again.
func (s *Service) Propose(ctx context.Context, req ProposeRequest) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "appointments.propose")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.tenant_id", req.TenantID),
		attribute.String("salon.professional_id", req.ProfessionalID.String()),
		attribute.String("salon.service_id", req.ServiceID.String()),
	)

	startMin, err := schedule.ToMinutes(req.Time)
	if err != nil {
		s.observeProposal("rejected")
		return nil, err
	}

	svc, pro, err := s.resolve(ctx, req.TenantID, req.ServiceID, req.ProfessionalID)
	if err != nil {
		s.observeProposal("rejected")
		return nil, err
	}
	if !req.Confirmed && !pro.Status.Bookable() {
		s.observeProposal("rejected")
		return nil, fmt.Errorf("%w: professional %s is %s", ErrConfigurationMissing, pro.ID, pro.Status)
	}

	hours, err := s.hours.GetWorkingHours(ctx, req.TenantID)
	if err != nil {
		s.observeProposal("rejected")
		return nil, fmt.Errorf("%w: working hours: %v", ErrConfigurationMissing, err)
	}
	inside, err := hours.Contains(req.Date, startMin, svc.DurationMinutes)
	if err != nil {
		s.observeProposal("rejected")
		return nil, fmt.Errorf("%w: working hours: %v", ErrConfigurationMissing, err)
	}
	if !inside {
		s.observeProposal("rejected")
		return nil, ErrOutsideWorkingHours
	}

	status := StatusPending
	if req.Confirmed {
		status = StatusConfirmed
	}
	booking, err := s.repo.Propose(ctx, &Booking{
		TenantID:       req.TenantID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		StartTime:      req.Time,
		Status:         status,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
	}, svc.DurationMinutes)
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.observeProposal("conflict")
		} else {
			span.RecordError(err)
			s.observeProposal("rejected")
		}
		return nil, err
	}

	s.observeProposal("accepted")
	s.cache.InvalidateDay(ctx, req.TenantID, req.ProfessionalID, req.Date)
	s.logger.Info("booking proposed",
		"tenant_id", req.TenantID,
		"booking_id", booking.ID,
		"professional_id", req.ProfessionalID,
		"date", req.Date.Format(time.DateOnly),
		"time", req.Time,
		"status", booking.Status,
	)
	return booking, nil
}

// Reschedule moves a live booking to a new slot, excluding its own prior
// interval from the conflict check.
func (s *Service) Reschedule(ctx context.Context, tenantID string, id uuid.UUID, date time.Time, startTime string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()

	startMin, err := schedule.ToMinutes(startTime)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.Get(ctx, tenantID, current.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: service %s", ErrConfigurationMissing, current.ServiceID)
	}

	hours, err := s.hours.GetWorkingHours(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: working hours: %v", ErrConfigurationMissing, err)
	}
	inside, err := hours.Contains(date, startMin, svc.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: working hours: %v", ErrConfigurationMissing, err)
	}
	if !inside {
		return nil, ErrOutsideWorkingHours
	}

	updated, err := s.repo.Reschedule(ctx, tenantID, id, date, startTime, svc.DurationMinutes)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.InvalidateDay(ctx, tenantID, current.ProfessionalID, current.Date)
	s.cache.InvalidateDay(ctx, tenantID, current.ProfessionalID, date)
	s.logger.Info("booking rescheduled", "tenant_id", tenantID, "booking_id", id, "date", date.Format(time.DateOnly), "time", startTime)
	return updated, nil
}

// Confirm transitions pending → confirmed. The slot was already reserved at
// propose time, so no conflict re-check is needed.
func (s *Service) Confirm(ctx context.Context, tenantID string, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, tenantID, id, StatusConfirmed, "")
}

// Cancel transitions any live booking to cancelled, freeing its interval.
func (s *Service) Cancel(ctx context.Context, tenantID string, id uuid.UUID) (*Booking, error) {
	return s.transition(ctx, tenantID, id, StatusCancelled, "")
}

// Complete transitions confirmed → completed and records the commission
// ledger entry for downstream finance accounting.
func (s *Service) Complete(ctx context.Context, tenantID string, id uuid.UUID, completedBy string) (*Booking, error) {
	booking, err := s.transition(ctx, tenantID, id, StatusCompleted, completedBy)
	if err != nil {
		return nil, err
	}
	if s.finance != nil {
		if err := s.recordCommission(ctx, booking); err != nil {
			// Commission accounting is downstream of the transition and
			// must never undo it.
			s.logger.Error("commission record failed", "tenant_id", tenantID, "booking_id", id, "error", err)
		}
	}
	return booking, nil
}

func (s *Service) transition(ctx context.Context, tenantID string, id uuid.UUID, to Status, completedBy string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "appointments.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.tenant_id", tenantID),
		attribute.String("salon.booking_id", id.String()),
		attribute.String("salon.to_status", string(to)),
	)

	booking, err := s.repo.Transition(ctx, tenantID, id, to, completedBy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveTransition(string(to))
	if to == StatusCancelled {
		s.cache.InvalidateDay(ctx, tenantID, booking.ProfessionalID, booking.Date)
	}
	s.logger.Info("booking transitioned", "tenant_id", tenantID, "booking_id", id, "status", to)
	return booking, nil
}

// AvailableSlots computes the advisory slot grid offered to clients. The
// grid may be briefly stale (cache TTL); Propose re-validates against
// current state before any write.
func (s *Service) AvailableSlots(ctx context.Context, tenantID string, professionalID, serviceID uuid.UUID, date time.Time) ([]string, error) {
	ctx, span := bookingsTracer.Start(ctx, "appointments.available_slots")
	defer span.End()

	started := s.now()

	svc, pro, err := s.resolve(ctx, tenantID, serviceID, professionalID)
	if err != nil {
		return nil, err
	}
	if !pro.Status.Bookable() {
		return []string{}, nil
	}

	if cached, ok := s.cache.Get(ctx, tenantID, professionalID, serviceID, date, s.granularity); ok {
		return cached, nil
	}

	hours, err := s.hours.GetWorkingHours(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: working hours: %v", ErrConfigurationMissing, err)
	}
	existing, err := s.repo.FetchDay(ctx, tenantID, professionalID, date)
	if err != nil {
		return nil, err
	}
	slots, err := schedule.GenerateSlots(date, svc.DurationMinutes, s.granularity, hours, existing, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationMissing, err)
	}
	if slots == nil {
		slots = []string{}
	}

	s.cache.Set(ctx, tenantID, professionalID, serviceID, date, s.granularity, slots)
	s.metrics.ObserveSlotLatency(s.now().Sub(started).Seconds())
	return slots, nil
}

// ListDay returns the professional's bookings for a date, any status.
func (s *Service) ListDay(ctx context.Context, tenantID string, professionalID uuid.UUID, date time.Time) ([]Booking, error) {
	return s.repo.ListDay(ctx, tenantID, professionalID, date)
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, tenantID string, id uuid.UUID) (*Booking, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) resolve(ctx context.Context, tenantID string, serviceID, professionalID uuid.UUID) (*catalog.Service, *professionals.Professional, error) {
	svc, err := s.catalog.Get(ctx, tenantID, serviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: service %s", ErrConfigurationMissing, serviceID)
	}
	pro, err := s.roster.Get(ctx, tenantID, professionalID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: professional %s", ErrConfigurationMissing, professionalID)
	}
	eligible, err := s.catalog.EligibleForProfessional(ctx, serviceID, professionalID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: eligibility: %v", ErrConfigurationMissing, err)
	}
	if !eligible {
		return nil, nil, fmt.Errorf("%w: professional %s does not perform service %s", ErrConfigurationMissing, professionalID, serviceID)
	}
	return svc, pro, nil
}

func (s *Service) recordCommission(ctx context.Context, b *Booking) error {
	svc, err := s.catalog.Get(ctx, b.TenantID, b.ServiceID)
	if err != nil {
		return fmt.Errorf("appointments: commission service lookup: %w", err)
	}
	amount := int64(float64(svc.PriceCents) * svc.CommissionPercent / 100)
	if amount <= 0 {
		return nil
	}
	desc := fmt.Sprintf("commission %s %s %s", svc.Name, b.Date.Format(time.DateOnly), b.StartTime)
	return s.finance.RecordCommission(ctx, b.TenantID, b.ID, b.ProfessionalID, amount, desc)
}

func (s *Service) observeProposal(outcome string) {
	s.metrics.ObserveProposal(outcome)
}
