package appointments

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/velvetdesk/salon-api/internal/catalog"
	"github.com/velvetdesk/salon-api/internal/professionals"
	"github.com/velvetdesk/salon-api/internal/schedule"
)

type stubCatalog struct {
	svc      *catalog.Service
	err      error
	eligible bool
}

func (s *stubCatalog) Get(ctx context.Context, tenantID string, id uuid.UUID) (*catalog.Service, error) {
	return s.svc, s.err
}

func (s *stubCatalog) EligibleForProfessional(ctx context.Context, serviceID, professionalID uuid.UUID) (bool, error) {
	return s.eligible, nil
}

type stubRoster struct {
	pro *professionals.Professional
	err error
}

func (s *stubRoster) Get(ctx context.Context, tenantID string, id uuid.UUID) (*professionals.Professional, error) {
	return s.pro, s.err
}

type stubHours struct {
	hours schedule.WorkingHours
	err   error
}

func (s *stubHours) GetWorkingHours(ctx context.Context, tenantID string) (schedule.WorkingHours, error) {
	return s.hours, s.err
}

type recordedCommission struct {
	bookingID   uuid.UUID
	amountCents int64
}

type stubFinance struct {
	recorded []recordedCommission
	err      error
}

func (s *stubFinance) RecordCommission(ctx context.Context, tenantID string, bookingID, professionalID uuid.UUID, amountCents int64, description string) error {
	s.recorded = append(s.recorded, recordedCommission{bookingID: bookingID, amountCents: amountCents})
	return s.err
}

func fixtures() (*stubCatalog, *stubRoster, *stubHours) {
	cat := &stubCatalog{
		svc: &catalog.Service{
			ID:                uuid.New(),
			Name:              "Haircut",
			DurationMinutes:   30,
			PriceCents:        10000,
			CommissionPercent: 40,
		},
		eligible: true,
	}
	roster := &stubRoster{
		pro: &professionals.Professional{ID: uuid.New(), Name: "Bia", Status: professionals.StatusActive},
	}
	hours := &stubHours{hours: schedule.DefaultWorkingHours()}
	return cat, roster, hours
}

func newServiceForTest(t *testing.T) (*Service, pgxmock.PgxPoolIface, *stubCatalog, *stubRoster, *stubHours) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)

	cat, roster, hours := fixtures()
	svc := NewService(NewRepositoryWithConn(mock), cat, roster, hours, nil).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return svc, mock, cat, roster, hours
}

func TestProposeRejectsMalformedTime(t *testing.T) {
	svc, _, _, _, _ := newServiceForTest(t)

	_, err := svc.Propose(context.Background(), ProposeRequest{
		TenantID:       "tenant-1",
		ProfessionalID: uuid.New(),
		ServiceID:      uuid.New(),
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:           "9:00",
		ClientName:     "Ana",
	})
	if !errors.Is(err, schedule.ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
}

func TestProposeRejectsOutsideWorkingHours(t *testing.T) {
	svc, _, _, _, _ := newServiceForTest(t)

	// Weekday closes at 18:00; a 30-minute booking at 17:45 spills past it.
	_, err := svc.Propose(context.Background(), ProposeRequest{
		TenantID:       "tenant-1",
		ProfessionalID: uuid.New(),
		ServiceID:      uuid.New(),
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:           "17:45",
		ClientName:     "Ana",
	})
	if !errors.Is(err, ErrOutsideWorkingHours) {
		t.Fatalf("expected ErrOutsideWorkingHours, got %v", err)
	}
}

func TestProposeMissingServiceFailsClosed(t *testing.T) {
	svc, _, cat, _, _ := newServiceForTest(t)
	cat.svc = nil
	cat.err = catalog.ErrNotFound

	_, err := svc.Propose(context.Background(), ProposeRequest{
		TenantID:       "tenant-1",
		ProfessionalID: uuid.New(),
		ServiceID:      uuid.New(),
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:           "10:00",
		ClientName:     "Ana",
	})
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestProposeRejectsIneligibleProfessional(t *testing.T) {
	svc, _, cat, _, _ := newServiceForTest(t)
	cat.eligible = false

	_, err := svc.Propose(context.Background(), ProposeRequest{
		TenantID:       "tenant-1",
		ProfessionalID: uuid.New(),
		ServiceID:      uuid.New(),
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:           "10:00",
		ClientName:     "Ana",
	})
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestProposeRejectsNonBookableProfessional(t *testing.T) {
	svc, _, _, roster, _ := newServiceForTest(t)
	roster.pro.Status = professionals.StatusVacation

	_, err := svc.Propose(context.Background(), ProposeRequest{
		TenantID:       "tenant-1",
		ProfessionalID: roster.pro.ID,
		ServiceID:      uuid.New(),
		Date:           time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:           "10:00",
		ClientName:     "Ana",
	})
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestAvailableSlotsFullWeekday(t *testing.T) {
	svc, mock, _, roster, _ := newServiceForTest(t)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT a.id, a.start_time").
		WithArgs("tenant-1", roster.pro.ID, date).
		WillReturnRows(pgxmock.NewRows([]string{"id", "start_time", "duration_minutes", "status"}))

	slots, err := svc.AvailableSlots(context.Background(), "tenant-1", roster.pro.ID, uuid.New(), date)
	if err != nil {
		t.Fatalf("available slots failed: %v", err)
	}
	// 08:00 through 17:30 on the half-hour grid.
	if len(slots) != 20 {
		t.Fatalf("got %d slots, want 20: %v", len(slots), slots)
	}
	if slots[0] != "08:00" || slots[len(slots)-1] != "17:30" {
		t.Fatalf("unexpected boundary slots: %v", slots)
	}
}

func TestAvailableSlotsExcludesBookedIntervals(t *testing.T) {
	svc, mock, _, roster, _ := newServiceForTest(t)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT a.id, a.start_time").
		WithArgs("tenant-1", roster.pro.ID, date).
		WillReturnRows(pgxmock.NewRows([]string{"id", "start_time", "duration_minutes", "status"}).
			AddRow(uuid.New(), "10:00", 30, "confirmed"))

	slots, err := svc.AvailableSlots(context.Background(), "tenant-1", roster.pro.ID, uuid.New(), date)
	if err != nil {
		t.Fatalf("available slots failed: %v", err)
	}
	if len(slots) != 19 {
		t.Fatalf("got %d slots, want 19: %v", len(slots), slots)
	}
	for _, s := range slots {
		if s == "10:00" {
			t.Fatal("booked slot offered")
		}
	}
}

func TestAvailableSlotsEmptyForNonBookableProfessional(t *testing.T) {
	svc, _, _, roster, _ := newServiceForTest(t)
	roster.pro.Status = professionals.StatusLeave

	slots, err := svc.AvailableSlots(context.Background(), "tenant-1", roster.pro.ID, uuid.New(), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("available slots failed: %v", err)
	}
	if !reflect.DeepEqual(slots, []string{}) {
		t.Fatalf("expected empty grid, got %v", slots)
	}
}

func TestCompleteRecordsCommission(t *testing.T) {
	svc, mock, _, _, _ := newServiceForTest(t)
	finance := &stubFinance{}
	svc.WithFinance(finance)

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(id, "tenant-1").
		WillReturnRows(bookingRow(id, StatusConfirmed, date, "10:00"))
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, "tenant-1", StatusCompleted, "reception").
		WillReturnRows(bookingRow(id, StatusCompleted, date, "10:00"))
	mock.ExpectCommit()

	booking, err := svc.Complete(context.Background(), "tenant-1", id, "reception")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if booking.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", booking.Status)
	}
	if len(finance.recorded) != 1 {
		t.Fatalf("commission recorded %d times, want 1", len(finance.recorded))
	}
	// 40% of R$100.00.
	if finance.recorded[0].amountCents != 4000 {
		t.Fatalf("commission = %d cents, want 4000", finance.recorded[0].amountCents)
	}
}

func TestCompleteCommissionFailureDoesNotUndoTransition(t *testing.T) {
	svc, mock, _, _, _ := newServiceForTest(t)
	finance := &stubFinance{err: errors.New("ledger down")}
	svc.WithFinance(finance)

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(id, "tenant-1").
		WillReturnRows(bookingRow(id, StatusConfirmed, date, "10:00"))
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, "tenant-1", StatusCompleted, "").
		WillReturnRows(bookingRow(id, StatusCompleted, date, "10:00"))
	mock.ExpectCommit()

	booking, err := svc.Complete(context.Background(), "tenant-1", id, "")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if booking.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", booking.Status)
	}
}
