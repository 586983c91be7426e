package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velvetdesk/salon-api/internal/events"
	"github.com/velvetdesk/salon-api/internal/schedule"
)

const pgUniqueViolation = "23505"

type dbConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryer is the subset shared by the pool and an open transaction, so day
// fetches can run both standalone (slot grid) and inside the propose
// critical section.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository provides persistence for bookings. All writes that depend on
// the day's existing bookings run inside a transaction holding a
// per-(tenant, professional, date) advisory lock, so two concurrent
// proposals for overlapping intervals can never both commit.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `id, tenant_id, professional_id, service_id, date, start_time, status, client_name, client_phone, completed_at, completed_by, created_at, updated_at`

// FetchDay returns every booking interval for the professional on the given
// calendar date, any status, with durations resolved from the service
// catalog. This is the read used by both the advisory slot grid and the
// authoritative in-transaction conflict check.
func (r *Repository) FetchDay(ctx context.Context, tenantID string, professionalID uuid.UUID, date time.Time) ([]schedule.BookingInterval, error) {
	return fetchDay(ctx, r.db, tenantID, professionalID, date)
}

func fetchDay(ctx context.Context, q queryer, tenantID string, professionalID uuid.UUID, date time.Time) ([]schedule.BookingInterval, error) {
	rows, err := q.Query(ctx, `
		SELECT a.id, a.start_time, s.duration_minutes, a.status
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.tenant_id = $1 AND a.professional_id = $2 AND a.date = $3
		ORDER BY a.start_time
	`, tenantID, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: fetch day: %w", err)
	}
	defer rows.Close()

	var intervals []schedule.BookingInterval
	for rows.Next() {
		var (
			id        uuid.UUID
			startTime string
			duration  int
			status    string
		)
		if err := rows.Scan(&id, &startTime, &duration, &status); err != nil {
			return nil, fmt.Errorf("appointments: scan day: %w", err)
		}
		startMin, err := schedule.ToMinutes(startTime)
		if err != nil {
			return nil, fmt.Errorf("appointments: stored time %q: %w", startTime, err)
		}
		intervals = append(intervals, schedule.BookingInterval{
			ID:              id,
			StartMinutes:    startMin,
			DurationMinutes: duration,
			Status:          status,
		})
	}
	return intervals, rows.Err()
}

// Propose inserts a booking after re-validating the candidate interval
// against current state inside the critical section. The partial unique
// index on (tenant, professional, date, start_time) backs up the advisory
// lock for exact-start collisions; both paths surface ErrSlotConflict.
func (r *Repository) Propose(ctx context.Context, b *Booking, durationMin int) (*Booking, error) {
	startMin, err := schedule.ToMinutes(b.StartTime)
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin propose: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockDay(ctx, tx, b.TenantID, b.ProfessionalID, b.Date); err != nil {
		return nil, err
	}

	intervals, err := fetchDay(ctx, tx, b.TenantID, b.ProfessionalID, b.Date)
	if err != nil {
		return nil, err
	}
	candidate := schedule.Candidate{StartMinutes: startMin, DurationMinutes: durationMin}
	if schedule.HasConflict(candidate, intervals) {
		return nil, ErrSlotConflict
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, tenant_id, professional_id, service_id, date, start_time, status, client_name, client_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+bookingColumns+`
	`, b.ID, b.TenantID, b.ProfessionalID, b.ServiceID, b.Date, b.StartTime, b.Status, b.ClientName, b.ClientPhone)
	stored, err := scanBooking(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	// Admin-created bookings start out confirmed; the notification event
	// rides the same transaction as the insert.
	if stored.Status == StatusConfirmed {
		if _, err := events.InsertTx(ctx, tx, stored.TenantID, events.TypeBookingConfirmed, confirmedEvent(stored)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit propose: %w", err)
	}
	return stored, nil
}

// Reschedule moves an existing booking to a new date/time, excluding the
// booking's own interval from the conflict check so an edit never
// self-conflicts.
func (r *Repository) Reschedule(ctx context.Context, tenantID string, id uuid.UUID, date time.Time, startTime string, durationMin int) (*Booking, error) {
	startMin, err := schedule.ToMinutes(startTime)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := getForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled || current.Status == StatusCompleted {
		return nil, ErrInvalidTransition
	}

	if err := lockDay(ctx, tx, tenantID, current.ProfessionalID, date); err != nil {
		return nil, err
	}
	intervals, err := fetchDay(ctx, tx, tenantID, current.ProfessionalID, date)
	if err != nil {
		return nil, err
	}
	candidate := schedule.Candidate{StartMinutes: startMin, DurationMinutes: durationMin, ExcludeID: id}
	if schedule.HasConflict(candidate, intervals) {
		return nil, ErrSlotConflict
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET date = $3, start_time = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+bookingColumns+`
	`, id, tenantID, date, startTime)
	updated, err := scanBooking(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit reschedule: %w", err)
	}
	return updated, nil
}

// Transition moves a booking to the target status, enforcing the state
// machine under a row lock. Confirm and cancel enqueue their notification
// events in the same transaction.
func (r *Repository) Transition(ctx context.Context, tenantID string, id uuid.UUID, to Status, completedBy string) (*Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := getForUpdate(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current.Status, to)
	}

	var row pgx.Row
	if to == StatusCompleted {
		row = tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3, completed_at = now(), completed_by = $4, updated_at = now()
			WHERE id = $1 AND tenant_id = $2
			RETURNING `+bookingColumns+`
		`, id, tenantID, to, completedBy)
	} else {
		row = tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3, updated_at = now()
			WHERE id = $1 AND tenant_id = $2
			RETURNING `+bookingColumns+`
		`, id, tenantID, to)
	}
	updated, err := scanBooking(row)
	if err != nil {
		return nil, err
	}

	switch to {
	case StatusConfirmed:
		if _, err := events.InsertTx(ctx, tx, updated.TenantID, events.TypeBookingConfirmed, confirmedEvent(updated)); err != nil {
			return nil, err
		}
	case StatusCancelled:
		if _, err := events.InsertTx(ctx, tx, updated.TenantID, events.TypeBookingCancelled, cancelledEvent(updated)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit transition: %w", err)
	}
	return updated, nil
}

// Get returns a booking scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListDay returns the professional's bookings for a date, any status,
// ordered by start time.
func (r *Repository) ListDay(ctx context.Context, tenantID string, professionalID uuid.UUID, date time.Time) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM appointments
		WHERE tenant_id = $1 AND professional_id = $2 AND date = $3
		ORDER BY start_time
	`, tenantID, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list day: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBookingRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func lockDay(ctx context.Context, tx pgx.Tx, tenantID string, professionalID uuid.UUID, date time.Time) error {
	key := fmt.Sprintf("%s|%s|%s", tenantID, professionalID, date.Format(time.DateOnly))
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("appointments: acquire day lock: %w", err)
	}
	return nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, id uuid.UUID) (*Booking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM appointments
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, id, tenantID)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func confirmedEvent(b *Booking) events.BookingConfirmedV1 {
	return events.BookingConfirmedV1{
		EventID:        uuid.NewString(),
		TenantID:       b.TenantID,
		BookingID:      b.ID.String(),
		ProfessionalID: b.ProfessionalID.String(),
		ServiceID:      b.ServiceID.String(),
		Date:           b.Date.Format(time.DateOnly),
		Time:           b.StartTime,
		ClientName:     b.ClientName,
		ClientPhone:    b.ClientPhone,
		ConfirmedAt:    time.Now().UTC(),
	}
}

func cancelledEvent(b *Booking) events.BookingCancelledV1 {
	return events.BookingCancelledV1{
		EventID:        uuid.NewString(),
		TenantID:       b.TenantID,
		BookingID:      b.ID.String(),
		ProfessionalID: b.ProfessionalID.String(),
		Date:           b.Date.Format(time.DateOnly),
		Time:           b.StartTime,
		ClientName:     b.ClientName,
		ClientPhone:    b.ClientPhone,
		CancelledAt:    time.Now().UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.TenantID, &b.ProfessionalID, &b.ServiceID, &b.Date, &b.StartTime, &b.Status, &b.ClientName, &b.ClientPhone, &b.CompletedAt, &b.CompletedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookingRows(rows pgx.Rows) (*Booking, error) {
	var b Booking
	if err := rows.Scan(&b.ID, &b.TenantID, &b.ProfessionalID, &b.ServiceID, &b.Date, &b.StartTime, &b.Status, &b.ClientName, &b.ClientPhone, &b.CompletedAt, &b.CompletedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: scan booking: %w", err)
	}
	return &b, nil
}
