// Package finance keeps a simple double-entry-free ledger of money in and
// out: service revenue, product sales, expenses and professional
// commissions. Completed bookings feed it their commission entries.
package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryRevenue    EntryKind = "revenue"
	EntryExpense    EntryKind = "expense"
	EntryCommission EntryKind = "commission"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryRevenue, EntryExpense, EntryCommission:
		return true
	}
	return false
}

// Entry is one ledger line. AmountCents is always positive; the kind
// decides which side of the summary it lands on.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Kind           EntryKind `json:"kind"`
	AmountCents    int64     `json:"amount_cents"`
	Description    string    `json:"description"`
	BookingID      uuid.UUID `json:"booking_id,omitempty"`
	ProfessionalID uuid.UUID `json:"professional_id,omitempty"`
	EntryDate      time.Time `json:"entry_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary aggregates a period. Net is revenue minus expenses and
// commissions.
type Summary struct {
	From             string `json:"from"`
	To               string `json:"to"`
	RevenueCents     int64  `json:"revenue_cents"`
	ExpenseCents     int64  `json:"expense_cents"`
	CommissionCents  int64  `json:"commission_cents"`
	NetCents         int64  `json:"net_cents"`
	CompletedEntries int    `json:"entries"`
}

var (
	// ErrInvalidEntry is returned for unknown kinds or non-positive amounts.
	ErrInvalidEntry = errors.New("finance: invalid entry")
	// ErrNotFound is returned when no entry matches the tenant-scoped id.
	ErrNotFound = errors.New("finance: entry not found")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for ledger entries.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("finance: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

const entryColumns = `id, tenant_id, kind, amount_cents, description, booking_id, professional_id, entry_date, created_at`

// Record appends a ledger entry dated today unless EntryDate is set.
func (r *Repository) Record(ctx context.Context, e *Entry) (*Entry, error) {
	if !e.Kind.Valid() || e.AmountCents <= 0 {
		return nil, ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, tenant_id, kind, amount_cents, description, booking_id, professional_id, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+entryColumns+`
	`, e.ID, e.TenantID, e.Kind, e.AmountCents, e.Description, nilUUID(e.BookingID), nilUUID(e.ProfessionalID), e.EntryDate)
	return scanEntry(row)
}

// RecordCommission books a professional's commission for a completed
// appointment. Idempotent per booking: the partial unique index on
// (tenant, booking, kind) swallows a replayed completion.
func (r *Repository) RecordCommission(ctx context.Context, tenantID string, bookingID, professionalID uuid.UUID, amountCents int64, description string) error {
	if amountCents <= 0 {
		return ErrInvalidEntry
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_entries (id, tenant_id, kind, amount_cents, description, booking_id, professional_id, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now()::date)
		ON CONFLICT (tenant_id, booking_id, kind) WHERE booking_id IS NOT NULL DO NOTHING
	`, uuid.New(), tenantID, EntryCommission, amountCents, description, bookingID, professionalID)
	if err != nil {
		return fmt.Errorf("finance: record commission: %w", err)
	}
	return nil
}

// List returns entries within [from, to], newest first.
func (r *Repository) List(ctx context.Context, tenantID string, from, to time.Time) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE tenant_id = $1 AND entry_date >= $2 AND entry_date <= $3
		ORDER BY entry_date DESC, created_at DESC
	`, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("finance: list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes an entry, for correcting data-entry mistakes.
func (r *Repository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("finance: delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Summarize aggregates the period per entry kind.
func (r *Repository) Summarize(ctx context.Context, tenantID string, from, to time.Time) (*Summary, error) {
	row := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'revenue'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'expense'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'commission'), 0),
			COUNT(*)
		FROM ledger_entries
		WHERE tenant_id = $1 AND entry_date >= $2 AND entry_date <= $3
	`, tenantID, from, to)

	s := Summary{From: from.Format(time.DateOnly), To: to.Format(time.DateOnly)}
	if err := row.Scan(&s.RevenueCents, &s.ExpenseCents, &s.CommissionCents, &s.CompletedEntries); err != nil {
		return nil, fmt.Errorf("finance: summarize: %w", err)
	}
	s.NetCents = s.RevenueCents - s.ExpenseCents - s.CommissionCents
	return &s, nil
}

func nilUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e              Entry
		bookingID      *uuid.UUID
		professionalID *uuid.UUID
	)
	if err := row.Scan(&e.ID, &e.TenantID, &e.Kind, &e.AmountCents, &e.Description, &bookingID, &professionalID, &e.EntryDate, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finance: scan entry: %w", err)
	}
	if bookingID != nil {
		e.BookingID = *bookingID
	}
	if professionalID != nil {
		e.ProfessionalID = *professionalID
	}
	return &e, nil
}
