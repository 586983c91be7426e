// Package professionals manages the staff roster: who can be booked,
// their visibility status and advisory daily capacity.
package professionals

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

// Status gates visibility in slot generation. Historical bookings are kept
// regardless of status.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusVacation Status = "vacation"
	StatusLeave    Status = "leave"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusVacation, StatusLeave:
		return true
	}
	return false
}

// Bookable reports whether the professional may be offered in new slot grids.
func (s Status) Bookable() bool { return s == StatusActive }

// Professional is a bookable member of staff.
type Professional struct {
	ID       uuid.UUID `json:"id"`
	TenantID string    `json:"tenant_id"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	// DailyCapacity is a soft cap surfaced to the dashboard; the conflict
	// detector does not enforce it.
	DailyCapacity int       `json:"daily_capacity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ErrNotFound is returned when no professional matches the tenant-scoped id.
var ErrNotFound = errors.New("professionals: not found")

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for professionals.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("professionals: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

// Create inserts a professional and returns the stored row.
func (r *Repository) Create(ctx context.Context, p *Professional) (*Professional, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("professionals: unknown status %q", p.Status)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO professionals (id, tenant_id, name, status, daily_capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, name, status, daily_capacity, created_at, updated_at
	`, p.ID, p.TenantID, p.Name, p.Status, p.DailyCapacity)
	return scanProfessional(row)
}

// Get returns a professional scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, status, daily_capacity, created_at, updated_at
		FROM professionals
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	p, err := scanProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns the tenant's roster ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Professional, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, status, daily_capacity, created_at, updated_at
		FROM professionals
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("professionals: list: %w", err)
	}
	defer rows.Close()

	var out []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Status, &p.DailyCapacity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("professionals: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies name/status/capacity changes.
func (r *Repository) Update(ctx context.Context, p *Professional) (*Professional, error) {
	if !p.Status.Valid() {
		return nil, fmt.Errorf("professionals: unknown status %q", p.Status)
	}
	row := r.db.QueryRow(ctx, `
		UPDATE professionals
		SET name = $3, status = $4, daily_capacity = $5, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, status, daily_capacity, created_at, updated_at
	`, p.ID, p.TenantID, p.Name, p.Status, p.DailyCapacity)
	updated, err := scanProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

// Delete removes a professional from the roster. Appointments reference the
// row with ON DELETE RESTRICT, so staff with history are deactivated instead.
func (r *Repository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM professionals WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("professionals: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Status, &p.DailyCapacity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("professionals: scan: %w", err)
	}
	return &p, nil
}
