// Package catalog manages the service menu: durations, prices, commission
// rates and which professionals may perform each service.
package catalog

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

// Duration units accepted at the API boundary. Everything downstream of
// this package works in minutes only; mixing units in interval math is the
// bug class NormalizeDuration exists to prevent.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
)

// ErrNotFound is returned when no service matches the tenant-scoped id.
var ErrNotFound = errors.New("catalog: not found")

// ErrInvalidDuration reports a non-positive duration or unknown unit.
var ErrInvalidDuration = errors.New("catalog: invalid duration")

// NormalizeDuration resolves a duration + unit pair to minutes.
func NormalizeDuration(duration int, unit string) (int, error) {
	if duration <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	switch unit {
	case UnitMinutes, "":
		return duration, nil
	case UnitHours:
		return duration * 60, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, unit)
	}
}

// Service is a bookable menu entry. DurationMinutes is always normalized.
type Service struct {
	ID                uuid.UUID   `json:"id"`
	TenantID          string      `json:"tenant_id"`
	Name              string      `json:"name"`
	DurationMinutes   int         `json:"duration_minutes"`
	PriceCents        int64       `json:"price_cents"`
	CommissionPercent float64     `json:"commission_percent"`
	ProfessionalIDs   []uuid.UUID `json:"professional_ids,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for the service catalog.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

// Create inserts a service and its professional associations.
func (r *Repository) Create(ctx context.Context, s *Service) (*Service, error) {
	if s.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, s.DurationMinutes)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO services (id, tenant_id, name, duration_minutes, price_cents, commission_percent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, name, duration_minutes, price_cents, commission_percent, created_at, updated_at
	`, s.ID, s.TenantID, s.Name, s.DurationMinutes, s.PriceCents, s.CommissionPercent)
	created, err := scanService(row)
	if err != nil {
		return nil, err
	}
	if err := r.setProfessionals(ctx, created.ID, s.ProfessionalIDs); err != nil {
		return nil, err
	}
	created.ProfessionalIDs = s.ProfessionalIDs
	return created, nil
}

// Get returns a service with its eligible professionals.
func (r *Repository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, duration_minutes, price_cents, commission_percent, created_at, updated_at
		FROM services
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)
	s, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pros, err := r.professionalsFor(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.ProfessionalIDs = pros
	return s, nil
}

// List returns the tenant's catalog ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, duration_minutes, price_cents, commission_percent, created_at, updated_at
		FROM services
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.CommissionPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update edits a service and replaces its professional set.
func (r *Repository) Update(ctx context.Context, s *Service) (*Service, error) {
	if s.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, s.DurationMinutes)
	}
	row := r.db.QueryRow(ctx, `
		UPDATE services
		SET name = $3, duration_minutes = $4, price_cents = $5, commission_percent = $6, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, duration_minutes, price_cents, commission_percent, created_at, updated_at
	`, s.ID, s.TenantID, s.Name, s.DurationMinutes, s.PriceCents, s.CommissionPercent)
	updated, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.setProfessionals(ctx, updated.ID, s.ProfessionalIDs); err != nil {
		return nil, err
	}
	updated.ProfessionalIDs = s.ProfessionalIDs
	return updated, nil
}

// Delete removes a service from the catalog.
func (r *Repository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EligibleForProfessional reports whether the professional may perform the
// service. A service with no associations is performable by anyone.
func (r *Repository) EligibleForProfessional(ctx context.Context, serviceID, professionalID uuid.UUID) (bool, error) {
	var total, matching int
	err := r.db.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE professional_id = $2)
		FROM service_professionals
		WHERE service_id = $1
	`, serviceID, professionalID).Scan(&total, &matching)
	if err != nil {
		return false, fmt.Errorf("catalog: eligibility: %w", err)
	}
	return total == 0 || matching > 0, nil
}

func (r *Repository) setProfessionals(ctx context.Context, serviceID uuid.UUID, professionalIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM service_professionals WHERE service_id = $1`, serviceID); err != nil {
		return fmt.Errorf("catalog: clear professionals: %w", err)
	}
	for _, pid := range professionalIDs {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO service_professionals (service_id, professional_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, serviceID, pid); err != nil {
			return fmt.Errorf("catalog: link professional: %w", err)
		}
	}
	return nil
}

func (r *Repository) professionalsFor(ctx context.Context, serviceID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT professional_id FROM service_professionals WHERE service_id = $1 ORDER BY professional_id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load professionals: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("catalog: scan professional id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.CommissionPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: scan: %w", err)
	}
	return &s, nil
}
