// Package inventory tracks retail and backbar products and their stock
// levels. Stock is never set directly: every change is a movement row, and
// the current level is the running sum, so the ledger always explains how
// a product got to its count.
package inventory

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

// MovementKind classifies a stock movement.
type MovementKind string

const (
	MovementPurchase   MovementKind = "purchase"
	MovementSale       MovementKind = "sale"
	MovementUsage      MovementKind = "usage"
	MovementAdjustment MovementKind = "adjustment"
)

// Valid reports whether k is a known movement kind.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementPurchase, MovementSale, MovementUsage, MovementAdjustment:
		return true
	}
	return false
}

// Product is a stocked item.
type Product struct {
	ID            uuid.UUID `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	LowStockLevel int       `json:"low_stock_level"`
	StockLevel    int       `json:"stock_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Movement is one stock change. Quantity is positive for purchases and
// positive adjustments, negative for sales, usage and write-offs.
type Movement struct {
	ID        uuid.UUID    `json:"id"`
	TenantID  string       `json:"tenant_id"`
	ProductID uuid.UUID    `json:"product_id"`
	Kind      MovementKind `json:"kind"`
	Quantity  int          `json:"quantity"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

var (
	// ErrNotFound is returned when no product matches the tenant-scoped id.
	ErrNotFound = errors.New("inventory: product not found")
	// ErrInvalidMovement is returned for unknown kinds or zero quantities.
	ErrInvalidMovement = errors.New("inventory: invalid movement")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for products and stock movements.
type Repository struct {
	db dbConn
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("inventory: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

const productColumns = `p.id, p.tenant_id, p.name, p.sku, p.price_cents, p.low_stock_level,
	COALESCE((SELECT SUM(m.quantity) FROM stock_movements m WHERE m.product_id = p.id), 0) AS stock_level,
	p.created_at, p.updated_at`

// Create adds a product with zero stock.
func (r *Repository) Create(ctx context.Context, p *Product) (*Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (id, tenant_id, name, sku, price_cents, low_stock_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, name, sku, price_cents, low_stock_level, 0, created_at, updated_at
	`, p.ID, p.TenantID, p.Name, p.SKU, p.PriceCents, p.LowStockLevel)
	return scanProduct(row)
}

// Get returns a product with its current stock level.
func (r *Repository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.id = $1 AND p.tenant_id = $2
	`, id, tenantID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns the tenant's products ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		WHERE p.tenant_id = $1
		ORDER BY p.name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list products: %w", err)
	}
	return collectProducts(rows)
}

// LowStock returns products at or below their low stock level.
func (r *Repository) LowStock(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT * FROM (
			SELECT `+productColumns+`
			FROM products p
			WHERE p.tenant_id = $1
		) stocked
		WHERE stock_level <= low_stock_level
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("inventory: low stock: %w", err)
	}
	return collectProducts(rows)
}

// Update edits product attributes. Stock level is derived and not
// updatable here.
func (r *Repository) Update(ctx context.Context, p *Product) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $3, sku = $4, price_cents = $5, low_stock_level = $6, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, name, sku, price_cents, low_stock_level,
			COALESCE((SELECT SUM(m.quantity) FROM stock_movements m WHERE m.product_id = products.id), 0),
			created_at, updated_at
	`, p.ID, p.TenantID, p.Name, p.SKU, p.PriceCents, p.LowStockLevel)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return updated, err
}

// Delete removes a product and its movement history.
func (r *Repository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("inventory: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Record appends a stock movement and returns it.
func (r *Repository) Record(ctx context.Context, m *Movement) (*Movement, error) {
	if !m.Kind.Valid() || m.Quantity == 0 {
		return nil, ErrInvalidMovement
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO stock_movements (id, tenant_id, product_id, kind, quantity, note)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM products WHERE id = $3 AND tenant_id = $2)
		RETURNING id, tenant_id, product_id, kind, quantity, note, created_at
	`, m.ID, m.TenantID, m.ProductID, m.Kind, m.Quantity, m.Note)
	var stored Movement
	err := row.Scan(&stored.ID, &stored.TenantID, &stored.ProductID, &stored.Kind, &stored.Quantity, &stored.Note, &stored.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: record movement: %w", err)
	}
	return &stored, nil
}

// Movements returns a product's movement history, newest first.
func (r *Repository) Movements(ctx context.Context, tenantID string, productID uuid.UUID) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, product_id, kind, quantity, note, created_at
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC
	`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list movements: %w", err)
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.Kind, &m.Quantity, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("inventory: scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.PriceCents, &p.LowStockLevel, &p.StockLevel, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.PriceCents, &p.LowStockLevel, &p.StockLevel, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("inventory: scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
