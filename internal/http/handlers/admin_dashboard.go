// Package handlers holds the admin dashboard endpoints. They read through
// database/sql so the reporting queries stay decoupled from the pgx write
// path and can later point at a read replica.
package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/velvetdesk/salon-api/internal/tenancy"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// DashboardHandler serves the salon overview screen.
type DashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(db *sql.DB, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{db: db, logger: logger}
}

// Routes returns a chi router with dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Overview)
	return r
}

// DashboardOverview contains the day's operational snapshot.
type DashboardOverview struct {
	TenantID     string           `json:"tenant_id"`
	Date         string           `json:"date"`
	Appointments AgendaMetrics    `json:"appointments"`
	Revenue      RevenueMetrics   `json:"revenue"`
	LowStock     []LowStockItem   `json:"low_stock"`
	Agenda       []AgendaLineItem `json:"agenda"`
}

// AgendaMetrics counts today's bookings per status.
type AgendaMetrics struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// RevenueMetrics aggregates the ledger for today and the trailing week.
type RevenueMetrics struct {
	TodayCents          int64 `json:"today_cents"`
	WeekCents           int64 `json:"week_cents"`
	WeekCommissionCents int64 `json:"week_commission_cents"`
}

// LowStockItem is a product at or below its restock threshold.
type LowStockItem struct {
	Name          string `json:"name"`
	StockLevel    int    `json:"stock_level"`
	LowStockLevel int    `json:"low_stock_level"`
}

// AgendaLineItem is one row of today's agenda.
type AgendaLineItem struct {
	Time         string `json:"time"`
	Status       string `json:"status"`
	ClientName   string `json:"client_name"`
	Professional string `json:"professional"`
	Service      string `json:"service"`
}

// Overview returns today's agenda, revenue and stock alerts.
// GET /admin/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "tenant required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	weekAgo := today.AddDate(0, 0, -7)

	overview := DashboardOverview{
		TenantID: tenantID,
		Date:     today.Format(time.DateOnly),
		LowStock: []LowStockItem{},
		Agenda:   []AgendaLineItem{},
	}

	err := h.db.QueryRowContext(r.Context(), `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM appointments
		WHERE tenant_id = $1 AND date = $2
	`, tenantID, today).Scan(
		&overview.Appointments.Total,
		&overview.Appointments.Pending,
		&overview.Appointments.Confirmed,
		&overview.Appointments.Completed,
		&overview.Appointments.Cancelled,
	)
	if err != nil {
		h.logger.Error("dashboard agenda counts failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	err = h.db.QueryRowContext(r.Context(), `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'revenue' AND entry_date = $2), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'revenue'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind = 'commission'), 0)
		FROM ledger_entries
		WHERE tenant_id = $1 AND entry_date >= $3 AND entry_date <= $2
	`, tenantID, today, weekAgo).Scan(
		&overview.Revenue.TodayCents,
		&overview.Revenue.WeekCents,
		&overview.Revenue.WeekCommissionCents,
	)
	if err != nil {
		h.logger.Error("dashboard revenue failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.loadLowStock(r, tenantID, &overview); err != nil {
		h.logger.Error("dashboard low stock failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if err := h.loadAgenda(r, tenantID, today, &overview); err != nil {
		h.logger.Error("dashboard agenda failed", "tenant_id", tenantID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(overview); err != nil {
		h.logger.Error("failed to encode dashboard", "tenant_id", tenantID, "error", err)
	}
}

func (h *DashboardHandler) loadLowStock(r *http.Request, tenantID string, overview *DashboardOverview) error {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT name, stock_level, low_stock_level FROM (
			SELECT p.name, p.low_stock_level,
				COALESCE((SELECT SUM(m.quantity) FROM stock_movements m WHERE m.product_id = p.id), 0) AS stock_level
			FROM products p
			WHERE p.tenant_id = $1
		) stocked
		WHERE stock_level <= low_stock_level
		ORDER BY name
	`, tenantID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.Name, &item.StockLevel, &item.LowStockLevel); err != nil {
			return err
		}
		overview.LowStock = append(overview.LowStock, item)
	}
	return rows.Err()
}

func (h *DashboardHandler) loadAgenda(r *http.Request, tenantID string, today time.Time, overview *DashboardOverview) error {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.start_time, a.status, a.client_name, p.name, s.name
		FROM appointments a
		JOIN professionals p ON p.id = a.professional_id
		JOIN services s ON s.id = a.service_id
		WHERE a.tenant_id = $1 AND a.date = $2 AND a.status <> 'cancelled'
		ORDER BY a.start_time
	`, tenantID, today)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item AgendaLineItem
		if err := rows.Scan(&item.Time, &item.Status, &item.ClientName, &item.Professional, &item.Service); err != nil {
			return err
		}
		overview.Agenda = append(overview.Agenda, item)
	}
	return rows.Err()
}
