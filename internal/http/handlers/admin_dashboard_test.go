package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/velvetdesk/salon-api/internal/tenancy"
)

func TestDashboardOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM appointments").
		WithArgs("salon-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "confirmed", "completed", "cancelled"}).
			AddRow(8, 2, 4, 1, 1))

	mock.ExpectQuery("FROM ledger_entries").
		WithArgs("salon-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"today", "week", "commission"}).
			AddRow(45000, 310000, 92000))

	mock.ExpectQuery("stock_level <= low_stock_level").
		WithArgs("salon-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock_level", "low_stock_level"}).
			AddRow("Argan Oil", 2, 5))

	mock.ExpectQuery("JOIN professionals").
		WithArgs("salon-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "status", "client_name", "professional", "service"}).
			AddRow("09:00", "confirmed", "Ana Souza", "Bia", "Haircut").
			AddRow("10:30", "pending", "Carla Dias", "Bia", "Coloring"))

	handler := NewDashboardHandler(db, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req = req.WithContext(tenancy.WithTenantID(req.Context(), "salon-1"))
	rec := httptest.NewRecorder()

	handler.Overview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var overview DashboardOverview
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if overview.Appointments.Total != 8 || overview.Appointments.Confirmed != 4 {
		t.Fatalf("unexpected agenda metrics: %+v", overview.Appointments)
	}
	if overview.Revenue.WeekCents != 310000 {
		t.Fatalf("unexpected revenue: %+v", overview.Revenue)
	}
	if len(overview.LowStock) != 1 || overview.LowStock[0].Name != "Argan Oil" {
		t.Fatalf("unexpected low stock: %+v", overview.LowStock)
	}
	if len(overview.Agenda) != 2 || overview.Agenda[0].Time != "09:00" {
		t.Fatalf("unexpected agenda: %+v", overview.Agenda)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDashboardOverviewRequiresTenant(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	handler := NewDashboardHandler(db, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	rec := httptest.NewRecorder()

	handler.Overview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
