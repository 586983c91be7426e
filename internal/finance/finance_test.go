package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestRecordRejectsInvalidEntries(t *testing.T) {
	repo := NewRepositoryWithConn(nil)

	if _, err := repo.Record(context.Background(), &Entry{Kind: "tips", AmountCents: 100}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry for unknown kind, got %v", err)
	}
	if _, err := repo.Record(context.Background(), &Entry{Kind: EntryRevenue, AmountCents: 0}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry for zero amount, got %v", err)
	}
	if err := repo.RecordCommission(context.Background(), "tenant-1", uuid.New(), uuid.New(), -50, "bad"); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry for negative commission, got %v", err)
	}
}

func TestRecordCommissionInserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithConn(mock)
	bookingID := uuid.New()
	proID := uuid.New()

	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(pgxmock.AnyArg(), "tenant-1", EntryCommission, int64(4000), "commission Haircut", bookingID, proID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.RecordCommission(context.Background(), "tenant-1", bookingID, proID, 4000, "commission Haircut"); err != nil {
		t.Fatalf("record commission failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSummarizeComputesNet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithConn(mock)
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM ledger_entries").
		WithArgs("tenant-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"revenue", "expense", "commission", "count"}).
			AddRow(int64(250000), int64(40000), int64(75000), 42))

	summary, err := repo.Summarize(context.Background(), "tenant-1", from, to)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary.NetCents != 135000 {
		t.Fatalf("net = %d, want 135000", summary.NetCents)
	}
	if summary.From != "2025-06-01" || summary.To != "2025-06-30" {
		t.Fatalf("unexpected period: %s..%s", summary.From, summary.To)
	}
}

func TestListScansNullableReferences(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepositoryWithConn(mock)
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	cols := []string{"id", "tenant_id", "kind", "amount_cents", "description", "booking_id", "professional_id", "entry_date", "created_at"}
	mock.ExpectQuery("SELECT id, tenant_id, kind").
		WithArgs("tenant-1", from, to).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), "tenant-1", EntryExpense, int64(12000), "product restock", nil, nil, from, now))

	list, err := repo.List(context.Background(), "tenant-1", from, to)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].BookingID != uuid.Nil {
		t.Fatalf("unexpected entries: %#v", list)
	}
}
