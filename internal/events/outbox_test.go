package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestOutboxStoreFlow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newOutboxStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO outbox").WithArgs(pgxmock.AnyArg(), "tenant-1", TypeBookingConfirmed, pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if _, err := store.Insert(context.Background(), "tenant-1", TypeBookingConfirmed, BookingConfirmedV1{BookingID: "b-1"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	now := time.Now().UTC()
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "tenant_id", "type", "payload", "created_at"}).AddRow(id, "tenant-1", TypeBookingConfirmed, []byte(`{"booking_id":"b-1"}`), now)
	mock.ExpectQuery("SELECT id").WithArgs(int32(10)).WillReturnRows(rows)

	entries, err := store.FetchPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	mock.ExpectExec("UPDATE outbox").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := store.MarkDelivered(context.Background(), id)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if !ok {
		t.Fatal("expected mark delivered to report success")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type countingHandler struct {
	seen []OutboxEntry
	fail bool
}

func (h *countingHandler) Handle(ctx context.Context, entry OutboxEntry) error {
	h.seen = append(h.seen, entry)
	if h.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func TestDelivererSkipsMarkOnHandlerFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newOutboxStoreWithExec(mock)
	handler := &countingHandler{fail: true}
	d := NewDeliverer(store, handler, nil).WithBatchSize(5)

	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "tenant_id", "type", "payload", "created_at"}).AddRow(id, "tenant-1", TypeBookingCancelled, []byte(`{}`), time.Now().UTC())
	mock.ExpectQuery("SELECT id").WithArgs(int32(5)).WillReturnRows(rows)

	d.drain(context.Background())

	if len(handler.seen) != 1 {
		t.Fatalf("handler invoked %d times, want 1", len(handler.seen))
	}
	// No UPDATE expected: a failed delivery leaves the entry pending.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
