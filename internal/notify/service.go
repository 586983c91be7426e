package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/velvetdesk/salon-api/internal/events"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

// TextSender sends a WhatsApp text message to a client.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// Dispatcher consumes drained outbox entries and fans them out to clients.
// A returned error leaves the entry pending for the next drain cycle;
// entries that can never be delivered (no phone, unknown type) are dropped
// with a log line so they don't wedge the queue.
type Dispatcher struct {
	whatsapp  TextSender
	email     EmailSender
	frontDesk string
	logger    *logging.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(whatsapp TextSender, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{whatsapp: whatsapp, logger: logger}
}

// WithFrontDeskCopy emails a copy of every booking notification to the
// salon's front desk inbox. Copy failures are logged and never block the
// client-facing message.
func (d *Dispatcher) WithFrontDeskCopy(sender EmailSender, to string) *Dispatcher {
	d.email = sender
	d.frontDesk = to
	return d
}

// Handle routes one outbox entry to the matching notification.
func (d *Dispatcher) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingConfirmed:
		var evt events.BookingConfirmedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			d.logger.Error("dropping malformed confirmed event", "entry_id", entry.ID, "error", err)
			return nil
		}
		return d.sendConfirmation(ctx, evt)
	case events.TypeBookingCancelled:
		var evt events.BookingCancelledV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			d.logger.Error("dropping malformed cancelled event", "entry_id", entry.ID, "error", err)
			return nil
		}
		return d.sendCancellation(ctx, evt)
	default:
		d.logger.Warn("dropping outbox entry of unknown type", "entry_id", entry.ID, "type", entry.Type)
		return nil
	}
}

func (d *Dispatcher) sendConfirmation(ctx context.Context, evt events.BookingConfirmedV1) error {
	d.copyFrontDesk(ctx,
		fmt.Sprintf("Booking confirmed: %s on %s", evt.ClientName, evt.Date),
		fmt.Sprintf("%s has a confirmed appointment at %s on %s.", evt.ClientName, evt.Time, friendlyDate(evt.Date)))
	if d.whatsapp == nil || evt.ClientPhone == "" {
		d.logger.Debug("skipping confirmation, no recipient", "booking_id", evt.BookingID)
		return nil
	}
	text := fmt.Sprintf("Hi %s! Your appointment is confirmed for %s at %s. Reply to this message if you need to make changes.",
		firstName(evt.ClientName), friendlyDate(evt.Date), evt.Time)
	if err := d.whatsapp.SendText(ctx, evt.ClientPhone, text); err != nil {
		return fmt.Errorf("notify: confirmation for booking %s: %w", evt.BookingID, err)
	}
	d.logger.Info("confirmation sent", "tenant_id", evt.TenantID, "booking_id", evt.BookingID)
	return nil
}

func (d *Dispatcher) sendCancellation(ctx context.Context, evt events.BookingCancelledV1) error {
	d.copyFrontDesk(ctx,
		fmt.Sprintf("Booking cancelled: %s on %s", evt.ClientName, evt.Date),
		fmt.Sprintf("The appointment for %s at %s on %s was cancelled.", evt.ClientName, evt.Time, friendlyDate(evt.Date)))
	if d.whatsapp == nil || evt.ClientPhone == "" {
		d.logger.Debug("skipping cancellation notice, no recipient", "booking_id", evt.BookingID)
		return nil
	}
	text := fmt.Sprintf("Hi %s, your appointment on %s at %s has been cancelled. Book again any time!",
		firstName(evt.ClientName), friendlyDate(evt.Date), evt.Time)
	if err := d.whatsapp.SendText(ctx, evt.ClientPhone, text); err != nil {
		return fmt.Errorf("notify: cancellation for booking %s: %w", evt.BookingID, err)
	}
	d.logger.Info("cancellation notice sent", "tenant_id", evt.TenantID, "booking_id", evt.BookingID)
	return nil
}

func (d *Dispatcher) copyFrontDesk(ctx context.Context, subject, body string) {
	if d.email == nil || d.frontDesk == "" {
		return
	}
	msg := EmailMessage{To: d.frontDesk, ToName: "Front Desk", Subject: subject, Body: body}
	if err := d.email.Send(ctx, msg); err != nil {
		d.logger.Error("front desk copy failed", "error", err, "subject", subject)
	}
}

func firstName(full string) string {
	for i, r := range full {
		if r == ' ' {
			return full[:i]
		}
	}
	if full == "" {
		return "there"
	}
	return full
}

func friendlyDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

var _ events.DeliveryHandler = (*Dispatcher)(nil)
