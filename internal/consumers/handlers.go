package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"kinogate/internal/external"
	"kinogate/internal/models"
	"kinogate/internal/repository"
)

type Handlers struct {
	repos         *repository.Repositories
	emailClient   *external.EmailClient
	paymentClient *external.PaymentClient
}

func NewHandlers(repos *repository.Repositories, emailClient *external.EmailClient, paymentClient *external.PaymentClient) *Handlers {
	return &Handlers{
		repos:         repos,
		emailClient:   emailClient,
		paymentClient: paymentClient,
	}
}

// HandleTicketsIssued delivers freshly issued tickets to the booker.
func (h *Handlers) HandleTicketsIssued(m *stan.Msg) {
	var event models.TicketsIssuedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal tickets issued event", "error", err)
		return
	}

	slog.Info("Processing tickets issued event",
		"booking_id", event.BookingID, "tickets", len(event.TicketIDs))

	err := h.emailClient.SendTickets(external.SendTicketsRequest{
		BookingID: event.BookingID,
		UserID:    event.UserID,
		TicketIDs: event.TicketIDs,
	})
	if err != nil {
		// Tickets are already persisted; delivery failures are logged and
		// the message is still acked so the batch is not re-sent forever.
		slog.Error("Failed to send ticket email", "booking_id", event.BookingID, "error", err)
	}

	m.Ack()
}

// HandleBookingCancelled executes the refund and notifies the booker. The
// tickets are already CANCELLED when this event arrives; a failed refund
// call never rolls that back.
func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Processing booking cancelled event",
		"booking_id", event.BookingID,
		"refund_percent", event.RefundPercent,
		"refund_amount", event.RefundAmount)

	if event.RefundAmount > 0 {
		refund, err := h.paymentClient.Refund(external.RefundRequest{
			BookingID: event.BookingID,
			Amount:    event.RefundAmount,
			Reason:    event.Reason,
		})
		if err != nil {
			slog.Error("Failed to execute refund", "booking_id", event.BookingID, "error", err)
		} else {
			slog.Info("Refund executed",
				"booking_id", event.BookingID, "refund_id", refund.RefundID, "status", refund.Status)
		}
	}

	err := h.emailClient.SendCancellation(external.SendCancellationRequest{
		BookingID:    event.BookingID,
		UserID:       event.UserID,
		RefundAmount: event.RefundAmount,
	})
	if err != nil {
		slog.Error("Failed to send cancellation email", "booking_id", event.BookingID, "error", err)
	}

	m.Ack()
}

// HandleTicketUsed records admissions for the audit trail.
func (h *Handlers) HandleTicketUsed(m *stan.Msg) {
	var event models.TicketUsedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket used event", "error", err)
		return
	}

	ticket, err := h.repos.Tickets.GetByTicketID(context.Background(), event.TicketID)
	if err != nil || ticket == nil {
		slog.Warn("Admitted ticket not found for audit", "ticket_id", event.TicketID, "error", err)
		m.Ack()
		return
	}

	slog.Info("Ticket admitted",
		"ticket_id", event.TicketID,
		"booking_id", ticket.BookingID,
		"showtime_id", event.ShowtimeID,
		"seat", fmt.Sprintf("%s%d", ticket.SeatRow, ticket.SeatNumber),
		"at", event.Timestamp)

	m.Ack()
}
