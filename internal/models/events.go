package models

import "time"

// NATS event types
const (
	EventTicketsIssued    = "ticket.issued"
	EventTicketUsed       = "ticket.used"
	EventBookingCancelled = "booking.cancelled"
)

// TicketsIssuedEvent is published after a batch of tickets is persisted.
// The consumer side delivers the tickets to the booker by email.
type TicketsIssuedEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	ShowtimeID string    `json:"showtime_id"`
	TicketIDs  []string  `json:"ticket_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// TicketUsedEvent is published after a successful gate admission.
type TicketUsedEvent struct {
	TicketID   string    `json:"ticket_id"`
	ShowtimeID string    `json:"showtime_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after tickets transition to
// CANCELLED. The consumer side executes the refund against the payment
// gateway and notifies the booker.
type BookingCancelledEvent struct {
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	TicketIDs     []string  `json:"ticket_ids"`
	RefundPercent int64     `json:"refund_percent"`
	RefundAmount  int64     `json:"refund_amount"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}
