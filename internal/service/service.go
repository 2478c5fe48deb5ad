package service

import (
	"context"

	"kinogate/internal/clock"
	"kinogate/internal/models"
	"kinogate/internal/qr"
)

// TicketStore is the persistence contract for ticket records. The Postgres
// repository implements it; tests substitute an in-memory fake.
type TicketStore interface {
	CreateBatch(ctx context.Context, tickets []models.Ticket) error
	GetByTicketID(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetByBookingID(ctx context.Context, bookingID string) ([]models.Ticket, error)
	GetByTicketIDs(ctx context.Context, ticketIDs []string) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, ticketID string) error
	CancelByBookingID(ctx context.Context, bookingID string) ([]string, error)
	CancelByTicketIDs(ctx context.Context, ticketIDs []string) error
	DeleteByID(ctx context.Context, ticketID string) error
}

// Publisher delivers lifecycle events to the consumer side. All publishes
// are best-effort: a failure is logged and never fails the operation.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// TicketCache is the optional read cache for the gate verification path.
type TicketCache interface {
	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	SetTicket(ctx context.Context, t *models.Ticket) error
	InvalidateTickets(ctx context.Context, ticketIDs ...string) error
}

// TicketIndexer is the optional ops search index. Indexing failures are
// logged and never propagated; Postgres remains the source of truth.
type TicketIndexer interface {
	IndexTickets(ctx context.Context, tickets []models.Ticket) error
	UpdateStatus(ctx context.Context, ticketIDs []string, status string) error
	DeleteTickets(ctx context.Context, ticketIDs []string) error
}

type Services struct {
	Issuer       *IssuerService
	Verifier     *VerifierService
	Cancellation *CancellationService
	Admin        *AdminService
}

// NewServices wires the ticket lifecycle services. nats, cache and index
// may be nil; every use site checks before calling.
func NewServices(store TicketStore, codec *qr.Codec, clk clock.Clock, nats Publisher, cache TicketCache, index TicketIndexer) *Services {
	return &Services{
		Issuer:       NewIssuerService(store, codec, clk, nats, index),
		Verifier:     NewVerifierService(store, codec, clk, nats, cache, index),
		Cancellation: NewCancellationService(store, clk, nats, cache, index),
		Admin:        NewAdminService(store, cache, index),
	}
}
