package service

import (
	"context"
	"fmt"
	"time"

	"kinogate/internal/clock"
	apperrors "kinogate/internal/errors"
	"kinogate/internal/logger"
	"kinogate/internal/metrics"
	"kinogate/internal/models"
	"kinogate/internal/qr"
)

// AdmissionWindow is how long after the scheduled start a ticket still
// admits. A scan later than showAt + AdmissionWindow fails.
const AdmissionWindow = 3 * time.Hour

// VerifierService checks scanned admission tokens against stored ticket
// state. Verify never mutates anything; MarkAsUsed is the separate,
// explicit transition.
type VerifierService struct {
	store TicketStore
	codec *qr.Codec
	clk   clock.Clock
	nats  Publisher
	cache TicketCache
	index TicketIndexer
}

func NewVerifierService(store TicketStore, codec *qr.Codec, clk clock.Clock, nats Publisher, cache TicketCache, index TicketIndexer) *VerifierService {
	return &VerifierService{store: store, codec: codec, clk: clk, nats: nats, cache: cache, index: index}
}

// Verify decodes the token and validates the referenced ticket. It is
// idempotent: scanning the same valid token twice succeeds twice. Only
// MarkAsUsed consumes the ticket.
func (s *VerifierService) Verify(ctx context.Context, token string) (*models.VerifyResponse, error) {
	payload, err := s.codec.Decode(token)
	if err != nil {
		metrics.Verifications.WithLabelValues("invalid_qr").Inc()
		return nil, err
	}

	ticket, err := s.loadTicket(ctx, payload.TicketID)
	if err != nil {
		metrics.Verifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}

	// A missing ticket and a cancelled ticket are reported identically;
	// a scanning client learns nothing about why the token is dead.
	if ticket == nil {
		metrics.Verifications.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: ticket not found or cancelled", apperrors.ErrNotFound)
	}
	if ticket.Status == models.TicketStatusCancelled {
		metrics.Verifications.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("%w: ticket not found or cancelled", apperrors.ErrAlreadyCancelled)
	}
	if ticket.Status == models.TicketStatusUsed {
		metrics.Verifications.WithLabelValues("used").Inc()
		return nil, fmt.Errorf("ticket %s: %w", ticket.TicketID, apperrors.ErrAlreadyUsed)
	}

	if s.clk.Now().After(ticket.ShowAt.Add(AdmissionWindow)) {
		metrics.Verifications.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("ticket %s: %w", ticket.TicketID, apperrors.ErrShowEnded)
	}

	metrics.Verifications.WithLabelValues("ok").Inc()
	return &models.VerifyResponse{TicketID: payload.TicketID, Ticket: ticket}, nil
}

// MarkAsUsed transitions the ticket to USED. The store performs the
// guarded update, so two concurrent scans of the same token cannot both
// succeed; the loser gets ErrAlreadyUsed.
func (s *VerifierService) MarkAsUsed(ctx context.Context, ticketID string) error {
	if err := s.store.MarkUsed(ctx, ticketID); err != nil {
		return err
	}

	metrics.Admissions.Inc()

	if s.cache != nil {
		if err := s.cache.InvalidateTickets(ctx, ticketID); err != nil {
			logger.WithContext(ctx).Error("Failed to invalidate ticket cache",
				"error", err, "ticket_id", ticketID)
		}
	}

	if s.index != nil {
		if err := s.index.UpdateStatus(ctx, []string{ticketID}, models.TicketStatusUsed); err != nil {
			logger.WithContext(ctx).Error("Failed to update ticket index",
				"error", err, "ticket_id", ticketID)
		}
	}

	if s.nats != nil {
		ticket, err := s.store.GetByTicketID(ctx, ticketID)
		showtimeID := ""
		if err == nil && ticket != nil {
			showtimeID = ticket.ShowtimeID
		}
		event := models.TicketUsedEvent{
			TicketID:   ticketID,
			ShowtimeID: showtimeID,
			Timestamp:  s.clk.Now(),
		}
		if err := s.nats.Publish(models.EventTicketUsed, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish ticket used event",
				"error", err,
				"ticket_id", ticketID,
				"event_type", models.EventTicketUsed)
		}
	}

	return nil
}

// loadTicket reads through the optional cache. Cache failures fall back to
// the store; a cache problem must never block the gate.
func (s *VerifierService) loadTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTicket(ctx, ticketID)
		if err != nil {
			logger.WithContext(ctx).Warn("Ticket cache read failed",
				"error", err, "ticket_id", ticketID)
		} else if cached != nil {
			return cached, nil
		}
	}

	ticket, err := s.store.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket != nil && s.cache != nil {
		if err := s.cache.SetTicket(ctx, ticket); err != nil {
			logger.WithContext(ctx).Warn("Ticket cache write failed",
				"error", err, "ticket_id", ticketID)
		}
	}
	return ticket, nil
}
