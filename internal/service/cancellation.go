package service

import (
	"context"
	"fmt"

	"kinogate/internal/clock"
	apperrors "kinogate/internal/errors"
	"kinogate/internal/logger"
	"kinogate/internal/metrics"
	"kinogate/internal/models"
	"kinogate/internal/pricing"
)

// CancellationService validates and executes full- or partial-booking
// cancellation. The booking is one cancellable unit: a single already-
// cancelled or used ticket blocks the whole request.
type CancellationService struct {
	store TicketStore
	clk   clock.Clock
	nats  Publisher
	cache TicketCache
	index TicketIndexer
}

func NewCancellationService(store TicketStore, clk clock.Clock, nats Publisher, cache TicketCache, index TicketIndexer) *CancellationService {
	return &CancellationService{store: store, clk: clk, nats: nats, cache: cache, index: index}
}

// CancelBooking cancels every ticket of a booking and computes the tiered
// refund. Amount is the original charged amount in cents. The conditional
// bulk update in the store serializes concurrent requests, so a refund is
// never computed twice for one booking.
func (s *CancellationService) CancelBooking(ctx context.Context, bookingID, requesterUserID string, amount int64) (*models.CancellationResponse, error) {
	tickets, err := s.store.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}

	if err := s.validateCancellable(tickets, requesterUserID); err != nil {
		return nil, err
	}

	// All tickets of a booking share one showtime; any of them is
	// representative for the timing check.
	showAt := tickets[0].ShowAt
	now := s.clk.Now()
	if !showAt.After(now) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrShowStarted)
	}

	percent := pricing.RefundPercent(showAt, now)
	refund := pricing.PercentOf(amount, percent)

	ticketIDs, err := s.store.CancelByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}

	metrics.Cancellations.WithLabelValues("booking").Add(float64(len(ticketIDs)))
	metrics.RefundCents.Add(float64(refund))

	s.afterCancel(ctx, bookingID, requesterUserID, ticketIDs, percent, refund, "booking cancelled by user")

	return &models.CancellationResponse{
		RefundPercent:  percent,
		OriginalAmount: amount,
		RefundAmount:   refund,
		ShowDate:       tickets[0].ShowDate(),
		ShowTime:       tickets[0].ShowTime(),
	}, nil
}

// CancelSelected cancels a subset of one booking's tickets, leaving the
// rest CONFIRMED. Amount must be the caller's own recomputation of the
// selected subset's price (see pricing.Calculate); it is trusted, not
// recomputed here.
func (s *CancellationService) CancelSelected(ctx context.Context, ticketIDs []string, requesterUserID string, amount int64) (*models.CancellationResponse, error) {
	if len(ticketIDs) == 0 {
		return nil, fmt.Errorf("%w: no tickets selected", apperrors.ErrValidation)
	}

	tickets, err := s.store.GetByTicketIDs(ctx, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	if len(tickets) != len(ticketIDs) {
		return nil, fmt.Errorf("%w: one or more tickets do not exist", apperrors.ErrNotFound)
	}

	bookingID := tickets[0].BookingID
	for _, t := range tickets {
		if t.BookingID != bookingID {
			return nil, fmt.Errorf("%w: tickets belong to different bookings", apperrors.ErrValidation)
		}
	}

	if err := s.validateCancellable(tickets, requesterUserID); err != nil {
		return nil, err
	}

	showAt := tickets[0].ShowAt
	now := s.clk.Now()
	if !showAt.After(now) {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrShowStarted)
	}

	percent := pricing.RefundPercent(showAt, now)
	refund := pricing.PercentOf(amount, percent)

	if err := s.store.CancelByTicketIDs(ctx, ticketIDs); err != nil {
		return nil, fmt.Errorf("failed to cancel tickets: %w", err)
	}

	metrics.Cancellations.WithLabelValues("selected").Add(float64(len(ticketIDs)))
	metrics.RefundCents.Add(float64(refund))

	s.afterCancel(ctx, bookingID, requesterUserID, ticketIDs, percent, refund, "selected tickets cancelled by user")

	return &models.CancellationResponse{
		RefundPercent:  percent,
		OriginalAmount: amount,
		RefundAmount:   refund,
		ShowDate:       tickets[0].ShowDate(),
		ShowTime:       tickets[0].ShowTime(),
	}, nil
}

func (s *CancellationService) validateCancellable(tickets []models.Ticket, requesterUserID string) error {
	for _, t := range tickets {
		if t.UserID != requesterUserID {
			return fmt.Errorf("ticket %s: %w", t.TicketID, apperrors.ErrForbidden)
		}
	}
	for _, t := range tickets {
		switch t.Status {
		case models.TicketStatusCancelled:
			return fmt.Errorf("ticket %s: %w", t.TicketID, apperrors.ErrAlreadyCancelled)
		case models.TicketStatusUsed:
			return fmt.Errorf("ticket %s: %w", t.TicketID, apperrors.ErrAlreadyUsed)
		}
	}
	return nil
}

// afterCancel runs the best-effort side effects of a completed
// cancellation. The status change is already committed; nothing here can
// roll it back.
func (s *CancellationService) afterCancel(ctx context.Context, bookingID, userID string, ticketIDs []string, percent, refund int64, reason string) {
	if s.cache != nil {
		if err := s.cache.InvalidateTickets(ctx, ticketIDs...); err != nil {
			logger.WithContext(ctx).Error("Failed to invalidate ticket cache",
				"error", err, "booking_id", bookingID)
		}
	}

	if s.index != nil {
		if err := s.index.UpdateStatus(ctx, ticketIDs, models.TicketStatusCancelled); err != nil {
			logger.WithContext(ctx).Error("Failed to update ticket index",
				"error", err, "booking_id", bookingID)
		}
	}

	if s.nats != nil {
		event := models.BookingCancelledEvent{
			BookingID:     bookingID,
			UserID:        userID,
			TicketIDs:     ticketIDs,
			RefundPercent: percent,
			RefundAmount:  refund,
			Reason:        reason,
			Timestamp:     s.clk.Now(),
		}
		if err := s.nats.Publish(models.EventBookingCancelled, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish booking cancelled event",
				"error", err,
				"booking_id", bookingID,
				"event_type", models.EventBookingCancelled)
		}
	}
}
