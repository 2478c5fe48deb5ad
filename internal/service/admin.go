package service

import (
	"context"
	"fmt"

	"kinogate/internal/logger"
)

// AdminService holds operations outside the normal ticket lifecycle.
type AdminService struct {
	store TicketStore
	cache TicketCache
	index TicketIndexer
}

func NewAdminService(store TicketStore, cache TicketCache, index TicketIndexer) *AdminService {
	return &AdminService{store: store, cache: cache, index: index}
}

// DeleteTicket physically removes a ticket record. Normal flows only ever
// transition status; this exists for administrative cleanup.
func (s *AdminService) DeleteTicket(ctx context.Context, ticketID string) error {
	if err := s.store.DeleteByID(ctx, ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", ticketID, err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateTickets(ctx, ticketID); err != nil {
			logger.WithContext(ctx).Error("Failed to invalidate ticket cache",
				"error", err, "ticket_id", ticketID)
		}
	}

	if s.index != nil {
		if err := s.index.DeleteTickets(ctx, []string{ticketID}); err != nil {
			logger.WithContext(ctx).Error("Failed to delete ticket from index",
				"error", err, "ticket_id", ticketID)
		}
	}

	return nil
}
