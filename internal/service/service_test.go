package service

import (
	"context"
	"fmt"
	"sync"

	apperrors "kinogate/internal/errors"
	"kinogate/internal/models"
)

// fakeStore is an in-memory TicketStore mirroring the repository's
// conditional-update semantics.
type fakeStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	order   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: make(map[string]*models.Ticket)}
}

func (f *fakeStore) CreateBatch(_ context.Context, tickets []models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range tickets {
		t := tickets[i]
		if _, exists := f.tickets[t.TicketID]; exists {
			return fmt.Errorf("duplicate ticket id %s", t.TicketID)
		}
		f.tickets[t.TicketID] = &t
		f.order = append(f.order, t.TicketID)
	}
	return nil
}

func (f *fakeStore) GetByTicketID(_ context.Context, ticketID string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) GetByBookingID(_ context.Context, bookingID string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Ticket
	for _, id := range f.order {
		if f.tickets[id].BookingID == bookingID {
			result = append(result, *f.tickets[id])
		}
	}
	return result, nil
}

func (f *fakeStore) GetByTicketIDs(_ context.Context, ticketIDs []string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Ticket
	for _, id := range ticketIDs {
		if t, ok := f.tickets[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (f *fakeStore) MarkUsed(_ context.Context, ticketID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrNotFound)
	}
	switch t.Status {
	case models.TicketStatusUsed:
		return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrAlreadyUsed)
	case models.TicketStatusCancelled:
		return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrAlreadyCancelled)
	}
	t.Status = models.TicketStatusUsed
	return nil
}

func (f *fakeStore) CancelByBookingID(_ context.Context, bookingID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, id := range f.order {
		t := f.tickets[id]
		if t.BookingID != bookingID {
			continue
		}
		switch t.Status {
		case models.TicketStatusCancelled:
			return nil, fmt.Errorf("ticket %s: %w", id, apperrors.ErrAlreadyCancelled)
		case models.TicketStatusUsed:
			return nil, fmt.Errorf("ticket %s: %w", id, apperrors.ErrAlreadyUsed)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrNotFound)
	}
	for _, id := range ids {
		f.tickets[id].Status = models.TicketStatusCancelled
	}
	return ids, nil
}

func (f *fakeStore) CancelByTicketIDs(_ context.Context, ticketIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ticketIDs {
		t, ok := f.tickets[id]
		if !ok {
			return fmt.Errorf("ticket %s: %w", id, apperrors.ErrNotFound)
		}
		switch t.Status {
		case models.TicketStatusCancelled:
			return fmt.Errorf("ticket %s: %w", id, apperrors.ErrAlreadyCancelled)
		case models.TicketStatusUsed:
			return fmt.Errorf("ticket %s: %w", id, apperrors.ErrAlreadyUsed)
		}
	}
	for _, id := range ticketIDs {
		f.tickets[id].Status = models.TicketStatusCancelled
	}
	return nil
}

func (f *fakeStore) DeleteByID(_ context.Context, ticketID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[ticketID]; !ok {
		return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrNotFound)
	}
	delete(f.tickets, ticketID)
	for i, id := range f.order {
		if id == ticketID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakePublisher records published events for assertions.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakePublisher) published(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.subjects {
		if s == subject {
			count++
		}
	}
	return count
}
