package repository

import (
	"kinogate/internal/database"
)

type Repositories struct {
	Tickets *TicketRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Tickets: NewTicketRepository(db),
	}
}
