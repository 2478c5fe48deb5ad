package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createTicketsTable,
		createTicketsBookingIndex,
		createTicketsShowtimeIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

// Ticket ids are generated by the application (UUID); the primary key makes
// the probabilistic generation scheme a hard guarantee. The unique
// constraint on (showtime_id, seat_row, seat_number) backs the one-ticket-
// per-seat invariant that the upstream seat lock is expected to uphold.
const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    ticket_id UUID PRIMARY KEY,
    booking_id VARCHAR(64) NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    movie_id VARCHAR(64) NOT NULL,
    theater_id VARCHAR(64) NOT NULL,
    screen_id VARCHAR(64) NOT NULL,
    showtime_id VARCHAR(64) NOT NULL,
    seat_row VARCHAR(8) NOT NULL,
    seat_number INTEGER NOT NULL,
    seat_type VARCHAR(32) NOT NULL,
    price BIGINT NOT NULL,
    show_at TIMESTAMPTZ NOT NULL,
    qr_code TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    coupon_name VARCHAR(100),
    coupon_code VARCHAR(64),
    coupon_discount_pct BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(showtime_id, seat_row, seat_number),
    CHECK (status IN ('CONFIRMED', 'USED', 'CANCELLED'))
);`

const createTicketsBookingIndex = `
CREATE INDEX IF NOT EXISTS idx_tickets_booking_id ON tickets(booking_id);`

const createTicketsShowtimeIndex = `
CREATE INDEX IF NOT EXISTS idx_tickets_showtime_id ON tickets(showtime_id);`
