package models

import (
	"time"
)

// Ticket lifecycle states. Transitions are one-way: CONFIRMED is the only
// non-terminal state, USED and CANCELLED are terminal. The single enum is
// authoritative; there is no separate "is used" flag.
const (
	TicketStatusConfirmed = "CONFIRMED"
	TicketStatusUsed      = "USED"
	TicketStatusCancelled = "CANCELLED"
)

// Coupon is a named percentage discount applied to a ticket at booking
// time. Immutable once the ticket is issued.
type Coupon struct {
	Name        string `json:"name" db:"coupon_name"`
	Code        string `json:"code" db:"coupon_code"`
	DiscountPct int64  `json:"discount_pct" db:"coupon_discount_pct"`
}

// Ticket represents one admitted seat for one showtime. Monetary values
// are integer cents.
type Ticket struct {
	TicketID   string    `json:"ticket_id" db:"ticket_id"`
	BookingID  string    `json:"booking_id" db:"booking_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	MovieID    string    `json:"movie_id" db:"movie_id"`
	TheaterID  string    `json:"theater_id" db:"theater_id"`
	ScreenID   string    `json:"screen_id" db:"screen_id"`
	ShowtimeID string    `json:"showtime_id" db:"showtime_id"`
	SeatRow    string    `json:"seat_row" db:"seat_row"`
	SeatNumber int       `json:"seat_number" db:"seat_number"`
	SeatType   string    `json:"seat_type" db:"seat_type"`
	Price      int64     `json:"price" db:"price"`
	ShowAt     time.Time `json:"show_at" db:"show_at"`
	QRCode     string    `json:"qr_code" db:"qr_code"`
	Status     string    `json:"status" db:"status"`
	Coupon     *Coupon   `json:"coupon,omitempty"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ShowDate returns the calendar date of the show in its stored location.
func (t *Ticket) ShowDate() string {
	return t.ShowAt.Format("2006-01-02")
}

// ShowTime returns the wall-clock start time of the show.
func (t *Ticket) ShowTime() string {
	return t.ShowAt.Format("15:04")
}
