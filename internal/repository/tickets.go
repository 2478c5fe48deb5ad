package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinogate/internal/database"
	apperrors "kinogate/internal/errors"
	"kinogate/internal/models"

	"github.com/lib/pq"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `ticket_id, booking_id, user_id, movie_id, theater_id, screen_id,
	showtime_id, seat_row, seat_number, seat_type, price, show_at, qr_code, status,
	coupon_name, coupon_code, coupon_discount_pct, created_at, updated_at`

// CreateBatch persists every ticket of one issuance call in a single
// transaction: either all tickets of the booking exist afterwards or none
// do. A unique violation on the seat constraint means the upstream seat
// lock failed to hold.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tickets (ticket_id, booking_id, user_id, movie_id, theater_id,
			screen_id, showtime_id, seat_row, seat_number, seat_type, price, show_at,
			qr_code, status, coupon_name, coupon_code, coupon_discount_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	for _, t := range tickets {
		var couponName, couponCode sql.NullString
		var couponPct sql.NullInt64
		if t.Coupon != nil {
			couponName = sql.NullString{String: t.Coupon.Name, Valid: true}
			couponCode = sql.NullString{String: t.Coupon.Code, Valid: true}
			couponPct = sql.NullInt64{Int64: t.Coupon.DiscountPct, Valid: true}
		}

		_, err := tx.ExecContext(ctx, query,
			t.TicketID, t.BookingID, t.UserID, t.MovieID, t.TheaterID,
			t.ScreenID, t.ShowtimeID, t.SeatRow, t.SeatNumber, t.SeatType,
			t.Price, t.ShowAt, t.QRCode, t.Status,
			couponName, couponCode, couponPct)
		if err != nil {
			return fmt.Errorf("failed to insert ticket %s: %w", t.TicketID, err)
		}
	}

	return tx.Commit()
}

func (r *TicketRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id = $1`

	t, err := scanTicket(r.db.QueryRowContext(ctx, query, ticketID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TicketRepository) GetByBookingID(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE booking_id = $1
		ORDER BY seat_row, seat_number`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

func (r *TicketRepository) GetByTicketIDs(ctx context.Context, ticketIDs []string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE ticket_id = ANY($1)
		ORDER BY seat_row, seat_number`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ticketIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

// MarkUsed is the atomic check-and-set behind gate admission. The guarded
// UPDATE succeeds for exactly one of two concurrent scans of the same
// token; the loser observes zero rows and gets the terminal state back as
// an error.
func (r *TicketRepository) MarkUsed(ctx context.Context, ticketID string) error {
	query := `UPDATE tickets SET status = $1, updated_at = NOW()
		WHERE ticket_id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query,
		models.TicketStatusUsed, ticketID, models.TicketStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to mark ticket used: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM tickets WHERE ticket_id = $1`, ticketID).Scan(&status)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}
	switch status {
	case models.TicketStatusUsed:
		return apperrors.ErrAlreadyUsed
	case models.TicketStatusCancelled:
		return apperrors.ErrAlreadyCancelled
	}
	return fmt.Errorf("unexpected ticket status %q", status)
}

// CancelByBookingID transitions every ticket of a booking to CANCELLED.
// Rows are locked for the duration of the transaction so that two
// concurrent cancellations of the same booking serialize: the second one
// observes the first one's terminal states and fails, and a refund is
// never computed twice.
func (r *TicketRepository) CancelByBookingID(ctx context.Context, bookingID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT ticket_id, status FROM tickets WHERE booking_id = $1 FOR UPDATE`, bookingID)
	if err != nil {
		return nil, err
	}
	ticketIDs, err := checkAllConfirmed(rows)
	if err != nil {
		return nil, err
	}
	if len(ticketIDs) == 0 {
		return nil, apperrors.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tickets SET status = $1, updated_at = NOW() WHERE booking_id = $2`,
		models.TicketStatusCancelled, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking tickets: %w", err)
	}

	return ticketIDs, tx.Commit()
}

// CancelByTicketIDs transitions only the selected tickets to CANCELLED,
// with the same locking discipline as CancelByBookingID. The remaining
// tickets of the booking stay CONFIRMED.
func (r *TicketRepository) CancelByTicketIDs(ctx context.Context, ticketIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT ticket_id, status FROM tickets WHERE ticket_id = ANY($1) FOR UPDATE`,
		pq.Array(ticketIDs))
	if err != nil {
		return err
	}
	locked, err := checkAllConfirmed(rows)
	if err != nil {
		return err
	}
	if len(locked) != len(ticketIDs) {
		return apperrors.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tickets SET status = $1, updated_at = NOW() WHERE ticket_id = ANY($2)`,
		models.TicketStatusCancelled, pq.Array(ticketIDs))
	if err != nil {
		return fmt.Errorf("failed to cancel tickets: %w", err)
	}

	return tx.Commit()
}

// GetPage returns tickets in stable order for index backfills.
func (r *TicketRepository) GetPage(ctx context.Context, offset, limit int) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		ORDER BY created_at, ticket_id
		OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

// GetUpdatedSince returns tickets whose state changed after the given
// instant. Used by the index reconciliation job.
func (r *TicketRepository) GetUpdatedSince(ctx context.Context, since time.Time) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE updated_at > $1
		ORDER BY updated_at`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

// DeleteByID removes a ticket record entirely. Administrative operation,
// not part of the normal lifecycle.
func (r *TicketRepository) DeleteByID(ctx context.Context, ticketID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func checkAllConfirmed(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var ticketIDs []string
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		switch status {
		case models.TicketStatusCancelled:
			return nil, apperrors.ErrAlreadyCancelled
		case models.TicketStatusUsed:
			return nil, apperrors.ErrAlreadyUsed
		}
		ticketIDs = append(ticketIDs, id)
	}
	return ticketIDs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var couponName, couponCode sql.NullString
	var couponPct sql.NullInt64

	err := row.Scan(
		&t.TicketID, &t.BookingID, &t.UserID, &t.MovieID, &t.TheaterID, &t.ScreenID,
		&t.ShowtimeID, &t.SeatRow, &t.SeatNumber, &t.SeatType, &t.Price, &t.ShowAt,
		&t.QRCode, &t.Status, &couponName, &couponCode, &couponPct,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if couponName.Valid {
		t.Coupon = &models.Coupon{
			Name:        couponName.String,
			Code:        couponCode.String,
			DiscountPct: couponPct.Int64,
		}
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
