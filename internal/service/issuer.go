package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"kinogate/internal/clock"
	apperrors "kinogate/internal/errors"
	"kinogate/internal/logger"
	"kinogate/internal/metrics"
	"kinogate/internal/models"
	"kinogate/internal/qr"
)

// IssuerService creates ticket records and admission tokens from confirmed
// booking data. Seat locking happened upstream; by the time a booking
// reaches issuance its seats are already reserved.
type IssuerService struct {
	store TicketStore
	codec *qr.Codec
	clk   clock.Clock
	nats  Publisher
	index TicketIndexer
}

func NewIssuerService(store TicketStore, codec *qr.Codec, clk clock.Clock, nats Publisher, index TicketIndexer) *IssuerService {
	return &IssuerService{store: store, codec: codec, clk: clk, nats: nats, index: index}
}

// IssueFromRows creates one ticket per selected seat, grouped by row.
func (s *IssuerService) IssueFromRows(ctx context.Context, req *models.IssueFromRowsRequest) (*models.IssueTicketsResponse, error) {
	showAt, err := parseShowAt(req.ShowDate, req.ShowTime)
	if err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: no seat rows selected", apperrors.ErrValidation)
	}

	var tickets []models.Ticket
	for _, row := range req.Rows {
		if len(row.SeatNumbers) == 0 {
			return nil, fmt.Errorf("%w: row %s has no seats selected", apperrors.ErrValidation, row.Row)
		}
		for _, seatNumber := range row.SeatNumbers {
			t, err := s.buildTicket(&req.BookingContext, showAt, row.Row, seatNumber, row.SeatType, row.Price)
			if err != nil {
				return nil, err
			}
			tickets = append(tickets, *t)
		}
	}

	return s.persist(ctx, &req.BookingContext, tickets)
}

// IssueFromCodes creates tickets from a flat seat-code list ("A12") with a
// parallel breakdown giving type and price per index. The breakdown order
// must match the seat-code order; a reordered breakdown silently
// mis-prices seats, which is part of the caller contract, not a detectable
// error. Only a length mismatch is rejected.
func (s *IssuerService) IssueFromCodes(ctx context.Context, req *models.IssueFromCodesRequest) (*models.IssueTicketsResponse, error) {
	showAt, err := parseShowAt(req.ShowDate, req.ShowTime)
	if err != nil {
		return nil, err
	}
	if len(req.SeatCodes) == 0 {
		return nil, fmt.Errorf("%w: no seat codes given", apperrors.ErrValidation)
	}
	if len(req.SeatCodes) != len(req.SeatBreakdown) {
		return nil, fmt.Errorf("%w: seat breakdown length %d does not match %d seat codes",
			apperrors.ErrValidation, len(req.SeatBreakdown), len(req.SeatCodes))
	}

	var tickets []models.Ticket
	for i, code := range req.SeatCodes {
		row, seatNumber, err := parseSeatCode(code)
		if err != nil {
			return nil, err
		}
		b := req.SeatBreakdown[i]
		t, err := s.buildTicket(&req.BookingContext, showAt, row, seatNumber, b.SeatType, b.Price)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}

	return s.persist(ctx, &req.BookingContext, tickets)
}

func (s *IssuerService) buildTicket(bc *models.BookingContext, showAt time.Time, row string, seatNumber int, seatType string, price int64) (*models.Ticket, error) {
	ticketID := uuid.New().String()

	token, err := s.codec.Encode(qr.Payload{TicketID: ticketID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode admission token: %w", err)
	}

	return &models.Ticket{
		TicketID:   ticketID,
		BookingID:  bc.BookingID,
		UserID:     bc.UserID,
		MovieID:    bc.MovieID,
		TheaterID:  bc.TheaterID,
		ScreenID:   bc.ScreenID,
		ShowtimeID: bc.ShowtimeID,
		SeatRow:    row,
		SeatNumber: seatNumber,
		SeatType:   seatType,
		Price:      price,
		ShowAt:     showAt,
		QRCode:     token,
		Status:     models.TicketStatusConfirmed,
		Coupon:     bc.Coupon,
	}, nil
}

func (s *IssuerService) persist(ctx context.Context, bc *models.BookingContext, tickets []models.Ticket) (*models.IssueTicketsResponse, error) {
	if err := s.store.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to persist tickets: %w", err)
	}

	metrics.TicketsIssued.Add(float64(len(tickets)))

	ticketIDs := make([]string, len(tickets))
	issued := make([]models.IssuedTicket, len(tickets))
	for i, t := range tickets {
		ticketIDs[i] = t.TicketID
		issued[i] = models.IssuedTicket{
			TicketID:   t.TicketID,
			SeatRow:    t.SeatRow,
			SeatNumber: t.SeatNumber,
			SeatType:   t.SeatType,
			Price:      t.Price,
			QRCode:     t.QRCode,
		}
	}

	// Notification and indexing are best-effort: the tickets exist, a
	// failed side effect never rolls them back or fails the call.
	if s.nats != nil {
		event := models.TicketsIssuedEvent{
			BookingID:  bc.BookingID,
			UserID:     bc.UserID,
			ShowtimeID: bc.ShowtimeID,
			TicketIDs:  ticketIDs,
			Timestamp:  s.clk.Now(),
		}
		if err := s.nats.Publish(models.EventTicketsIssued, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish tickets issued event",
				"error", err,
				"booking_id", bc.BookingID,
				"event_type", models.EventTicketsIssued)
		}
	}

	if s.index != nil {
		if err := s.index.IndexTickets(ctx, tickets); err != nil {
			logger.WithContext(ctx).Error("Failed to index issued tickets",
				"error", err,
				"booking_id", bc.BookingID)
		}
	}

	return &models.IssueTicketsResponse{
		BookingID: bc.BookingID,
		Tickets:   issued,
	}, nil
}

func parseShowAt(showDate, showTime string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", showDate+" "+showTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid show date/time %q %q",
			apperrors.ErrValidation, showDate, showTime)
	}
	return t.UTC(), nil
}

// parseSeatCode splits "A12" into row "A" and seat number 12.
func parseSeatCode(code string) (string, int, error) {
	trimmed := strings.TrimSpace(code)
	split := -1
	for i, r := range trimmed {
		if unicode.IsDigit(r) {
			split = i
			break
		}
	}
	if split <= 0 {
		return "", 0, fmt.Errorf("%w: invalid seat code %q", apperrors.ErrValidation, code)
	}

	row := trimmed[:split]
	number, err := strconv.Atoi(trimmed[split:])
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("%w: invalid seat code %q", apperrors.ErrValidation, code)
	}
	return row, number, nil
}
