package models

// Response is the uniform envelope returned by every API endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SeatRowSelection describes the seats selected within one row: the row
// label, the seat category and unit price shared by the row, and the seat
// numbers chosen.
type SeatRowSelection struct {
	Row         string `json:"row" binding:"required"`
	SeatType    string `json:"seat_type" binding:"required"`
	Price       int64  `json:"price" binding:"required"`
	SeatNumbers []int  `json:"seat_numbers" binding:"required"`
}

// SeatBreakdown gives the seat category and unit price for one entry of a
// flat seat-code list. The array order must match the seat-code order.
type SeatBreakdown struct {
	SeatType string `json:"seat_type" binding:"required"`
	Price    int64  `json:"price" binding:"required"`
}

// BookingContext carries the catalog facts supplied by the booking
// confirmation collaborator. Nothing here is computed by this service.
type BookingContext struct {
	BookingID  string `json:"booking_id" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
	MovieID    string `json:"movie_id" binding:"required"`
	TheaterID  string `json:"theater_id" binding:"required"`
	ScreenID   string `json:"screen_id" binding:"required"`
	ShowtimeID string `json:"showtime_id" binding:"required"`
	ShowDate   string `json:"show_date" binding:"required"` // 2006-01-02
	ShowTime   string `json:"show_time" binding:"required"` // 15:04
	Coupon     *Coupon `json:"coupon,omitempty"`
}

// IssueFromRowsRequest issues one ticket per selected seat, grouped by row.
type IssueFromRowsRequest struct {
	BookingContext
	Rows []SeatRowSelection `json:"rows" binding:"required"`
}

// IssueFromCodesRequest issues tickets from a flat seat-code list
// ("A12") plus a parallel breakdown array giving type/price per index.
type IssueFromCodesRequest struct {
	BookingContext
	SeatCodes     []string        `json:"seat_codes" binding:"required"`
	SeatBreakdown []SeatBreakdown `json:"seat_breakdown" binding:"required"`
}

// IssuedTicket is the per-seat result of an issuance call.
type IssuedTicket struct {
	TicketID   string `json:"ticket_id"`
	SeatRow    string `json:"seat_row"`
	SeatNumber int    `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	Price      int64  `json:"price"`
	QRCode     string `json:"qr_code"`
}

// IssueTicketsResponse groups the issued tickets under their booking.
type IssueTicketsResponse struct {
	BookingID string         `json:"booking_id"`
	Tickets   []IssuedTicket `json:"tickets"`
}

// VerifyRequest carries the scanned admission token.
type VerifyRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

// VerifyResponse returns the decoded ticket identity and the stored ticket.
type VerifyResponse struct {
	TicketID string  `json:"ticket_id"`
	Ticket   *Ticket `json:"ticket"`
}

// MarkUsedRequest transitions a verified ticket to USED.
type MarkUsedRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
}

// CancelBookingRequest cancels every ticket of a booking. Amount is the
// original booking amount in cents, as charged by the payment collaborator.
type CancelBookingRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}

// CancelSelectedRequest cancels a subset of a booking's tickets. Amount
// must be the caller's recomputation of the selected subset's price; the
// service does not recompute it.
type CancelSelectedRequest struct {
	TicketIDs []string `json:"ticket_ids" binding:"required"`
	Amount    int64    `json:"amount" binding:"required"`
}

// CancellationResponse reports the refund computed for a cancellation.
type CancellationResponse struct {
	RefundPercent  int64  `json:"refund_percent"`
	OriginalAmount int64  `json:"original_amount"`
	RefundAmount   int64  `json:"refund_amount"`
	ShowDate       string `json:"show_date"`
	ShowTime       string `json:"show_time"`
}
