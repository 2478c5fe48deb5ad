package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinogate/internal/clock"
	apperrors "kinogate/internal/errors"
	"kinogate/internal/models"
	"kinogate/internal/pricing"
	"kinogate/internal/qr"
	"kinogate/internal/service"
)

var testNow = time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

// memStore implements service.TicketStore in memory with the same
// conditional-update semantics as the Postgres repository.
type memStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	order   []string
}

func newMemStore() *memStore {
	return &memStore{tickets: make(map[string]*models.Ticket)}
}

func (m *memStore) CreateBatch(_ context.Context, tickets []models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range tickets {
		t := tickets[i]
		m.tickets[t.TicketID] = &t
		m.order = append(m.order, t.TicketID)
	}
	return nil
}

func (m *memStore) GetByTicketID(_ context.Context, ticketID string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (m *memStore) GetByBookingID(_ context.Context, bookingID string) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Ticket
	for _, id := range m.order {
		if m.tickets[id].BookingID == bookingID {
			result = append(result, *m.tickets[id])
		}
	}
	return result, nil
}

func (m *memStore) GetByTicketIDs(_ context.Context, ticketIDs []string) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Ticket
	for _, id := range ticketIDs {
		if t, ok := m.tickets[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *memStore) MarkUsed(_ context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[ticketID]
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

func (m *memStore) CancelByBookingID(_ context.Context, bookingID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, id := range m.order {
		t := m.tickets[id]
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
		m.tickets[id].Status = models.TicketStatusCancelled
	}
	return ids, nil
}

func (m *memStore) CancelByTicketIDs(_ context.Context, ticketIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ticketIDs {
		t, ok := m.tickets[id]
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
		m.tickets[id].Status = models.TicketStatusCancelled
	}
	return nil
}

func (m *memStore) DeleteByID(_ context.Context, ticketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticketID]; !ok {
		return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrNotFound)
	}
	delete(m.tickets, ticketID)
	return nil
}

// setUser injects the authenticated requester the way JWTAuth does.
func setUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func setupRouter(t *testing.T, store *memStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := qr.NewCodec(qr.Config{Secret: "test-secret"})
	require.NoError(t, err)

	services := service.NewServices(store, codec, clock.NewFixed(testNow), nil, nil, nil)
	h := NewHandlers(services, store, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(setUser("user-1"))
	{
		tickets := api.Group("/tickets")
		{
			tickets.POST("", h.IssueTickets)
			tickets.POST("/codes", h.IssueTicketsFromCodes)
			tickets.POST("/verify", h.VerifyTicket)
			tickets.PATCH("/use", h.MarkTicketUsed)
			tickets.PATCH("/cancel", h.CancelSelectedTickets)
			tickets.GET("/search", h.SearchTickets)
			tickets.DELETE("/:id", h.DeleteTicket)
		}

		bookings := api.Group("/bookings")
		{
			bookings.PATCH("/cancel", h.CancelBooking)
			bookings.GET("/:id/tickets", h.GetBookingTickets)
			bookings.GET("/:id/pricing", h.GetBookingPricing)
		}
	}

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(jsonBody)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func issueRequest(showDate, showTime string) models.IssueFromRowsRequest {
	return models.IssueFromRowsRequest{
		BookingContext: models.BookingContext{
			BookingID:  "booking-1",
			UserID:     "user-1",
			MovieID:    "movie-1",
			TheaterID:  "theater-1",
			ScreenID:   "screen-1",
			ShowtimeID: "showtime-1",
			ShowDate:   showDate,
			ShowTime:   showTime,
		},
		Rows: []models.SeatRowSelection{
			{Row: "A", SeatType: "premium", Price: 30000, SeatNumbers: []int{1, 2}},
			{Row: "B", SeatType: "standard", Price: 20000, SeatNumbers: []int{5}},
		},
	}
}

func issueTickets(t *testing.T, r *gin.Engine) models.IssueTicketsResponse {
	t.Helper()
	w := doJSON(t, r, "POST", "/api/tickets", issueRequest("2026-09-15", "19:30"))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool                        `json:"success"`
		Data    models.IssueTicketsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestIssueTicketsEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())

	issued := issueTickets(t, r)
	assert.Equal(t, "booking-1", issued.BookingID)
	assert.Len(t, issued.Tickets, 3)
	for _, ticket := range issued.Tickets {
		assert.NotEmpty(t, ticket.TicketID)
		assert.NotEmpty(t, ticket.QRCode)
	}
}

func TestIssueTicketsRejectsMissingFields(t *testing.T) {
	r := setupRouter(t, newMemStore())

	w := doJSON(t, r, "POST", "/api/tickets", map[string]any{"booking_id": "booking-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueTicketsFromCodesEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())

	req := models.IssueFromCodesRequest{
		BookingContext: issueRequest("2026-09-15", "19:30").BookingContext,
		SeatCodes:      []string{"A12", "C3"},
		SeatBreakdown: []models.SeatBreakdown{
			{SeatType: "premium", Price: 30000},
			{SeatType: "standard", Price: 20000},
		},
	}
	w := doJSON(t, r, "POST", "/api/tickets/codes", req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req.SeatBreakdown = req.SeatBreakdown[:1]
	w = doJSON(t, r, "POST", "/api/tickets/codes", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyTicketEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issued := issueTickets(t, r)

	w := doJSON(t, r, "POST", "/api/tickets/verify", models.VerifyRequest{QRCode: issued.Tickets[0].QRCode})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    models.VerifyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, issued.Tickets[0].TicketID, resp.Data.TicketID)
}

func TestVerifyTicketInvalidToken(t *testing.T) {
	r := setupRouter(t, newMemStore())

	w := doJSON(t, r, "POST", "/api/tickets/verify", models.VerifyRequest{QRCode: "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid QR code", resp.Message)
}

func TestVerifyCancelledTicketIndistinguishableFromMissing(t *testing.T) {
	store := newMemStore()
	r := setupRouter(t, store)
	issued := issueTickets(t, r)

	w := doJSON(t, r, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: "booking-1", Amount: 80000})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/api/tickets/verify", models.VerifyRequest{QRCode: issued.Tickets[0].QRCode})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ticket not found or cancelled", resp.Message)
}

func TestMarkTicketUsedEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issued := issueTickets(t, r)
	ticketID := issued.Tickets[0].TicketID

	w := doJSON(t, r, "PATCH", "/api/tickets/use", models.MarkUsedRequest{TicketID: ticketID})
	assert.Equal(t, http.StatusOK, w.Code)

	// A second admission attempt conflicts.
	w = doJSON(t, r, "PATCH", "/api/tickets/use", models.MarkUsedRequest{TicketID: ticketID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issueTickets(t, r)

	w := doJSON(t, r, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: "booking-1", Amount: 80000})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                        `json:"success"`
		Data    models.CancellationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// 19:30 show cancelled at 12:00 falls in the 75 percent tier.
	assert.Equal(t, int64(75), resp.Data.RefundPercent)
	assert.Equal(t, int64(60000), resp.Data.RefundAmount)

	w = doJSON(t, r, "PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: "booking-1", Amount: 80000})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelSelectedEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issued := issueTickets(t, r)

	req := models.CancelSelectedRequest{
		TicketIDs: []string{issued.Tickets[0].TicketID},
		Amount:    30000,
	}
	w := doJSON(t, r, "PATCH", "/api/tickets/cancel", req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.CancellationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(22500), resp.Data.RefundAmount)
}

func TestGetBookingTicketsEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issueTickets(t, r)

	w := doJSON(t, r, "GET", "/api/bookings/booking-1/tickets", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Ticket `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 3)

	w = doJSON(t, r, "GET", "/api/bookings/no-such-booking/tickets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBookingPricingEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issueTickets(t, r)

	w := doJSON(t, r, "GET", "/api/bookings/booking-1/pricing", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data pricing.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Groups, 2)
	assert.Equal(t, "premium", resp.Data.Groups[0].SeatType)
	assert.Equal(t, int64(60000), resp.Data.Groups[0].BasePrice)
	assert.Equal(t, "standard", resp.Data.Groups[1].SeatType)
	assert.Equal(t, int64(20000), resp.Data.Groups[1].BasePrice)
	assert.Equal(t, int64(98400), resp.Data.TotalAmount)
}

func TestSearchUnavailableWithoutIndex(t *testing.T) {
	r := setupRouter(t, newMemStore())

	w := doJSON(t, r, "GET", "/api/tickets/search", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeleteTicketEndpoint(t *testing.T) {
	r := setupRouter(t, newMemStore())
	issued := issueTickets(t, r)

	w := doJSON(t, r, "DELETE", "/api/tickets/"+issued.Tickets[0].TicketID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "DELETE", "/api/tickets/"+issued.Tickets[0].TicketID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
