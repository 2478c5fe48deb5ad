package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "kinogate/internal/errors"
	"kinogate/internal/models"
	"kinogate/internal/pricing"
)

// IssueTickets - POST /api/tickets
// Issue one ticket per selected seat from row-grouped booking data.
func (h *Handlers) IssueTickets(c *gin.Context) {
	var req models.IssueFromRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.services.Issuer.IssueFromRows(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to issue tickets", "error", err, "booking_id", req.BookingID)
		respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, "Tickets issued", response)
}

// IssueTicketsFromCodes - POST /api/tickets/codes
// Issue tickets from a flat seat-code list with a parallel breakdown.
func (h *Handlers) IssueTicketsFromCodes(c *gin.Context) {
	var req models.IssueFromCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.services.Issuer.IssueFromCodes(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to issue tickets from codes", "error", err, "booking_id", req.BookingID)
		respondError(c, err)
		return
	}

	ok(c, http.StatusCreated, "Tickets issued", response)
}

// VerifyTicket - POST /api/tickets/verify
// Gate-side check of a scanned admission token. Read-only.
func (h *Handlers) VerifyTicket(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.services.Verifier.Verify(c.Request.Context(), req.QRCode)
	if err != nil {
		// Missing and cancelled tickets are indistinguishable to the
		// scanning client.
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrAlreadyCancelled) {
			fail(c, http.StatusNotFound, "Ticket not found or cancelled")
			return
		}
		respondError(c, err)
		return
	}

	ok(c, http.StatusOK, "Ticket is valid", response)
}

// MarkTicketUsed - PATCH /api/tickets/use
// Explicit admission: transitions the ticket to USED exactly once.
func (h *Handlers) MarkTicketUsed(c *gin.Context) {
	var req models.MarkUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Verifier.MarkAsUsed(c.Request.Context(), req.TicketID); err != nil {
		slog.Error("Failed to mark ticket used", "error", err, "ticket_id", req.TicketID)
		respondError(c, err)
		return
	}

	ok(c, http.StatusOK, "Ticket marked as used", nil)
}

// CancelBooking - PATCH /api/bookings/cancel
// Cancel every ticket of the requester's booking and report the refund.
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.services.Cancellation.CancelBooking(
		c.Request.Context(), req.BookingID, requesterID(c), req.Amount)
	if err != nil {
		slog.Error("Failed to cancel booking", "error", err, "booking_id", req.BookingID)
		respondError(c, err)
		return
	}

	ok(c, http.StatusOK, "Booking cancelled", response)
}

// CancelSelectedTickets - PATCH /api/tickets/cancel
// Cancel a subset of a booking's tickets.
func (h *Handlers) CancelSelectedTickets(c *gin.Context) {
	var req models.CancelSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.services.Cancellation.CancelSelected(
		c.Request.Context(), req.TicketIDs, requesterID(c), req.Amount)
	if err != nil {
		slog.Error("Failed to cancel selected tickets", "error", err)
		respondError(c, err)
		return
	}

	ok(c, http.StatusOK, "Tickets cancelled", response)
}

// GetBookingTickets - GET /api/bookings/:id/tickets
func (h *Handlers) GetBookingTickets(c *gin.Context) {
	bookingID := c.Param("id")

	tickets, err := h.store.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		slog.Error("Failed to load booking tickets", "error", err, "booking_id", bookingID)
		respondError(c, err)
		return
	}
	if len(tickets) == 0 {
		fail(c, http.StatusNotFound, "Not found")
		return
	}

	ok(c, http.StatusOK, "", tickets)
}

// GetBookingPricing - GET /api/bookings/:id/pricing
// Price breakdown per seat category for one booking.
func (h *Handlers) GetBookingPricing(c *gin.Context) {
	bookingID := c.Param("id")

	tickets, err := h.store.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		slog.Error("Failed to load booking tickets", "error", err, "booking_id", bookingID)
		respondError(c, err)
		return
	}
	if len(tickets) == 0 {
		fail(c, http.StatusNotFound, "Not found")
		return
	}

	ok(c, http.StatusOK, "", pricing.Calculate(tickets))
}

// SearchTickets - GET /api/tickets/search
// Ops lookup over the search index.
func (h *Handlers) SearchTickets(c *gin.Context) {
	if h.index == nil {
		fail(c, http.StatusServiceUnavailable, "Search is not configured")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 || pageSize < 1 || pageSize > 100 {
		fail(c, http.StatusBadRequest, "invalid pagination")
		return
	}

	tickets, err := h.index.Search(c.Request.Context(),
		c.Query("user_id"), c.Query("movie_id"), c.Query("booking_id"), c.Query("status"),
		page, pageSize)
	if err != nil {
		slog.Error("Failed to search tickets", "error", err)
		fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok(c, http.StatusOK, "", tickets)
}

// DeleteTicket - DELETE /api/tickets/:id
// Administrative removal, outside the normal lifecycle.
func (h *Handlers) DeleteTicket(c *gin.Context) {
	ticketID := c.Param("id")

	if err := h.services.Admin.DeleteTicket(c.Request.Context(), ticketID); err != nil {
		slog.Error("Failed to delete ticket", "error", err, "ticket_id", ticketID)
		respondError(c, err)
		return
	}

	ok(c, http.StatusOK, "Ticket deleted", nil)
}
