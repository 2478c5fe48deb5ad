package integration

import (
	"net/http"
	"testing"
	"time"

	"kinogate/internal/models"
)

func TestHealthEndpoint(t *testing.T) {
	client := newLifecycleClient(t, "it-user-health")

	status := client.Health(t)
	if status != http.StatusOK {
		t.Fatalf("Expected healthy instance, got status %d", status)
	}
}

func TestTicketLifecycle(t *testing.T) {
	userID := "it-user-lifecycle"
	client := newLifecycleClient(t, userID)

	LogTestStep(t, "Issuing tickets for a new booking")
	req := newBookingRequest(userID, 24*time.Hour)
	issued := client.IssueTickets(t, req)

	if len(issued.Tickets) != 3 {
		t.Fatalf("Expected 3 tickets, got %d", len(issued.Tickets))
	}

	LogTestStep(t, "Verifying the first admission token")
	status, verified := client.VerifyTicket(t, issued.Tickets[0].QRCode)
	if status != http.StatusOK {
		t.Fatalf("Expected verification to succeed, got status %d", status)
	}
	if verified.TicketID != issued.Tickets[0].TicketID {
		t.Fatalf("Verified ticket id %s does not match issued %s", verified.TicketID, issued.Tickets[0].TicketID)
	}

	LogTestStep(t, "Admitting the ticket")
	if status := client.MarkUsed(t, issued.Tickets[0].TicketID); status != http.StatusOK {
		t.Fatalf("Expected admission to succeed, got status %d", status)
	}

	LogTestStep(t, "Re-admitting the same ticket must conflict")
	if status := client.MarkUsed(t, issued.Tickets[0].TicketID); status != http.StatusConflict {
		t.Fatalf("Expected repeat admission to return 409, got %d", status)
	}

	tickets := client.GetBookingTickets(t, req.BookingID)
	AssertTicketStatus(t, tickets, issued.Tickets[0].TicketID, models.TicketStatusUsed)
	AssertTicketStatus(t, tickets, issued.Tickets[1].TicketID, models.TicketStatusConfirmed)
}

func TestBookingCancellation(t *testing.T) {
	userID := "it-user-cancel"
	client := newLifecycleClient(t, userID)

	req := newBookingRequest(userID, 24*time.Hour)
	client.IssueTickets(t, req)

	LogTestStep(t, "Cancelling the booking a day before the show")
	status, cancellation := client.CancelBooking(t, req.BookingID, bookingAmount())
	if status != http.StatusOK {
		t.Fatalf("Expected cancellation to succeed, got status %d", status)
	}
	if cancellation.RefundPercent != 75 {
		t.Fatalf("Expected 75 percent refund tier, got %d", cancellation.RefundPercent)
	}
	if cancellation.RefundAmount != 60000 {
		t.Fatalf("Expected refund of 60000, got %d", cancellation.RefundAmount)
	}

	LogTestStep(t, "Repeating the cancellation must conflict")
	status, _ = client.CancelBooking(t, req.BookingID, bookingAmount())
	if status != http.StatusConflict {
		t.Fatalf("Expected repeat cancellation to return 409, got %d", status)
	}

	LogTestStep(t, "Cancelled tokens no longer verify")
	tickets := client.GetBookingTickets(t, req.BookingID)
	vstatus, _ := client.VerifyTicket(t, tickets[0].QRCode)
	if vstatus != http.StatusNotFound {
		t.Fatalf("Expected cancelled token to return 404, got %d", vstatus)
	}
}

func TestSelectedTicketCancellation(t *testing.T) {
	userID := "it-user-partial"
	client := newLifecycleClient(t, userID)

	req := newBookingRequest(userID, 24*time.Hour)
	issued := client.IssueTickets(t, req)

	LogTestStep(t, "Cancelling one seat out of three")
	status, cancellation := client.CancelSelected(t, []string{issued.Tickets[0].TicketID}, 30000)
	if status != http.StatusOK {
		t.Fatalf("Expected partial cancellation to succeed, got status %d", status)
	}
	if cancellation.RefundAmount != 22500 {
		t.Fatalf("Expected refund of 22500, got %d", cancellation.RefundAmount)
	}

	tickets := client.GetBookingTickets(t, req.BookingID)
	AssertTicketStatus(t, tickets, issued.Tickets[0].TicketID, models.TicketStatusCancelled)
	AssertTicketStatus(t, tickets, issued.Tickets[1].TicketID, models.TicketStatusConfirmed)
	AssertTicketStatus(t, tickets, issued.Tickets[2].TicketID, models.TicketStatusConfirmed)
}

func TestCancellationOwnership(t *testing.T) {
	ownerID := "it-user-owner"
	owner := newLifecycleClient(t, ownerID)
	stranger := newLifecycleClient(t, "it-user-stranger")

	req := newBookingRequest(ownerID, 24*time.Hour)
	owner.IssueTickets(t, req)

	LogTestStep(t, "A different user must not be able to cancel the booking")
	status, _ := stranger.CancelBooking(t, req.BookingID, bookingAmount())
	if status != http.StatusForbidden {
		t.Fatalf("Expected foreign cancellation to return 403, got %d", status)
	}
}
