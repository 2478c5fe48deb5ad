package integration

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"kinogate/internal/models"
)

// newLifecycleClient skips the test unless a target API is configured,
// then returns an authenticated client for it. The suite needs a running
// instance with Postgres behind it.
func newLifecycleClient(t *testing.T, userID string) *TestClient {
	t.Helper()

	baseURL := os.Getenv("KINOGATE_API_URL")
	if baseURL == "" {
		t.Skip("KINOGATE_API_URL not set, skipping integration test")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	return NewTestClient(t, baseURL, secret, userID)
}

// newBookingRequest builds a unique booking for a show at the given
// offset from now.
func newBookingRequest(userID string, showIn time.Duration) models.IssueFromRowsRequest {
	bookingID := uuid.New().String()
	showAt := time.Now().UTC().Add(showIn)

	return models.IssueFromRowsRequest{
		BookingContext: models.BookingContext{
			BookingID:  bookingID,
			UserID:     userID,
			MovieID:    "it-movie",
			TheaterID:  "it-theater",
			ScreenID:   "it-screen",
			ShowtimeID: uuid.New().String(),
			ShowDate:   showAt.Format("2006-01-02"),
			ShowTime:   showAt.Format("15:04"),
		},
		Rows: []models.SeatRowSelection{
			{Row: "A", SeatType: "premium", Price: 30000, SeatNumbers: []int{1, 2}},
			{Row: "B", SeatType: "standard", Price: 20000, SeatNumbers: []int{5}},
		},
	}
}

// AssertTicketStatus verifies one ticket's status within a booking.
func AssertTicketStatus(t *testing.T, tickets []models.Ticket, ticketID, expectedStatus string) {
	t.Helper()
	for _, ticket := range tickets {
		if ticket.TicketID == ticketID {
			if ticket.Status != expectedStatus {
				t.Fatalf("Ticket %s has status %q, expected %q", ticketID, ticket.Status, expectedStatus)
			}
			return
		}
	}
	t.Fatalf("Ticket %s not found in booking, %+v", ticketID, tickets)
}

// LogTestStep logs a test step for better debugging
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf(step, args...)
}

// bookingAmount is the charged total for newBookingRequest bookings:
// two premium seats and one standard seat.
func bookingAmount() int64 {
	return 2*30000 + 20000
}
