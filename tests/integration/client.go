package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kinogate/internal/models"
)

// TestClient provides authenticated access to a running ticket API.
type TestClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewTestClient creates a client with a freshly minted requester token.
func NewTestClient(t *testing.T, baseURL, jwtSecret, userID string) *TestClient {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}

	return &TestClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// decodeEnvelope unwraps the API response envelope into dest.
func decodeEnvelope(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()

	envelope := struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if dest != nil {
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			t.Fatalf("Failed to decode response data: %v", err)
		}
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", want, resp.StatusCode, string(body))
	}
}

// IssueTickets issues tickets for a row-grouped seat selection.
func (c *TestClient) IssueTickets(t *testing.T, req models.IssueFromRowsRequest) *models.IssueTicketsResponse {
	resp := c.makeRequest(t, "POST", "/api/tickets", req)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusCreated)

	var issued models.IssueTicketsResponse
	decodeEnvelope(t, resp, &issued)
	return &issued
}

// VerifyTicket scans an admission token and returns the HTTP status.
func (c *TestClient) VerifyTicket(t *testing.T, token string) (int, *models.VerifyResponse) {
	resp := c.makeRequest(t, "POST", "/api/tickets/verify", models.VerifyRequest{QRCode: token})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var verified models.VerifyResponse
	decodeEnvelope(t, resp, &verified)
	return resp.StatusCode, &verified
}

// MarkUsed admits a ticket and returns the HTTP status.
func (c *TestClient) MarkUsed(t *testing.T, ticketID string) int {
	resp := c.makeRequest(t, "PATCH", "/api/tickets/use", models.MarkUsedRequest{TicketID: ticketID})
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// CancelBooking cancels a whole booking and returns status plus refund.
func (c *TestClient) CancelBooking(t *testing.T, bookingID string, amount int64) (int, *models.CancellationResponse) {
	req := models.CancelBookingRequest{BookingID: bookingID, Amount: amount}
	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var cancellation models.CancellationResponse
	decodeEnvelope(t, resp, &cancellation)
	return resp.StatusCode, &cancellation
}

// CancelSelected cancels a subset of tickets and returns status plus refund.
func (c *TestClient) CancelSelected(t *testing.T, ticketIDs []string, amount int64) (int, *models.CancellationResponse) {
	req := models.CancelSelectedRequest{TicketIDs: ticketIDs, Amount: amount}
	resp := c.makeRequest(t, "PATCH", "/api/tickets/cancel", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}

	var cancellation models.CancellationResponse
	decodeEnvelope(t, resp, &cancellation)
	return resp.StatusCode, &cancellation
}

// GetBookingTickets lists the tickets of one booking.
func (c *TestClient) GetBookingTickets(t *testing.T, bookingID string) []models.Ticket {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/bookings/%s/tickets", bookingID), nil)
	defer resp.Body.Close()

	expectStatus(t, resp, http.StatusOK)

	var tickets []models.Ticket
	decodeEnvelope(t, resp, &tickets)
	return tickets
}

// Health checks the health endpoint without authentication.
func (c *TestClient) Health(t *testing.T) int {
	req, err := http.NewRequest("GET", c.BaseURL+"/health", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}
