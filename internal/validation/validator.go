package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kinogate/internal/models"
)

// LifecycleValidator drives a full ticket lifecycle against a running API
// instance: issue, verify, admit, double-admit, cancel. It is a smoke
// check for deployed environments, not a substitute for the unit tests.
type LifecycleValidator struct {
	baseURL string
	token   string
}

func NewLifecycleValidator(baseURL, jwtSecret string) (*LifecycleValidator, error) {
	token, err := mintToken(jwtSecret, "validator-user")
	if err != nil {
		return nil, fmt.Errorf("failed to mint validation token: %w", err)
	}
	return &LifecycleValidator{baseURL: baseURL, token: token}, nil
}

// mintToken signs a short-lived requester token the same way the upstream
// identity service does.
func mintToken(secret, userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (v *LifecycleValidator) ValidateAll() error {
	log.Println("Starting ticket lifecycle validation...")

	issued, err := v.validateIssue()
	if err != nil {
		return fmt.Errorf("issuance validation failed: %w", err)
	}

	if err := v.validateVerifyAndAdmit(issued); err != nil {
		return fmt.Errorf("verification validation failed: %w", err)
	}

	if err := v.validateCancellation(); err != nil {
		return fmt.Errorf("cancellation validation failed: %w", err)
	}

	log.Println("All lifecycle checks passed")
	return nil
}

func (v *LifecycleValidator) validateIssue() (*models.IssueTicketsResponse, error) {
	log.Println("Checking ticket issuance...")

	req := issueRequest(fmt.Sprintf("validate-%d", time.Now().UnixNano()))

	resp, err := v.makeRequest("POST", "/api/tickets", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("POST /api/tickets: expected 201, got %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool                        `json:"success"`
		Data    models.IssueTicketsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("POST /api/tickets: failed to decode response: %w", err)
	}

	if len(envelope.Data.Tickets) != 3 {
		return nil, fmt.Errorf("POST /api/tickets: expected 3 tickets, got %d", len(envelope.Data.Tickets))
	}
	for _, t := range envelope.Data.Tickets {
		if t.TicketID == "" || t.QRCode == "" {
			return nil, fmt.Errorf("POST /api/tickets: ticket missing id or token")
		}
	}

	log.Println("Ticket issuance OK")
	return &envelope.Data, nil
}

func (v *LifecycleValidator) validateVerifyAndAdmit(issued *models.IssueTicketsResponse) error {
	log.Println("Checking verification and admission...")

	ticket := issued.Tickets[0]

	resp, err := v.makeRequest("POST", "/api/tickets/verify", models.VerifyRequest{QRCode: ticket.QRCode})
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/tickets/verify: expected 200, got %d", resp.StatusCode)
	}

	resp, err = v.makeRequest("POST", "/api/tickets/verify", models.VerifyRequest{QRCode: "not-a-token"})
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("POST /api/tickets/verify (garbage): expected 400, got %d", resp.StatusCode)
	}

	resp, err = v.makeRequest("PATCH", "/api/tickets/use", models.MarkUsedRequest{TicketID: ticket.TicketID})
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PATCH /api/tickets/use: expected 200, got %d", resp.StatusCode)
	}

	// The same ticket must not admit twice.
	resp, err = v.makeRequest("PATCH", "/api/tickets/use", models.MarkUsedRequest{TicketID: ticket.TicketID})
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("PATCH /api/tickets/use (repeat): expected 409, got %d", resp.StatusCode)
	}

	log.Println("Verification and admission OK")
	return nil
}

func (v *LifecycleValidator) validateCancellation() error {
	log.Println("Checking cancellation...")

	bookingID := fmt.Sprintf("validate-cancel-%d", time.Now().UnixNano())
	issueReq := issueRequest(bookingID)

	resp, err := v.makeRequest("POST", "/api/tickets", issueReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/tickets: expected 201, got %d", resp.StatusCode)
	}

	cancelReq := models.CancelBookingRequest{BookingID: bookingID, Amount: 80000}
	resp, err = v.makeRequest("PATCH", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("PATCH /api/bookings/cancel: expected 200, got %d", resp.StatusCode)
	}

	var envelope struct {
		Data models.CancellationResponse `json:"data"`
	}
	err = json.NewDecoder(resp.Body).Decode(&envelope)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("PATCH /api/bookings/cancel: failed to decode response: %w", err)
	}
	if envelope.Data.OriginalAmount != 80000 {
		return fmt.Errorf("PATCH /api/bookings/cancel: unexpected original amount %d", envelope.Data.OriginalAmount)
	}

	// Repeat cancellation must conflict, not double-refund.
	resp, err = v.makeRequest("PATCH", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("PATCH /api/bookings/cancel (repeat): expected 409, got %d", resp.StatusCode)
	}

	log.Println("Cancellation OK")
	return nil
}

// issueRequest builds a booking for tomorrow evening so both verification
// and cancellation checks have room to run.
func issueRequest(bookingID string) models.IssueFromRowsRequest {
	showAt := time.Now().Add(24 * time.Hour)
	return models.IssueFromRowsRequest{
		BookingContext: models.BookingContext{
			BookingID:  bookingID,
			UserID:     "validator-user",
			MovieID:    "validate-movie",
			TheaterID:  "validate-theater",
			ScreenID:   "validate-screen",
			ShowtimeID: bookingID + "-showtime",
			ShowDate:   showAt.Format("2006-01-02"),
			ShowTime:   showAt.Format("15:04"),
		},
		Rows: []models.SeatRowSelection{
			{Row: "A", SeatType: "premium", Price: 30000, SeatNumbers: []int{1, 2}},
			{Row: "B", SeatType: "standard", Price: 20000, SeatNumbers: []int{5}},
		},
	}
}

func (v *LifecycleValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var reader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, v.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// RunValidation runs the lifecycle checks against a local instance.
func RunValidation() {
	baseURL := os.Getenv("VALIDATE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	validator, err := NewLifecycleValidator(baseURL, secret)
	if err != nil {
		log.Fatalf("Validation setup failed: %v", err)
	}
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Validation failed: %v", err)
	}
}
