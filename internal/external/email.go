package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmailClient talks to the notification collaborator that delivers issued
// tickets to the booker. Every call is best-effort: callers log failures
// and never propagate them into the ticket lifecycle result.
type EmailClient struct {
	baseURL    string
	httpClient *http.Client
}

type EmailConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SendTicketsRequest struct {
	BookingID string   `json:"booking_id"`
	UserID    string   `json:"user_id"`
	TicketIDs []string `json:"ticket_ids"`
}

type SendCancellationRequest struct {
	BookingID    string `json:"booking_id"`
	UserID       string `json:"user_id"`
	RefundAmount int64  `json:"refund_amount"`
}

func NewEmailClient(cfg EmailConfig) *EmailClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &EmailClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (ec *EmailClient) SendTickets(req SendTicketsRequest) error {
	return ec.post("/api/v1/emails/tickets", req)
}

func (ec *EmailClient) SendCancellation(req SendCancellationRequest) error {
	return ec.post("/api/v1/emails/cancellation", req)
}

func (ec *EmailClient) post(path string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := ec.httpClient.Post(ec.baseURL+path, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to call email service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
