package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaymentClient executes refunds against the payment gateway. Payment
// capture happens outside this service; the gateway is only called from
// the consumer side after tickets have already transitioned to CANCELLED,
// and a failed refund call never rolls that transition back.
type PaymentClient struct {
	baseURL    string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RefundRequest struct {
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

type RefundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (pc *PaymentClient) Refund(req RefundRequest) (*RefundResponse, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refund request: %w", err)
	}

	resp, err := pc.httpClient.Post(pc.baseURL+"/api/v1/refunds", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result RefundResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refund response: %w", err)
	}

	return &result, nil
}
