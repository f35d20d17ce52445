package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
)

// PaymentService talks to the external payment gateway. The gateway charges
// the business, then confirms asynchronously via a signed webhook; the
// confirmation reference it issues is what the contract lifecycle records.
type PaymentService struct {
	config     *config.PaymentConfig
	httpClient *http.Client
}

// CheckoutRequest asks the gateway to collect a payment.
type CheckoutRequest struct {
	ContractID  string  `json:"contract_id"`
	MilestoneID string  `json:"milestone_id,omitempty"`
	BusinessID  string  `json:"business_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	WebhookURL  string  `json:"webhook_url,omitempty"`
}

// CheckoutResponse carries the gateway's reference and the URL the business
// is redirected to.
type CheckoutResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		Reference   string `json:"reference"`
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// WebhookPayload is the signed confirmation the gateway posts back.
// Checksum = SHA256(content + webhook secret).
type WebhookPayload struct {
	Checksum string `json:"checksum"`
	Content  string `json:"content"`
}

// WebhookContent is the decoded confirmation body.
type WebhookContent struct {
	Reference   string `json:"reference"`
	ContractID  string `json:"contract_id"`
	MilestoneID string `json:"milestone_id,omitempty"`
	BusinessID  string `json:"business_id"`
	State       string `json:"state"` // succeeded, failed
	ErrorMsg    string `json:"err_msg,omitempty"`
}

func NewPaymentService(cfg *config.PaymentConfig) *PaymentService {
	return &PaymentService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckout registers a pending payment with the gateway.
func (s *PaymentService) CreateCheckout(ctx context.Context, checkout CheckoutRequest) (*CheckoutResponse, error) {
	jsonData, err := json.Marshal(checkout)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/v1/checkout", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result CheckoutResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("payment gateway error: %s", result.Message)
	}

	return &result, nil
}

// VerifyWebhook verifies the webhook checksum
func (s *PaymentService) VerifyWebhook(checksum, content string) bool {
	data := content + s.config.WebhookSecret
	hash := sha256.Sum256([]byte(data))
	expected := hex.EncodeToString(hash[:])
	return checksum == expected
}
