package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payment statuses as reported by Razorpay.
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusFailed     = "failed"
)

// Payment is the authoritative payment object fetched from the gateway.
// Amount is in the smallest currency unit (paise for INR).
type Payment struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

// IsSuccessful reports whether money has actually moved for this payment.
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusCaptured || p.Status == PaymentStatusAuthorized
}

// AmountInRupees converts the paise amount to rupees.
func (p *Payment) AmountInRupees() float64 {
	return float64(p.Amount) / 100
}

// Order is the gateway order object.
type Order struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// Client fetches authoritative payment state from the gateway. The
// reconciliation flow never trusts amounts or statuses from the callback
// body; it always re-reads them through this interface.
type Client interface {
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type razorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewClient builds a Razorpay REST client authenticated with the key pair.
func NewClient(baseURL, keyID, keySecret string) Client {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &razorpayClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := c.get(ctx, "/payments/"+paymentID, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *razorpayClient) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.get(ctx, "/orders/"+orderID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *razorpayClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("razorpay response read failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("razorpay %s: %s (%s)", path, apiErr.Error.Description, apiErr.Error.Code)
		}
		return fmt.Errorf("razorpay %s: unexpected status %d", path, resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}
