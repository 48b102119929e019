package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	"github.com/wrenchly/service-booking/internal/domain/payment"
)

// Client is the HTTP adapter for the real payment processor's intent API.
type Client struct {
	baseURL    string
	apiKey     string
	currency   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a processor client against the given API base URL.
func NewClient(baseURL, apiKey, currency string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		currency: currency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type intentPayload struct {
	ID            string     `json:"id"`
	AmountCents   int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	CaptureMethod string     `json:"capture_method"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	ExtensionID   *uuid.UUID `json:"extension_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CapturedAt    *time.Time `json:"captured_at,omitempty"`
}

type refundPayload struct {
	ID          string    `json:"id"`
	IntentID    string    `json:"payment_intent"`
	AmountCents int64     `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent registers a new intent with the processor.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, refs payment.OwnerRefs, method payment.CaptureMethod) (*payment.Intent, error) {
	if amountCents < payment.MinIntentAmountCents {
		return nil, domain.NewAmountTooSmallError(amountCents, payment.MinIntentAmountCents)
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid capture method: %s", method))
	}

	body := map[string]interface{}{
		"amount":         amountCents,
		"currency":       c.currency,
		"capture_method": string(method),
	}
	if refs.BookingID != nil {
		body["booking_id"] = refs.BookingID.String()
	}
	if refs.ExtensionID != nil {
		body["extension_id"] = refs.ExtensionID.String()
	}

	return c.doIntent(ctx, "/v1/payment_intents", "", body)
}

// Confirm attaches and confirms the payment method for the intent.
func (c *Client) Confirm(ctx context.Context, intentID string) (*payment.Intent, error) {
	return c.doIntent(ctx, fmt.Sprintf("/v1/payment_intents/%s/confirm", intentID), intentID, nil)
}

// Capture settles a confirmed manual-capture intent.
func (c *Client) Capture(ctx context.Context, intentID string) (*payment.Intent, error) {
	return c.doIntent(ctx, fmt.Sprintf("/v1/payment_intents/%s/capture", intentID), intentID, nil)
}

// Cancel voids an intent that has not settled.
func (c *Client) Cancel(ctx context.Context, intentID string) (*payment.Intent, error) {
	return c.doIntent(ctx, fmt.Sprintf("/v1/payment_intents/%s/cancel", intentID), intentID, nil)
}

// Refund returns funds from a settled intent. A nil amount refunds in full.
func (c *Client) Refund(ctx context.Context, intentID string, amountCents *int64) (*payment.Refund, error) {
	body := map[string]interface{}{
		"payment_intent": intentID,
	}
	if amountCents != nil {
		body["amount"] = *amountCents
	}

	respBody, err := c.do(ctx, "/v1/refunds", intentID, body)
	if err != nil {
		return nil, err
	}

	var p refundPayload
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("failed to decode refund response: %w", err)
	}
	return &payment.Refund{
		ID:          p.ID,
		IntentID:    p.IntentID,
		AmountCents: p.AmountCents,
		CreatedAt:   p.CreatedAt,
	}, nil
}

func (c *Client) doIntent(ctx context.Context, path, intentID string, body interface{}) (*payment.Intent, error) {
	respBody, err := c.do(ctx, path, intentID, body)
	if err != nil {
		return nil, err
	}

	var p intentPayload
	if err := json.Unmarshal(respBody, &p); err != nil {
		return nil, fmt.Errorf("failed to decode intent response: %w", err)
	}
	return &payment.Intent{
		ID:            p.ID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Status:        payment.IntentStatus(p.Status),
		CaptureMethod: payment.CaptureMethod(p.CaptureMethod),
		BookingID:     p.BookingID,
		ExtensionID:   p.ExtensionID,
		CreatedAt:     p.CreatedAt,
		CapturedAt:    p.CapturedAt,
	}, nil
}

// do issues a POST against the processor API. The intentID is only used for
// error mapping; the path is already fully formed.
func (c *Client) do(ctx context.Context, path, intentID string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payloadBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment processor: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	return nil, c.mapError(resp.StatusCode, intentID, respBody)
}

// mapError translates processor error responses into the shared error kinds so
// both adapters surface identical failures to the workflows.
func (c *Client) mapError(statusCode int, intentID string, body []byte) error {
	var ep errorPayload
	_ = json.Unmarshal(body, &ep)

	switch {
	case statusCode == http.StatusNotFound:
		return domain.NewIntentNotFoundError(intentID)
	case ep.Error.Code == "not_manual_capture":
		return domain.NewNotManualCaptureError(intentID)
	case ep.Error.Code == "amount_too_small":
		return domain.NewAmountTooSmallError(0, payment.MinIntentAmountCents)
	case statusCode == http.StatusConflict:
		return domain.NewConflictError(ep.Error.Message)
	}

	c.logger.Error("unexpected payment processor response",
		zap.Int("status_code", statusCode),
		zap.String("intent_id", intentID),
		zap.String("body", string(body)),
	)
	return fmt.Errorf("payment processor returned status %d: %s", statusCode, ep.Error.Message)
}
