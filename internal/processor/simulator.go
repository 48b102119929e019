// Package processor provides the payment adapters: an HTTP client for the
// real processor and an in-memory simulator for demo and test environments.
// Both satisfy payment.AuthorizationPort with identical contracts.
package processor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/wrenchly/service-booking/internal/domain"
	"github.com/wrenchly/service-booking/internal/domain/payment"
)

// Simulator is an in-memory payment processor. Automatic-capture intents
// settle synchronously on Confirm; manual-capture intents hold the
// authorization until an explicit Capture.
type Simulator struct {
	mu       sync.Mutex
	currency string
	intents  map[string]*payment.Intent
	refunds  map[string]*payment.Refund
}

// NewSimulator creates an empty simulator charging in the given currency.
func NewSimulator(currency string) *Simulator {
	return &Simulator{
		currency: currency,
		intents:  make(map[string]*payment.Intent),
		refunds:  make(map[string]*payment.Refund),
	}
}

func simulatedID(prefix string) string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(buf))
}

// CreateIntent registers a new intent in requires_payment_method.
func (s *Simulator) CreateIntent(ctx context.Context, amountCents int64, refs payment.OwnerRefs, method payment.CaptureMethod) (*payment.Intent, error) {
	if amountCents < payment.MinIntentAmountCents {
		return nil, domain.NewAmountTooSmallError(amountCents, payment.MinIntentAmountCents)
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid capture method: %s", method))
	}

	intent := &payment.Intent{
		ID:            simulatedID("pi_sim"),
		AmountCents:   amountCents,
		Currency:      s.currency,
		Status:        payment.IntentStatusRequiresPaymentMethod,
		CaptureMethod: method,
		BookingID:     refs.BookingID,
		ExtensionID:   refs.ExtensionID,
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[intent.ID] = intent

	result := *intent
	return &result, nil
}

// Confirm settles automatic-capture intents to succeeded and parks
// manual-capture intents in the authorized state.
func (s *Simulator) Confirm(ctx context.Context, intentID string) (*payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.intents[intentID]
	if !exists {
		return nil, domain.NewIntentNotFoundError(intentID)
	}
	if intent.Status != payment.IntentStatusRequiresPaymentMethod {
		return nil, domain.NewConflictError(fmt.Sprintf("payment intent %s cannot be confirmed from %s", intentID, intent.Status))
	}

	if intent.CaptureMethod == payment.CaptureManual {
		intent.Status = payment.IntentStatusRequiresAction
	} else {
		intent.Status = payment.IntentStatusSucceeded
	}

	result := *intent
	return &result, nil
}

// Capture settles a confirmed manual-capture intent.
func (s *Simulator) Capture(ctx context.Context, intentID string) (*payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.intents[intentID]
	if !exists {
		return nil, domain.NewIntentNotFoundError(intentID)
	}
	if intent.CaptureMethod != payment.CaptureManual {
		return nil, domain.NewNotManualCaptureError(intentID)
	}
	if intent.Status != payment.IntentStatusRequiresAction {
		return nil, domain.NewConflictError(fmt.Sprintf("payment intent %s cannot be captured from %s", intentID, intent.Status))
	}

	now := time.Now().UTC()
	intent.Status = payment.IntentStatusCaptured
	intent.CapturedAt = &now

	result := *intent
	return &result, nil
}

// Cancel voids an intent that has not settled.
func (s *Simulator) Cancel(ctx context.Context, intentID string) (*payment.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.intents[intentID]
	if !exists {
		return nil, domain.NewIntentNotFoundError(intentID)
	}
	switch intent.Status {
	case payment.IntentStatusSucceeded, payment.IntentStatusCaptured, payment.IntentStatusCanceled:
		return nil, domain.NewConflictError(fmt.Sprintf("payment intent %s cannot be canceled from %s", intentID, intent.Status))
	}

	intent.Status = payment.IntentStatusCanceled

	result := *intent
	return &result, nil
}

// Refund returns funds from a settled intent. A nil amount refunds in full.
func (s *Simulator) Refund(ctx context.Context, intentID string, amountCents *int64) (*payment.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, exists := s.intents[intentID]
	if !exists {
		return nil, domain.NewIntentNotFoundError(intentID)
	}
	if intent.Status != payment.IntentStatusSucceeded && intent.Status != payment.IntentStatusCaptured {
		return nil, domain.NewConflictError(fmt.Sprintf("payment intent %s has not settled and cannot be refunded", intentID))
	}

	amount := intent.AmountCents
	if amountCents != nil {
		if *amountCents <= 0 || *amountCents > intent.AmountCents {
			return nil, domain.NewValidationError("refund amount must be positive and within the charged amount")
		}
		amount = *amountCents
	}

	refund := &payment.Refund{
		ID:          simulatedID("re_sim"),
		IntentID:    intentID,
		AmountCents: amount,
		CreatedAt:   time.Now().UTC(),
	}
	s.refunds[refund.ID] = refund

	result := *refund
	return &result, nil
}
