// Package payment defines the authorization port the booking and extension
// workflows charge through. Two adapters satisfy it identically: the real
// processor client and the in-memory simulator used in demo and test
// environments.
package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CaptureMethod controls when an intent's funds are actually charged.
type CaptureMethod string

const (
	// CaptureAutomatic charges immediately when the intent is confirmed.
	CaptureAutomatic CaptureMethod = "automatic"
	// CaptureManual reserves funds on confirmation; a separate Capture call
	// settles the charge later.
	CaptureManual CaptureMethod = "manual"
)

// IsValid returns true if the capture method is recognized.
func (m CaptureMethod) IsValid() bool {
	return m == CaptureAutomatic || m == CaptureManual
}

// IntentStatus is the processor-side state of a payment intent.
type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	// IntentStatusRequiresAction is the authorized-but-not-charged state a
	// manual-capture intent holds after confirmation.
	IntentStatusRequiresAction IntentStatus = "requires_action"
	IntentStatusSucceeded      IntentStatus = "succeeded"
	IntentStatusCaptured       IntentStatus = "captured"
	IntentStatusCanceled       IntentStatus = "canceled"
)

// MinIntentAmountCents is the smallest amount the processor will charge, in
// minor currency units.
const MinIntentAmountCents int64 = 100

// OwnerRefs tags an intent with the booking or extension it pays for.
type OwnerRefs struct {
	BookingID   *uuid.UUID
	ExtensionID *uuid.UUID
}

// Intent is the processor-side representation of one payment authorization.
type Intent struct {
	ID            string
	AmountCents   int64
	Currency      string
	Status        IntentStatus
	CaptureMethod CaptureMethod
	BookingID     *uuid.UUID
	ExtensionID   *uuid.UUID
	CreatedAt     time.Time
	CapturedAt    *time.Time
}

// Refund is the result of refunding a settled intent.
type Refund struct {
	ID          string
	IntentID    string
	AmountCents int64
	CreatedAt   time.Time
}

// AuthorizationPort is the capability set both workflows charge through.
// Amounts are always integer minor currency units.
type AuthorizationPort interface {
	// CreateIntent registers a new intent for the exact amount. Amounts below
	// MinIntentAmountCents fail with an amount-too-small error.
	CreateIntent(ctx context.Context, amountCents int64, refs OwnerRefs, method CaptureMethod) (*Intent, error)

	// Confirm attaches and confirms the payment method. Automatic-capture
	// intents settle to succeeded; manual-capture intents stop at the
	// authorized state and stay there until Capture.
	Confirm(ctx context.Context, intentID string) (*Intent, error)

	// Capture settles a confirmed manual-capture intent. Intents not created
	// with manual capture fail with a not-manual-capture error.
	Capture(ctx context.Context, intentID string) (*Intent, error)

	// Cancel voids an intent that has not settled.
	Cancel(ctx context.Context, intentID string) (*Intent, error)

	// Refund returns funds from a settled intent. A nil amount refunds in full.
	Refund(ctx context.Context, intentID string, amountCents *int64) (*Refund, error)
}
