package processor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenchly/service-booking/internal/domain"
	"github.com/wrenchly/service-booking/internal/domain/payment"
)

func TestSimulator_CreateIntent(t *testing.T) {
	sim := NewSimulator("MYR")
	bookingID := uuid.New()

	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{BookingID: &bookingID}, payment.CaptureAutomatic)
	require.NoError(t, err)

	assert.NotEmpty(t, intent.ID)
	assert.Equal(t, int64(45000), intent.AmountCents)
	assert.Equal(t, "MYR", intent.Currency)
	assert.Equal(t, payment.IntentStatusRequiresPaymentMethod, intent.Status)
	assert.Equal(t, payment.CaptureAutomatic, intent.CaptureMethod)
	require.NotNil(t, intent.BookingID)
	assert.Equal(t, bookingID, *intent.BookingID)
}

func TestSimulator_CreateIntent_AmountTooSmall(t *testing.T) {
	sim := NewSimulator("MYR")

	_, err := sim.CreateIntent(context.Background(), 99, payment.OwnerRefs{}, payment.CaptureAutomatic)
	assert.Equal(t, domain.KindAmountTooSmall, domain.KindOf(err))

	// The minimum itself is chargeable.
	_, err = sim.CreateIntent(context.Background(), payment.MinIntentAmountCents, payment.OwnerRefs{}, payment.CaptureAutomatic)
	assert.NoError(t, err)
}

func TestSimulator_Confirm_AutomaticSettles(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)

	confirmed, err := sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentStatusSucceeded, confirmed.Status)

	// A settled intent cannot be confirmed again.
	_, err = sim.Confirm(context.Background(), intent.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestSimulator_Confirm_ManualHoldsAuthorization(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 26000, payment.OwnerRefs{}, payment.CaptureManual)
	require.NoError(t, err)

	confirmed, err := sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentStatusRequiresAction, confirmed.Status,
		"manual-capture intents stay authorized until Capture")
	assert.Nil(t, confirmed.CapturedAt)
}

func TestSimulator_Capture(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 26000, payment.OwnerRefs{}, payment.CaptureManual)
	require.NoError(t, err)
	_, err = sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err)

	captured, err := sim.Capture(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentStatusCaptured, captured.Status)
	assert.NotNil(t, captured.CapturedAt)

	// Capturing twice fails.
	_, err = sim.Capture(context.Background(), intent.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestSimulator_Capture_NotManual(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)

	_, err = sim.Capture(context.Background(), intent.ID)
	assert.Equal(t, domain.KindNotManualCapture, domain.KindOf(err))
}

func TestSimulator_Capture_BeforeConfirm(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 26000, payment.OwnerRefs{}, payment.CaptureManual)
	require.NoError(t, err)

	_, err = sim.Capture(context.Background(), intent.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestSimulator_UnknownIntent(t *testing.T) {
	sim := NewSimulator("MYR")

	for name, call := range map[string]func() error{
		"confirm": func() error { _, err := sim.Confirm(context.Background(), "pi_missing"); return err },
		"capture": func() error { _, err := sim.Capture(context.Background(), "pi_missing"); return err },
		"cancel":  func() error { _, err := sim.Cancel(context.Background(), "pi_missing"); return err },
		"refund":  func() error { _, err := sim.Refund(context.Background(), "pi_missing", nil); return err },
	} {
		assert.Equal(t, domain.KindIntentNotFound, domain.KindOf(call()), name)
	}
}

func TestSimulator_Cancel(t *testing.T) {
	sim := NewSimulator("MYR")

	intent, err := sim.CreateIntent(context.Background(), 26000, payment.OwnerRefs{}, payment.CaptureManual)
	require.NoError(t, err)
	_, err = sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err)

	// An uncaptured authorization can be voided.
	canceled, err := sim.Cancel(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentStatusCanceled, canceled.Status)

	// A settled intent cannot.
	settled, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)
	_, err = sim.Confirm(context.Background(), settled.ID)
	require.NoError(t, err)
	_, err = sim.Cancel(context.Background(), settled.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestSimulator_Refund(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)
	_, err = sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err)

	// Full refund when no amount is given.
	refund, err := sim.Refund(context.Background(), intent.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), refund.AmountCents)
	assert.Equal(t, intent.ID, refund.IntentID)

	// Partial refunds are validated against the charged amount.
	partial := int64(10000)
	refund, err = sim.Refund(context.Background(), intent.ID, &partial)
	require.NoError(t, err)
	assert.Equal(t, partial, refund.AmountCents)

	tooMuch := int64(50000)
	_, err = sim.Refund(context.Background(), intent.ID, &tooMuch)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSimulator_Refund_UnsettledIntent(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)

	_, err = sim.Refund(context.Background(), intent.ID, nil)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestSimulator_ReturnsCopies(t *testing.T) {
	sim := NewSimulator("MYR")
	intent, err := sim.CreateIntent(context.Background(), 45000, payment.OwnerRefs{}, payment.CaptureAutomatic)
	require.NoError(t, err)

	intent.Status = payment.IntentStatusCaptured

	fromStore, err := sim.Confirm(context.Background(), intent.ID)
	require.NoError(t, err, "mutating a returned intent must not affect the stored one")
	assert.Equal(t, payment.IntentStatusSucceeded, fromStore.Status)
}
