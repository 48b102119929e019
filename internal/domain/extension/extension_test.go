package extension

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenchly/service-booking/internal/domain"
)

func proposedItems() []Item {
	return []Item{
		{Name: "Brake pads", UnitPriceCents: 12900, Quantity: 1},
		{Name: "Engine mount", UnitPriceCents: 13000, Quantity: 2},
	}
}

func newTestExtension(t *testing.T) *Extension {
	t.Helper()
	ext, err := NewExtension(uuid.New(), uuid.New(), "found during inspection", proposedItems())
	require.NoError(t, err)
	return ext
}

func TestNewExtension_TotalsAllItems(t *testing.T) {
	ext := newTestExtension(t)

	assert.Equal(t, StatusPending, ext.Status())
	assert.Equal(t, int64(12900+2*13000), ext.TotalAmountCents())
	for _, item := range ext.Items() {
		assert.Nil(t, item.Accepted, "items start undecided")
	}
}

func TestNewExtension_Validation(t *testing.T) {
	bookingID, workshopID := uuid.New(), uuid.New()

	_, err := NewExtension(bookingID, workshopID, "", nil)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewExtension(bookingID, workshopID, "", []Item{{Name: "", UnitPriceCents: 100, Quantity: 1}})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewExtension(bookingID, workshopID, "", []Item{{Name: "Oil", UnitPriceCents: 0, Quantity: 1}})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewExtension(bookingID, workshopID, "", []Item{{Name: "Oil", UnitPriceCents: 100, Quantity: 0}})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSelectedTotalCents(t *testing.T) {
	ext := newTestExtension(t)

	total, err := ext.SelectedTotalCents([]int{1})
	require.NoError(t, err)
	assert.Equal(t, int64(26000), total)

	total, err = ext.SelectedTotalCents([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(38900), total)

	// Duplicates count once.
	total, err = ext.SelectedTotalCents([]int{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(26000), total)

	// Empty acceptance is a zero total, not an error.
	total, err = ext.SelectedTotalCents(nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = ext.SelectedTotalCents([]int{2})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	_, err = ext.SelectedTotalCents([]int{-1})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestApprove_PartialAcceptance(t *testing.T) {
	ext := newTestExtension(t)

	require.NoError(t, ext.Approve([]int{1}, "pi_ext_1"))

	assert.Equal(t, StatusApproved, ext.Status())
	assert.Equal(t, int64(26000), ext.TotalAmountCents(), "total is overwritten to the accepted subset")
	require.NotNil(t, ext.PaymentIntentID())
	assert.Equal(t, "pi_ext_1", *ext.PaymentIntentID())
	assert.NotNil(t, ext.ApprovedAt())

	items := ext.Items()
	require.NotNil(t, items[0].Accepted)
	assert.False(t, *items[0].Accepted)
	require.NotNil(t, items[1].Accepted)
	assert.True(t, *items[1].Accepted)

	assert.True(t, ext.HasLiveAuthorization())
}

func TestApprove_RejectsEmptyAcceptance(t *testing.T) {
	ext := newTestExtension(t)

	err := ext.Approve(nil, "pi_ext_1")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, StatusPending, ext.Status())
}

func TestApprove_RequiresPaymentReference(t *testing.T) {
	ext := newTestExtension(t)

	err := ext.Approve([]int{0}, "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, StatusPending, ext.Status())
}

func TestDecline_MarksEveryItemRejected(t *testing.T) {
	ext := newTestExtension(t)

	require.NoError(t, ext.Decline())

	assert.Equal(t, StatusDeclined, ext.Status())
	assert.NotNil(t, ext.DeclinedAt())
	assert.Nil(t, ext.PaymentIntentID(), "no payment is ever taken for a declined extension")
	for _, item := range ext.Items() {
		require.NotNil(t, item.Accepted)
		assert.False(t, *item.Accepted)
	}
	assert.False(t, ext.HasLiveAuthorization())
}

func TestRespondingTwiceFails(t *testing.T) {
	ext := newTestExtension(t)
	require.NoError(t, ext.Approve([]int{0}, "pi_ext_1"))

	err := ext.Approve([]int{1}, "pi_ext_2")
	assert.Equal(t, domain.KindExtensionNotPending, domain.KindOf(err))
	assert.Contains(t, err.Error(), "APPROVED")

	err = ext.Decline()
	assert.Equal(t, domain.KindExtensionNotPending, domain.KindOf(err))

	declined := newTestExtension(t)
	require.NoError(t, declined.Decline())
	err = declined.Decline()
	assert.Equal(t, domain.KindExtensionNotPending, domain.KindOf(err))
	assert.Contains(t, err.Error(), "DECLINED")
}

func TestMarkCaptured(t *testing.T) {
	ext := newTestExtension(t)
	require.NoError(t, ext.Approve([]int{0, 1}, "pi_ext_1"))

	capturedAt := time.Now().UTC()
	require.NoError(t, ext.MarkCaptured(capturedAt))

	assert.Equal(t, StatusCompleted, ext.Status())
	require.NotNil(t, ext.PaidAt())
	assert.Equal(t, capturedAt, *ext.PaidAt())
	assert.False(t, ext.HasLiveAuthorization())
}

func TestMarkCaptured_OnlyFromApproved(t *testing.T) {
	ext := newTestExtension(t)

	err := ext.MarkCaptured(time.Now().UTC())
	assert.Equal(t, domain.KindInvalidBookingState, domain.KindOf(err))
}
