package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	assignmentDomain "github.com/wrenchly/service-booking/internal/domain/assignment"
	bookingDomain "github.com/wrenchly/service-booking/internal/domain/booking"
	vehicleDomain "github.com/wrenchly/service-booking/internal/domain/vehicle"
	"github.com/wrenchly/service-booking/internal/events"
	"github.com/wrenchly/service-booking/internal/processor"
)

type bookingFixture struct {
	repo        *fakeBookingRepo
	vehicles    *fakeVehicleRepo
	assignments *fakeAssignmentRepo
	payments    *processor.Simulator
	sweeper     *fakeSweeper
	publisher   *fakePublisher
	svc         *BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		repo:        newFakeBookingRepo(),
		vehicles:    newFakeVehicleRepo(),
		assignments: newFakeAssignmentRepo(),
		payments:    processor.NewSimulator(domain.CurrencyMYR),
		sweeper:     &fakeSweeper{},
		publisher:   &fakePublisher{},
	}
	f.svc = NewBookingService(f.repo, f.vehicles, f.assignments, f.payments, f.sweeper, fakeTx{}, f.publisher, zap.NewNop())
	return f
}

func testAddress() bookingDomain.Address {
	return bookingDomain.Address{
		Line1:      "12 Jalan Ampang",
		City:       "Kuala Lumpur",
		State:      "Wilayah Persekutuan",
		PostalCode: "50450",
		Country:    "MY",
		Latitude:   3.1578,
		Longitude:  101.7119,
	}
}

func (f *bookingFixture) seedVehicle(t *testing.T, customerID uuid.UUID) *vehicleDomain.Vehicle {
	t.Helper()
	v, err := vehicleDomain.NewVehicle(customerID, "WXY 1234", "Perodua", "Myvi", 2021, 42000, "red", "automatic", "petrol", "")
	require.NoError(t, err)
	require.NoError(t, f.vehicles.Save(context.Background(), v))
	return v
}

func (f *bookingFixture) createBooking(t *testing.T, customerID uuid.UUID) *BookingDTO {
	t.Helper()
	v := f.seedVehicle(t, customerID)
	dto, err := f.svc.CreateBooking(context.Background(), customerID, CreateBookingRequest{
		VehicleID:         v.ID(),
		ServiceType:       "major_service",
		PickupAddress:     testAddress(),
		ReturnAddress:     testAddress(),
		TotalPriceCents:   45000,
		PickupScheduledAt: time.Now().UTC().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return dto
}

// advanceTo walks a freshly created booking along the happy path up to the
// given status, using the actor each leg belongs to. CONFIRMED and
// READY_FOR_RETURN advance on their own, so only the actor-driven edges
// appear as steps and neither of those two is a reachable resting point.
func (f *bookingFixture) advanceTo(t *testing.T, bookingID uuid.UUID, target bookingDomain.BookingStatus) {
	t.Helper()
	ctx := context.Background()

	bk, err := f.repo.FindByID(ctx, bookingID)
	require.NoError(t, err)
	if bk.Status() == bookingDomain.StatusPendingPayment {
		_, err = f.svc.ConfirmPayment(ctx, bookingID, *bk.PaymentIntentID(), time.Now().UTC())
		require.NoError(t, err)
	}
	if f.statusOf(t, bookingID) == target {
		return
	}

	steps := []struct {
		status bookingDomain.BookingStatus
		actor  bookingDomain.Actor
	}{
		{bookingDomain.StatusPickedUp, bookingDomain.ActorJockey},
		{bookingDomain.StatusAtWorkshop, bookingDomain.ActorJockey},
		{bookingDomain.StatusInService, bookingDomain.ActorWorkshop},
		{bookingDomain.StatusReadyForReturn, bookingDomain.ActorWorkshop},
		{bookingDomain.StatusReturned, bookingDomain.ActorJockey},
	}
	for _, step := range steps {
		_, err := f.svc.Transition(ctx, bookingID, step.status, step.actor)
		require.NoError(t, err)
		if f.statusOf(t, bookingID) == target {
			return
		}
	}
	t.Fatalf("status %s is not on the happy path", target)
}

func (f *bookingFixture) statusOf(t *testing.T, bookingID uuid.UUID) bookingDomain.BookingStatus {
	t.Helper()
	bk, err := f.repo.FindByID(context.Background(), bookingID)
	require.NoError(t, err)
	return bk.Status()
}

func TestCreateBooking(t *testing.T) {
	f := newBookingFixture()
	customerID := uuid.New()

	dto := f.createBooking(t, customerID)

	assert.Equal(t, string(bookingDomain.StatusPendingPayment), dto.Status)
	assert.Equal(t, time.Now().UTC().Format("VS-200601-")+"0001", dto.BookingNumber)
	assert.Equal(t, int64(45000), dto.TotalPriceCents)
	assert.Equal(t, domain.CurrencyMYR, dto.Currency)
	require.NotNil(t, dto.PaymentIntentID)

	// The intent is real and uncommitted on the processor side.
	intent, err := f.payments.Confirm(context.Background(), *dto.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), intent.AmountCents)

	assert.Len(t, f.publisher.byType(events.BookingCreated), 1)
	assert.Len(t, f.publisher.byType(events.NotificationRequested), 1)
}

func TestCreateBooking_NumbersAreSequential(t *testing.T) {
	f := newBookingFixture()
	customerID := uuid.New()

	first := f.createBooking(t, customerID)
	second := f.createBooking(t, customerID)

	prefix := time.Now().UTC().Format("VS-200601-")
	assert.Equal(t, prefix+"0001", first.BookingNumber)
	assert.Equal(t, prefix+"0002", second.BookingNumber)
}

func TestCreateBooking_RejectsForeignVehicle(t *testing.T) {
	f := newBookingFixture()
	owner := uuid.New()
	v := f.seedVehicle(t, owner)

	_, err := f.svc.CreateBooking(context.Background(), uuid.New(), CreateBookingRequest{
		VehicleID:         v.ID(),
		ServiceType:       "major_service",
		PickupAddress:     testAddress(),
		ReturnAddress:     testAddress(),
		TotalPriceCents:   45000,
		PickupScheduledAt: time.Now().UTC().Add(24 * time.Hour),
	})
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestCreateBooking_RejectsArchivedVehicle(t *testing.T) {
	f := newBookingFixture()
	customerID := uuid.New()
	v := f.seedVehicle(t, customerID)
	v.Archive()

	_, err := f.svc.CreateBooking(context.Background(), customerID, CreateBookingRequest{
		VehicleID:         v.ID(),
		ServiceType:       "major_service",
		PickupAddress:     testAddress(),
		ReturnAddress:     testAddress(),
		TotalPriceCents:   45000,
		PickupScheduledAt: time.Now().UTC().Add(24 * time.Hour),
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestConfirmPayment(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	paidAt := time.Now().UTC()

	confirmed, err := f.svc.ConfirmPayment(context.Background(), dto.ID, *dto.PaymentIntentID, paidAt)
	require.NoError(t, err)

	// Payment settles the booking and immediately schedules the pickup leg.
	assert.Equal(t, string(bookingDomain.StatusPickupAssigned), confirmed.Status)
	require.NotNil(t, confirmed.PaidAt)
	assert.True(t, confirmed.PaidAt.Equal(paidAt))
	assert.Equal(t, dto.Version+2, confirmed.Version)
	assert.Len(t, f.publisher.byType(events.BookingStatusChanged), 2)
}

func TestConfirmPayment_SchedulesPickupLeg(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())

	_, err := f.svc.ConfirmPayment(context.Background(), dto.ID, *dto.PaymentIntentID, time.Now().UTC())
	require.NoError(t, err)

	a := f.assignments.byLeg(dto.ID, assignmentDomain.LegPickup)
	require.NotNil(t, a)
	assert.Equal(t, assignmentDomain.StatusPending, a.Status())
	assert.Nil(t, a.JockeyID())
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())

	_, err := f.svc.ConfirmPayment(context.Background(), dto.ID, *dto.PaymentIntentID, time.Now().UTC())
	require.NoError(t, err)

	// Redelivered payment events must not touch the booking again.
	again, err := f.svc.ConfirmPayment(context.Background(), dto.ID, *dto.PaymentIntentID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusPickupAssigned), again.Status)
	assert.Len(t, f.publisher.byType(events.BookingStatusChanged), 2)
}

func TestConfirmPayment_AssignmentFailureDoesNotBlockStatus(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.assignments.saveErr = errTransient

	result, err := f.svc.ConfirmPayment(context.Background(), dto.ID, *dto.PaymentIntentID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusPickupAssigned), result.Status)
}

func TestTransition_ReadyForReturnAssignsReturnLeg(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusInService)

	result, err := f.svc.Transition(context.Background(), dto.ID, bookingDomain.StatusReadyForReturn, bookingDomain.ActorWorkshop)
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusReturnAssigned), result.Status)
	assert.Equal(t, bookingDomain.StatusReturnAssigned, f.statusOf(t, dto.ID))

	a := f.assignments.byLeg(dto.ID, assignmentDomain.LegReturn)
	require.NotNil(t, a)
	assert.Equal(t, assignmentDomain.StatusPending, a.Status())

	// The extension sweep ran before the return leg was assigned.
	require.Len(t, f.sweeper.swept, 1)
	assert.Equal(t, dto.ID, f.sweeper.swept[0])
}

func TestTransition_SweepFailureDoesNotBlockReturnLeg(t *testing.T) {
	f := newBookingFixture()
	f.sweeper.err = errTransient
	dto := f.createBooking(t, uuid.New())

	f.advanceTo(t, dto.ID, bookingDomain.StatusReturnAssigned)

	assert.Equal(t, bookingDomain.StatusReturnAssigned, f.statusOf(t, dto.ID))
	require.NotNil(t, f.assignments.byLeg(dto.ID, assignmentDomain.LegReturn))
}

func TestTransition_ReturnLegFailureLeavesReadyForReturn(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusInService)

	f.assignments.saveErr = errTransient
	result, err := f.svc.Transition(context.Background(), dto.ID, bookingDomain.StatusReadyForReturn, bookingDomain.ActorWorkshop)
	require.NoError(t, err)

	// The workshop's own transition committed; the failed follow-up left the
	// booking where an admin can drive it forward.
	assert.Equal(t, string(bookingDomain.StatusReadyForReturn), result.Status)
	assert.Equal(t, bookingDomain.StatusReadyForReturn, f.statusOf(t, dto.ID))
}

func TestTransition_RejectsUnauthorizedActor(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusPickupAssigned)

	_, err := f.svc.Transition(context.Background(), dto.ID, bookingDomain.StatusPickedUp, bookingDomain.ActorCustomer)
	assert.Equal(t, domain.KindActorNotAuthorized, domain.KindOf(err))
	assert.Equal(t, bookingDomain.StatusPickupAssigned, f.statusOf(t, dto.ID))
}

func TestTransition_RejectsMissingEdge(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())

	_, err := f.svc.Transition(context.Background(), dto.ID, bookingDomain.StatusDelivered, bookingDomain.ActorAdmin)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestTransition_PropagatesWriteConflict(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusPickupAssigned)

	f.repo.updErr = domain.NewConflictError("booking was modified by another transaction")
	_, err := f.svc.Transition(context.Background(), dto.ID, bookingDomain.StatusPickedUp, bookingDomain.ActorJockey)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestCancelBooking_VoidsUnsettledIntent(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())

	cancelled, err := f.svc.CancelBooking(context.Background(), dto.ID, bookingDomain.ActorCustomer, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancelled), cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelNote)
	require.NotNil(t, cancelled.CancelledAt)

	// The unused intent was voided on the processor.
	_, err = f.payments.Confirm(context.Background(), *dto.PaymentIntentID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	assert.Len(t, f.publisher.byType(events.BookingCancelled), 1)
}

func TestCancelBooking_CancelsOpenAssignments(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusPickupAssigned)

	_, err := f.svc.CancelBooking(context.Background(), dto.ID, bookingDomain.ActorCustomer, "no longer needed")
	require.NoError(t, err)

	a := f.assignments.byLeg(dto.ID, assignmentDomain.LegPickup)
	require.NotNil(t, a)
	assert.Equal(t, assignmentDomain.StatusCancelled, a.Status())
}

func TestCancelBooking_RejectedAfterPickup(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusPickedUp)

	_, err := f.svc.CancelBooking(context.Background(), dto.ID, bookingDomain.ActorCustomer, "too late")
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestFailPayment(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())

	cancelled, err := f.svc.FailPayment(context.Background(), dto.ID, "card_declined")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCancelled), cancelled.Status)
	assert.Equal(t, "payment failed: card_declined", cancelled.CancelNote)
}

func TestGetCustomerBookings(t *testing.T) {
	f := newBookingFixture()
	customerID := uuid.New()
	f.createBooking(t, customerID)
	f.createBooking(t, customerID)
	f.createBooking(t, uuid.New())

	page, err := f.svc.GetCustomerBookings(context.Background(), customerID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}

func TestGetBookingStats(t *testing.T) {
	f := newBookingFixture()
	dto := f.createBooking(t, uuid.New())
	f.createBooking(t, uuid.New())
	f.advanceTo(t, dto.ID, bookingDomain.StatusPickupAssigned)

	stats, err := f.svc.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus[string(bookingDomain.StatusPendingPayment)])
	assert.Equal(t, int64(1), stats.ByStatus[string(bookingDomain.StatusPickupAssigned)])
}
