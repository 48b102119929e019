// Package application contains the use-case services orchestrating the
// domain, persistence, payments and messaging.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	assignmentDomain "github.com/wrenchly/service-booking/internal/domain/assignment"
	bookingDomain "github.com/wrenchly/service-booking/internal/domain/booking"
	"github.com/wrenchly/service-booking/internal/domain/payment"
	vehicleDomain "github.com/wrenchly/service-booking/internal/domain/vehicle"
	"github.com/wrenchly/service-booking/internal/events"
	"github.com/wrenchly/service-booking/internal/kafka"
)

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes cloud events to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ExtensionSweeper captures the approved extension authorizations of a
// booking. The booking lifecycle triggers it when the vehicle leaves the
// workshop.
type ExtensionSweeper interface {
	SweepAutoCapture(ctx context.Context, bookingID uuid.UUID) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	VehicleID         uuid.UUID             `json:"vehicle_id" binding:"required"`
	ServiceType       string                `json:"service_type" binding:"required"`
	PickupAddress     bookingDomain.Address `json:"pickup_address" binding:"required"`
	ReturnAddress     bookingDomain.Address `json:"return_address" binding:"required"`
	TotalPriceCents   int64                 `json:"total_price_cents" binding:"required"`
	PickupScheduledAt time.Time             `json:"pickup_scheduled_at" binding:"required"`
	ReturnScheduledAt *time.Time            `json:"return_scheduled_at"`
	Notes             string                `json:"notes"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                uuid.UUID             `json:"id"`
	BookingNumber     string                `json:"booking_number"`
	CustomerID        uuid.UUID             `json:"customer_id"`
	VehicleID         uuid.UUID             `json:"vehicle_id"`
	WorkshopID        *uuid.UUID            `json:"workshop_id,omitempty"`
	Status            string                `json:"status"`
	ServiceType       string                `json:"service_type"`
	PickupAddress     bookingDomain.Address `json:"pickup_address"`
	ReturnAddress     bookingDomain.Address `json:"return_address"`
	TotalPriceCents   int64                 `json:"total_price_cents"`
	Currency          string                `json:"currency"`
	PaymentIntentID   *string               `json:"payment_intent_id,omitempty"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	PickupScheduledAt time.Time             `json:"pickup_scheduled_at"`
	ReturnScheduledAt *time.Time            `json:"return_scheduled_at,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CancelNote        string                `json:"cancel_note,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	NextStatuses      []string              `json:"next_statuses"`
	Version           int64                 `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// BookingService is the application service orchestrating the booking lifecycle.
type BookingService struct {
	repo           bookingDomain.BookingRepository
	vehicleRepo    vehicleDomain.VehicleRepository
	assignmentRepo assignmentDomain.AssignmentRepository
	payments       payment.AuthorizationPort
	sweeper        ExtensionSweeper
	tx             TxRunner
	producer       EventPublisher
	logger         *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	vehicleRepo vehicleDomain.VehicleRepository,
	assignmentRepo assignmentDomain.AssignmentRepository,
	payments payment.AuthorizationPort,
	sweeper ExtensionSweeper,
	tx TxRunner,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:           repo,
		vehicleRepo:    vehicleRepo,
		assignmentRepo: assignmentRepo,
		payments:       payments,
		sweeper:        sweeper,
		tx:             tx,
		producer:       producer,
		logger:         logger,
	}
}

// CreateBooking creates a new booking in PENDING_PAYMENT and opens the
// automatic-capture payment intent for the initial charge.
func (s *BookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	v, err := s.vehicleRepo.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("vehicle does not belong to this customer")
	}
	if !v.IsActive() {
		return nil, domain.NewValidationError("vehicle profile is archived")
	}

	// Number allocation and the insert share one transaction, so the
	// month-sequence lock taken by the repository is held until the row
	// exists and concurrent creates cannot claim the same number.
	var bk *bookingDomain.Booking
	var intentID string
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		number, err := s.repo.NextBookingNumber(txCtx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to allocate booking number: %w", err)
		}

		bk, err = bookingDomain.NewBooking(
			number,
			customerID,
			req.VehicleID,
			req.ServiceType,
			req.PickupAddress,
			req.ReturnAddress,
			req.TotalPriceCents,
			domain.CurrencyMYR,
			req.PickupScheduledAt,
			req.ReturnScheduledAt,
			req.Notes,
		)
		if err != nil {
			return err
		}

		bookingID := bk.ID()
		intent, err := callPayment(func() (*payment.Intent, error) {
			return s.payments.CreateIntent(txCtx, bk.TotalPriceCents(), payment.OwnerRefs{BookingID: &bookingID}, payment.CaptureAutomatic)
		})
		if err != nil {
			return fmt.Errorf("failed to open payment intent: %w", err)
		}
		intentID = intent.ID
		bk.SetPaymentIntent(intent.ID)

		if err := s.repo.Save(txCtx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if intentID != "" {
			// The hold outlives the rolled-back insert; release it.
			if _, cancelErr := s.payments.Cancel(ctx, intentID); cancelErr != nil {
				s.logger.Error("failed to void payment intent of failed create",
					zap.String("payment_intent_id", intentID),
					zap.Error(cancelErr),
				)
			}
		}
		return nil, err
	}

	evt := events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		VehicleID:       bk.VehicleID(),
		ServiceType:     bk.ServiceType(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		CreatedAt:       bk.CreatedAt(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), evt)
	s.notify(ctx, bk.CustomerID(), bk.ID(), "booking_created",
		fmt.Sprintf("Booking %s created, awaiting payment", bk.BookingNumber()))

	result := toBookingDTO(bk)
	return &result, nil
}

// Transition moves a booking to the requested status on behalf of the acting
// party, running the side effects the target status implies. Status-specific
// effects that are best-effort (assignment creation, payment release,
// notifications) are logged and never fail the transition; the return leg is
// the exception and is written atomically with its assignment. Statuses with
// a SYSTEM-owned follow-up edge are advanced further before returning.
func (s *BookingService) Transition(ctx context.Context, bookingID uuid.UUID, next bookingDomain.BookingStatus, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.TransitionTo(next, actor); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	switch next.Canonical() {
	case bookingDomain.StatusReturnAssigned:
		if err := s.assignReturnLeg(ctx, bk); err != nil {
			return nil, err
		}
	default:
		if err := s.repo.Update(ctx, bk); err != nil {
			return nil, err
		}
	}

	s.runTransitionEffects(ctx, bk, next)
	s.publishStatusChanged(ctx, bk, from, next, actor)

	bk = s.followUp(ctx, bk, next)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking with a reason, honoring the per-edge actor
// rules, and releases any money held for it.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.Cancel(actor, reason); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.runTransitionEffects(ctx, bk, bookingDomain.StatusCancelled)
	s.publishStatusChanged(ctx, bk, from, bookingDomain.StatusCancelled, actor)

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		Reason:        reason,
		CancelledAt:   time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// assignReturnLeg creates the return-leg assignment and writes the
// RETURN_ASSIGNED status in one transaction, so a jockey job can never exist
// for a booking that is not actually on the return leg.
func (s *BookingService) assignReturnLeg(ctx context.Context, bk *bookingDomain.Booking) error {
	scheduledAt := time.Now().UTC()
	if bk.ReturnScheduledAt() != nil {
		scheduledAt = *bk.ReturnScheduledAt()
	}
	a, err := assignmentDomain.NewAssignment(bk.ID(), assignmentDomain.LegReturn, scheduledAt)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.assignmentRepo.Save(txCtx, a); err != nil {
			return err
		}
		return s.repo.Update(txCtx, bk)
	})
}

// followUp drives the SYSTEM-owned edge that immediately follows certain
// statuses: a paid booking gets its pickup leg scheduled, a booking ready for
// return gets its return leg assigned. Returns the booking in its final state.
func (s *BookingService) followUp(ctx context.Context, bk *bookingDomain.Booking, entered bookingDomain.BookingStatus) *bookingDomain.Booking {
	switch entered.Canonical() {
	case bookingDomain.StatusConfirmed:
		return s.autoAdvance(ctx, bk, bookingDomain.StatusPickupAssigned)
	case bookingDomain.StatusReadyForReturn:
		return s.autoAdvance(ctx, bk, bookingDomain.StatusReturnAssigned)
	}
	return bk
}

// autoAdvance performs one SYSTEM transition after the preceding status has
// been committed. Failures are logged, never propagated: the booking stays in
// the state already written, and an admin transition is the recovery path.
func (s *BookingService) autoAdvance(ctx context.Context, bk *bookingDomain.Booking, next bookingDomain.BookingStatus) *bookingDomain.Booking {
	fresh, err := s.repo.FindByID(ctx, bk.ID())
	if err != nil {
		s.logger.Error("failed to reload booking for automatic transition",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return bk
	}

	from := fresh.Status()
	if err := fresh.TransitionTo(next, bookingDomain.ActorSystem); err != nil {
		s.logger.Error("automatic transition rejected",
			zap.String("booking_id", bk.ID().String()),
			zap.String("from", from.String()),
			zap.String("to", next.String()),
			zap.Error(err),
		)
		return bk
	}
	fresh.IncrementVersion()

	if next.Canonical() == bookingDomain.StatusReturnAssigned {
		err = s.assignReturnLeg(ctx, fresh)
	} else {
		err = s.repo.Update(ctx, fresh)
	}
	if err != nil {
		s.logger.Error("failed to write automatic transition",
			zap.String("booking_id", bk.ID().String()),
			zap.String("to", next.String()),
			zap.Error(err),
		)
		return bk
	}

	s.runTransitionEffects(ctx, fresh, next)
	s.publishStatusChanged(ctx, fresh, from, next, bookingDomain.ActorSystem)
	return fresh
}

// runTransitionEffects executes the best-effort side effects of arriving in a
// status. Failures here are logged, never propagated: the status change has
// already been committed.
func (s *BookingService) runTransitionEffects(ctx context.Context, bk *bookingDomain.Booking, next bookingDomain.BookingStatus) {
	switch next.Canonical() {
	case bookingDomain.StatusPickupAssigned:
		a, err := assignmentDomain.NewAssignment(bk.ID(), assignmentDomain.LegPickup, bk.PickupScheduledAt())
		if err == nil {
			err = s.assignmentRepo.Save(ctx, a)
		}
		if err != nil {
			s.logger.Error("failed to create pickup assignment",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
		}

	case bookingDomain.StatusReadyForReturn:
		if err := s.sweeper.SweepAutoCapture(ctx, bk.ID()); err != nil {
			s.logger.Error("extension capture sweep failed",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
		}

	case bookingDomain.StatusCancelled:
		s.cancelOpenAssignments(ctx, bk.ID())
		s.releasePayment(ctx, bk)
	}

	s.notify(ctx, bk.CustomerID(), bk.ID(), "booking_status",
		fmt.Sprintf("Booking %s is now %s", bk.BookingNumber(), bk.Status()))
}

func (s *BookingService) cancelOpenAssignments(ctx context.Context, bookingID uuid.UUID) {
	assignments, err := s.assignmentRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		s.logger.Error("failed to load assignments for cancellation",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return
	}
	for _, a := range assignments {
		if err := a.CancelOpen(); err != nil {
			continue
		}
		if err := s.assignmentRepo.Update(ctx, a); err != nil {
			s.logger.Error("failed to cancel assignment",
				zap.String("assignment_id", a.ID().String()),
				zap.Error(err),
			)
		}
	}
}

// releasePayment returns the customer's money on cancellation: a settled
// initial charge is refunded in full, an unsettled intent is voided.
func (s *BookingService) releasePayment(ctx context.Context, bk *bookingDomain.Booking) {
	if bk.PaymentIntentID() == nil {
		return
	}
	intentID := *bk.PaymentIntentID()

	var err error
	if bk.PaidAt() != nil {
		_, err = callPayment(func() (*payment.Refund, error) {
			return s.payments.Refund(ctx, intentID, nil)
		})
	} else {
		_, err = callPayment(func() (*payment.Intent, error) {
			return s.payments.Cancel(ctx, intentID)
		})
	}
	if err != nil {
		s.logger.Error("failed to release payment on cancellation",
			zap.String("booking_id", bk.ID().String()),
			zap.String("payment_intent_id", intentID),
			zap.Error(err),
		)
	}
}

// ConfirmPayment records a settled initial charge, moves the booking to
// CONFIRMED and schedules the pickup leg. It is idempotent: a booking already
// past PENDING_PAYMENT is left untouched.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, paymentIntentID string, paidAt time.Time) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if bk.Status() != bookingDomain.StatusPendingPayment {
		s.logger.Info("ignoring payment confirmation for non-pending booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("status", bk.Status().String()),
		)
		result := toBookingDTO(bk)
		return &result, nil
	}

	from := bk.Status()
	bk.MarkPaid(paymentIntentID, paidAt)
	if err := bk.TransitionTo(bookingDomain.StatusConfirmed, bookingDomain.ActorSystem); err != nil {
		return nil, err
	}
	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.runTransitionEffects(ctx, bk, bookingDomain.StatusConfirmed)
	s.publishStatusChanged(ctx, bk, from, bookingDomain.StatusConfirmed, bookingDomain.ActorSystem)

	bk = s.followUp(ctx, bk, bookingDomain.StatusConfirmed)

	result := toBookingDTO(bk)
	return &result, nil
}

// FailPayment cancels a booking whose initial charge failed.
func (s *BookingService) FailPayment(ctx context.Context, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	return s.CancelBooking(ctx, bookingID, bookingDomain.ActorSystem, "payment failed: "+reason)
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a single booking by its booking number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetCustomerBookings retrieves paginated bookings for a specific customer.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	nextStatuses := bk.Status().NextPossibleStates()
	next := make([]string, len(nextStatuses))
	for i, st := range nextStatuses {
		next[i] = string(st)
	}

	return BookingDTO{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		CustomerID:        bk.CustomerID(),
		VehicleID:         bk.VehicleID(),
		WorkshopID:        bk.WorkshopID(),
		Status:            string(bk.Status()),
		ServiceType:       bk.ServiceType(),
		PickupAddress:     bk.PickupAddress(),
		ReturnAddress:     bk.ReturnAddress(),
		TotalPriceCents:   bk.TotalPriceCents(),
		Currency:          bk.Currency(),
		PaymentIntentID:   bk.PaymentIntentID(),
		PaidAt:            bk.PaidAt(),
		PickupScheduledAt: bk.PickupScheduledAt(),
		ReturnScheduledAt: bk.ReturnScheduledAt(),
		CancelledAt:       bk.CancelledAt(),
		CancelNote:        bk.CancelNote(),
		Notes:             bk.Notes(),
		NextStatuses:      next,
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}
}

func (s *BookingService) publishStatusChanged(ctx context.Context, bk *bookingDomain.Booking, from, to bookingDomain.BookingStatus, actor bookingDomain.Actor) {
	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		FromStatus:    string(from),
		ToStatus:      string(to),
		Actor:         string(actor),
		ChangedAt:     time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bk.ID().String(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *BookingService) notify(ctx context.Context, recipientID, bookingID uuid.UUID, kind, message string) {
	evt := events.NotificationEvent{
		RecipientID: recipientID,
		BookingID:   bookingID,
		Kind:        kind,
		Message:     message,
		OccurredAt:  time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicNotificationEvents, events.NotificationRequested, recipientID.String(), evt)
}
