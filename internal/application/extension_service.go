package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	bookingDomain "github.com/wrenchly/service-booking/internal/domain/booking"
	extensionDomain "github.com/wrenchly/service-booking/internal/domain/extension"
	"github.com/wrenchly/service-booking/internal/domain/payment"
	"github.com/wrenchly/service-booking/internal/events"
	"github.com/wrenchly/service-booking/internal/kafka"
)

// ExtensionItemInput is one proposed line of additional work.
type ExtensionItemInput struct {
	Name           string `json:"name" binding:"required"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
}

// CreateExtensionRequest holds the workshop's proposal.
type CreateExtensionRequest struct {
	Description string               `json:"description"`
	Items       []ExtensionItemInput `json:"items" binding:"required"`
}

// RespondExtensionRequest holds the customer's per-item decision. Indices
// reference the proposal's item list; everything not listed is rejected. An
// empty list declines the whole extension.
type RespondExtensionRequest struct {
	AcceptedIndices []int `json:"accepted_indices"`
}

// ExtensionItemDTO is the response representation of one proposed item.
type ExtensionItemDTO struct {
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	Accepted       *bool  `json:"accepted"`
}

// ExtensionDTO is the response representation of a cost extension.
type ExtensionDTO struct {
	ID               uuid.UUID          `json:"id"`
	BookingID        uuid.UUID          `json:"booking_id"`
	WorkshopID       uuid.UUID          `json:"workshop_id"`
	Description      string             `json:"description,omitempty"`
	Items            []ExtensionItemDTO `json:"items"`
	TotalAmountCents int64              `json:"total_amount_cents"`
	Status           string             `json:"status"`
	PaymentIntentID  *string            `json:"payment_intent_id,omitempty"`
	ApprovedAt       *time.Time         `json:"approved_at,omitempty"`
	DeclinedAt       *time.Time         `json:"declined_at,omitempty"`
	PaidAt           *time.Time         `json:"paid_at,omitempty"`
	Version          int64              `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ExtensionService orchestrates the workshop extension workflow: proposal,
// customer response with partial acceptance, and the capture sweep.
type ExtensionService struct {
	repo        extensionDomain.ExtensionRepository
	bookingRepo bookingDomain.BookingRepository
	payments    payment.AuthorizationPort
	tx          TxRunner
	producer    EventPublisher
	logger      *zap.Logger
}

// NewExtensionService creates a new ExtensionService.
func NewExtensionService(
	repo extensionDomain.ExtensionRepository,
	bookingRepo bookingDomain.BookingRepository,
	payments payment.AuthorizationPort,
	tx TxRunner,
	producer EventPublisher,
	logger *zap.Logger,
) *ExtensionService {
	return &ExtensionService{
		repo:        repo,
		bookingRepo: bookingRepo,
		payments:    payments,
		tx:          tx,
		producer:    producer,
		logger:      logger,
	}
}

// CreateExtension records a workshop's proposal for additional work. The
// vehicle must currently be at the workshop.
func (s *ExtensionService) CreateExtension(ctx context.Context, workshopID, bookingID uuid.UUID, req CreateExtensionRequest) (*ExtensionDTO, error) {
	bk, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.Status().IsWorkshopResident() {
		return nil, domain.NewInvalidBookingStateError(
			fmt.Sprintf("extensions can only be proposed while the vehicle is at the workshop (status: %s)", bk.Status()))
	}
	if bk.WorkshopID() != nil && *bk.WorkshopID() != workshopID {
		return nil, domain.NewForbiddenError("booking is serviced by a different workshop")
	}

	items := make([]extensionDomain.Item, len(req.Items))
	for i, in := range req.Items {
		items[i] = extensionDomain.Item{
			Name:           in.Name,
			UnitPriceCents: in.UnitPriceCents,
			Quantity:       in.Quantity,
		}
	}

	ext, err := extensionDomain.NewExtension(bookingID, workshopID, req.Description, items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, ext); err != nil {
		return nil, fmt.Errorf("failed to save extension: %w", err)
	}

	if bk.WorkshopID() == nil {
		if err := bk.AssignWorkshop(workshopID); err == nil {
			bk.IncrementVersion()
			if err := s.bookingRepo.Update(ctx, bk); err != nil {
				s.logger.Error("failed to record workshop on booking",
					zap.String("booking_id", bookingID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.publishExtensionEvent(ctx, events.ExtensionProposed, ext)
	s.notify(ctx, bk.CustomerID(), bookingID, "extension_proposed",
		fmt.Sprintf("Workshop proposed additional work on booking %s", bk.BookingNumber()))

	result := toExtensionDTO(ext)
	return &result, nil
}

// RespondToExtension applies the customer's decision to a pending extension.
// Accepting nothing declines the extension and no payment is ever taken.
// Accepting a non-empty subset authorizes a manual-capture hold for exactly
// the accepted amount and grows the booking total by it; the funds settle
// later in the capture sweep.
func (s *ExtensionService) RespondToExtension(ctx context.Context, customerID, extensionID uuid.UUID, req RespondExtensionRequest) (*ExtensionDTO, error) {
	ext, err := s.repo.FindByID(ctx, extensionID)
	if err != nil {
		return nil, err
	}

	bk, err := s.bookingRepo.FindByID(ctx, ext.BookingID())
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("booking does not belong to this customer")
	}

	selectedTotal, err := ext.SelectedTotalCents(req.AcceptedIndices)
	if err != nil {
		return nil, err
	}

	if selectedTotal == 0 {
		return s.decline(ctx, ext, bk)
	}
	return s.approve(ctx, ext, bk, req.AcceptedIndices, selectedTotal)
}

func (s *ExtensionService) decline(ctx context.Context, ext *extensionDomain.Extension, bk *bookingDomain.Booking) (*ExtensionDTO, error) {
	if err := ext.Decline(); err != nil {
		return nil, err
	}
	ext.IncrementVersion()
	if err := s.repo.Update(ctx, ext); err != nil {
		return nil, err
	}

	s.publishExtensionEvent(ctx, events.ExtensionDeclined, ext)
	s.notify(ctx, ext.WorkshopID(), ext.BookingID(), "extension_declined",
		fmt.Sprintf("Customer declined the proposed work on booking %s", bk.BookingNumber()))

	result := toExtensionDTO(ext)
	return &result, nil
}

func (s *ExtensionService) approve(ctx context.Context, ext *extensionDomain.Extension, bk *bookingDomain.Booking, acceptedIndices []int, selectedTotal int64) (*ExtensionDTO, error) {
	bookingID := ext.BookingID()
	extensionID := ext.ID()
	refs := payment.OwnerRefs{BookingID: &bookingID, ExtensionID: &extensionID}

	intent, err := callPayment(func() (*payment.Intent, error) {
		return s.payments.CreateIntent(ctx, selectedTotal, refs, payment.CaptureManual)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open extension payment intent: %w", err)
	}

	// Confirmation authorizes the hold; a manual-capture intent stays in the
	// authorized state until the sweep captures it.
	if _, err := callPayment(func() (*payment.Intent, error) {
		return s.payments.Confirm(ctx, intent.ID)
	}); err != nil {
		s.voidIntent(ctx, intent.ID)
		return nil, fmt.Errorf("failed to authorize extension payment: %w", err)
	}

	if err := ext.Approve(acceptedIndices, intent.ID); err != nil {
		s.voidIntent(ctx, intent.ID)
		return nil, err
	}
	if err := bk.AddApprovedExtensionCharge(selectedTotal); err != nil {
		s.voidIntent(ctx, intent.ID)
		return nil, err
	}
	ext.IncrementVersion()
	bk.IncrementVersion()

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, ext); err != nil {
			return err
		}
		return s.bookingRepo.Update(txCtx, bk)
	})
	if err != nil {
		s.voidIntent(ctx, intent.ID)
		return nil, err
	}

	s.publishExtensionEvent(ctx, events.ExtensionApproved, ext)
	s.notify(ctx, ext.WorkshopID(), ext.BookingID(), "extension_approved",
		fmt.Sprintf("Customer approved work worth %d %s on booking %s", selectedTotal, bk.Currency(), bk.BookingNumber()))

	result := toExtensionDTO(ext)
	return &result, nil
}

// voidIntent cancels an authorization we can no longer use. Best effort: a
// dangling uncaptured hold expires processor-side anyway.
func (s *ExtensionService) voidIntent(ctx context.Context, intentID string) {
	if _, err := s.payments.Cancel(ctx, intentID); err != nil {
		s.logger.Error("failed to void extension payment intent",
			zap.String("payment_intent_id", intentID),
			zap.Error(err),
		)
	}
}

// SweepAutoCapture settles every approved extension authorization on the
// booking. Each capture is isolated: one failing extension is logged and
// skipped, the rest still settle, and the sweep itself never blocks the
// booking's own lifecycle.
func (s *ExtensionService) SweepAutoCapture(ctx context.Context, bookingID uuid.UUID) error {
	extensions, err := s.repo.FindApprovedWithAuthorization(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("failed to load approved extensions: %w", err)
	}

	for _, ext := range extensions {
		if err := s.captureOne(ctx, ext); err != nil {
			s.logger.Error("failed to capture extension authorization",
				zap.String("extension_id", ext.ID().String()),
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *ExtensionService) captureOne(ctx context.Context, ext *extensionDomain.Extension) error {
	intent, err := callPayment(func() (*payment.Intent, error) {
		return s.payments.Capture(ctx, *ext.PaymentIntentID())
	})
	if err != nil {
		return err
	}

	capturedAt := time.Now().UTC()
	if intent.CapturedAt != nil {
		capturedAt = *intent.CapturedAt
	}
	if err := ext.MarkCaptured(capturedAt); err != nil {
		return err
	}
	ext.IncrementVersion()
	if err := s.repo.Update(ctx, ext); err != nil {
		return err
	}

	s.publishExtensionEvent(ctx, events.ExtensionCaptured, ext)
	return nil
}

// GetBookingExtensions retrieves all extensions attached to a booking.
func (s *ExtensionService) GetBookingExtensions(ctx context.Context, bookingID uuid.UUID) ([]ExtensionDTO, error) {
	extensions, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ExtensionDTO, len(extensions))
	for i, ext := range extensions {
		dtos[i] = toExtensionDTO(ext)
	}
	return dtos, nil
}

// GetExtension retrieves a single extension by ID.
func (s *ExtensionService) GetExtension(ctx context.Context, extensionID uuid.UUID) (*ExtensionDTO, error) {
	ext, err := s.repo.FindByID(ctx, extensionID)
	if err != nil {
		return nil, err
	}
	result := toExtensionDTO(ext)
	return &result, nil
}

// --- Helpers ---

func toExtensionDTO(ext *extensionDomain.Extension) ExtensionDTO {
	items := ext.Items()
	itemDTOs := make([]ExtensionItemDTO, len(items))
	for i, item := range items {
		itemDTOs[i] = ExtensionItemDTO{
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			Accepted:       item.Accepted,
		}
	}

	return ExtensionDTO{
		ID:               ext.ID(),
		BookingID:        ext.BookingID(),
		WorkshopID:       ext.WorkshopID(),
		Description:      ext.Description(),
		Items:            itemDTOs,
		TotalAmountCents: ext.TotalAmountCents(),
		Status:           string(ext.Status()),
		PaymentIntentID:  ext.PaymentIntentID(),
		ApprovedAt:       ext.ApprovedAt(),
		DeclinedAt:       ext.DeclinedAt(),
		PaidAt:           ext.PaidAt(),
		Version:          ext.Version(),
		CreatedAt:        ext.CreatedAt(),
		UpdatedAt:        ext.UpdatedAt(),
	}
}

func (s *ExtensionService) publishExtensionEvent(ctx context.Context, eventType string, ext *extensionDomain.Extension) {
	evt := events.ExtensionEvent{
		ExtensionID:      ext.ID(),
		BookingID:        ext.BookingID(),
		WorkshopID:       ext.WorkshopID(),
		TotalAmountCents: ext.TotalAmountCents(),
		Status:           string(ext.Status()),
		OccurredAt:       time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, ext.BookingID().String(), evt)
}

func (s *ExtensionService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
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

func (s *ExtensionService) notify(ctx context.Context, recipientID, bookingID uuid.UUID, kind, message string) {
	evt := events.NotificationEvent{
		RecipientID: recipientID,
		BookingID:   bookingID,
		Kind:        kind,
		Message:     message,
		OccurredAt:  time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicNotificationEvents, events.NotificationRequested, recipientID.String(), evt)
}
