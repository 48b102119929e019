package extension

import (
	"time"

	"github.com/google/uuid"

	"github.com/wrenchly/service-booking/internal/domain"
)

// ExtensionStatus represents the lifecycle state of a cost extension.
type ExtensionStatus string

const (
	StatusPending   ExtensionStatus = "PENDING"
	StatusApproved  ExtensionStatus = "APPROVED"
	StatusDeclined  ExtensionStatus = "DECLINED"
	StatusCompleted ExtensionStatus = "COMPLETED"
)

// IsValid returns true if the status is a recognized extension status.
func (s ExtensionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s ExtensionStatus) String() string {
	return string(s)
}

// Item is one proposed line of additional work. Accepted is tri-state: nil
// until the customer responds, then true/false per their per-item decision.
type Item struct {
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	Accepted       *bool  `json:"accepted"`
}

// LineTotalCents returns price times quantity for this item.
func (i Item) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Extension is the aggregate root for a workshop-proposed addition to the
// scope of work on a booking.
type Extension struct {
	id               uuid.UUID
	bookingID        uuid.UUID
	workshopID       uuid.UUID
	description      string
	items            []Item
	totalAmountCents int64
	status           ExtensionStatus
	paymentIntentID  *string
	approvedAt       *time.Time
	declinedAt       *time.Time
	paidAt           *time.Time
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewExtension creates a PENDING extension with the proposed items. The total
// starts as the sum over all items; it is overwritten by the accepted subset
// when the customer responds.
func NewExtension(bookingID, workshopID uuid.UUID, description string, items []Item) (*Extension, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if workshopID == uuid.Nil {
		return nil, domain.NewValidationError("workshop ID is required")
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("an extension needs at least one item")
	}
	var total int64
	for _, item := range items {
		if item.Name == "" {
			return nil, domain.NewValidationError("every extension item needs a name")
		}
		if item.UnitPriceCents <= 0 {
			return nil, domain.NewValidationError("extension item prices must be positive")
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("extension item quantities must be positive")
		}
		if item.Accepted != nil {
			return nil, domain.NewValidationError("extension items cannot be pre-accepted")
		}
		total += item.LineTotalCents()
	}

	now := time.Now().UTC()
	return &Extension{
		id:               uuid.New(),
		bookingID:        bookingID,
		workshopID:       workshopID,
		description:      description,
		items:            items,
		totalAmountCents: total,
		status:           StatusPending,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds an Extension from persistence data (no validation).
func Reconstruct(
	id, bookingID, workshopID uuid.UUID,
	description string,
	items []Item,
	totalAmountCents int64,
	status ExtensionStatus,
	paymentIntentID *string,
	approvedAt, declinedAt, paidAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Extension {
	return &Extension{
		id:               id,
		bookingID:        bookingID,
		workshopID:       workshopID,
		description:      description,
		items:            items,
		totalAmountCents: totalAmountCents,
		status:           status,
		paymentIntentID:  paymentIntentID,
		approvedAt:       approvedAt,
		declinedAt:       declinedAt,
		paidAt:           paidAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the extension's unique identifier.
func (e *Extension) ID() uuid.UUID { return e.id }

// BookingID returns the parent booking's ID.
func (e *Extension) BookingID() uuid.UUID { return e.bookingID }

// WorkshopID returns the proposing workshop's ID.
func (e *Extension) WorkshopID() uuid.UUID { return e.workshopID }

// Description returns the human description of the proposed work.
func (e *Extension) Description() string { return e.description }

// Items returns a copy of the proposed items.
func (e *Extension) Items() []Item {
	items := make([]Item, len(e.items))
	copy(items, e.items)
	return items
}

// TotalAmountCents returns the billable total in minor currency units. After
// the customer responds it covers only the accepted items.
func (e *Extension) TotalAmountCents() int64 { return e.totalAmountCents }

// Status returns the current extension status.
func (e *Extension) Status() ExtensionStatus { return e.status }

// PaymentIntentID returns the payment authorization reference, or nil.
func (e *Extension) PaymentIntentID() *string { return e.paymentIntentID }

// ApprovedAt returns when the customer approved, or nil.
func (e *Extension) ApprovedAt() *time.Time { return e.approvedAt }

// DeclinedAt returns when the extension was declined, or nil.
func (e *Extension) DeclinedAt() *time.Time { return e.declinedAt }

// PaidAt returns when the authorization was captured, or nil.
func (e *Extension) PaidAt() *time.Time { return e.paidAt }

// Version returns the entity version for optimistic locking.
func (e *Extension) Version() int64 { return e.version }

// CreatedAt returns the creation timestamp.
func (e *Extension) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (e *Extension) UpdatedAt() time.Time { return e.updatedAt }

// --- Behavior ---

// SelectedTotalCents computes the billable total over the accepted item
// indices only. Unknown indices fail with a validation error; duplicates are
// counted once.
func (e *Extension) SelectedTotalCents(acceptedIndices []int) (int64, error) {
	if e.status != StatusPending {
		return 0, domain.NewExtensionNotPendingError(string(e.status))
	}
	seen := make(map[int]bool, len(acceptedIndices))
	var total int64
	for _, idx := range acceptedIndices {
		if idx < 0 || idx >= len(e.items) {
			return 0, domain.NewValidationError("accepted item index out of range")
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		total += e.items[idx].LineTotalCents()
	}
	return total, nil
}

// Approve records the customer's partial acceptance and the payment
// authorization covering it. Items outside the accepted set are marked
// not-accepted and are permanently excluded from billing; the total is
// overwritten to the accepted subset. At least one item must be accepted —
// an empty acceptance is a decline, never an approval.
func (e *Extension) Approve(acceptedIndices []int, paymentIntentID string) error {
	if e.status != StatusPending {
		return domain.NewExtensionNotPendingError(string(e.status))
	}
	selectedTotal, err := e.SelectedTotalCents(acceptedIndices)
	if err != nil {
		return err
	}
	if selectedTotal == 0 {
		return domain.NewValidationError("cannot approve an extension with no accepted items")
	}
	if paymentIntentID == "" {
		return domain.NewValidationError("approval requires a payment authorization reference")
	}

	accepted := make(map[int]bool, len(acceptedIndices))
	for _, idx := range acceptedIndices {
		accepted[idx] = true
	}
	for i := range e.items {
		v := accepted[i]
		e.items[i].Accepted = &v
	}

	now := time.Now().UTC()
	e.totalAmountCents = selectedTotal
	e.paymentIntentID = &paymentIntentID
	e.status = StatusApproved
	e.approvedAt = &now
	e.updatedAt = now
	return nil
}

// Decline records a full rejection: every item is marked not-accepted and no
// payment is ever taken for this extension.
func (e *Extension) Decline() error {
	if e.status != StatusPending {
		return domain.NewExtensionNotPendingError(string(e.status))
	}
	notAccepted := false
	for i := range e.items {
		v := notAccepted
		e.items[i].Accepted = &v
	}
	now := time.Now().UTC()
	e.status = StatusDeclined
	e.declinedAt = &now
	e.updatedAt = now
	return nil
}

// MarkCaptured completes an approved extension after its authorization has
// been captured.
func (e *Extension) MarkCaptured(paidAt time.Time) error {
	if e.status != StatusApproved {
		return domain.NewInvalidBookingStateError("only approved extensions can be captured")
	}
	if e.paymentIntentID == nil {
		return domain.NewInvalidBookingStateError("extension has no payment authorization to capture")
	}
	e.status = StatusCompleted
	e.paidAt = &paidAt
	e.updatedAt = time.Now().UTC()
	return nil
}

// HasLiveAuthorization reports whether the extension is approved and still
// holds an uncaptured payment authorization.
func (e *Extension) HasLiveAuthorization() bool {
	return e.status == StatusApproved && e.paymentIntentID != nil
}

// IncrementVersion bumps the version for optimistic locking.
func (e *Extension) IncrementVersion() {
	e.version++
	e.updatedAt = time.Now().UTC()
}
