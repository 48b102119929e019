package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wrenchly/service-booking/internal/domain"
)

// Address is a value object for pickup and return locations.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Booking is the aggregate root for one pickup, service and return engagement.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customerID    uuid.UUID
	vehicleID     uuid.UUID
	workshopID    *uuid.UUID
	status        BookingStatus
	serviceType   string

	pickupAddress Address
	returnAddress Address

	totalPriceCents int64
	currency        string
	paymentIntentID *string
	paidAt          *time.Time

	pickupScheduledAt time.Time
	returnScheduledAt *time.Time
	cancelledAt       *time.Time
	cancelNote        string
	notes             string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// FormatBookingNumber renders the human-readable booking number for the given
// calendar month and monotonic sequence within it, e.g. "VS-202609-0042".
func FormatBookingNumber(month time.Time, seq int64) string {
	return fmt.Sprintf("VS-%s-%04d", month.UTC().Format("200601"), seq)
}

// NewBooking creates a new Booking aggregate in PENDING_PAYMENT. The booking
// number is allocated by the repository so it stays monotonic per calendar month.
func NewBooking(
	bookingNumber string,
	customerID uuid.UUID,
	vehicleID uuid.UUID,
	serviceType string,
	pickupAddress Address,
	returnAddress Address,
	totalPriceCents int64,
	currency string,
	pickupScheduledAt time.Time,
	returnScheduledAt *time.Time,
	notes string,
) (*Booking, error) {
	if bookingNumber == "" {
		return nil, domain.NewValidationError("booking number is required")
	}
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if serviceType == "" {
		return nil, domain.NewValidationError("service type is required")
	}
	if pickupAddress.Line1 == "" {
		return nil, domain.NewValidationError("pickup address is required")
	}
	if returnAddress.Line1 == "" {
		return nil, domain.NewValidationError("return address is required")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if pickupScheduledAt.IsZero() {
		return nil, domain.NewValidationError("pickup schedule is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:                uuid.New(),
		bookingNumber:     bookingNumber,
		customerID:        customerID,
		vehicleID:         vehicleID,
		status:            StatusPendingPayment,
		serviceType:       serviceType,
		pickupAddress:     pickupAddress,
		returnAddress:     returnAddress,
		totalPriceCents:   totalPriceCents,
		currency:          currency,
		pickupScheduledAt: pickupScheduledAt,
		returnScheduledAt: returnScheduledAt,
		notes:             notes,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	customerID uuid.UUID,
	vehicleID uuid.UUID,
	workshopID *uuid.UUID,
	status BookingStatus,
	serviceType string,
	pickupAddress Address,
	returnAddress Address,
	totalPriceCents int64,
	currency string,
	paymentIntentID *string,
	paidAt *time.Time,
	pickupScheduledAt time.Time,
	returnScheduledAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	notes string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		bookingNumber:     bookingNumber,
		customerID:        customerID,
		vehicleID:         vehicleID,
		workshopID:        workshopID,
		status:            status,
		serviceType:       serviceType,
		pickupAddress:     pickupAddress,
		returnAddress:     returnAddress,
		totalPriceCents:   totalPriceCents,
		currency:          currency,
		paymentIntentID:   paymentIntentID,
		paidAt:            paidAt,
		pickupScheduledAt: pickupScheduledAt,
		returnScheduledAt: returnScheduledAt,
		cancelledAt:       cancelledAt,
		cancelNote:        cancelNote,
		notes:             notes,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CustomerID returns the owning customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// VehicleID returns the serviced vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// WorkshopID returns the assigned workshop's ID, or nil if unassigned.
func (b *Booking) WorkshopID() *uuid.UUID { return b.workshopID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// ServiceType returns the booked service type.
func (b *Booking) ServiceType() string { return b.serviceType }

// PickupAddress returns the vehicle pickup address.
func (b *Booking) PickupAddress() Address { return b.pickupAddress }

// ReturnAddress returns the vehicle return address.
func (b *Booking) ReturnAddress() Address { return b.returnAddress }

// TotalPriceCents returns the total price in minor currency units. It grows
// only through approved extension amounts.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentIntentID returns the external payment reference, or nil.
func (b *Booking) PaymentIntentID() *string { return b.paymentIntentID }

// PaidAt returns the time the initial charge succeeded, or nil.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// PickupScheduledAt returns the scheduled pickup time.
func (b *Booking) PickupScheduledAt() time.Time { return b.pickupScheduledAt }

// ReturnScheduledAt returns the scheduled return time, or nil if flexible.
func (b *Booking) ReturnScheduledAt() *time.Time { return b.returnScheduledAt }

// CancelledAt returns the time the booking was cancelled, or nil.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the booking belongs to the given customer.
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.customerID == customerID
}

// TransitionTo moves the booking to the next status after validating the edge
// and the acting party against the transition tables. Transition-coupled
// timestamps are maintained here so they can never drift from the status.
func (b *Booking) TransitionTo(next BookingStatus, actor Actor) error {
	if err := AssertTransition(b.status, next, actor); err != nil {
		return err
	}
	now := time.Now().UTC()
	b.status = next
	if next == StatusCancelled {
		b.cancelledAt = &now
	}
	b.updatedAt = now
	return nil
}

// MarkPaid records the successful initial charge. It does not change status;
// the CONFIRMED transition is driven separately so a failed status write never
// loses the payment reference.
func (b *Booking) MarkPaid(paymentIntentID string, paidAt time.Time) {
	b.paymentIntentID = &paymentIntentID
	b.paidAt = &paidAt
	b.updatedAt = time.Now().UTC()
}

// SetPaymentIntent stores the external payment reference for the initial charge.
func (b *Booking) SetPaymentIntent(paymentIntentID string) {
	b.paymentIntentID = &paymentIntentID
	b.updatedAt = time.Now().UTC()
}

// AssignWorkshop records the workshop servicing this booking.
func (b *Booking) AssignWorkshop(workshopID uuid.UUID) error {
	if workshopID == uuid.Nil {
		return domain.NewValidationError("workshop ID is required")
	}
	b.workshopID = &workshopID
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to CANCELLED with a reason, honoring the
// per-edge actor rules.
func (b *Booking) Cancel(actor Actor, reason string) error {
	if err := b.TransitionTo(StatusCancelled, actor); err != nil {
		return err
	}
	b.cancelNote = reason
	return nil
}

// AddApprovedExtensionCharge grows the booking total by an approved extension
// amount. This is the only path by which the total price increases.
func (b *Booking) AddApprovedExtensionCharge(amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("extension charge must be positive")
	}
	b.totalPriceCents += amountCents
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
