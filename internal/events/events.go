// Package events defines the Kafka topics and event payloads the booking
// service produces and consumes. It deliberately has no dependencies on the
// rest of the service so that any layer can reference the schema.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents      = "booking.events"
	TopicPaymentEvents      = "payment.events"
	TopicNotificationEvents = "notification.events"
)

// Event types carried in the CloudEvent envelope.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingCancelled     = "booking.cancelled"

	ExtensionProposed = "extension.proposed"
	ExtensionApproved = "extension.approved"
	ExtensionDeclined = "extension.declined"
	ExtensionCaptured = "extension.captured"

	PaymentSucceeded = "payment.succeeded"
	PaymentFailed    = "payment.failed"

	NotificationRequested = "notification.requested"
)

// EventSource identifies this service in the CloudEvent envelope.
const EventSource = "service-booking"

// BookingCreatedEvent is emitted when a new booking is created.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	CustomerID      uuid.UUID `json:"customer_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	ServiceType     string    `json:"service_type"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// BookingStatusChangedEvent is emitted on every successful status transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changed_at"`
}

// BookingCancelledEvent is emitted when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// ExtensionEvent is emitted through the extension workflow. The same payload
// serves proposed, approved, declined and captured; the CloudEvent type
// disambiguates.
type ExtensionEvent struct {
	ExtensionID      uuid.UUID `json:"extension_id"`
	BookingID        uuid.UUID `json:"booking_id"`
	WorkshopID       uuid.UUID `json:"workshop_id"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Status           string    `json:"status"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// PaymentResultEvent is received from the payment processor's event stream
// when an initial booking charge settles or fails.
type PaymentResultEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NotificationEvent asks the notification service to reach a user. Delivery
// is fire-and-forget from the booking service's point of view.
type NotificationEvent struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}
