package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors so transport layers can map them to
// the right status code and user message.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindConflict            ErrorKind = "CONFLICT"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindActorNotAuthorized  ErrorKind = "ACTOR_NOT_AUTHORIZED"
	KindExtensionNotPending ErrorKind = "EXTENSION_NOT_PENDING"
	KindInvalidBookingState ErrorKind = "INVALID_BOOKING_STATE"
	KindIntentNotFound      ErrorKind = "INTENT_NOT_FOUND"
	KindNotManualCapture    ErrorKind = "NOT_MANUAL_CAPTURE"
	KindAmountTooSmall      ErrorKind = "AMOUNT_TOO_SMALL"
)

// Error is the application error type shared across domain and application layers.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error returns the error message.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether the target is a domain error of the same kind.
func (e *Error) Is(target error) bool {
	var de *Error
	if !errors.As(target, &de) {
		return false
	}
	return e.Kind == de.Kind
}

// IsKind reports whether err is (or wraps) a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == kind
}

// KindOf returns the kind of err, or the empty string if err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Kind
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity and identifier.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError creates a conflict error (e.g. optimistic lock failure).
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewInvalidTransitionError creates an error for a status edge that does not exist.
func NewInvalidTransitionError(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot transition booking from %s to %s", from, to),
	}
}

// NewActorNotAuthorizedError creates an error for an existing status edge the
// acting party is not permitted to trigger.
func NewActorNotAuthorizedError(actor, from, to string) *Error {
	return &Error{
		Kind:    KindActorNotAuthorized,
		Message: fmt.Sprintf("actor %s is not authorized to transition booking from %s to %s", actor, from, to),
	}
}

// NewExtensionNotPendingError creates an error for a response against an
// extension that has already left PENDING. The current status is included so
// callers can surface what actually happened to the request.
func NewExtensionNotPendingError(currentStatus string) *Error {
	return &Error{
		Kind:    KindExtensionNotPending,
		Message: fmt.Sprintf("extension has already been responded to (status: %s)", currentStatus),
	}
}

// NewInvalidBookingStateError creates an error for an operation attempted while
// the booking is in a state that does not allow it.
func NewInvalidBookingStateError(message string) *Error {
	return &Error{Kind: KindInvalidBookingState, Message: message}
}

// NewIntentNotFoundError creates an error for an unknown payment intent id.
func NewIntentNotFoundError(intentID string) *Error {
	return &Error{Kind: KindIntentNotFound, Message: fmt.Sprintf("payment intent %s not found", intentID)}
}

// NewNotManualCaptureError creates an error for a capture attempt on an intent
// that was not created with manual capture.
func NewNotManualCaptureError(intentID string) *Error {
	return &Error{Kind: KindNotManualCapture, Message: fmt.Sprintf("payment intent %s was not created with manual capture", intentID)}
}

// NewAmountTooSmallError creates an error for an intent amount below the processor minimum.
func NewAmountTooSmallError(amountCents, minimumCents int64) *Error {
	return &Error{
		Kind:    KindAmountTooSmall,
		Message: fmt.Sprintf("amount %d is below the minimum chargeable amount %d", amountCents, minimumCents),
	}
}
