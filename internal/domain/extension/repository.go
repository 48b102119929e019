package extension

import (
	"context"

	"github.com/google/uuid"
)

// ExtensionRepository defines persistence operations for cost extensions.
type ExtensionRepository interface {
	// FindByID retrieves an extension by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Extension, error)

	// FindByBookingID retrieves all extensions attached to a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Extension, error)

	// FindApprovedWithAuthorization retrieves the booking's approved extensions
	// that still hold a payment authorization, for the auto-capture sweep.
	FindApprovedWithAuthorization(ctx context.Context, bookingID uuid.UUID) ([]*Extension, error)

	// Save persists a new extension.
	Save(ctx context.Context, ext *Extension) error

	// Update persists changes to an existing extension with optimistic locking.
	Update(ctx context.Context, ext *Extension) error
}
