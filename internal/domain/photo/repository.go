package photo

import (
	"context"

	"github.com/google/uuid"
)

// PhotoRepository defines persistence operations for condition photos.
type PhotoRepository interface {
	Save(ctx context.Context, photo *ConditionPhoto) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*ConditionPhoto, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ConditionPhoto, error)
}
