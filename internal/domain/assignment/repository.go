package assignment

import (
	"context"

	"github.com/google/uuid"
)

// AssignmentRepository defines persistence operations for jockey assignments.
type AssignmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Assignment, error)
	FindOpenByJockeyID(ctx context.Context, jockeyID uuid.UUID) ([]*Assignment, error)
	Save(ctx context.Context, a *Assignment) error
	Update(ctx context.Context, a *Assignment) error
}
