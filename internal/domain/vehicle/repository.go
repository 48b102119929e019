package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines persistence operations for vehicle profiles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*Vehicle, error)
	Save(ctx context.Context, vehicle *Vehicle) error
	Update(ctx context.Context, vehicle *Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}
