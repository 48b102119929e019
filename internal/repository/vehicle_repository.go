package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wrenchly/service-booking/internal/domain"
	vehicleDomain "github.com/wrenchly/service-booking/internal/domain/vehicle"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PlateNumber  string    `gorm:"not null;size:20;index"`
	Make         string    `gorm:"not null;size:50"`
	Model        string    `gorm:"not null;size:50"`
	Year         int       `gorm:""`
	Color        string    `gorm:"size:30"`
	MileageKm    int       `gorm:""`
	Transmission string    `gorm:"size:20"`
	FuelType     string    `gorm:"size:20"`
	Notes        string    `gorm:"size:500"`
	Status       string    `gorm:"not null;size:20;default:'active'"`
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of VehicleRepository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// FindByCustomerID retrieves all active vehicles for a customer.
func (r *GormVehicleRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*vehicleDomain.Vehicle, error) {
	var models []VehicleModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, string(vehicleDomain.VehicleStatusActive)).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find vehicles by customer: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(toVehicleModel(v)).Error; err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// Update persists changes to an existing vehicle with optimistic locking.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	expectedVersion := v.Version() - 1
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"plate_number": model.PlateNumber,
			"make":         model.Make,
			"model":        model.Model,
			"year":         model.Year,
			"color":        model.Color,
			"mileage_km":   model.MileageKm,
			"transmission": model.Transmission,
			"fuel_type":    model.FuelType,
			"notes":        model.Notes,
			"status":       model.Status,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}
	return nil
}

// Delete removes a vehicle profile.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:           v.ID(),
		CustomerID:   v.CustomerID(),
		PlateNumber:  v.PlateNumber(),
		Make:         v.Make(),
		Model:        v.Model(),
		Year:         v.Year(),
		Color:        v.Color(),
		MileageKm:    v.MileageKm(),
		Transmission: v.Transmission(),
		FuelType:     v.FuelType(),
		Notes:        v.Notes(),
		Status:       string(v.Status()),
		Version:      v.Version(),
		CreatedAt:    v.CreatedAt(),
		UpdatedAt:    v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.CustomerID,
		m.PlateNumber,
		m.Make,
		m.Model,
		m.Year,
		m.MileageKm,
		m.Color,
		m.Transmission,
		m.FuelType,
		m.Notes,
		vehicleDomain.VehicleStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
