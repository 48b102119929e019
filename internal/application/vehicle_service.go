package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	vehicleDomain "github.com/wrenchly/service-booking/internal/domain/vehicle"
)

// CreateVehicleRequest holds the data needed to register a vehicle.
type CreateVehicleRequest struct {
	PlateNumber  string `json:"plate_number" binding:"required"`
	Make         string `json:"make" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	MileageKm    int    `json:"mileage_km"`
	Transmission string `json:"transmission"`
	FuelType     string `json:"fuel_type"`
	Notes        string `json:"notes"`
}

// UpdateVehicleRequest holds partial updates to a vehicle profile.
type UpdateVehicleRequest struct {
	PlateNumber  string `json:"plate_number"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	MileageKm    int    `json:"mileage_km"`
	Transmission string `json:"transmission"`
	FuelType     string `json:"fuel_type"`
	Notes        string `json:"notes"`
}

// VehicleDTO is the response representation of a vehicle.
type VehicleDTO struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	PlateNumber  string    `json:"plate_number"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year,omitempty"`
	Color        string    `json:"color,omitempty"`
	MileageKm    int       `json:"mileage_km,omitempty"`
	Transmission string    `json:"transmission,omitempty"`
	FuelType     string    `json:"fuel_type,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VehicleService manages customer vehicle profiles.
type VehicleService struct {
	repo   vehicleDomain.VehicleRepository
	logger *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(repo vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{repo: repo, logger: logger}
}

// CreateVehicle registers a new vehicle for the customer.
func (s *VehicleService) CreateVehicle(ctx context.Context, customerID uuid.UUID, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(
		customerID,
		req.PlateNumber,
		req.Make,
		req.Model,
		req.Year,
		req.MileageKm,
		req.Color,
		req.Transmission,
		req.FuelType,
		req.Notes,
	)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save vehicle: %w", err)
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle retrieves a vehicle owned by the customer.
func (s *VehicleService) GetVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) (*VehicleDTO, error) {
	v, err := s.findOwned(ctx, customerID, vehicleID)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles retrieves the customer's active vehicles.
func (s *VehicleService) ListVehicles(ctx context.Context, customerID uuid.UUID) ([]VehicleDTO, error) {
	vehicles, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos, nil
}

// UpdateVehicle applies partial updates to a vehicle owned by the customer.
func (s *VehicleService) UpdateVehicle(ctx context.Context, customerID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.findOwned(ctx, customerID, vehicleID)
	if err != nil {
		return nil, err
	}

	v.Update(
		req.PlateNumber,
		req.Make,
		req.Model,
		req.Year,
		req.MileageKm,
		req.Color,
		req.Transmission,
		req.FuelType,
		req.Notes,
	)
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// ArchiveVehicle retires a vehicle profile without losing its booking history.
func (s *VehicleService) ArchiveVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	v, err := s.findOwned(ctx, customerID, vehicleID)
	if err != nil {
		return err
	}

	v.Archive()
	return s.repo.Update(ctx, v)
}

func (s *VehicleService) findOwned(ctx context.Context, customerID, vehicleID uuid.UUID) (*vehicleDomain.Vehicle, error) {
	v, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.IsOwnedBy(customerID) {
		return nil, domain.NewForbiddenError("vehicle does not belong to this customer")
	}
	return v, nil
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
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
		CreatedAt:    v.CreatedAt(),
		UpdatedAt:    v.UpdatedAt(),
	}
}
