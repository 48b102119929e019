package vehicle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VehicleStatus represents the lifecycle state of a vehicle profile.
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusArchived VehicleStatus = "archived"
)

// Vehicle is the aggregate root for a customer's saved vehicle profile.
type Vehicle struct {
	id           uuid.UUID
	customerID   uuid.UUID
	plateNumber  string
	make         string
	model        string
	year         int
	color        string
	mileageKm    int
	transmission string
	fuelType     string
	notes        string
	status       VehicleStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewVehicle creates a new active vehicle profile with validated fields.
func NewVehicle(
	customerID uuid.UUID,
	plateNumber, vehicleMake, model string,
	year, mileageKm int,
	color, transmission, fuelType, notes string,
) (*Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer ID is required")
	}
	if plateNumber == "" {
		return nil, fmt.Errorf("plate number is required")
	}
	if vehicleMake == "" {
		return nil, fmt.Errorf("vehicle make is required")
	}
	if model == "" {
		return nil, fmt.Errorf("vehicle model is required")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:           uuid.New(),
		customerID:   customerID,
		plateNumber:  plateNumber,
		make:         vehicleMake,
		model:        model,
		year:         year,
		color:        color,
		mileageKm:    mileageKm,
		transmission: transmission,
		fuelType:     fuelType,
		notes:        notes,
		status:       VehicleStatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id, customerID uuid.UUID,
	plateNumber, vehicleMake, model string,
	year, mileageKm int,
	color, transmission, fuelType, notes string,
	status VehicleStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:           id,
		customerID:   customerID,
		plateNumber:  plateNumber,
		make:         vehicleMake,
		model:        model,
		year:         year,
		color:        color,
		mileageKm:    mileageKm,
		transmission: transmission,
		fuelType:     fuelType,
		notes:        notes,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID         { return v.id }
func (v *Vehicle) CustomerID() uuid.UUID { return v.customerID }
func (v *Vehicle) PlateNumber() string   { return v.plateNumber }
func (v *Vehicle) Make() string          { return v.make }
func (v *Vehicle) Model() string         { return v.model }
func (v *Vehicle) Year() int             { return v.year }
func (v *Vehicle) Color() string         { return v.color }
func (v *Vehicle) MileageKm() int        { return v.mileageKm }
func (v *Vehicle) Transmission() string  { return v.transmission }
func (v *Vehicle) FuelType() string      { return v.fuelType }
func (v *Vehicle) Notes() string         { return v.notes }
func (v *Vehicle) Status() VehicleStatus { return v.status }
func (v *Vehicle) Version() int64        { return v.version }
func (v *Vehicle) CreatedAt() time.Time  { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time  { return v.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the vehicle belongs to the given customer.
func (v *Vehicle) IsOwnedBy(customerID uuid.UUID) bool {
	return v.customerID == customerID
}

// Update applies partial updates to the vehicle profile.
func (v *Vehicle) Update(
	plateNumber, vehicleMake, model string,
	year, mileageKm int,
	color, transmission, fuelType, notes string,
) {
	if plateNumber != "" {
		v.plateNumber = plateNumber
	}
	if vehicleMake != "" {
		v.make = vehicleMake
	}
	if model != "" {
		v.model = model
	}
	if year > 0 {
		v.year = year
	}
	if mileageKm > 0 {
		v.mileageKm = mileageKm
	}
	if color != "" {
		v.color = color
	}
	if transmission != "" {
		v.transmission = transmission
	}
	if fuelType != "" {
		v.fuelType = fuelType
	}
	if notes != "" {
		v.notes = notes
	}
	v.version++
	v.updatedAt = time.Now().UTC()
}

// Archive marks the vehicle profile as archived.
func (v *Vehicle) Archive() {
	v.status = VehicleStatusArchived
	v.version++
	v.updatedAt = time.Now().UTC()
}

// IsActive returns true if the vehicle profile is active.
func (v *Vehicle) IsActive() bool {
	return v.status == VehicleStatusActive
}
