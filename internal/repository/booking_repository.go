package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wrenchly/service-booking/internal/domain"
	bookingDomain "github.com/wrenchly/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber     string          `gorm:"uniqueIndex;not null;size:20"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkshopID        *uuid.UUID      `gorm:"type:uuid;index"`
	Status            string          `gorm:"not null;size:30;index"`
	ServiceType       string          `gorm:"not null;size:50"`
	PickupAddress     json.RawMessage `gorm:"type:jsonb;not null"`
	ReturnAddress     json.RawMessage `gorm:"type:jsonb;not null"`
	TotalPriceCents   int64           `gorm:"not null"`
	Currency          string          `gorm:"not null;size:3;default:'MYR'"`
	PaymentIntentID   *string         `gorm:"size:100;index"`
	PaidAt            *time.Time      `gorm:""`
	PickupScheduledAt time.Time       `gorm:"not null"`
	ReturnScheduledAt *time.Time      `gorm:""`
	CancelledAt       *time.Time      `gorm:""`
	CancelNote        string          `gorm:"size:500"`
	Notes             string          `gorm:"size:1000"`
	Version           int64           `gorm:"not null;default:1"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// NextBookingNumber allocates the next monotonic booking number for the
// calendar month containing at. It must run inside the transaction that also
// inserts the booking: the advisory lock on the month prefix holds until that
// transaction commits, serializing concurrent allocators even for the first
// booking of a month, where no row exists to lock.
func (r *GormBookingRepository) NextBookingNumber(ctx context.Context, at time.Time) (string, error) {
	monthStart := time.Date(at.UTC().Year(), at.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	prefix := monthStart.Format("VS-200601-")

	db := dbFromContext(ctx, r.db).WithContext(ctx)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return "", fmt.Errorf("failed to lock booking number sequence: %w", err)
	}

	var last BookingModel
	err := db.
		Where("booking_number LIKE ?", prefix+"%").
		Order("booking_number DESC").
		First(&last).Error

	var seq int64 = 1
	if err == nil {
		var lastSeq int64
		if _, scanErr := fmt.Sscanf(last.BookingNumber, prefix+"%04d", &lastSeq); scanErr == nil {
			seq = lastSeq + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to read last booking number: %w", err)
	}

	return bookingDomain.FormatBookingNumber(monthStart, seq), nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := bk.Version() - 1
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"workshop_id":         model.WorkshopID,
			"status":              model.Status,
			"service_type":        model.ServiceType,
			"pickup_address":      model.PickupAddress,
			"return_address":      model.ReturnAddress,
			"total_price_cents":   model.TotalPriceCents,
			"currency":            model.Currency,
			"payment_intent_id":   model.PaymentIntentID,
			"paid_at":             model.PaidAt,
			"pickup_scheduled_at": model.PickupScheduledAt,
			"return_scheduled_at": model.ReturnScheduledAt,
			"cancelled_at":        model.CancelledAt,
			"cancel_note":         model.CancelNote,
			"notes":               model.Notes,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	pickupJSON, err := json.Marshal(bk.PickupAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup address: %w", err)
	}

	returnJSON, err := json.Marshal(bk.ReturnAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal return address: %w", err)
	}

	return &BookingModel{
		ID:                bk.ID(),
		BookingNumber:     bk.BookingNumber(),
		CustomerID:        bk.CustomerID(),
		VehicleID:         bk.VehicleID(),
		WorkshopID:        bk.WorkshopID(),
		Status:            string(bk.Status()),
		ServiceType:       bk.ServiceType(),
		PickupAddress:     pickupJSON,
		ReturnAddress:     returnJSON,
		TotalPriceCents:   bk.TotalPriceCents(),
		Currency:          bk.Currency(),
		PaymentIntentID:   bk.PaymentIntentID(),
		PaidAt:            bk.PaidAt(),
		PickupScheduledAt: bk.PickupScheduledAt(),
		ReturnScheduledAt: bk.ReturnScheduledAt(),
		CancelledAt:       bk.CancelledAt(),
		CancelNote:        bk.CancelNote(),
		Notes:             bk.Notes(),
		Version:           bk.Version(),
		CreatedAt:         bk.CreatedAt(),
		UpdatedAt:         bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var pickupAddress bookingDomain.Address
	if err := json.Unmarshal(m.PickupAddress, &pickupAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pickup address: %w", err)
	}

	var returnAddress bookingDomain.Address
	if err := json.Unmarshal(m.ReturnAddress, &returnAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal return address: %w", err)
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.CustomerID,
		m.VehicleID,
		m.WorkshopID,
		status,
		m.ServiceType,
		pickupAddress,
		returnAddress,
		m.TotalPriceCents,
		m.Currency,
		m.PaymentIntentID,
		m.PaidAt,
		m.PickupScheduledAt,
		m.ReturnScheduledAt,
		m.CancelledAt,
		m.CancelNote,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
