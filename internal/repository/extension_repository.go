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
	extensionDomain "github.com/wrenchly/service-booking/internal/domain/extension"
)

// ExtensionModel is the GORM model for the extensions table.
type ExtensionModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	WorkshopID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Description      string          `gorm:"size:1000"`
	Items            json.RawMessage `gorm:"type:jsonb;not null"`
	TotalAmountCents int64           `gorm:"not null"`
	Status           string          `gorm:"not null;size:20;index"`
	PaymentIntentID  *string         `gorm:"size:100;index"`
	ApprovedAt       *time.Time      `gorm:""`
	DeclinedAt       *time.Time      `gorm:""`
	PaidAt           *time.Time      `gorm:""`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ExtensionModel) TableName() string {
	return "extensions"
}

// GormExtensionRepository is the GORM-based implementation of ExtensionRepository.
type GormExtensionRepository struct {
	db *gorm.DB
}

// NewGormExtensionRepository creates a new GormExtensionRepository.
func NewGormExtensionRepository(db *gorm.DB) *GormExtensionRepository {
	return &GormExtensionRepository{db: db}
}

// FindByID retrieves an extension by its unique identifier.
func (r *GormExtensionRepository) FindByID(ctx context.Context, id uuid.UUID) (*extensionDomain.Extension, error) {
	var model ExtensionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Extension", id.String())
		}
		return nil, fmt.Errorf("failed to find extension by ID: %w", err)
	}
	return toDomainExtension(&model)
}

// FindByBookingID retrieves all extensions attached to a booking.
func (r *GormExtensionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*extensionDomain.Extension, error) {
	var models []ExtensionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find extensions by booking: %w", err)
	}
	return toDomainExtensions(models)
}

// FindApprovedWithAuthorization retrieves the booking's approved extensions
// that still hold a payment authorization.
func (r *GormExtensionRepository) FindApprovedWithAuthorization(ctx context.Context, bookingID uuid.UUID) ([]*extensionDomain.Extension, error) {
	var models []ExtensionModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("booking_id = ? AND status = ? AND payment_intent_id IS NOT NULL", bookingID, string(extensionDomain.StatusApproved)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find approved extensions: %w", err)
	}
	return toDomainExtensions(models)
}

// Save persists a new extension.
func (r *GormExtensionRepository) Save(ctx context.Context, ext *extensionDomain.Extension) error {
	model, err := toExtensionModel(ext)
	if err != nil {
		return fmt.Errorf("failed to convert extension to model: %w", err)
	}
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save extension: %w", err)
	}
	return nil
}

// Update persists changes to an existing extension with optimistic locking.
func (r *GormExtensionRepository) Update(ctx context.Context, ext *extensionDomain.Extension) error {
	model, err := toExtensionModel(ext)
	if err != nil {
		return fmt.Errorf("failed to convert extension to model: %w", err)
	}

	expectedVersion := ext.Version() - 1
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&ExtensionModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"items":              model.Items,
			"total_amount_cents": model.TotalAmountCents,
			"status":             model.Status,
			"payment_intent_id":  model.PaymentIntentID,
			"approved_at":        model.ApprovedAt,
			"declined_at":        model.DeclinedAt,
			"paid_at":            model.PaidAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update extension: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("extension was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toExtensionModel(ext *extensionDomain.Extension) (*ExtensionModel, error) {
	itemsJSON, err := json.Marshal(ext.Items())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extension items: %w", err)
	}

	return &ExtensionModel{
		ID:               ext.ID(),
		BookingID:        ext.BookingID(),
		WorkshopID:       ext.WorkshopID(),
		Description:      ext.Description(),
		Items:            itemsJSON,
		TotalAmountCents: ext.TotalAmountCents(),
		Status:           string(ext.Status()),
		PaymentIntentID:  ext.PaymentIntentID(),
		ApprovedAt:       ext.ApprovedAt(),
		DeclinedAt:       ext.DeclinedAt(),
		PaidAt:           ext.PaidAt(),
		Version:          ext.Version(),
		CreatedAt:        ext.CreatedAt(),
		UpdatedAt:        ext.UpdatedAt(),
	}, nil
}

func toDomainExtension(m *ExtensionModel) (*extensionDomain.Extension, error) {
	var items []extensionDomain.Item
	if err := json.Unmarshal(m.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal extension items: %w", err)
	}

	status := extensionDomain.ExtensionStatus(m.Status)
	if !status.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown extension status: %s", m.Status))
	}

	return extensionDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.WorkshopID,
		m.Description,
		items,
		m.TotalAmountCents,
		status,
		m.PaymentIntentID,
		m.ApprovedAt,
		m.DeclinedAt,
		m.PaidAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainExtensions(models []ExtensionModel) ([]*extensionDomain.Extension, error) {
	extensions := make([]*extensionDomain.Extension, len(models))
	for i, m := range models {
		ext, err := toDomainExtension(&m)
		if err != nil {
			return nil, err
		}
		extensions[i] = ext
	}
	return extensions, nil
}
