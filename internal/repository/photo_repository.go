package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wrenchly/service-booking/internal/domain"
	photoDomain "github.com/wrenchly/service-booking/internal/domain/photo"
)

// PhotoModel is the GORM model for the condition_photos table.
type PhotoModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null"`
	JockeyID  uuid.UUID `gorm:"type:uuid;index;not null"`
	PhotoType string    `gorm:"not null;size:10"`
	PhotoURL  string    `gorm:"not null;size:500"`
	Caption   string    `gorm:"size:200"`
	TakenAt   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PhotoModel) TableName() string {
	return "condition_photos"
}

// GormPhotoRepository is the GORM-based implementation of PhotoRepository.
type GormPhotoRepository struct {
	db *gorm.DB
}

// NewGormPhotoRepository creates a new GormPhotoRepository.
func NewGormPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	return &GormPhotoRepository{db: db}
}

// Save persists a new condition photo.
func (r *GormPhotoRepository) Save(ctx context.Context, p *photoDomain.ConditionPhoto) error {
	model := &PhotoModel{
		ID:        p.ID(),
		BookingID: p.BookingID(),
		JockeyID:  p.JockeyID(),
		PhotoType: string(p.PhotoType()),
		PhotoURL:  p.PhotoURL(),
		Caption:   p.Caption(),
		TakenAt:   p.TakenAt(),
		CreatedAt: p.CreatedAt(),
	}
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save condition photo: %w", err)
	}
	return nil
}

// FindByID retrieves a condition photo by its unique identifier.
func (r *GormPhotoRepository) FindByID(ctx context.Context, id uuid.UUID) (*photoDomain.ConditionPhoto, error) {
	var model PhotoModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("ConditionPhoto", id.String())
		}
		return nil, fmt.Errorf("failed to find condition photo: %w", err)
	}
	return toDomainPhoto(&model), nil
}

// FindByBookingID retrieves all condition photos for a booking.
func (r *GormPhotoRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*photoDomain.ConditionPhoto, error) {
	var models []PhotoModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("taken_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find condition photos by booking: %w", err)
	}

	photos := make([]*photoDomain.ConditionPhoto, len(models))
	for i, m := range models {
		photos[i] = toDomainPhoto(&m)
	}
	return photos, nil
}

func toDomainPhoto(m *PhotoModel) *photoDomain.ConditionPhoto {
	return photoDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.JockeyID,
		photoDomain.PhotoType(m.PhotoType),
		m.PhotoURL,
		m.Caption,
		m.TakenAt,
		m.CreatedAt,
	)
}
