package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	photoDomain "github.com/wrenchly/service-booking/internal/domain/photo"
)

// AddPhotoRequest holds the metadata of one condition photo.
type AddPhotoRequest struct {
	PhotoType string `json:"photo_type" binding:"required"`
	PhotoURL  string `json:"photo_url" binding:"required"`
	Caption   string `json:"caption"`
}

// PhotoDTO is the response representation of a condition photo.
type PhotoDTO struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	JockeyID  uuid.UUID `json:"jockey_id"`
	PhotoType string    `json:"photo_type"`
	PhotoURL  string    `json:"photo_url"`
	Caption   string    `json:"caption,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}

// PhotoService records vehicle condition photos at handover.
type PhotoService struct {
	repo   photoDomain.PhotoRepository
	logger *zap.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(repo photoDomain.PhotoRepository, logger *zap.Logger) *PhotoService {
	return &PhotoService{repo: repo, logger: logger}
}

// AddPhoto records a condition photo taken by the jockey at handover.
func (s *PhotoService) AddPhoto(ctx context.Context, jockeyID, bookingID uuid.UUID, req AddPhotoRequest) (*PhotoDTO, error) {
	p, err := photoDomain.NewConditionPhoto(bookingID, jockeyID, photoDomain.PhotoType(req.PhotoType), req.PhotoURL, req.Caption)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save condition photo: %w", err)
	}

	result := toPhotoDTO(p)
	return &result, nil
}

// GetBookingPhotos retrieves all condition photos for a booking.
func (s *PhotoService) GetBookingPhotos(ctx context.Context, bookingID uuid.UUID) ([]PhotoDTO, error) {
	photos, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]PhotoDTO, len(photos))
	for i, p := range photos {
		dtos[i] = toPhotoDTO(p)
	}
	return dtos, nil
}

func toPhotoDTO(p *photoDomain.ConditionPhoto) PhotoDTO {
	return PhotoDTO{
		ID:        p.ID(),
		BookingID: p.BookingID(),
		JockeyID:  p.JockeyID(),
		PhotoType: string(p.PhotoType()),
		PhotoURL:  p.PhotoURL(),
		Caption:   p.Caption(),
		TakenAt:   p.TakenAt(),
		CreatedAt: p.CreatedAt(),
	}
}
