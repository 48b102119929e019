package photo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PhotoType represents the leg a condition photo documents.
type PhotoType string

const (
	PhotoTypePickup PhotoType = "pickup"
	PhotoTypeReturn PhotoType = "return"
)

// IsValid returns true if the photo type is recognized.
func (p PhotoType) IsValid() bool {
	return p == PhotoTypePickup || p == PhotoTypeReturn
}

// ConditionPhoto records the vehicle's condition at handover. Only the
// metadata lives here; upload and delivery of the image itself are external.
type ConditionPhoto struct {
	id        uuid.UUID
	bookingID uuid.UUID
	jockeyID  uuid.UUID
	photoType PhotoType
	photoURL  string
	caption   string
	takenAt   time.Time
	createdAt time.Time
}

// NewConditionPhoto creates a new condition photo record.
func NewConditionPhoto(bookingID, jockeyID uuid.UUID, photoType PhotoType, photoURL, caption string) (*ConditionPhoto, error) {
	if !photoType.IsValid() {
		return nil, fmt.Errorf("invalid photo type: %s", photoType)
	}
	if photoURL == "" {
		return nil, fmt.Errorf("photo URL is required")
	}

	now := time.Now().UTC()
	return &ConditionPhoto{
		id:        uuid.New(),
		bookingID: bookingID,
		jockeyID:  jockeyID,
		photoType: photoType,
		photoURL:  photoURL,
		caption:   caption,
		takenAt:   now,
		createdAt: now,
	}, nil
}

// Reconstruct rebuilds a ConditionPhoto from persistence.
func Reconstruct(id, bookingID, jockeyID uuid.UUID, photoType PhotoType, photoURL, caption string, takenAt, createdAt time.Time) *ConditionPhoto {
	return &ConditionPhoto{
		id:        id,
		bookingID: bookingID,
		jockeyID:  jockeyID,
		photoType: photoType,
		photoURL:  photoURL,
		caption:   caption,
		takenAt:   takenAt,
		createdAt: createdAt,
	}
}

// Getters.
func (p *ConditionPhoto) ID() uuid.UUID        { return p.id }
func (p *ConditionPhoto) BookingID() uuid.UUID { return p.bookingID }
func (p *ConditionPhoto) JockeyID() uuid.UUID  { return p.jockeyID }
func (p *ConditionPhoto) PhotoType() PhotoType { return p.photoType }
func (p *ConditionPhoto) PhotoURL() string     { return p.photoURL }
func (p *ConditionPhoto) Caption() string      { return p.caption }
func (p *ConditionPhoto) TakenAt() time.Time   { return p.takenAt }
func (p *ConditionPhoto) CreatedAt() time.Time { return p.createdAt }
