package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wrenchly/service-booking/internal/domain"
	assignmentDomain "github.com/wrenchly/service-booking/internal/domain/assignment"
)

// AssignmentModel is the GORM model for the assignments table.
type AssignmentModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	JockeyID    *uuid.UUID `gorm:"type:uuid;index"`
	Leg         string     `gorm:"not null;size:10"`
	Status      string     `gorm:"not null;size:20;index"`
	ScheduledAt time.Time  `gorm:"not null"`
	CompletedAt *time.Time `gorm:""`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (AssignmentModel) TableName() string {
	return "assignments"
}

// GormAssignmentRepository is the GORM-based implementation of AssignmentRepository.
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository.
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// FindByID retrieves an assignment by its unique identifier.
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*assignmentDomain.Assignment, error) {
	var model AssignmentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Assignment", id.String())
		}
		return nil, fmt.Errorf("failed to find assignment by ID: %w", err)
	}
	return toDomainAssignment(&model), nil
}

// FindByBookingID retrieves all assignments for a booking.
func (r *GormAssignmentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*assignmentDomain.Assignment, error) {
	var models []AssignmentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find assignments by booking: %w", err)
	}

	assignments := make([]*assignmentDomain.Assignment, len(models))
	for i, m := range models {
		assignments[i] = toDomainAssignment(&m)
	}
	return assignments, nil
}

// FindOpenByJockeyID retrieves a jockey's pending and accepted assignments.
func (r *GormAssignmentRepository) FindOpenByJockeyID(ctx context.Context, jockeyID uuid.UUID) ([]*assignmentDomain.Assignment, error) {
	var models []AssignmentModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("jockey_id = ? AND status IN ?", jockeyID, []string{
			string(assignmentDomain.StatusPending),
			string(assignmentDomain.StatusAccepted),
		}).
		Order("scheduled_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find open assignments: %w", err)
	}

	assignments := make([]*assignmentDomain.Assignment, len(models))
	for i, m := range models {
		assignments[i] = toDomainAssignment(&m)
	}
	return assignments, nil
}

// Save persists a new assignment.
func (r *GormAssignmentRepository) Save(ctx context.Context, a *assignmentDomain.Assignment) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Create(toAssignmentModel(a)).Error; err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

// Update persists changes to an existing assignment.
func (r *GormAssignmentRepository) Update(ctx context.Context, a *assignmentDomain.Assignment) error {
	model := toAssignmentModel(a)
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&AssignmentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"jockey_id":    model.JockeyID,
			"status":       model.Status,
			"completed_at": model.CompletedAt,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Assignment", model.ID.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toAssignmentModel(a *assignmentDomain.Assignment) *AssignmentModel {
	return &AssignmentModel{
		ID:          a.ID(),
		BookingID:   a.BookingID(),
		JockeyID:    a.JockeyID(),
		Leg:         string(a.Leg()),
		Status:      string(a.Status()),
		ScheduledAt: a.ScheduledAt(),
		CompletedAt: a.CompletedAt(),
		CreatedAt:   a.CreatedAt(),
		UpdatedAt:   a.UpdatedAt(),
	}
}

func toDomainAssignment(m *AssignmentModel) *assignmentDomain.Assignment {
	return assignmentDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.JockeyID,
		assignmentDomain.Leg(m.Leg),
		assignmentDomain.AssignmentStatus(m.Status),
		m.ScheduledAt,
		m.CompletedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
