package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchly/service-booking/internal/domain"
	assignmentDomain "github.com/wrenchly/service-booking/internal/domain/assignment"
)

// AssignmentDTO is the response representation of a jockey assignment.
type AssignmentDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookingID   uuid.UUID  `json:"booking_id"`
	JockeyID    *uuid.UUID `json:"jockey_id,omitempty"`
	Leg         string     `json:"leg"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AssignmentService manages the jockey jobs a booking generates. The
// assignments track who drives which leg; the booking's own status moves
// through the transition endpoint.
type AssignmentService struct {
	repo   assignmentDomain.AssignmentRepository
	logger *zap.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(repo assignmentDomain.AssignmentRepository, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{repo: repo, logger: logger}
}

// AcceptAssignment attaches the jockey to an open assignment.
func (s *AssignmentService) AcceptAssignment(ctx context.Context, jockeyID, assignmentID uuid.UUID) (*AssignmentDTO, error) {
	a, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := a.Accept(jockeyID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	result := toAssignmentDTO(a)
	return &result, nil
}

// CompleteAssignment marks the jockey's own assignment as done.
func (s *AssignmentService) CompleteAssignment(ctx context.Context, jockeyID, assignmentID uuid.UUID) (*AssignmentDTO, error) {
	a, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.JockeyID() == nil || *a.JockeyID() != jockeyID {
		return nil, domain.NewForbiddenError("assignment belongs to a different jockey")
	}

	if err := a.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	result := toAssignmentDTO(a)
	return &result, nil
}

// GetOpenAssignments retrieves the jockey's pending and accepted assignments.
func (s *AssignmentService) GetOpenAssignments(ctx context.Context, jockeyID uuid.UUID) ([]AssignmentDTO, error) {
	assignments, err := s.repo.FindOpenByJockeyID(ctx, jockeyID)
	if err != nil {
		return nil, err
	}
	return toAssignmentDTOs(assignments), nil
}

// GetBookingAssignments retrieves all assignments for a booking.
func (s *AssignmentService) GetBookingAssignments(ctx context.Context, bookingID uuid.UUID) ([]AssignmentDTO, error) {
	assignments, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return toAssignmentDTOs(assignments), nil
}

func toAssignmentDTO(a *assignmentDomain.Assignment) AssignmentDTO {
	return AssignmentDTO{
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

func toAssignmentDTOs(assignments []*assignmentDomain.Assignment) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	return dtos
}
