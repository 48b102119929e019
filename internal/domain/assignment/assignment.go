package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/wrenchly/service-booking/internal/domain"
)

// Leg distinguishes the two jockey jobs a booking generates.
type Leg string

const (
	LegPickup Leg = "PICKUP"
	LegReturn Leg = "RETURN"
)

// IsValid returns true if the leg is recognized.
func (l Leg) IsValid() bool {
	return l == LegPickup || l == LegReturn
}

// AssignmentStatus is the lifecycle state of a jockey job.
type AssignmentStatus string

const (
	StatusPending   AssignmentStatus = "PENDING"
	StatusAccepted  AssignmentStatus = "ACCEPTED"
	StatusCompleted AssignmentStatus = "COMPLETED"
	StatusCancelled AssignmentStatus = "CANCELLED"
)

// Assignment is one jockey job: drive the vehicle to the workshop or bring it
// back to the customer.
type Assignment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	jockeyID    *uuid.UUID
	leg         Leg
	status      AssignmentStatus
	scheduledAt time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewAssignment creates a pending assignment for the given booking leg. The
// jockey is attached later when one accepts the job.
func NewAssignment(bookingID uuid.UUID, leg Leg, scheduledAt time.Time) (*Assignment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if !leg.IsValid() {
		return nil, domain.NewValidationError("invalid assignment leg")
	}
	now := time.Now().UTC()
	return &Assignment{
		id:          uuid.New(),
		bookingID:   bookingID,
		leg:         leg,
		status:      StatusPending,
		scheduledAt: scheduledAt,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds an Assignment from persistence data.
func Reconstruct(
	id, bookingID uuid.UUID,
	jockeyID *uuid.UUID,
	leg Leg,
	status AssignmentStatus,
	scheduledAt time.Time,
	completedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Assignment {
	return &Assignment{
		id:          id,
		bookingID:   bookingID,
		jockeyID:    jockeyID,
		leg:         leg,
		status:      status,
		scheduledAt: scheduledAt,
		completedAt: completedAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (a *Assignment) ID() uuid.UUID           { return a.id }
func (a *Assignment) BookingID() uuid.UUID    { return a.bookingID }
func (a *Assignment) JockeyID() *uuid.UUID    { return a.jockeyID }
func (a *Assignment) Leg() Leg                { return a.leg }
func (a *Assignment) Status() AssignmentStatus { return a.status }
func (a *Assignment) ScheduledAt() time.Time  { return a.scheduledAt }
func (a *Assignment) CompletedAt() *time.Time { return a.completedAt }
func (a *Assignment) CreatedAt() time.Time    { return a.createdAt }
func (a *Assignment) UpdatedAt() time.Time    { return a.updatedAt }

// --- Behavior ---

// Accept attaches a jockey to a pending assignment.
func (a *Assignment) Accept(jockeyID uuid.UUID) error {
	if a.status != StatusPending {
		return domain.NewConflictError("assignment is no longer open")
	}
	if jockeyID == uuid.Nil {
		return domain.NewValidationError("jockey ID is required")
	}
	a.jockeyID = &jockeyID
	a.status = StatusAccepted
	a.updatedAt = time.Now().UTC()
	return nil
}

// Complete marks an accepted assignment as done.
func (a *Assignment) Complete() error {
	if a.status != StatusAccepted {
		return domain.NewConflictError("only accepted assignments can be completed")
	}
	now := time.Now().UTC()
	a.status = StatusCompleted
	a.completedAt = &now
	a.updatedAt = now
	return nil
}

// CancelOpen cancels an assignment that has not completed.
func (a *Assignment) CancelOpen() error {
	if a.status == StatusCompleted || a.status == StatusCancelled {
		return domain.NewConflictError("assignment is already closed")
	}
	a.status = StatusCancelled
	a.updatedAt = time.Now().UTC()
	return nil
}
