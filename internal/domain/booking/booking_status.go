package booking

import (
	"fmt"

	"github.com/wrenchly/service-booking/internal/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
//
// The enumeration carries both the canonical states and a set of deprecated
// legacy synonyms that still exist in older persisted rows. Legacy states are
// distinct nodes in the transition table with overlapping edges; they must not
// be collapsed into their canonical values, as that would change reachability
// for old records.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusPickupAssigned BookingStatus = "PICKUP_ASSIGNED"
	StatusPickedUp       BookingStatus = "PICKED_UP"
	StatusAtWorkshop     BookingStatus = "AT_WORKSHOP"
	StatusInService      BookingStatus = "IN_SERVICE"
	StatusReadyForReturn BookingStatus = "READY_FOR_RETURN"
	StatusReturnAssigned BookingStatus = "RETURN_ASSIGNED"
	StatusReturned       BookingStatus = "RETURNED"
	StatusDelivered      BookingStatus = "DELIVERED"
	StatusCancelled      BookingStatus = "CANCELLED"

	// Legacy synonyms kept for compatibility with older persisted data.
	StatusJockeyAssigned      BookingStatus = "JOCKEY_ASSIGNED"
	StatusInTransitToWorkshop BookingStatus = "IN_TRANSIT_TO_WORKSHOP"
	StatusInWorkshop          BookingStatus = "IN_WORKSHOP"
	StatusCompleted           BookingStatus = "COMPLETED"
	StatusInTransitToCustomer BookingStatus = "IN_TRANSIT_TO_CUSTOMER"
)

// legacyToCanonical maps each deprecated status onto its canonical equivalent.
var legacyToCanonical = map[BookingStatus]BookingStatus{
	StatusJockeyAssigned:      StatusPickupAssigned,
	StatusInTransitToWorkshop: StatusPickedUp,
	StatusInWorkshop:          StatusAtWorkshop,
	StatusCompleted:           StatusReadyForReturn,
	StatusInTransitToCustomer: StatusReturnAssigned,
}

// validTransitions defines the state machine for booking status transitions.
//
// Legacy aliases appear both as sources and as targets; a target list may name
// a canonical state and its legacy synonym side by side. That duplication is
// intentional: callers holding old rows transition along the same paths as
// callers holding current ones.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPickupAssigned, StatusJockeyAssigned, StatusCancelled},
	StatusPickupAssigned: {StatusPickedUp, StatusInTransitToWorkshop, StatusCancelled},
	StatusPickedUp:       {StatusAtWorkshop, StatusInWorkshop},
	StatusAtWorkshop:     {StatusInService},
	StatusInService:      {StatusReadyForReturn, StatusCompleted},
	StatusReadyForReturn: {StatusReturnAssigned, StatusInTransitToCustomer},
	StatusReturnAssigned: {StatusReturned, StatusDelivered},
	StatusReturned:       {},
	StatusDelivered:      {},
	StatusCancelled:      {},

	StatusJockeyAssigned:      {StatusPickedUp, StatusInTransitToWorkshop, StatusCancelled},
	StatusInTransitToWorkshop: {StatusAtWorkshop, StatusInWorkshop},
	StatusInWorkshop:          {StatusInService},
	StatusCompleted:           {StatusReturnAssigned, StatusInTransitToCustomer},
	StatusInTransitToCustomer: {StatusReturned, StatusDelivered},
}

// transitionEdge identifies one directed edge in the status graph.
type transitionEdge struct {
	from BookingStatus
	to   BookingStatus
}

// transitionActors restricts specific edges to specific actors. An edge absent
// from this table is open to any actor. ADMIN is never listed: the superuser
// bypass is an explicit check in AssertTransition, which keeps the authored
// intent of each edge visible here.
var transitionActors = map[transitionEdge][]Actor{
	{StatusPendingPayment, StatusConfirmed}: {ActorSystem},
	{StatusPendingPayment, StatusCancelled}: {ActorCustomer, ActorSystem},

	{StatusConfirmed, StatusPickupAssigned}: {ActorSystem},
	{StatusConfirmed, StatusJockeyAssigned}: {ActorSystem},
	{StatusConfirmed, StatusCancelled}:      {ActorCustomer, ActorSystem},

	{StatusPickupAssigned, StatusPickedUp}:            {ActorJockey},
	{StatusPickupAssigned, StatusInTransitToWorkshop}: {ActorJockey},
	{StatusPickupAssigned, StatusCancelled}:           {ActorCustomer, ActorSystem},
	{StatusJockeyAssigned, StatusPickedUp}:            {ActorJockey},
	{StatusJockeyAssigned, StatusInTransitToWorkshop}: {ActorJockey},
	{StatusJockeyAssigned, StatusCancelled}:           {ActorCustomer, ActorSystem},

	{StatusPickedUp, StatusAtWorkshop}:            {ActorJockey},
	{StatusPickedUp, StatusInWorkshop}:            {ActorJockey},
	{StatusInTransitToWorkshop, StatusAtWorkshop}: {ActorJockey},
	{StatusInTransitToWorkshop, StatusInWorkshop}: {ActorJockey},

	{StatusAtWorkshop, StatusInService}: {ActorWorkshop},
	{StatusInWorkshop, StatusInService}: {ActorWorkshop},

	{StatusInService, StatusReadyForReturn}: {ActorWorkshop},
	{StatusInService, StatusCompleted}:      {ActorWorkshop},

	{StatusReadyForReturn, StatusReturnAssigned}:      {ActorSystem},
	{StatusReadyForReturn, StatusInTransitToCustomer}: {ActorSystem},
	{StatusCompleted, StatusReturnAssigned}:           {ActorSystem},
	{StatusCompleted, StatusInTransitToCustomer}:      {ActorSystem},

	{StatusReturnAssigned, StatusReturned}:       {ActorJockey},
	{StatusReturnAssigned, StatusDelivered}:      {ActorJockey},
	{StatusInTransitToCustomer, StatusReturned}:  {ActorJockey},
	{StatusInTransitToCustomer, StatusDelivered}: {ActorJockey},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsLegacy returns true if the status is a deprecated synonym.
func (s BookingStatus) IsLegacy() bool {
	_, exists := legacyToCanonical[s]
	return exists
}

// Canonical maps a legacy status onto its canonical equivalent. Canonical
// statuses map to themselves.
func (s BookingStatus) Canonical() BookingStatus {
	if canonical, exists := legacyToCanonical[s]; exists {
		return canonical
	}
	return s
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// NextPossibleStates returns the full outgoing edge list for this status. The
// list may name a canonical target alongside its legacy synonym; both entries
// are valid transition targets.
func (s BookingStatus) NextPossibleStates() []BookingStatus {
	allowed, exists := validTransitions[s]
	if !exists {
		return nil
	}
	next := make([]BookingStatus, len(allowed))
	copy(next, allowed)
	return next
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s BookingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// IsWorkshopResident returns true while the vehicle is physically at the
// workshop, which is the only window in which cost extensions may be proposed.
func (s BookingStatus) IsWorkshopResident() bool {
	switch s {
	case StatusAtWorkshop, StatusInService, StatusInWorkshop:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %s", s))
	}
	return status, nil
}

// AllStatuses returns every recognized status, canonical and legacy.
func AllStatuses() []BookingStatus {
	statuses := make([]BookingStatus, 0, len(validTransitions))
	for s := range validTransitions {
		statuses = append(statuses, s)
	}
	return statuses
}

// AssertTransition validates the requested transition against the state table
// and, when an actor is supplied, against the per-edge actor table.
//
// A missing edge fails with an invalid-transition error regardless of actor.
// ADMIN may trigger any existing edge. The zero actor skips the authorization
// check entirely; it is used for internal transitions where the caller has
// already enforced authorization upstream.
func AssertTransition(current, next BookingStatus, actor Actor) error {
	if !current.CanTransitionTo(next) {
		return domain.NewInvalidTransitionError(string(current), string(next))
	}
	if actor == "" || actor == ActorAdmin {
		return nil
	}
	allowed, restricted := transitionActors[transitionEdge{current, next}]
	if !restricted {
		return nil
	}
	for _, a := range allowed {
		if a == actor {
			return nil
		}
	}
	return domain.NewActorNotAuthorizedError(string(actor), string(current), string(next))
}
