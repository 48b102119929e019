package booking

// Actor is the business role attempting a state transition. The HTTP layer
// resolves the authenticated caller into an Actor before the state machine is
// consulted; the domain never performs authentication itself.
type Actor string

const (
	ActorSystem   Actor = "SYSTEM"
	ActorCustomer Actor = "CUSTOMER"
	ActorJockey   Actor = "JOCKEY"
	ActorWorkshop Actor = "WORKSHOP"
	ActorAdmin    Actor = "ADMIN"
)

// IsValid returns true if the actor is a recognized role.
func (a Actor) IsValid() bool {
	switch a {
	case ActorSystem, ActorCustomer, ActorJockey, ActorWorkshop, ActorAdmin:
		return true
	}
	return false
}

// String returns the string representation of the actor.
func (a Actor) String() string {
	return string(a)
}
