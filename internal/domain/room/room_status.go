package room

import "fmt"

// Status is a room's occupancy state.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	// StatusCancelled marks a room taken out of service by room management.
	StatusCancelled Status = "CANCELLED"
)

// validTransitions is the occupancy state machine. AVAILABLE<->RESERVED is
// driven by reservations; AVAILABLE<->CANCELLED by room management.
var validTransitions = map[Status][]Status{
	StatusAvailable: {StatusReserved, StatusCancelled},
	StatusReserved:  {StatusAvailable},
	StatusCancelled: {StatusAvailable},
}

// IsValid returns true if the status is a recognized occupancy status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid room status: %s", s)
	}
	return status, nil
}
