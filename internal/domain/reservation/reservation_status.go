package reservation

import "fmt"

// Status is the lifecycle state of a reservation.
type Status string

const (
	// StatusReserved is an active reservation holding its room.
	StatusReserved  Status = "RESERVED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid returns true if the status is a recognized reservation status.
func (s Status) IsValid() bool {
	return s == StatusReserved || s == StatusCancelled
}

// IsActive returns true while the reservation holds its room.
func (s Status) IsActive() bool {
	return s == StatusReserved
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}
