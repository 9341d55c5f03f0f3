package room

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-reservation/pkg/domain"
)

// Room is a bookable space with an hourly price and a single occupancy flag.
type Room struct {
	id         uuid.UUID
	name       string
	roomNumber string
	location   string
	capacity   int
	priceCents int64
	status     Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Details holds the mutable descriptive attributes of a room.
type Details struct {
	Name       string
	RoomNumber string
	Location   string
	Capacity   int
	PriceCents int64
}

func (d Details) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return domain.NewValidationError("room name is required")
	}
	if strings.TrimSpace(d.RoomNumber) == "" {
		return domain.NewValidationError("room number is required")
	}
	if strings.TrimSpace(d.Location) == "" {
		return domain.NewValidationError("room location is required")
	}
	if d.Capacity < 0 {
		return domain.NewValidationError("room capacity cannot be negative")
	}
	if d.PriceCents < 0 {
		return domain.NewValidationError("room price cannot be negative")
	}
	return nil
}

// NewRoom creates a room in the given initial status (AVAILABLE when empty).
// A new room cannot start out RESERVED: that state only comes from a reservation.
func NewRoom(details Details, status Status) (*Room, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	if status == "" {
		status = StatusAvailable
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("invalid room status: " + string(status))
	}
	if status == StatusReserved {
		return nil, domain.NewValidationError("a room can only become RESERVED through a reservation")
	}

	now := time.Now().UTC()
	return &Room{
		id:         uuid.New(),
		name:       details.Name,
		roomNumber: details.RoomNumber,
		location:   details.Location,
		capacity:   details.Capacity,
		priceCents: details.PriceCents,
		status:     status,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructRoom rebuilds a Room from persistence data (no validation).
func ReconstructRoom(
	id uuid.UUID,
	details Details,
	status Status,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Room {
	return &Room{
		id:         id,
		name:       details.Name,
		roomNumber: details.RoomNumber,
		location:   details.Location,
		capacity:   details.Capacity,
		priceCents: details.PriceCents,
		status:     status,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

func (r *Room) ID() uuid.UUID { return r.id }
func (r *Room) Name() string { return r.name }
func (r *Room) RoomNumber() string { return r.roomNumber }
func (r *Room) Location() string { return r.location }
func (r *Room) Capacity() int { return r.capacity }
func (r *Room) PriceCents() int64 { return r.priceCents }
func (r *Room) Status() Status { return r.status }
func (r *Room) Version() int64 { return r.version }
func (r *Room) CreatedAt() time.Time { return r.createdAt }
func (r *Room) UpdatedAt() time.Time { return r.updatedAt }

// Details returns the descriptive attributes.
func (r *Room) Details() Details {
	return Details{
		Name:       r.name,
		RoomNumber: r.roomNumber,
		Location:   r.location,
		Capacity:   r.capacity,
		PriceCents: r.priceCents,
	}
}

// IsReserved reports whether an active reservation holds the room.
func (r *Room) IsReserved() bool { return r.status == StatusReserved }

// --- Behavior ---

// Reserve marks the room as held by a reservation.
func (r *Room) Reserve() error {
	if r.status == StatusReserved {
		return domain.NewConflictError("room already reserved")
	}
	if !r.status.CanTransitionTo(StatusReserved) {
		return domain.NewConflictError("room is not available")
	}
	r.status = StatusReserved
	r.touch()
	return nil
}

// Release frees a reserved room. Rooms in any other status are left alone.
func (r *Room) Release() {
	if r.status != StatusReserved {
		return
	}
	r.status = StatusAvailable
	r.touch()
}

// Close takes an available room out of service.
func (r *Room) Close() error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.touch()
	return nil
}

// Reopen returns a closed room to service.
func (r *Room) Reopen() error {
	if r.status != StatusCancelled {
		return domain.NewInvalidStateError(string(r.status), string(StatusAvailable))
	}
	r.status = StatusAvailable
	r.touch()
	return nil
}

// ChangeStatus applies a room-management status change. Only the
// AVAILABLE<->CANCELLED edge is reachable this way.
func (r *Room) ChangeStatus(target Status) error {
	if target == r.status {
		return nil
	}
	switch target {
	case StatusCancelled:
		return r.Close()
	case StatusAvailable:
		return r.Reopen()
	default:
		return domain.NewInvalidStateError(string(r.status), string(target))
	}
}

// UpdateDetails replaces the descriptive attributes.
func (r *Room) UpdateDetails(details Details) error {
	if err := details.validate(); err != nil {
		return err
	}
	r.name = details.Name
	r.roomNumber = details.RoomNumber
	r.location = details.Location
	r.capacity = details.Capacity
	r.priceCents = details.PriceCents
	r.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Room) IncrementVersion() {
	r.version++
	r.touch()
}

func (r *Room) touch() {
	r.updatedAt = time.Now().UTC()
}
