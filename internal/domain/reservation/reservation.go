package reservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-reservation/pkg/domain"
)

// Reservation is a user's booking of a room for a time interval.
// Room and user are referenced by id only.
type Reservation struct {
	id             uuid.UUID
	roomID         uuid.UUID
	userID         uuid.UUID
	startTime      time.Time
	endTime        time.Time
	status         Status
	totalCostCents int64

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// ValidateInterval rejects an interval whose end precedes its start.
func ValidateInterval(start, end time.Time) error {
	if end.Before(start) {
		return domain.NewValidationError("end time must not be before start time")
	}
	return nil
}

// NewReservation creates an active reservation with a precomputed cost.
func NewReservation(roomID, userID uuid.UUID, start, end time.Time, costCents int64) (*Reservation, error) {
	if err := ValidateInterval(start, end); err != nil {
		return nil, err
	}
	if costCents < 0 {
		return nil, domain.NewValidationError("total cost cannot be negative")
	}

	now := time.Now().UTC()
	return &Reservation{
		id:             uuid.New(),
		roomID:         roomID,
		userID:         userID,
		startTime:      start,
		endTime:        end,
		status:         StatusReserved,
		totalCostCents: costCents,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructReservation rebuilds a Reservation from persistence data (no validation).
func ReconstructReservation(
	id, roomID, userID uuid.UUID,
	start, end time.Time,
	status Status,
	totalCostCents int64,
	version int64,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:             id,
		roomID:         roomID,
		userID:         userID,
		startTime:      start,
		endTime:        end,
		status:         status,
		totalCostCents: totalCostCents,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (r *Reservation) ID() uuid.UUID { return r.id }
func (r *Reservation) RoomID() uuid.UUID { return r.roomID }
func (r *Reservation) UserID() uuid.UUID { return r.userID }
func (r *Reservation) StartTime() time.Time { return r.startTime }
func (r *Reservation) EndTime() time.Time { return r.endTime }
func (r *Reservation) Status() Status { return r.status }
func (r *Reservation) TotalCostCents() int64 { return r.totalCostCents }
func (r *Reservation) Version() int64 { return r.version }
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }
func (r *Reservation) IsActive() bool { return r.status.IsActive() }

// --- Behavior ---

// Reschedule overwrites room, user, interval and cost, and marks the
// reservation active. Identity and creation time are kept.
func (r *Reservation) Reschedule(roomID, userID uuid.UUID, start, end time.Time, costCents int64) error {
	if !r.IsActive() {
		return domain.NewConflictError("reservation is cancelled")
	}
	if err := ValidateInterval(start, end); err != nil {
		return err
	}
	r.roomID = roomID
	r.userID = userID
	r.startTime = start
	r.endTime = end
	r.status = StatusReserved
	r.totalCostCents = costCents
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel ends an active reservation.
func (r *Reservation) Cancel() error {
	if !r.IsActive() {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
