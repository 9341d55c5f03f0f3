// Package events defines the topics, event types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicReservationEvents = "reservation.events"
	TopicFacilityEvents    = "facility.events"
)

// Reservation event types.
const (
	ReservationCreated   = "reservation.created"
	ReservationUpdated   = "reservation.updated"
	ReservationCancelled = "reservation.cancelled"
	ReservationDeleted   = "reservation.deleted"
)

// Facility event types consumed by this service.
const (
	FacilityRoomClosed   = "facility.room.closed"
	FacilityRoomReopened = "facility.room.reopened"
)

// ReservationEvent is the payload for every reservation.* event.
type ReservationEvent struct {
	ReservationID  uuid.UUID  `json:"reservation_id"`
	RoomID         uuid.UUID  `json:"room_id"`
	PreviousRoomID *uuid.UUID `json:"previous_room_id,omitempty"`
	UserID         uuid.UUID  `json:"user_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         string     `json:"status"`
	TotalCostCents int64      `json:"total_cost_cents"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// FacilityRoomEvent is the payload of facility.room.* events.
type FacilityRoomEvent struct {
	RoomID     uuid.UUID `json:"room_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
