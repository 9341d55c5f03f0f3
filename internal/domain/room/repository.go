package room

import (
	"context"

	"github.com/google/uuid"
)

// RoomRepository defines the persistence contract for rooms.
type RoomRepository interface {
	// FindByID retrieves a room by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// FindByIDForUpdate retrieves a room and locks its row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Room, error)

	// SearchByName returns rooms whose name contains search (case-insensitive),
	// newest first.
	SearchByName(ctx context.Context, search string, page, limit int) ([]*Room, int64, error)

	// Save persists a new room.
	Save(ctx context.Context, room *Room) error

	// Update persists changes to an existing room with optimistic locking.
	Update(ctx context.Context, room *Room) error

	// Delete removes a room.
	Delete(ctx context.Context, id uuid.UUID) error
}
