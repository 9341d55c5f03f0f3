package reservation

import (
	"context"

	"github.com/google/uuid"
)

// ReservationRepository defines the persistence contract for reservations.
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// ListAll returns reservations newest first.
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// ListByUserID returns the user's reservations newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Reservation, int64, error)

	Save(ctx context.Context, r *Reservation) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, r *Reservation) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByRoomID reports whether any reservation references the room.
	ExistsByRoomID(ctx context.Context, roomID uuid.UUID) (bool, error)

	// ExistsByUserID reports whether any reservation references the user.
	ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error)

	// CountByStatus returns the number of reservations per status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
