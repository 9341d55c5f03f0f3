package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername returns a NotFound error when no user has the username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// SearchByName matches name, last name or username (case-insensitive).
	SearchByName(ctx context.Context, search string, page, limit int) ([]*User, int64, error)

	Save(ctx context.Context, u *User) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, u *User) error

	Delete(ctx context.Context, id uuid.UUID) error
}
