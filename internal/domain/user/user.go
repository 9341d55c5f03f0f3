package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-reservation/pkg/domain"
)

const (
	// MaxLoginAttempts is the number of consecutive failures that locks an account.
	MaxLoginAttempts = 4
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 10 * time.Minute
)

// User is an account that can authenticate and hold reservations.
type User struct {
	id                uuid.UUID
	name              string
	lastName          string
	username          string
	passwordHash      string
	role              Role
	loginAttempts     int
	lockoutExpiration *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user from an already hashed password.
func NewUser(name, lastName, username, passwordHash string, role Role) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}
	if role == "" {
		role = RoleCustomer
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("invalid role: " + string(role))
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		name:         name,
		lastName:     lastName,
		username:     username,
		passwordHash: passwordHash,
		role:         role,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructUser rebuilds a User from persistence data (no validation).
func ReconstructUser(
	id uuid.UUID,
	name, lastName, username, passwordHash string,
	role Role,
	loginAttempts int,
	lockoutExpiration *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                id,
		name:              name,
		lastName:          lastName,
		username:          username,
		passwordHash:      passwordHash,
		role:              role,
		loginAttempts:     loginAttempts,
		lockoutExpiration: lockoutExpiration,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID { return u.id }

// Name returns the first name.
func (u *User) Name() string { return u.name }

// LastName returns the last name.
func (u *User) LastName() string { return u.lastName }

// Username returns the unique login name.
func (u *User) Username() string { return u.username }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Role returns the authorization role.
func (u *User) Role() Role { return u.role }

// LoginAttempts returns the count of consecutive failed logins.
func (u *User) LoginAttempts() int { return u.loginAttempts }

// LockoutExpiration returns when the current lockout ends, or nil.
func (u *User) LockoutExpiration() *time.Time { return u.lockoutExpiration }

// Version returns the optimistic locking version.
func (u *User) Version() int64 { return u.version }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last update timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// --- Behavior ---

// Rename updates the non-empty name fields.
func (u *User) Rename(name, lastName string) {
	if strings.TrimSpace(name) != "" {
		u.name = name
	}
	if strings.TrimSpace(lastName) != "" {
		u.lastName = lastName
	}
	u.touch()
}

// ChangeUsername sets a new login name.
func (u *User) ChangeUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return domain.NewValidationError("username is required")
	}
	u.username = username
	u.touch()
	return nil
}

// ChangePasswordHash replaces the stored hash.
func (u *User) ChangePasswordHash(hash string) {
	u.passwordHash = hash
	u.touch()
}

// ChangeRole assigns a new role.
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return domain.NewValidationError("invalid role: " + string(role))
	}
	u.role = role
	u.touch()
	return nil
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.lockoutExpiration != nil && now.Before(*u.lockoutExpiration)
}

// RegisterFailedLogin counts a failed password check and locks the account
// once MaxLoginAttempts is reached. A lockout that has already expired starts
// a fresh count.
func (u *User) RegisterFailedLogin(now time.Time) {
	if u.lockoutExpiration != nil && !now.Before(*u.lockoutExpiration) {
		u.loginAttempts = 0
		u.lockoutExpiration = nil
	}
	u.loginAttempts++
	if u.loginAttempts >= MaxLoginAttempts {
		until := now.Add(LockoutDuration)
		u.lockoutExpiration = &until
	}
	u.touch()
}

// RemainingAttempts returns how many failures are left before lockout.
func (u *User) RemainingAttempts() int {
	if n := MaxLoginAttempts - u.loginAttempts; n > 0 {
		return n
	}
	return 0
}

// ResetLoginAttempts clears the failure counter and any lockout.
func (u *User) ResetLoginAttempts() {
	if u.loginAttempts == 0 && u.lockoutExpiration == nil {
		return
	}
	u.loginAttempts = 0
	u.lockoutExpiration = nil
	u.touch()
}

// IncrementVersion bumps the version for optimistic locking.
func (u *User) IncrementVersion() {
	u.version++
	u.touch()
}

func (u *User) touch() {
	u.updatedAt = time.Now().UTC()
}
