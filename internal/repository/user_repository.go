package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userDomain "github.com/roomdesk/service-reservation/internal/domain/user"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name              string     `gorm:"not null;size:100"`
	LastName          string     `gorm:"not null;size:100"`
	Username          string     `gorm:"uniqueIndex;not null;size:100"`
	PasswordHash      string     `gorm:"not null;size:255"`
	Role              string     `gorm:"not null;size:20"`
	LoginAttempts     int        `gorm:"not null;default:0"`
	LockoutExpiration *time.Time `gorm:""`
	Version           int64      `gorm:"not null;default:1"`
	CreatedAt         time.Time  `gorm:"not null;index"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string {
	return "users"
}

// GormUserRepository is the GORM-based implementation of UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID retrieves a user by its unique identifier.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return toDomainUser(&model)
}

// FindByUsername retrieves a user by login name.
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*userDomain.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", "")
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return toDomainUser(&model)
}

// SearchByName matches search against name, last name and username.
func (r *GormUserRepository) SearchByName(ctx context.Context, search string, page, limit int) ([]*userDomain.User, int64, error) {
	filter := nameFilter([]string{"name", "last_name", "username"}, search)

	var total int64
	if err := conn(ctx, r.db).Model(&UserModel{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var models []UserModel
	if err := conn(ctx, r.db).
		Scopes(filter).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}

	users := make([]*userDomain.User, len(models))
	for i := range models {
		u, err := toDomainUser(&models[i])
		if err != nil {
			return nil, 0, err
		}
		users[i] = u
	}
	return users, total, nil
}

// Save persists a new user.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	if err := conn(ctx, r.db).Create(toUserModel(u)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("username already taken")
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Update persists changes to an existing user with optimistic locking.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)

	expectedVersion := u.Version() - 1
	result := conn(ctx, r.db).
		Model(&UserModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":               model.Name,
			"last_name":          model.LastName,
			"username":           model.Username,
			"password_hash":      model.PasswordHash,
			"role":               model.Role,
			"login_attempts":     model.LoginAttempts,
			"lockout_expiration": model.LockoutExpiration,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("username already taken")
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("user was modified by another transaction")
	}
	return nil
}

// Delete removes a user.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&UserModel{})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return domain.NewConflictError("user is referenced by reservations")
		}
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toUserModel(u *userDomain.User) *UserModel {
	return &UserModel{
		ID:                u.ID(),
		Name:              u.Name(),
		LastName:          u.LastName(),
		Username:          u.Username(),
		PasswordHash:      u.PasswordHash(),
		Role:              string(u.Role()),
		LoginAttempts:     u.LoginAttempts(),
		LockoutExpiration: u.LockoutExpiration(),
		Version:           u.Version(),
		CreatedAt:         u.CreatedAt(),
		UpdatedAt:         u.UpdatedAt(),
	}
}

func toDomainUser(m *UserModel) (*userDomain.User, error) {
	role, err := userDomain.ParseRole(m.Role)
	if err != nil {
		return nil, err
	}
	return userDomain.ReconstructUser(
		m.ID,
		m.Name,
		m.LastName,
		m.Username,
		m.PasswordHash,
		role,
		m.LoginAttempts,
		m.LockoutExpiration,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
