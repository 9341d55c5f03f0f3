package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	reservationDomain "github.com/roomdesk/service-reservation/internal/domain/reservation"
	userDomain "github.com/roomdesk/service-reservation/internal/domain/user"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// CreateUserRequest is the request DTO for registering a user.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the request DTO for patching a user. Blank fields are ignored.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserDTO is the API response representation of a user.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService implements user management use cases.
type UserService struct {
	users        userDomain.UserRepository
	reservations reservationDomain.ReservationRepository
	hasher       auth.PasswordHasher
	logger       *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users userDomain.UserRepository,
	reservations reservationDomain.ReservationRepository,
	hasher auth.PasswordHasher,
	logger *zap.Logger,
) *UserService {
	return &UserService{users: users, reservations: reservations, hasher: hasher, logger: logger}
}

// CreateUser registers a new user. Only an admin may assign the ADMIN role;
// callerIsAdmin is false for self-registration.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest, callerIsAdmin bool) (*UserDTO, error) {
	role, err := userDomain.ParseRole(req.Role)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if role == userDomain.RoleAdmin && !callerIsAdmin {
		return nil, domain.NewForbiddenError("only admins can create admin users")
	}

	if err := s.ensureUsernameFree(ctx, req.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := userDomain.NewUser(req.Name, req.LastName, req.Username, hash, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", u.ID().String()),
		zap.String("username", u.Username()),
		zap.String("role", string(u.Role())),
	)

	result := toUserDTO(u)
	return &result, nil
}

// EnsureAdmin creates the bootstrap admin account when no user has username.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !domain.IsNotFound(err) {
		return err
	}

	_, err = s.CreateUser(ctx, CreateUserRequest{
		Name:     "Administrator",
		Username: username,
		Password: password,
		Role:     string(userDomain.RoleAdmin),
	}, true)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// SearchUsers lists users matching search, newest first.
func (s *UserService) SearchUsers(ctx context.Context, search string, page, limit int) (*domain.PaginatedResult[UserDTO], error) {
	users, total, err := s.users.SearchByName(ctx, search, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// UpdateUser applies the non-blank fields of req.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest, callerIsAdmin bool) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Rename(req.Name, req.LastName)

	if username := strings.TrimSpace(req.Username); username != "" && username != u.Username() {
		if err := s.ensureUsernameFree(ctx, username); err != nil {
			return nil, err
		}
		if err := u.ChangeUsername(username); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(req.Password) != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.ChangePasswordHash(hash)
	}

	if req.Role != "" && userDomain.Role(req.Role) != u.Role() {
		if !callerIsAdmin {
			return nil, domain.NewForbiddenError("only admins can change roles")
		}
		if err := u.ChangeRole(userDomain.Role(req.Role)); err != nil {
			return nil, err
		}
	}

	u.IncrementVersion()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", zap.String("user_id", id.String()))

	result := toUserDTO(u)
	return &result, nil
}

// DeleteUser removes a user that holds no reservations.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	inUse, err := s.reservations.ExistsByUserID(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.NewConflictError("user has reservations")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return domain.NewConflictError("username already taken")
	}
	if domain.IsNotFound(err) {
		return nil
	}
	return err
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Name:      u.Name(),
		LastName:  u.LastName(),
		Username:  u.Username(),
		Role:      string(u.Role()),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}
