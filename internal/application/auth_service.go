package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/roomdesk/service-reservation/internal/domain/user"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/domain"
)

// LoginRequest is the request DTO for password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenDTO is the response of a successful login.
type TokenDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"` // seconds
	UserID      uuid.UUID `json:"user_id"`
	Role        string    `json:"role"`
}

// ValidateDTO describes the caller of a validated token.
type ValidateDTO struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// AuthService authenticates users and locks accounts after repeated failures.
type AuthService struct {
	users  userDomain.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.JWTManager
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users userDomain.UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.JWTManager,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenDTO, error) {
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("invalid username or password")
		}
		return nil, err
	}

	now := s.now()
	if u.IsLocked(now) {
		return nil, domain.NewLockedError(fmt.Sprintf(
			"account locked until %s", u.LockoutExpiration().Format(domain.DateTimeLayout)))
	}

	if !s.hasher.Verify(u.PasswordHash(), req.Password) {
		u.RegisterFailedLogin(now)
		u.IncrementVersion()
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}

		s.logger.Warn("failed login attempt",
			zap.String("user_id", u.ID().String()),
			zap.Int("attempts", u.LoginAttempts()),
		)
		if u.IsLocked(now) {
			return nil, domain.NewLockedError(fmt.Sprintf(
				"too many failed attempts, account locked for %s", userDomain.LockoutDuration))
		}
		return nil, domain.NewUnauthorizedError(fmt.Sprintf(
			"invalid username or password, %d attempts remaining", u.RemainingAttempts()))
	}

	if u.LoginAttempts() > 0 || u.LockoutExpiration() != nil {
		u.ResetLoginAttempts()
		u.IncrementVersion()
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID(), u.Username(), auth.Role(u.Role()))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID().String()))

	return &TokenDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(s.tokens.AccessTTL() / time.Second),
		UserID:      u.ID(),
		Role:        string(u.Role()),
	}, nil
}

// Validate confirms that the token's user still exists and returns its role.
func (s *AuthService) Validate(ctx context.Context, userID uuid.UUID) (*ValidateDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("user no longer exists")
		}
		return nil, err
	}
	return &ValidateDTO{UserID: u.ID(), Role: string(u.Role())}, nil
}
