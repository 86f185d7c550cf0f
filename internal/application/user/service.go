// Package user provides the application layer for user management
package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/security"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
)

// UserService implements user management use cases
type UserService struct {
	userRepo outbound.UserRepository
	auth     *security.AuthService
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo outbound.UserRepository,
	auth *security.AuthService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		logger:   logger.Named("user-service"),
	}
}

// RegisterCommand contains user registration data
type RegisterCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginCommand contains user login data
type LoginCommand struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Preferences *user.Preferences `json:"preferences,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AuthResponse contains authentication response data
type AuthResponse struct {
	User         UserDTO   `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Register creates a new user account and logs them in.
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*AuthResponse, error) {
	s.logger.Info("Registering new user", zap.String("email", cmd.Email))

	if existing, err := s.userRepo.FindByEmail(ctx, cmd.Email); err == nil && existing != nil {
		return nil, apperrors.NewEmailAlreadyExistsError(cmd.Email)
	}

	newUser, err := user.NewUser(cmd.Email, cmd.Name, cmd.Password)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, apperrors.NewDatabaseError("create user", err)
	}

	response, err := s.issueTokens(ctx, newUser, "", "")
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID().String()),
		zap.String("email", newUser.Email()),
	)
	return response, nil
}

// Login authenticates a user and starts a session.
func (s *UserService) Login(ctx context.Context, cmd LoginCommand) (*AuthResponse, error) {
	s.logger.Info("User login attempt", zap.String("email", cmd.Email))

	userEntity, err := s.userRepo.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	if err := userEntity.CheckPassword(cmd.Password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.String("email", cmd.Email))
		return nil, apperrors.NewInvalidCredentialsError()
	}

	if !userEntity.IsActive() {
		return nil, apperrors.NewForbiddenError("account is deactivated")
	}

	userEntity.RecordLogin()
	if err := s.userRepo.Update(ctx, userEntity); err != nil {
		s.logger.Error("Failed to update last login", zap.Error(err))
	}

	response, err := s.issueTokens(ctx, userEntity, cmd.IPAddress, cmd.UserAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully",
		zap.String("user_id", userEntity.ID().String()),
	)
	return response, nil
}

// Logout revokes the caller's token and ends the session.
func (s *UserService) Logout(ctx context.Context, tokenID, sessionID string) error {
	if err := s.auth.RevokeToken(ctx, tokenID); err != nil {
		s.logger.Warn("Token revocation failed", zap.Error(err))
	}
	if err := s.auth.EndSession(ctx, sessionID); err != nil {
		return apperrors.NewInternalError("failed to end session")
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.auth.ValidateToken(ctx, refreshToken, security.RefreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	userEntity, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}
	if !userEntity.IsActive() {
		return nil, apperrors.NewForbiddenError("account is deactivated")
	}

	// The old refresh token is single-use.
	if err := s.auth.RevokeToken(ctx, claims.ID); err != nil {
		s.logger.Warn("Refresh token revocation failed", zap.Error(err))
	}

	return s.issueTokens(ctx, userEntity, "", "")
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	userEntity, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewUserNotFoundError(userID.String())
	}

	dto := entityToDTO(userEntity)
	return &dto, nil
}

// UpdatePreferences updates user food preferences. Dietary labels and
// cuisines are normalized onto the canonical vocabularies.
func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences *user.Preferences) error {
	userEntity, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.NewUserNotFoundError(userID.String())
	}

	userEntity.UpdatePreferences(preferences)

	if err := s.userRepo.Update(ctx, userEntity); err != nil {
		return apperrors.NewDatabaseError("update preferences", err)
	}

	s.logger.Info("User preferences updated", zap.String("user_id", userID.String()))
	return nil
}

// ChangePassword changes user password
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	userEntity, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.NewUserNotFoundError(userID.String())
	}

	if err := userEntity.CheckPassword(currentPassword); err != nil {
		return apperrors.NewUnauthorizedError("current password is incorrect")
	}

	if err := userEntity.UpdatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if err := s.userRepo.Update(ctx, userEntity); err != nil {
		return apperrors.NewDatabaseError("save password", err)
	}

	s.logger.Info("User password changed", zap.String("user_id", userID.String()))
	return nil
}

// issueTokens creates a session and signs an access and refresh token
// pair for it.
func (s *UserService) issueTokens(ctx context.Context, userEntity *user.User, ipAddress, userAgent string) (*AuthResponse, error) {
	session, err := s.auth.CreateSession(ctx, userEntity.ID().String(), ipAddress, userAgent)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create session")
	}

	accessToken, expiresAt, err := s.auth.GenerateAccessToken(
		userEntity.ID().String(), userEntity.Email(), session.SessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate access token")
	}

	refreshToken, err := s.auth.GenerateRefreshToken(userEntity.ID().String(), session.SessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate refresh token")
	}

	return &AuthResponse{
		User:         entityToDTO(userEntity),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// entityToDTO converts user entity to DTO
func entityToDTO(userEntity *user.User) UserDTO {
	return UserDTO{
		ID:          userEntity.ID(),
		Email:       userEntity.Email(),
		Name:        userEntity.Name(),
		Preferences: userEntity.Preferences(),
		CreatedAt:   userEntity.CreatedAt(),
	}
}
