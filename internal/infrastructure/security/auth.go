// Package security provides authentication primitives: JWT issuing and
// validation, Redis-backed sessions and token revocation.
package security

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
)

// AuthService issues and validates tokens and tracks sessions.
type AuthService struct {
	config      *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg *config.Config, logger *zap.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

// TokenType represents different types of JWT tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
	SessionID string    `json:"session_id"`
	jwt.RegisteredClaims
}

// SessionInfo represents session information
type SessionInfo struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// GenerateAccessToken creates a new access token
func (a *AuthService) GenerateAccessToken(userID, email, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(a.config.Auth.JWTExpiration)
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: AccessToken,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "whateat",
			Subject:   userID,
			Audience:  []string{"whateat-api"},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// GenerateRefreshToken creates a new refresh token
func (a *AuthService) GenerateRefreshToken(userID, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		TokenType: RefreshToken,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "whateat",
			Subject:   userID,
			Audience:  []string{"whateat-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.Auth.RefreshExpiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates and parses a JWT token
func (a *AuthService) ValidateToken(ctx context.Context, tokenString string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedType, claims.TokenType)
	}

	if revoked, err := a.isTokenRevoked(ctx, claims.ID); err != nil {
		a.logger.Warn("Failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, fmt.Errorf("token has been revoked")
	}

	return claims, nil
}

// RevokeToken revokes a token by adding it to the revocation list
func (a *AuthService) RevokeToken(ctx context.Context, tokenID string) error {
	key := fmt.Sprintf("revoked_token:%s", tokenID)

	// Expiration matches the longest possible token lifetime.
	return a.redisClient.Set(ctx, key, "revoked", a.config.Auth.RefreshExpiration).Err()
}

// CreateSession creates a new user session
func (a *AuthService) CreateSession(ctx context.Context, userID, ipAddress, userAgent string) (*SessionInfo, error) {
	sessionID := uuid.New().String()
	now := time.Now()

	session := &SessionInfo{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(a.config.Auth.RefreshExpiration),
		Active:    true,
	}

	sessionKey := fmt.Sprintf("session:%s", sessionID)
	if err := a.redisClient.HSet(ctx, sessionKey, map[string]interface{}{
		"user_id":    session.UserID,
		"ip_address": session.IPAddress,
		"user_agent": session.UserAgent,
		"created_at": session.CreatedAt.Unix(),
		"expires_at": session.ExpiresAt.Unix(),
		"active":     "true",
	}).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	a.redisClient.Expire(ctx, sessionKey, a.config.Auth.RefreshExpiration)

	return session, nil
}

// ValidateSession validates if a session is still active
func (a *AuthService) ValidateSession(ctx context.Context, sessionID, userID, ipAddress string) (*SessionInfo, error) {
	sessionKey := fmt.Sprintf("session:%s", sessionID)

	result, err := a.redisClient.HGetAll(ctx, sessionKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("session not found")
	}

	if result["user_id"] != userID {
		return nil, fmt.Errorf("session user mismatch")
	}

	// IP consistency is logged, not enforced; mobile clients roam.
	if a.config.IsProduction() && result["ip_address"] != ipAddress {
		a.logger.Warn("Session IP address mismatch",
			zap.String("session_id", sessionID),
			zap.String("stored_ip", result["ip_address"]),
			zap.String("request_ip", ipAddress),
		)
	}

	return &SessionInfo{
		UserID:    result["user_id"],
		SessionID: sessionID,
		IPAddress: result["ip_address"],
		UserAgent: result["user_agent"],
		Active:    result["active"] == "true",
	}, nil
}

// EndSession deactivates a session on logout.
func (a *AuthService) EndSession(ctx context.Context, sessionID string) error {
	sessionKey := fmt.Sprintf("session:%s", sessionID)
	return a.redisClient.Del(ctx, sessionKey).Err()
}

// HashPassword securely hashes a password using bcrypt
func (a *AuthService) HashPassword(password string) (string, error) {
	cost := a.config.Auth.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against its hash
func (a *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// isTokenRevoked checks if a token has been revoked
func (a *AuthService) isTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("revoked_token:%s", tokenID)

	exists, err := a.redisClient.Exists(ctx, key).Result()
	return exists > 0, err
}
