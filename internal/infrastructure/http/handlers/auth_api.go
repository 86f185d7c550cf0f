// Package handlers provides HTTP handlers for authentication API endpoints
package handlers

import (
	"net"
	"net/http"

	"github.com/dspaces1/whatEatBE/internal/application/user"
	userdomain "github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/middleware"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AuthAPIHandlers handles authentication API requests
type AuthAPIHandlers struct {
	userService *user.UserService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAuthAPIHandlers creates a new authentication API handlers instance
func NewAuthAPIHandlers(userService *user.UserService, logger *zap.Logger) *AuthAPIHandlers {
	return &AuthAPIHandlers{
		userService: userService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RefreshRequest carries the refresh token for token rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthAPIHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var cmd user.RegisterCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	resp, err := h.userService.Register(r.Context(), cmd)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthAPIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var cmd user.LoginCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(cmd); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	cmd.IPAddress = clientIP(r)
	cmd.UserAgent = r.UserAgent()

	resp, err := h.userService.Login(r.Context(), cmd)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthAPIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID, _ := middleware.GetTokenIDFromContext(r.Context())
	sessionID, _ := middleware.GetSessionIDFromContext(r.Context())

	if err := h.userService.Logout(r.Context(), tokenID, sessionID); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthAPIHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	resp, err := h.userService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *AuthAPIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	dto, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, dto)
}

// UpdatePreferences handles PUT /api/v1/auth/me/preferences
func (h *AuthAPIHandlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var prefs userdomain.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.userService.UpdatePreferences(r.Context(), userID, &prefs); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, map[string]string{"status": "preferences updated"})
}

// ChangePassword handles PUT /api/v1/auth/me/password
func (h *AuthAPIHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, map[string]string{"status": "password changed"})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
