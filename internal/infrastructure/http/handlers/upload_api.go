package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/middleware"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowed image content types for recipe media uploads
var allowedUploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadAPIHandlers issues presigned upload URLs for recipe media
type UploadAPIHandlers struct {
	storage    outbound.StorageService
	presignTTL time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewUploadAPIHandlers creates a new upload API handlers instance
func NewUploadAPIHandlers(storage outbound.StorageService, presignTTL time.Duration, logger *zap.Logger) *UploadAPIHandlers {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &UploadAPIHandlers{
		storage:    storage,
		presignTTL: presignTTL,
		validate:   validator.New(),
		logger:     logger,
	}
}

// SignUploadRequest asks for a presigned PUT URL for one media file.
type SignUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// SignUploadResponse returns the presigned URL and the object key the
// client should reference once the upload completes.
type SignUploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expires_at"`
}

// SignUpload handles POST /api/v1/uploads/sign
func (h *UploadAPIHandlers) SignUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var req SignUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		writeError(h.logger, w, r, apperrors.NewBadRequestError("unsupported content type for upload"))
		return
	}

	key := path.Join("uploads", userID.String(), uuid.New().String()+ext)
	uploadURL, err := h.storage.GeneratePresignedUpload(r.Context(), key, contentType, h.presignTTL)
	if err != nil {
		writeError(h.logger, w, r, fmt.Errorf("presign upload: %w", err))
		return
	}

	writeJSON(h.logger, w, http.StatusOK, SignUploadResponse{
		UploadURL: uploadURL,
		Key:       key,
		ExpiresAt: time.Now().Add(h.presignTTL).UTC().Format(time.RFC3339),
	})
}
