package handlers

import (
	"net/http"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/middleware"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ImportAPIHandlers handles recipe import API requests
type ImportAPIHandlers struct {
	importService inbound.ImportService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewImportAPIHandlers creates a new import API handlers instance
func NewImportAPIHandlers(importService inbound.ImportService, logger *zap.Logger) *ImportAPIHandlers {
	return &ImportAPIHandlers{
		importService: importService,
		validate:      validator.New(),
		logger:        logger,
	}
}

// ImportRequest carries the URL to import a recipe from.
type ImportRequest struct {
	URL string `json:"url" validate:"required"`
}

// Preview handles POST /api/v1/import/preview
func (h *ImportAPIHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	preview, err := h.importService.PreviewImport(r.Context(), userID, req.URL)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, preview)
}

// CreateJob handles POST /api/v1/import/jobs
func (h *ImportAPIHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	job, err := h.importService.EnqueueImport(r.Context(), userID, req.URL)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusAccepted, job)
}

// GetJob handles GET /api/v1/import/jobs/{id}
func (h *ImportAPIHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	jobID, err := pathUUID(r, "id")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	job, err := h.importService.GetImportJob(r.Context(), jobID, userID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, job)
}
