// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError renders any error as a structured JSON error response.
// Typed application errors carry their own HTTP status and metadata;
// everything else becomes an opaque 500.
func writeError(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	requestID := chimiddleware.GetReqID(r.Context())

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Error("Unhandled error",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		appErr = apperrors.NewInternalError("an unexpected error occurred").WithCause(err)
	}

	status := appErr.StatusCode()
	if status >= 500 {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(appErr),
		)
	}

	writeJSON(logger, w, status, apperrors.ToErrorResponse(appErr, requestID))
}

// decodeJSON reads and unmarshals a request body, rejecting oversized
// or malformed payloads with a 400.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return apperrors.NewBadRequestError("unable to read request body")
	}
	if len(body) == 0 {
		return apperrors.NewBadRequestError("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewBadRequestError("invalid JSON payload")
	}
	return nil
}
