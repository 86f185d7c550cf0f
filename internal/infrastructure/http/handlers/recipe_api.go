package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/middleware"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipeAPIHandlers handles recipe API requests
type RecipeAPIHandlers struct {
	recipeService inbound.RecipeService
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewRecipeAPIHandlers creates a new recipe API handlers instance
func NewRecipeAPIHandlers(recipeService inbound.RecipeService, logger *zap.Logger) *RecipeAPIHandlers {
	return &RecipeAPIHandlers{
		recipeService: recipeService,
		validate:      validator.New(),
		logger:        logger,
	}
}

// RecipeRequest is the JSON body for creating or updating a recipe.
type RecipeRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=300"`
	Description     *string  `json:"description"`
	Servings        *int     `json:"servings" validate:"omitempty,min=1"`
	Calories        *int     `json:"calories" validate:"omitempty,min=0"`
	PrepTimeMinutes *int     `json:"prep_time_minutes" validate:"omitempty,min=0"`
	CookTimeMinutes *int     `json:"cook_time_minutes" validate:"omitempty,min=0"`
	Tags            []string `json:"tags"`
	Cuisine         *string  `json:"cuisine"`
	DietaryLabels   []string `json:"dietary_labels"`
	Ingredients     []string `json:"ingredients" validate:"required,min=1"`
	Steps           []string `json:"steps" validate:"required,min=1"`
	ImageURL        string   `json:"image_url"`
}

// Create handles POST /api/v1/recipes
func (h *RecipeAPIHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	var req RecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	dto, err := h.recipeService.CreateRecipe(r.Context(), inbound.CreateRecipeCommand{
		OwnerID:         userID,
		Title:           req.Title,
		Description:     req.Description,
		Servings:        req.Servings,
		Calories:        req.Calories,
		PrepTimeMinutes: req.PrepTimeMinutes,
		CookTimeMinutes: req.CookTimeMinutes,
		Tags:            req.Tags,
		Cuisine:         req.Cuisine,
		DietaryLabels:   req.DietaryLabels,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, dto)
}

// Get handles GET /api/v1/recipes/{id}
func (h *RecipeAPIHandlers) Get(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	var requesterID *uuid.UUID
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		requesterID = &userID
	}

	dto, err := h.recipeService.GetRecipeByID(r.Context(), recipeID, requesterID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, dto)
}

// Update handles PUT /api/v1/recipes/{id}
func (h *RecipeAPIHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	recipeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	var req RecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(h.logger, w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	dto, err := h.recipeService.UpdateRecipe(r.Context(), inbound.UpdateRecipeCommand{
		RecipeID:        recipeID,
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Servings:        req.Servings,
		Calories:        req.Calories,
		PrepTimeMinutes: req.PrepTimeMinutes,
		CookTimeMinutes: req.CookTimeMinutes,
		Tags:            req.Tags,
		Cuisine:         req.Cuisine,
		DietaryLabels:   req.DietaryLabels,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, dto)
}

// Delete handles DELETE /api/v1/recipes/{id}
func (h *RecipeAPIHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	recipeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if err := h.recipeService.DeleteRecipe(r.Context(), recipeID, userID); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /api/v1/recipes/{id}/save
func (h *RecipeAPIHandlers) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	recipeID, err := pathUUID(r, "id")
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	dto, err := h.recipeService.SaveRecipe(r.Context(), recipeID, userID)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, dto)
}

// List handles GET /api/v1/recipes
func (h *RecipeAPIHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	list, err := h.recipeService.ListRecipes(r.Context(), userID, paginationFromQuery(r))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, list)
}

// ListSaved handles GET /api/v1/recipes/saved
func (h *RecipeAPIHandlers) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperrors.NewUnauthorizedError("not authenticated"))
		return
	}

	list, err := h.recipeService.ListSavedRecipes(r.Context(), userID, paginationFromQuery(r))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, list)
}

// Search handles GET /api/v1/recipes/search
func (h *RecipeAPIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := inbound.SearchQuery{
		Text:          strings.TrimSpace(q.Get("q")),
		Cuisines:      splitCSV(q.Get("cuisines")),
		Tags:          splitCSV(q.Get("tags")),
		DietaryLabels: splitCSV(q.Get("dietary_labels")),
		Pagination:    paginationFromQuery(r),
	}
	if raw := q.Get("max_time"); raw != "" {
		maxTime, err := strconv.Atoi(raw)
		if err != nil || maxTime < 0 {
			writeError(h.logger, w, r, apperrors.NewBadRequestError("max_time must be a non-negative integer"))
			return
		}
		query.MaxTime = maxTime
	}

	list, err := h.recipeService.SearchRecipes(r.Context(), query)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, list)
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("invalid " + param)
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) inbound.PaginationParams {
	q := r.URL.Query()
	params := inbound.PaginationParams{
		OrderBy: q.Get("order_by"),
		Order:   q.Get("order"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if pageSize, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = pageSize
	}
	return params
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
