package handlers

import (
	"net/http"
	"time"

	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MealPlanAPIHandlers serves the shared daily meal plan
type MealPlanAPIHandlers struct {
	planService inbound.MealPlanService
	logger      *zap.Logger
}

// NewMealPlanAPIHandlers creates a new meal plan API handlers instance
func NewMealPlanAPIHandlers(planService inbound.MealPlanService, logger *zap.Logger) *MealPlanAPIHandlers {
	return &MealPlanAPIHandlers{
		planService: planService,
		logger:      logger,
	}
}

// Today handles GET /api/v1/mealplan/today
func (h *MealPlanAPIHandlers) Today(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planService.GetPlanForDate(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, plan)
}

// ByDate handles GET /api/v1/mealplan/{date} where date is YYYY-MM-DD.
func (h *MealPlanAPIHandlers) ByDate(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(h.logger, w, r, apperrors.NewBadRequestError("date must be YYYY-MM-DD"))
		return
	}

	plan, err := h.planService.GetPlanForDate(r.Context(), date)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, plan)
}
