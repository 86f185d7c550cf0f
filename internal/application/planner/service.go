// Package planner generates and serves the shared daily meal plan.
// One plan exists per calendar day; every user sees the same three
// AI-generated global recipes.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/mealplan"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/errors"
)

// Service implements inbound.MealPlanService and the daily generation
// run invoked by the planner command.
type Service struct {
	plans          outbound.MealPlanRepository
	recipes        outbound.RecipeRepository
	ai             outbound.AIService
	mealTypes      []mealplan.MealType
	interCallDelay time.Duration
	logger         *zap.Logger
}

// NewService creates the planner service. mealTypes defaults to
// breakfast, lunch and dinner.
func NewService(
	plans outbound.MealPlanRepository,
	recipes outbound.RecipeRepository,
	ai outbound.AIService,
	mealTypes []string,
	interCallDelay time.Duration,
	logger *zap.Logger,
) *Service {
	types := make([]mealplan.MealType, 0, len(mealTypes))
	for _, m := range mealTypes {
		types = append(types, mealplan.MealType(m))
	}
	if len(types) == 0 {
		types = []mealplan.MealType{
			mealplan.MealTypeBreakfast,
			mealplan.MealTypeLunch,
			mealplan.MealTypeDinner,
		}
	}
	return &Service{
		plans:          plans,
		recipes:        recipes,
		ai:             ai,
		mealTypes:      types,
		interCallDelay: interCallDelay,
		logger:         logger.Named("planner"),
	}
}

// GetPlanForDate returns the shared plan for a day with its recipes
// hydrated. A day with no generated plan reads as not found.
func (s *Service) GetPlanForDate(ctx context.Context, date time.Time) (*inbound.MealPlanDTO, error) {
	plan, err := s.plans.FindByDate(ctx, date)
	if err != nil {
		return nil, errors.NewNotFoundError("meal plan")
	}

	ids := make([]uuid.UUID, 0, len(plan.Entries()))
	for _, e := range plan.Entries() {
		ids = append(ids, e.RecipeID)
	}
	loaded, err := s.recipes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewDatabaseError("load meal plan recipes", err)
	}
	byID := make(map[uuid.UUID]*recipe.Recipe, len(loaded))
	for _, r := range loaded {
		byID[r.ID()] = r
	}

	entries := make([]inbound.MealPlanEntryDTO, 0, len(plan.Entries()))
	for _, e := range plan.Entries() {
		entry := inbound.MealPlanEntryDTO{
			MealType: string(e.MealType),
			RecipeID: e.RecipeID,
		}
		if r, ok := byID[e.RecipeID]; ok {
			entry.Recipe = recipeToDTO(r)
		}
		entries = append(entries, entry)
	}

	return &inbound.MealPlanDTO{
		ID:      plan.ID(),
		Date:    plan.Date().Format("2006-01-02"),
		Entries: entries,
	}, nil
}

// GenerateForDate produces the plan for a day: one AI-generated global
// recipe per meal slot. Generation is idempotent per day; an existing
// plan short-circuits. Calls are spaced by interCallDelay to respect
// the provider's rate budget.
func (s *Service) GenerateForDate(ctx context.Context, date time.Time) (*mealplan.Plan, error) {
	if existing, err := s.plans.FindByDate(ctx, date); err == nil && existing != nil {
		s.logger.Info("meal plan already exists", zap.Time("date", existing.Date()))
		return existing, nil
	}

	if !s.ai.IsConfigured() {
		return nil, errors.NewInternalError("AI service is not configured")
	}

	entries := make([]mealplan.Entry, 0, len(s.mealTypes))
	for i, meal := range s.mealTypes {
		if i > 0 && s.interCallDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.interCallDelay):
			}
		}

		rec, err := s.generateMealRecipe(ctx, meal, date)
		if err != nil {
			return nil, err
		}
		if err := s.recipes.Create(ctx, rec); err != nil {
			return nil, errors.NewDatabaseError("create generated recipe", err)
		}
		entries = append(entries, mealplan.Entry{MealType: meal, RecipeID: rec.ID()})

		s.logger.Info("meal recipe generated",
			zap.String("meal_type", string(meal)),
			zap.String("recipe_id", rec.ID().String()),
			zap.String("title", rec.Title()),
		)
	}

	plan, err := mealplan.NewPlan(date, entries)
	if err != nil {
		return nil, errors.NewInternalError(err.Error())
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, errors.NewDatabaseError("create meal plan", err)
	}

	s.logger.Info("meal plan generated",
		zap.Time("date", plan.Date()),
		zap.Int("entries", len(plan.Entries())),
	)
	return plan, nil
}

// generatedRecipe mirrors the generation schema.
type generatedRecipe struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Servings        int      `json:"servings"`
	Calories        int      `json:"calories"`
	PrepTimeMinutes int      `json:"prep_time_minutes"`
	CookTimeMinutes int      `json:"cook_time_minutes"`
	Tags            []string `json:"tags"`
	Cuisine         *string  `json:"cuisine"`
	DietaryLabels   []string `json:"dietary_labels"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
}

func (s *Service) generateMealRecipe(ctx context.Context, meal mealplan.MealType, date time.Time) (*recipe.Recipe, error) {
	raw, err := s.ai.GenerateStructured(ctx,
		generationSystemPrompt(),
		fmt.Sprintf("Create one %s recipe for %s. Make it seasonal and broadly appealing.",
			meal, date.Format("Monday, January 2")),
		generationSchema(),
	)
	if err != nil {
		return nil, err
	}

	var gen generatedRecipe
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.NewAIServiceError("generate meal", err)
	}

	partial := &recipe.PartialRecipeData{
		Title:           gen.Title,
		Description:     gen.Description,
		Servings:        &gen.Servings,
		Calories:        &gen.Calories,
		PrepTimeMinutes: &gen.PrepTimeMinutes,
		CookTimeMinutes: &gen.CookTimeMinutes,
		Tags:            gen.Tags,
		DietaryLabels:   gen.DietaryLabels,
		Ingredients:     gen.Ingredients,
		Steps:           gen.Steps,
	}
	if gen.Cuisine != nil {
		partial.Cuisine = *gen.Cuisine
	}

	env, missing := recipe.BuildEnvelope(partial, "")
	if env == nil {
		return nil, errors.NewAIServiceError("generate meal",
			fmt.Errorf("generated recipe incomplete: %v", missing))
	}
	env.Source = recipe.EnvelopeSource{Type: recipe.SourceTypeAI}
	env.Metadata = mergeMetadata(env.Metadata, map[string]string{
		"meal_type": string(meal),
		"plan_date": date.UTC().Format("2006-01-02"),
	})

	// nil owner makes the recipe global: visible to every user.
	return recipe.FromEnvelope(env, nil)
}

func mergeMetadata(base, extra map[string]string) map[string]string {
	if base == nil {
		base = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func generationSystemPrompt() string {
	return fmt.Sprintf(`You are a professional recipe developer creating recipes for a daily meal plan.

Requirements:
- The recipe must be complete and practical: a real dish with real ingredients and clear steps.
- tags must only use: %s
- cuisine must only use: %s
- dietary_labels must only use: %s
- Give realistic servings, calories and timing estimates.`,
		strings.Join(recipe.CanonicalTags, ", "),
		strings.Join(recipe.CanonicalCuisines, ", "),
		strings.Join(recipe.CanonicalDietaryLabels, ", "),
	)
}

// generationSchema is stricter than the extraction schema: the model
// invents the recipe, so nothing is nullable except cuisine.
func generationSchema() outbound.Schema {
	enum := func(values []string) []interface{} {
		out := make([]interface{}, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	}

	def := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":             map[string]interface{}{"type": "string"},
			"description":       map[string]interface{}{"type": "string"},
			"servings":          map[string]interface{}{"type": "integer", "minimum": 1},
			"calories":          map[string]interface{}{"type": "integer", "minimum": 0},
			"prep_time_minutes": map[string]interface{}{"type": "integer", "minimum": 0},
			"cook_time_minutes": map[string]interface{}{"type": "integer", "minimum": 0},
			"tags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string", "enum": enum(recipe.CanonicalTags)},
			},
			"cuisine": map[string]interface{}{
				"anyOf": []interface{}{
					map[string]interface{}{"type": "string", "enum": enum(recipe.CanonicalCuisines)},
					map[string]interface{}{"type": "null"},
				},
			},
			"dietary_labels": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string", "enum": enum(recipe.CanonicalDietaryLabels)},
			},
			"ingredients": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]interface{}{"type": "string"},
			},
			"steps": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{
			"title", "description", "servings", "calories",
			"prep_time_minutes", "cook_time_minutes",
			"tags", "cuisine", "dietary_labels", "ingredients", "steps",
		},
		"additionalProperties": false,
	}

	raw, _ := json.Marshal(def)
	return outbound.Schema{Name: "meal_recipe_generation", Definition: raw}
}

// recipeToDTO converts a recipe for embedding in the plan response.
func recipeToDTO(r *recipe.Recipe) *inbound.RecipeDTO {
	ingredients := make([]inbound.IngredientDTO, 0, len(r.Ingredients()))
	for _, ing := range r.Ingredients() {
		ingredients = append(ingredients, inbound.IngredientDTO{RawText: ing.RawText})
	}
	steps := make([]inbound.StepDTO, 0, len(r.Steps()))
	for _, st := range r.Steps() {
		steps = append(steps, inbound.StepDTO{Instruction: st.Instruction})
	}
	media := make([]inbound.MediaDTO, 0, len(r.Media()))
	for _, m := range r.Media() {
		media = append(media, inbound.MediaDTO{
			MediaType:   m.MediaType,
			URL:         m.URL,
			Name:        m.Name,
			IsGenerated: m.IsGenerated,
		})
	}

	return &inbound.RecipeDTO{
		ID:              r.ID(),
		OwnerID:         r.OwnerID(),
		Title:           r.Title(),
		Description:     r.Description(),
		Servings:        r.Servings(),
		Calories:        r.Calories(),
		PrepTimeMinutes: r.PrepTimeMinutes(),
		CookTimeMinutes: r.CookTimeMinutes(),
		Tags:            r.Tags(),
		Cuisine:         r.Cuisine(),
		DietaryLabels:   r.DietaryLabels(),
		Source:          r.Source(),
		Ingredients:     ingredients,
		Steps:           steps,
		Media:           media,
		Metadata:        r.Metadata(),
		SavedFromID:     r.SavedFromID(),
		CreatedAt:       r.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt().UTC().Format(time.RFC3339),
	}
}
