package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
)

// aiStrategy is the fallback of last resort: it sends recovered page
// text to the language model with a strict output schema and hard
// grounding rules, so the model can structure what the page says but
// never invent a recipe that is not there.
type aiStrategy struct {
	ai      outbound.AIService
	textCap int
	logger  *zap.Logger
}

// NewAIStrategy creates the AI extraction tier. textCap bounds how
// many characters of page text are sent to the model.
func NewAIStrategy(ai outbound.AIService, textCap int, logger *zap.Logger) Strategy {
	if textCap <= 0 {
		textCap = 20000
	}
	return &aiStrategy{ai: ai, textCap: textCap, logger: logger}
}

func (s *aiStrategy) Name() string { return StrategyAI }

// Applies is false when no AI credential is configured; the tier then
// never counts as attempted.
func (s *aiStrategy) Applies(in *Input) bool {
	return s.ai != nil && s.ai.IsConfigured()
}

// aiRecipePayload mirrors the response schema field for field.
type aiRecipePayload struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Servings        *int     `json:"servings"`
	Calories        *int     `json:"calories"`
	PrepTimeMinutes *int     `json:"prep_time_minutes"`
	CookTimeMinutes *int     `json:"cook_time_minutes"`
	Tags            []string `json:"tags"`
	Cuisine         *string  `json:"cuisine"`
	DietaryLabels   []string `json:"dietary_labels"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
}

func (s *aiStrategy) Extract(ctx context.Context, in *Input) Attempt {
	text := in.OverrideText
	if strings.TrimSpace(text) == "" {
		text = htmlToText(in.Body)
	}
	if runes := []rune(text); len(runes) > s.textCap {
		text = string(runes[:s.textCap])
	}
	if strings.TrimSpace(text) == "" {
		return Attempt{AIAttempted: true, AIFailed: true}
	}

	raw, err := s.ai.GenerateStructured(ctx, extractionSystemPrompt(), extractionUserPrompt(text), recipeExtractionSchema())
	if err != nil {
		// Provider detail is logged here and never surfaced to callers.
		s.logger.Warn("AI extraction call failed",
			zap.String("url", in.SourceURL),
			zap.Error(err),
		)
		return Attempt{AIAttempted: true, AIFailed: true}
	}

	var payload aiRecipePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logger.Warn("AI extraction returned unparseable JSON",
			zap.String("url", in.SourceURL),
			zap.Error(err),
		)
		return Attempt{AIAttempted: true, AIFailed: true}
	}

	// The schema constrains the model, but synonyms still slip through;
	// normalization runs again defensively inside the builder.
	partial := &recipe.PartialRecipeData{
		Servings:        payload.Servings,
		Calories:        payload.Calories,
		PrepTimeMinutes: payload.PrepTimeMinutes,
		CookTimeMinutes: payload.CookTimeMinutes,
		Tags:            payload.Tags,
		DietaryLabels:   payload.DietaryLabels,
		Ingredients:     payload.Ingredients,
		Steps:           payload.Steps,
	}
	if payload.Title != nil {
		partial.Title = *payload.Title
	}
	if payload.Description != nil {
		partial.Description = *payload.Description
	}
	if payload.Cuisine != nil {
		partial.Cuisine = *payload.Cuisine
	}

	env, missing := recipe.BuildEnvelope(partial, in.SourceURL)
	if env == nil {
		return Attempt{MissingFields: missing, AIAttempted: true}
	}
	return Attempt{Envelope: env, AIAttempted: true}
}

func extractionSystemPrompt() string {
	return fmt.Sprintf(`You extract recipes from web page text supplied by the user.

HARD requirements (never violate):
- title, ingredients and steps must be grounded in the supplied content. Never invent them.
- If the content contains no recipe, return null title and empty ingredients and steps.

SOFT requirements:
- description, servings, calories, prep_time_minutes, cook_time_minutes, tags, cuisine and dietary_labels may be reasonably estimated when the content implies them.
- tags must only use: %s
- cuisine must only use: %s
- dietary_labels must only use: %s
- When a value is truly unknown, use null or an empty list. Never guess outside the allowed values.`,
		strings.Join(recipe.CanonicalTags, ", "),
		strings.Join(recipe.CanonicalCuisines, ", "),
		strings.Join(recipe.CanonicalDietaryLabels, ", "),
	)
}

func extractionUserPrompt(text string) string {
	return "Extract the recipe from the following page content:\n\n" + text
}

// recipeExtractionSchema builds the strict response schema: every
// field required, nullable where appropriate, no extra properties.
func recipeExtractionSchema() outbound.Schema {
	enum := func(values []string) []interface{} {
		out := make([]interface{}, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	}

	nullableString := map[string]interface{}{"type": []string{"string", "null"}}
	nullableInt := map[string]interface{}{"type": []string{"integer", "null"}, "minimum": 0}

	def := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":             nullableString,
			"description":       nullableString,
			"servings":          nullableInt,
			"calories":          nullableInt,
			"prep_time_minutes": nullableInt,
			"cook_time_minutes": nullableInt,
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
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"steps": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
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
	return outbound.Schema{Name: "recipe_extraction", Definition: raw}
}
