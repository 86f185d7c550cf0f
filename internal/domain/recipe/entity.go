// Package recipe contains the core domain logic for recipe management.
// This follows Domain-Driven Design principles with rich domain models.
package recipe

import (
	"time"

	"github.com/dspaces1/whatEatBE/internal/domain/shared"
	"github.com/google/uuid"
)

// Recipe represents the core recipe entity in our domain.
// A recipe either belongs to a user (owned) or to nobody (a global
// recipe produced by the daily meal plan generator). Saving somebody
// else's recipe creates an owned copy rather than a reference.
type Recipe struct {
	shared.AggregateRoot

	id      uuid.UUID
	ownerID *uuid.UUID // nil for global recipes

	title       string
	description *string

	servings        *int
	calories        *int
	prepTimeMinutes *int
	cookTimeMinutes *int

	tags          []string
	cuisine       *string
	dietaryLabels []string

	source      EnvelopeSource
	ingredients []EnvelopeIngredient
	steps       []EnvelopeStep
	media       []EnvelopeMedia
	metadata    map[string]string

	savedFromID *uuid.UUID // provenance when created via SaveCopyFor

	createdAt time.Time
	updatedAt time.Time
}

// NewRecipe creates a manually authored recipe with validation.
func NewRecipe(title string, description *string, ownerID uuid.UUID) (*Recipe, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := time.Now()
	r := &Recipe{
		id:          uuid.New(),
		ownerID:     &ownerID,
		title:       title,
		description: description,
		source:      EnvelopeSource{Type: SourceTypeManual},
		metadata:    map[string]string{},
		createdAt:   now,
		updatedAt:   now,
	}

	r.AddEvent(RecipeCreatedEvent{
		RecipeID:  r.id,
		OwnerID:   &ownerID,
		Title:     title,
		CreatedAt: now,
	})

	return r, nil
}

// FromEnvelope materializes a recipe from a validated envelope. A nil
// owner produces a global recipe. The envelope must already satisfy the
// completeness invariant; an incomplete one is rejected.
func FromEnvelope(env *RecipeEnvelope, ownerID *uuid.UUID) (*Recipe, error) {
	if env == nil || env.Title == "" || len(env.Ingredients) == 0 || len(env.Steps) == 0 {
		return nil, ErrEnvelopeIncomplete
	}

	now := time.Now()
	metadata := make(map[string]string, len(env.Metadata))
	for k, v := range env.Metadata {
		metadata[k] = v
	}

	r := &Recipe{
		id:              uuid.New(),
		ownerID:         ownerID,
		title:           env.Title,
		description:     env.Description,
		servings:        env.Servings,
		calories:        env.Calories,
		prepTimeMinutes: env.PrepTimeMinutes,
		cookTimeMinutes: env.CookTimeMinutes,
		tags:            append([]string(nil), env.Tags...),
		cuisine:         env.Cuisine,
		dietaryLabels:   append([]string(nil), env.DietaryLabels...),
		source:          env.Source,
		ingredients:     append([]EnvelopeIngredient(nil), env.Ingredients...),
		steps:           append([]EnvelopeStep(nil), env.Steps...),
		media:           append([]EnvelopeMedia(nil), env.Media...),
		metadata:        metadata,
		createdAt:       now,
		updatedAt:       now,
	}

	r.AddEvent(RecipeImportedEvent{
		RecipeID:   r.id,
		OwnerID:    ownerID,
		SourceType: env.Source.Type,
		SourceURL:  env.Source.URL,
		ImportedAt: now,
	})

	return r, nil
}

// Rehydrate rebuilds a recipe from persisted state without raising events.
func Rehydrate(
	id uuid.UUID,
	ownerID *uuid.UUID,
	env *RecipeEnvelope,
	savedFromID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *Recipe {
	return &Recipe{
		id:              id,
		ownerID:         ownerID,
		title:           env.Title,
		description:     env.Description,
		servings:        env.Servings,
		calories:        env.Calories,
		prepTimeMinutes: env.PrepTimeMinutes,
		cookTimeMinutes: env.CookTimeMinutes,
		tags:            env.Tags,
		cuisine:         env.Cuisine,
		dietaryLabels:   env.DietaryLabels,
		source:          env.Source,
		ingredients:     env.Ingredients,
		steps:           env.Steps,
		media:           env.Media,
		metadata:        env.Metadata,
		savedFromID:     savedFromID,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() uuid.UUID { return r.id }

// OwnerID returns the owning user, or nil for global recipes
func (r *Recipe) OwnerID() *uuid.UUID { return r.ownerID }

// Title returns the recipe's title
func (r *Recipe) Title() string { return r.title }

// Description returns the recipe's description
func (r *Recipe) Description() *string { return r.description }

// Servings returns the serving count, if known
func (r *Recipe) Servings() *int { return r.servings }

// Calories returns the calorie count, if known
func (r *Recipe) Calories() *int { return r.calories }

// PrepTimeMinutes returns the preparation time, if known
func (r *Recipe) PrepTimeMinutes() *int { return r.prepTimeMinutes }

// CookTimeMinutes returns the cooking time, if known
func (r *Recipe) CookTimeMinutes() *int { return r.cookTimeMinutes }

// Tags returns the recipe's canonical tags
func (r *Recipe) Tags() []string { return r.tags }

// Cuisine returns the recipe's canonical cuisine, if known
func (r *Recipe) Cuisine() *string { return r.cuisine }

// DietaryLabels returns the recipe's canonical dietary labels
func (r *Recipe) DietaryLabels() []string { return r.dietaryLabels }

// Source returns where the recipe came from
func (r *Recipe) Source() EnvelopeSource { return r.source }

// Ingredients returns the ordered ingredient list
func (r *Recipe) Ingredients() []EnvelopeIngredient { return r.ingredients }

// Steps returns the ordered instruction steps
func (r *Recipe) Steps() []EnvelopeStep { return r.steps }

// Media returns the recipe's media attachments
func (r *Recipe) Media() []EnvelopeMedia { return r.media }

// Metadata returns the free-form metadata map
func (r *Recipe) Metadata() map[string]string { return r.metadata }

// SavedFromID returns the recipe this one was copied from, if any
func (r *Recipe) SavedFromID() *uuid.UUID { return r.savedFromID }

// IsGlobal reports whether the recipe is unowned
func (r *Recipe) IsGlobal() bool { return r.ownerID == nil }

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the recipe was last updated
func (r *Recipe) UpdatedAt() time.Time { return r.updatedAt }

// IsOwnedBy reports whether userID owns this recipe.
func (r *Recipe) IsOwnedBy(userID uuid.UUID) bool {
	return r.ownerID != nil && *r.ownerID == userID
}

// UpdateDetails replaces the mutable fields from a validated envelope.
// Only the owner may update; source and provenance are preserved.
func (r *Recipe) UpdateDetails(env *RecipeEnvelope) error {
	if env == nil || env.Title == "" || len(env.Ingredients) == 0 || len(env.Steps) == 0 {
		return ErrEnvelopeIncomplete
	}
	if err := validateTitle(env.Title); err != nil {
		return err
	}

	r.title = env.Title
	r.description = env.Description
	r.servings = env.Servings
	r.calories = env.Calories
	r.prepTimeMinutes = env.PrepTimeMinutes
	r.cookTimeMinutes = env.CookTimeMinutes
	r.tags = append([]string(nil), env.Tags...)
	r.cuisine = env.Cuisine
	r.dietaryLabels = append([]string(nil), env.DietaryLabels...)
	r.ingredients = append([]EnvelopeIngredient(nil), env.Ingredients...)
	r.steps = append([]EnvelopeStep(nil), env.Steps...)
	r.media = append([]EnvelopeMedia(nil), env.Media...)
	r.updatedAt = time.Now()

	r.AddEvent(RecipeUpdatedEvent{
		RecipeID:  r.id,
		UpdatedAt: r.updatedAt,
	})

	return nil
}

// SaveCopyFor creates a new recipe owned by userID with this recipe's
// content. Saving your own recipe is rejected; the copy records its
// provenance so the original author remains attributed.
func (r *Recipe) SaveCopyFor(userID uuid.UUID) (*Recipe, error) {
	if r.IsOwnedBy(userID) {
		return nil, ErrCannotSaveOwnRecipe
	}

	now := time.Now()
	metadata := make(map[string]string, len(r.metadata)+1)
	for k, v := range r.metadata {
		metadata[k] = v
	}
	metadata["saved_from"] = r.id.String()

	sourceID := r.id
	copy := &Recipe{
		id:              uuid.New(),
		ownerID:         &userID,
		title:           r.title,
		description:     r.description,
		servings:        r.servings,
		calories:        r.calories,
		prepTimeMinutes: r.prepTimeMinutes,
		cookTimeMinutes: r.cookTimeMinutes,
		tags:            append([]string(nil), r.tags...),
		cuisine:         r.cuisine,
		dietaryLabels:   append([]string(nil), r.dietaryLabels...),
		source:          r.source,
		ingredients:     append([]EnvelopeIngredient(nil), r.ingredients...),
		steps:           append([]EnvelopeStep(nil), r.steps...),
		media:           append([]EnvelopeMedia(nil), r.media...),
		metadata:        metadata,
		savedFromID:     &sourceID,
		createdAt:       now,
		updatedAt:       now,
	}

	copy.AddEvent(RecipeSavedEvent{
		RecipeID:       copy.id,
		SourceRecipeID: r.id,
		UserID:         userID,
		SavedAt:        now,
	})

	return copy, nil
}

// ToEnvelope exports the recipe in its canonical transfer form.
func (r *Recipe) ToEnvelope() *RecipeEnvelope {
	return &RecipeEnvelope{
		Title:           r.title,
		Description:     r.description,
		Servings:        r.servings,
		Calories:        r.calories,
		PrepTimeMinutes: r.prepTimeMinutes,
		CookTimeMinutes: r.cookTimeMinutes,
		Tags:            r.tags,
		Cuisine:         r.cuisine,
		DietaryLabels:   r.dietaryLabels,
		Source:          r.source,
		Ingredients:     r.ingredients,
		Steps:           r.steps,
		Media:           r.media,
		Metadata:        r.metadata,
	}
}

// validateTitle validates recipe title
func validateTitle(title string) error {
	if len(title) < 1 {
		return ErrTitleEmpty
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	return nil
}

// validateDescription validates recipe description
func validateDescription(description *string) error {
	if description != nil && len(*description) > 2000 {
		return ErrDescriptionTooLong
	}
	return nil
}
