// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/google/uuid"
)

// RecipeService defines the use cases for recipe management
// This is the primary port that HTTP handlers and other driving adapters will use
type RecipeService interface {
	// Commands - operations that modify state
	CreateRecipe(ctx context.Context, cmd CreateRecipeCommand) (*RecipeDTO, error)
	UpdateRecipe(ctx context.Context, cmd UpdateRecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, recipeID, userID uuid.UUID) error
	SaveRecipe(ctx context.Context, recipeID, userID uuid.UUID) (*RecipeDTO, error)

	// Queries - operations that read state
	GetRecipeByID(ctx context.Context, recipeID uuid.UUID, requesterID *uuid.UUID) (*RecipeDTO, error)
	ListRecipes(ctx context.Context, ownerID uuid.UUID, params PaginationParams) (*RecipeList, error)
	ListSavedRecipes(ctx context.Context, ownerID uuid.UUID, params PaginationParams) (*RecipeList, error)
	SearchRecipes(ctx context.Context, query SearchQuery) (*RecipeList, error)
}

// ImportService runs the recipe extraction pipeline.
type ImportService interface {
	// PreviewImport runs the pipeline without persisting anything.
	PreviewImport(ctx context.Context, userID uuid.UUID, rawURL string) (*ImportPreview, error)
	// EnqueueImport queues an async import job.
	EnqueueImport(ctx context.Context, userID uuid.UUID, rawURL string) (*ImportJobDTO, error)
	// GetImportJob returns the state of a previously queued job.
	GetImportJob(ctx context.Context, jobID, userID uuid.UUID) (*ImportJobDTO, error)
}

// MealPlanService serves the shared daily plan.
type MealPlanService interface {
	GetPlanForDate(ctx context.Context, date time.Time) (*MealPlanDTO, error)
}

// Command objects for operations

// CreateRecipeCommand contains data for creating a new recipe
type CreateRecipeCommand struct {
	OwnerID         uuid.UUID
	Title           string
	Description     *string
	Servings        *int
	Calories        *int
	PrepTimeMinutes *int
	CookTimeMinutes *int
	Tags            []string
	Cuisine         *string
	DietaryLabels   []string
	Ingredients     []string
	Steps           []string
	ImageURL        string
}

// UpdateRecipeCommand contains data for updating a recipe
type UpdateRecipeCommand struct {
	RecipeID        uuid.UUID
	UserID          uuid.UUID
	Title           string
	Description     *string
	Servings        *int
	Calories        *int
	PrepTimeMinutes *int
	CookTimeMinutes *int
	Tags            []string
	Cuisine         *string
	DietaryLabels   []string
	Ingredients     []string
	Steps           []string
	ImageURL        string
}

// Query objects

// SearchQuery defines search parameters
type SearchQuery struct {
	Text          string
	Cuisines      []string
	Tags          []string
	DietaryLabels []string
	MaxTime       int // total time in minutes
	Pagination    PaginationParams
}

// PaginationParams for paginated queries
type PaginationParams struct {
	Page     int
	PageSize int
	OrderBy  string
	Order    string // asc or desc
}

// Response DTOs

// RecipeDTO is the data transfer object for recipes
type RecipeDTO struct {
	ID              uuid.UUID             `json:"id"`
	OwnerID         *uuid.UUID            `json:"owner_id,omitempty"`
	Title           string                `json:"title"`
	Description     *string               `json:"description"`
	Servings        *int                  `json:"servings"`
	Calories        *int                  `json:"calories"`
	PrepTimeMinutes *int                  `json:"prep_time_minutes"`
	CookTimeMinutes *int                  `json:"cook_time_minutes"`
	Tags            []string              `json:"tags"`
	Cuisine         *string               `json:"cuisine"`
	DietaryLabels   []string              `json:"dietary_labels"`
	Source          recipe.EnvelopeSource `json:"source"`
	Ingredients     []IngredientDTO       `json:"ingredients"`
	Steps           []StepDTO             `json:"steps"`
	Media           []MediaDTO            `json:"media"`
	Metadata        map[string]string     `json:"metadata,omitempty"`
	SavedFromID     *uuid.UUID            `json:"saved_from_id,omitempty"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

// IngredientDTO for ingredient data
type IngredientDTO struct {
	RawText string `json:"raw_text"`
}

// StepDTO for instruction data
type StepDTO struct {
	Instruction string `json:"instruction"`
}

// MediaDTO for media data
type MediaDTO struct {
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	IsGenerated bool   `json:"is_generated"`
}

// RecipeList for paginated results
type RecipeList struct {
	Recipes    []RecipeDTO `json:"recipes"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// ImportPreview is the successful result of the preview endpoint.
type ImportPreview struct {
	ExtractedFrom string                 `json:"extracted_from"`
	Warnings      []string               `json:"warnings"`
	RecipeData    *recipe.RecipeEnvelope `json:"recipe_data"`
	SavePayload   *recipe.RecipeEnvelope `json:"save_payload"`
}

// ImportJobDTO is the transfer object for import jobs.
type ImportJobDTO struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	InputURL  string     `json:"input_url"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	RecipeID  *uuid.UUID `json:"recipe_id,omitempty"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// MealPlanDTO is the transfer object for the shared daily plan.
type MealPlanDTO struct {
	ID      uuid.UUID          `json:"id"`
	Date    string             `json:"date"`
	Entries []MealPlanEntryDTO `json:"entries"`
}

// MealPlanEntryDTO maps one meal slot to its recipe.
type MealPlanEntryDTO struct {
	MealType string     `json:"meal_type"`
	Recipe   *RecipeDTO `json:"recipe,omitempty"`
	RecipeID uuid.UUID  `json:"recipe_id"`
}
