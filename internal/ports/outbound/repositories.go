// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dspaces1/whatEatBE/internal/domain/importjob"
	"github.com/dspaces1/whatEatBE/internal/domain/mealplan"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/google/uuid"
)

// RecipeRepository defines the interface for recipe persistence
// This follows the Repository pattern for data access abstraction
type RecipeRepository interface {
	Create(ctx context.Context, recipe *recipe.Recipe) error
	Update(ctx context.Context, recipe *recipe.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)

	// Query operations
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error)
	FindSavedByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]*recipe.Recipe, int, error)
}

// SearchCriteria defines search parameters for recipes
type SearchCriteria struct {
	Query         string
	OwnerID       *uuid.UUID
	Cuisines      []string
	Tags          []string
	DietaryLabels []string
	MaxTime       *int
	Offset        int
	Limit         int
	OrderBy       string
	OrderDir      string
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	Update(ctx context.Context, user *user.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// ImportJobRepository defines the interface for import job persistence.
// ClaimNextPending atomically claims a pending job for a worker so
// concurrent workers never process the same job.
type ImportJobRepository interface {
	Create(ctx context.Context, job *importjob.Job) error
	Update(ctx context.Context, job *importjob.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*importjob.Job, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*importjob.Job, int, error)
	ClaimNextPending(ctx context.Context) (*importjob.Job, error)
}

// MealPlanRepository defines the interface for daily meal plan persistence
type MealPlanRepository interface {
	Create(ctx context.Context, plan *mealplan.Plan) error
	FindByDate(ctx context.Context, date time.Time) (*mealplan.Plan, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Counter operations
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// ImportQuota gates import attempts by a daily per-user counter. The
// pipeline runs only after the caller confirmed quota remained and
// incremented usage.
type ImportQuota interface {
	// Consume increments today's counter for the user and reports
	// whether the attempt is within the daily limit.
	Consume(ctx context.Context, userID uuid.UUID) (allowed bool, remaining int, err error)
}

// PageFetcher safely fetches a remote page for import. Implementations
// enforce scheme, size, redirect, timeout and SSRF restrictions and
// return typed import errors.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchResult is the outcome of a guarded page fetch.
type FetchResult struct {
	Body        []byte
	FinalURL    string
	ContentType string
}

// AIService is the structured-generation capability the import
// pipeline and the meal plan generator call. The schema constrains the
// model to a strict JSON shape; the returned message is the raw JSON
// to be unmarshalled by the caller.
type AIService interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema Schema) (json.RawMessage, error)
	IsConfigured() bool
}

// Schema names a strict JSON schema sent with a structured request.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// StorageService defines the interface for media storage
type StorageService interface {
	GeneratePresignedUpload(ctx context.Context, key string, contentType string, expiry time.Duration) (string, error)
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}
