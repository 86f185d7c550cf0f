package recipe

import (
	"time"

	"github.com/google/uuid"
)

// Domain Events - Events that occur within the recipe domain

// RecipeCreatedEvent is raised when a new recipe is authored manually
type RecipeCreatedEvent struct {
	RecipeID  uuid.UUID
	OwnerID   *uuid.UUID
	Title     string
	CreatedAt time.Time
}

func (e RecipeCreatedEvent) EventName() string {
	return "recipe.created"
}

func (e RecipeCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// RecipeImportedEvent is raised when a recipe is materialized from an
// import or generation envelope
type RecipeImportedEvent struct {
	RecipeID   uuid.UUID
	OwnerID    *uuid.UUID
	SourceType string
	SourceURL  string
	ImportedAt time.Time
}

func (e RecipeImportedEvent) EventName() string {
	return "recipe.imported"
}

func (e RecipeImportedEvent) OccurredAt() time.Time {
	return e.ImportedAt
}

// RecipeUpdatedEvent is raised when a recipe's details change
type RecipeUpdatedEvent struct {
	RecipeID  uuid.UUID
	UpdatedAt time.Time
}

func (e RecipeUpdatedEvent) EventName() string {
	return "recipe.updated"
}

func (e RecipeUpdatedEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}

// RecipeSavedEvent is raised when a user saves a copy of another recipe
type RecipeSavedEvent struct {
	RecipeID       uuid.UUID
	SourceRecipeID uuid.UUID
	UserID         uuid.UUID
	SavedAt        time.Time
}

func (e RecipeSavedEvent) EventName() string {
	return "recipe.saved"
}

func (e RecipeSavedEvent) OccurredAt() time.Time {
	return e.SavedAt
}

// RecipeDeletedEvent is raised when a recipe is removed
type RecipeDeletedEvent struct {
	RecipeID  uuid.UUID
	DeletedAt time.Time
}

func (e RecipeDeletedEvent) EventName() string {
	return "recipe.deleted"
}

func (e RecipeDeletedEvent) OccurredAt() time.Time {
	return e.DeletedAt
}
