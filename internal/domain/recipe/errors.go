package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrTitleEmpty         = errors.New("recipe title must not be empty")
	ErrTitleTooLong       = errors.New("recipe title must not exceed 200 characters")
	ErrDescriptionTooLong = errors.New("recipe description must not exceed 2000 characters")
	ErrNoIngredients      = errors.New("recipe must have at least one ingredient")
	ErrNoSteps            = errors.New("recipe must have at least one step")

	// Business rule violations
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrCannotSaveOwnRecipe = errors.New("cannot save your own recipe")

	// Permission errors
	ErrNotRecipeOwner = errors.New("only recipe owner can perform this action")
)
