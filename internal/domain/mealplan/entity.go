// Package mealplan defines the shared daily meal plan entity
package mealplan

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MealType identifies a slot in the daily plan.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

// Entry links one meal slot to a generated global recipe.
type Entry struct {
	MealType MealType  `json:"meal_type"`
	RecipeID uuid.UUID `json:"recipe_id"`
}

// Plan is the shared meal plan for one calendar day. There is exactly
// one plan per day; every user sees the same one.
type Plan struct {
	id        uuid.UUID
	date      time.Time // midnight UTC
	entries   []Entry
	createdAt time.Time
}

// NewPlan creates a plan for the given day.
func NewPlan(date time.Time, entries []Entry) (*Plan, error) {
	if len(entries) == 0 {
		return nil, errors.New("meal plan needs at least one entry")
	}

	seen := make(map[MealType]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.MealType]; dup {
			return nil, errors.New("duplicate meal type in plan")
		}
		seen[e.MealType] = struct{}{}
	}

	return &Plan{
		id:        uuid.New(),
		date:      date.UTC().Truncate(24 * time.Hour),
		entries:   entries,
		createdAt: time.Now(),
	}, nil
}

// Rehydrate rebuilds a plan from persisted state.
func Rehydrate(id uuid.UUID, date time.Time, entries []Entry, createdAt time.Time) *Plan {
	return &Plan{id: id, date: date, entries: entries, createdAt: createdAt}
}

// ID returns the plan id
func (p *Plan) ID() uuid.UUID { return p.id }

// Date returns the plan's day at midnight UTC
func (p *Plan) Date() time.Time { return p.date }

// Entries returns the plan's meal entries
func (p *Plan) Entries() []Entry { return p.entries }

// CreatedAt returns when the plan was generated
func (p *Plan) CreatedAt() time.Time { return p.createdAt }

// RecipeIDFor returns the recipe assigned to a meal slot.
func (p *Plan) RecipeIDFor(meal MealType) (uuid.UUID, bool) {
	for _, e := range p.entries {
		if e.MealType == meal {
			return e.RecipeID, true
		}
	}
	return uuid.Nil, false
}
