package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/mealplan"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
)

// fakePlanRepo keys plans by calendar day.
type fakePlanRepo struct {
	plans map[string]*mealplan.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*mealplan.Plan)}
}

func dayKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

func (f *fakePlanRepo) Create(ctx context.Context, plan *mealplan.Plan) error {
	f.plans[dayKey(plan.Date())] = plan
	return nil
}

func (f *fakePlanRepo) FindByDate(ctx context.Context, date time.Time) (*mealplan.Plan, error) {
	plan, ok := f.plans[dayKey(date)]
	if !ok {
		return nil, errors.New("not found")
	}
	return plan, nil
}

// fakeRecipeStore implements the repository surface the planner touches.
type fakeRecipeStore struct {
	recipes   map[uuid.UUID]*recipe.Recipe
	createErr error
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{recipes: make(map[uuid.UUID]*recipe.Recipe)}
}

func (f *fakeRecipeStore) Create(ctx context.Context, r *recipe.Recipe) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.recipes[r.ID()] = r
	return nil
}

func (f *fakeRecipeStore) Update(ctx context.Context, r *recipe.Recipe) error { return nil }
func (f *fakeRecipeStore) Delete(ctx context.Context, id uuid.UUID) error     { return nil }

func (f *fakeRecipeStore) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeRecipeStore) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipeStore) FindSavedByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipeStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	var out []*recipe.Recipe
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecipeStore) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

// fakeGenerator scripts the structured-generation calls.
type fakeGenerator struct {
	configured bool
	err        error
	calls      int
	prompts    []string
}

func (f *fakeGenerator) IsConfigured() bool { return f.configured }

func (f *fakeGenerator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema outbound.Schema) (json.RawMessage, error) {
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(fmt.Sprintf(`{
		"title": "Generated Dish %d",
		"description": "A seasonal dish.",
		"servings": 2,
		"calories": 520,
		"prep_time_minutes": 10,
		"cook_time_minutes": 25,
		"tags": ["dinner"],
		"cuisine": "italian",
		"dietary_labels": [],
		"ingredients": ["1 onion", "2 tomatoes"],
		"steps": ["Chop.", "Cook."]
	}`, f.calls)), nil
}

func newTestService(plans *fakePlanRepo, recipes *fakeRecipeStore, ai outbound.AIService, mealTypes ...string) *Service {
	return NewService(plans, recipes, ai, mealTypes, 0, zap.NewNop())
}

func planDate() time.Time {
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
}

func TestGenerateForDate(t *testing.T) {
	plans := newFakePlanRepo()
	recipes := newFakeRecipeStore()
	ai := &fakeGenerator{configured: true}
	svc := newTestService(plans, recipes, ai)

	plan, err := svc.GenerateForDate(context.Background(), planDate())

	require.NoError(t, err)
	require.Len(t, plan.Entries(), 3)
	assert.Equal(t, mealplan.MealTypeBreakfast, plan.Entries()[0].MealType)
	assert.Equal(t, mealplan.MealTypeLunch, plan.Entries()[1].MealType)
	assert.Equal(t, mealplan.MealTypeDinner, plan.Entries()[2].MealType)
	assert.Equal(t, 3, ai.calls)
	assert.Len(t, recipes.recipes, 3)

	for _, entry := range plan.Entries() {
		rec, err := recipes.FindByID(context.Background(), entry.RecipeID)
		require.NoError(t, err)
		assert.True(t, rec.IsGlobal(), "generated recipes belong to everyone")
		assert.Equal(t, recipe.SourceTypeAI, rec.Source().Type)
		assert.Equal(t, string(entry.MealType), rec.Metadata()["meal_type"])
		assert.Equal(t, "2026-03-14", rec.Metadata()["plan_date"])
	}

	stored, err := plans.FindByDate(context.Background(), planDate())
	require.NoError(t, err)
	assert.Equal(t, plan.ID(), stored.ID())
}

func TestGenerateForDate_ExistingPlanShortCircuits(t *testing.T) {
	plans := newFakePlanRepo()
	existing, err := mealplan.NewPlan(planDate(), []mealplan.Entry{
		{MealType: mealplan.MealTypeDinner, RecipeID: uuid.New()},
	})
	require.NoError(t, err)
	require.NoError(t, plans.Create(context.Background(), existing))

	ai := &fakeGenerator{configured: true}
	svc := newTestService(plans, newFakeRecipeStore(), ai)

	plan, err := svc.GenerateForDate(context.Background(), planDate())

	require.NoError(t, err)
	assert.Equal(t, existing.ID(), plan.ID())
	assert.Zero(t, ai.calls, "regeneration for the same day never hits the provider")
}

func TestGenerateForDate_UnconfiguredProvider(t *testing.T) {
	svc := newTestService(newFakePlanRepo(), newFakeRecipeStore(), &fakeGenerator{configured: false})

	_, err := svc.GenerateForDate(context.Background(), planDate())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
}

func TestGenerateForDate_ProviderError(t *testing.T) {
	plans := newFakePlanRepo()
	ai := &fakeGenerator{configured: true, err: errors.New("rate limited")}
	svc := newTestService(plans, newFakeRecipeStore(), ai)

	_, err := svc.GenerateForDate(context.Background(), planDate())

	require.Error(t, err)
	assert.Empty(t, plans.plans, "a failed generation leaves no partial plan")
}

func TestGenerateForDate_CustomMealTypes(t *testing.T) {
	plans := newFakePlanRepo()
	ai := &fakeGenerator{configured: true}
	svc := newTestService(plans, newFakeRecipeStore(), ai, "brunch", "dinner")

	plan, err := svc.GenerateForDate(context.Background(), planDate())

	require.NoError(t, err)
	require.Len(t, plan.Entries(), 2)
	assert.Equal(t, mealplan.MealType("brunch"), plan.Entries()[0].MealType)
	assert.Contains(t, ai.prompts[0], "brunch")
}

func TestGetPlanForDate(t *testing.T) {
	plans := newFakePlanRepo()
	recipes := newFakeRecipeStore()
	svc := newTestService(plans, recipes, &fakeGenerator{configured: true})

	plan, err := svc.GenerateForDate(context.Background(), planDate())
	require.NoError(t, err)

	dto, err := svc.GetPlanForDate(context.Background(), planDate())

	require.NoError(t, err)
	assert.Equal(t, plan.ID(), dto.ID)
	assert.Equal(t, "2026-03-14", dto.Date)
	require.Len(t, dto.Entries, 3)
	for _, entry := range dto.Entries {
		require.NotNil(t, entry.Recipe, "plan entries come back with their recipes hydrated")
		assert.Equal(t, entry.RecipeID, entry.Recipe.ID)
	}
}

func TestGetPlanForDate_MissingDay(t *testing.T) {
	svc := newTestService(newFakePlanRepo(), newFakeRecipeStore(), &fakeGenerator{configured: true})

	_, err := svc.GetPlanForDate(context.Background(), planDate())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
