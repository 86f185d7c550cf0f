package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/memory"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	apperrors "github.com/dspaces1/whatEatBE/pkg/errors"
)

// fakeRecipeRepo is an in-memory RecipeRepository that records the last
// search criteria it received.
type fakeRecipeRepo struct {
	recipes      map[uuid.UUID]*recipe.Recipe
	lastCriteria *outbound.SearchCriteria
	createErr    error
	deleted      []uuid.UUID
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[uuid.UUID]*recipe.Recipe)}
}

func (f *fakeRecipeRepo) Create(ctx context.Context, r *recipe.Recipe) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.recipes[r.ID()] = r
	return nil
}

func (f *fakeRecipeRepo) Update(ctx context.Context, r *recipe.Recipe) error {
	f.recipes[r.ID()] = r
	return nil
}

func (f *fakeRecipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.recipes, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRecipeRepo) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeRecipeRepo) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	var out []*recipe.Recipe
	for _, r := range f.recipes {
		if r.OwnerID() != nil && *r.OwnerID() == ownerID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRecipeRepo) FindSavedByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	var out []*recipe.Recipe
	for _, r := range f.recipes {
		if r.OwnerID() != nil && *r.OwnerID() == ownerID && r.SavedFromID() != nil {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeRecipeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	var out []*recipe.Recipe
	for _, id := range ids {
		if r, ok := f.recipes[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int, error) {
	f.lastCriteria = &criteria
	return nil, 0, nil
}

// fakeUserRepo only cares about existence checks.
type fakeUserRepo struct {
	exists    bool
	existsErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }
func (f *fakeUserRepo) Update(ctx context.Context, u *user.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, errors.New("not found")
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, errors.New("not found")
}

func (f *fakeUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func newTestService(repo *fakeRecipeRepo) inbound.RecipeService {
	return NewRecipeService(repo, &fakeUserRepo{exists: true}, memory.NewCacheRepository(), zap.NewNop())
}

func validCommand(ownerID uuid.UUID) inbound.CreateRecipeCommand {
	return inbound.CreateRecipeCommand{
		OwnerID:     ownerID,
		Title:       "Weeknight Carbonara",
		Ingredients: []string{"200g spaghetti", "2 eggs", "50g pecorino"},
		Steps:       []string{"Boil the pasta.", "Toss with eggs and cheese."},
		Tags:        []string{"Dinner", "Quick"},
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateRecipe(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	dto, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))

	require.NoError(t, err)
	assert.Equal(t, "Weeknight Carbonara", dto.Title)
	require.NotNil(t, dto.OwnerID)
	assert.Equal(t, ownerID, *dto.OwnerID)
	assert.Equal(t, recipe.SourceTypeManual, dto.Source.Type)
	assert.Equal(t, []string{"dinner", "quick"}, dto.Tags, "manual input goes through the same vocabulary normalization as imports")
	assert.Len(t, repo.recipes, 1)
}

func TestCreateRecipe_UnknownOwner(t *testing.T) {
	svc := NewRecipeService(newFakeRecipeRepo(), &fakeUserRepo{exists: false}, memory.NewCacheRepository(), zap.NewNop())

	_, err := svc.CreateRecipe(context.Background(), validCommand(uuid.New()))

	assertCode(t, err, apperrors.CodeUserNotFound)
}

func TestCreateRecipe_MissingRequiredFields(t *testing.T) {
	svc := newTestService(newFakeRecipeRepo())

	cmd := validCommand(uuid.New())
	cmd.Steps = nil

	_, err := svc.CreateRecipe(context.Background(), cmd)

	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestUpdateRecipe(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	created, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))
	require.NoError(t, err)

	cmd := inbound.UpdateRecipeCommand{
		RecipeID:    created.ID,
		UserID:      ownerID,
		Title:       "Sunday Carbonara",
		Ingredients: []string{"200g spaghetti", "3 eggs"},
		Steps:       []string{"Boil the pasta.", "Toss with eggs."},
	}

	updated, err := svc.UpdateRecipe(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, "Sunday Carbonara", updated.Title)
	assert.Equal(t, recipe.SourceTypeManual, updated.Source.Type, "updates keep the original provenance")
}

func TestUpdateRecipe_NotOwner(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)

	created, err := svc.CreateRecipe(context.Background(), validCommand(uuid.New()))
	require.NoError(t, err)

	cmd := inbound.UpdateRecipeCommand{
		RecipeID:    created.ID,
		UserID:      uuid.New(),
		Title:       "Hijacked",
		Ingredients: []string{"x"},
		Steps:       []string{"y"},
	}

	_, err = svc.UpdateRecipe(context.Background(), cmd)

	assertCode(t, err, apperrors.CodeForbidden)
}

func TestDeleteRecipe(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	created, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecipe(context.Background(), created.ID, ownerID))
	assert.Empty(t, repo.recipes)

	t.Run("deleting again reads as not found", func(t *testing.T) {
		err := svc.DeleteRecipe(context.Background(), created.ID, ownerID)
		assertCode(t, err, apperrors.CodeRecipeNotFound)
	})
}

func TestDeleteRecipe_NotOwner(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)

	created, err := svc.CreateRecipe(context.Background(), validCommand(uuid.New()))
	require.NoError(t, err)

	err = svc.DeleteRecipe(context.Background(), created.ID, uuid.New())

	assertCode(t, err, apperrors.CodeForbidden)
	assert.Len(t, repo.recipes, 1)
}

func TestSaveRecipe(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	authorID := uuid.New()
	saverID := uuid.New()

	source, err := svc.CreateRecipe(context.Background(), validCommand(authorID))
	require.NoError(t, err)

	copied, err := svc.SaveRecipe(context.Background(), source.ID, saverID)

	require.NoError(t, err)
	assert.NotEqual(t, source.ID, copied.ID, "saving creates an independent copy")
	require.NotNil(t, copied.OwnerID)
	assert.Equal(t, saverID, *copied.OwnerID)
	require.NotNil(t, copied.SavedFromID)
	assert.Equal(t, source.ID, *copied.SavedFromID)
	assert.Len(t, repo.recipes, 2)
}

func TestSaveRecipe_OwnRecipe(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	source, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))
	require.NoError(t, err)

	_, err = svc.SaveRecipe(context.Background(), source.ID, ownerID)

	assertCode(t, err, apperrors.CodeConflict)
}

func TestGetRecipeByID_Visibility(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	created, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		dto, err := svc.GetRecipeByID(context.Background(), created.ID, &ownerID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, dto.ID)
	})

	t.Run("stranger reads not found", func(t *testing.T) {
		strangerID := uuid.New()
		_, err := svc.GetRecipeByID(context.Background(), created.ID, &strangerID)
		assertCode(t, err, apperrors.CodeRecipeNotFound)
	})

	t.Run("anonymous reads not found", func(t *testing.T) {
		_, err := svc.GetRecipeByID(context.Background(), created.ID, nil)
		assertCode(t, err, apperrors.CodeRecipeNotFound)
	})
}

func TestGetRecipeByID_GlobalIsPublic(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)

	env, missing := recipe.BuildEnvelope(&recipe.PartialRecipeData{
		Title:       "Shared Minestrone",
		Ingredients: []string{"1 onion", "2 carrots"},
		Steps:       []string{"Simmer everything."},
	}, "")
	require.Empty(t, missing)
	global, err := recipe.FromEnvelope(env, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), global))

	dto, err := svc.GetRecipeByID(context.Background(), global.ID(), nil)

	require.NoError(t, err)
	assert.Nil(t, dto.OwnerID)
}

func TestListRecipes_PaginationDefaults(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	ownerID := uuid.New()

	_, err := svc.CreateRecipe(context.Background(), validCommand(ownerID))
	require.NoError(t, err)

	list, err := svc.ListRecipes(context.Background(), ownerID, inbound.PaginationParams{Page: -3, PageSize: 5000})

	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.TotalPages)
}

func TestListSavedRecipes_OnlyCopies(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)
	authorID := uuid.New()
	saverID := uuid.New()

	source, err := svc.CreateRecipe(context.Background(), validCommand(authorID))
	require.NoError(t, err)
	_, err = svc.SaveRecipe(context.Background(), source.ID, saverID)
	require.NoError(t, err)

	saved, err := svc.ListSavedRecipes(context.Background(), saverID, inbound.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Total)

	authored, err := svc.ListSavedRecipes(context.Background(), authorID, inbound.PaginationParams{})
	require.NoError(t, err)
	assert.Zero(t, authored.Total, "authored recipes are not saved copies")
}

func TestSearchRecipes_NormalizesFacets(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := newTestService(repo)

	_, err := svc.SearchRecipes(context.Background(), inbound.SearchQuery{
		Text:          "pasta",
		Cuisines:      []string{"Tex-Mex", "narnian"},
		Tags:          []string{"30-minute", "xyzzy"},
		DietaryLabels: []string{"plant-based"},
		MaxTime:       45,
	})

	require.NoError(t, err)
	require.NotNil(t, repo.lastCriteria)
	assert.Equal(t, "pasta", repo.lastCriteria.Query)
	assert.Equal(t, []string{"mexican"}, repo.lastCriteria.Cuisines)
	assert.Equal(t, []string{"quick"}, repo.lastCriteria.Tags)
	assert.Equal(t, []string{"vegan"}, repo.lastCriteria.DietaryLabels)
	require.NotNil(t, repo.lastCriteria.MaxTime)
	assert.Equal(t, 45, *repo.lastCriteria.MaxTime)
}
