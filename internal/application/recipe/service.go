// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/errors"
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	userRepo   outbound.UserRepository
	cache      outbound.CacheRepository
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	userRepo outbound.UserRepository,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) inbound.RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		userRepo:   userRepo,
		cache:      cache,
		logger:     logger.Named("recipe-service"),
	}
}

// CreateRecipe creates a new manually authored recipe. The payload
// runs through the envelope builder so manual input gets the same
// normalization and caps as imported recipes.
func (s *RecipeService) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Creating new recipe",
		zap.String("title", cmd.Title),
		zap.String("owner_id", cmd.OwnerID.String()),
	)

	exists, err := s.userRepo.Exists(ctx, cmd.OwnerID)
	if err != nil {
		return nil, errors.NewDatabaseError("check user existence", err)
	}
	if !exists {
		return nil, errors.NewUserNotFoundError(cmd.OwnerID.String())
	}

	env, missing := buildEnvelope(commandToPartial(
		cmd.Title, cmd.Description, cmd.Servings, cmd.Calories,
		cmd.PrepTimeMinutes, cmd.CookTimeMinutes,
		cmd.Tags, cmd.Cuisine, cmd.DietaryLabels,
		cmd.Ingredients, cmd.Steps, cmd.ImageURL,
	))
	if env == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("missing required fields: %v", missing))
	}
	env.Source = recipe.EnvelopeSource{Type: recipe.SourceTypeManual}

	ownerID := cmd.OwnerID
	recipeEntity, err := recipe.FromEnvelope(env, &ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create recipe entity")
	}

	if err := s.recipeRepo.Create(ctx, recipeEntity); err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}
	s.logEvents(recipeEntity)

	dto := entityToDTO(recipeEntity)
	s.logger.Info("Recipe created successfully",
		zap.String("recipe_id", dto.ID.String()),
		zap.String("title", dto.Title),
	)
	return dto, nil
}

// UpdateRecipe updates an existing recipe owned by the caller.
func (s *RecipeService) UpdateRecipe(ctx context.Context, cmd inbound.UpdateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Updating recipe",
		zap.String("recipe_id", cmd.RecipeID.String()),
		zap.String("user_id", cmd.UserID.String()),
	)

	recipeEntity, err := s.recipeRepo.FindByID(ctx, cmd.RecipeID)
	if err != nil {
		return nil, errors.NewRecipeNotFoundError(cmd.RecipeID.String())
	}
	if !recipeEntity.IsOwnedBy(cmd.UserID) {
		return nil, errors.NewForbiddenError("you can only update your own recipes")
	}

	env, missing := buildEnvelope(commandToPartial(
		cmd.Title, cmd.Description, cmd.Servings, cmd.Calories,
		cmd.PrepTimeMinutes, cmd.CookTimeMinutes,
		cmd.Tags, cmd.Cuisine, cmd.DietaryLabels,
		cmd.Ingredients, cmd.Steps, cmd.ImageURL,
	))
	if env == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("missing required fields: %v", missing))
	}

	if err := recipeEntity.UpdateDetails(env); err != nil {
		return nil, errors.Wrap(err, "failed to update recipe")
	}

	if err := s.recipeRepo.Update(ctx, recipeEntity); err != nil {
		return nil, errors.NewDatabaseError("update recipe", err)
	}
	s.logEvents(recipeEntity)
	s.invalidateRecipeCache(cmd.RecipeID)

	return entityToDTO(recipeEntity), nil
}

// DeleteRecipe removes a recipe owned by the caller.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, userID uuid.UUID) error {
	recipeEntity, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return errors.NewRecipeNotFoundError(recipeID.String())
	}
	if !recipeEntity.IsOwnedBy(userID) {
		return errors.NewForbiddenError("you can only delete your own recipes")
	}

	if err := s.recipeRepo.Delete(ctx, recipeID); err != nil {
		return errors.NewDatabaseError("delete recipe", err)
	}
	s.invalidateRecipeCache(recipeID)

	s.logger.Info("Recipe deleted",
		zap.String("recipe_id", recipeID.String()),
		zap.String("user_id", userID.String()),
	)
	return nil
}

// SaveRecipe copies somebody else's recipe into the caller's
// collection. The copy records provenance; saving your own recipe is
// rejected.
func (s *RecipeService) SaveRecipe(ctx context.Context, recipeID, userID uuid.UUID) (*inbound.RecipeDTO, error) {
	source, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, errors.NewRecipeNotFoundError(recipeID.String())
	}

	copied, err := source.SaveCopyFor(userID)
	if err != nil {
		if err == recipe.ErrCannotSaveOwnRecipe {
			return nil, errors.NewConflictError("you already own this recipe")
		}
		return nil, errors.Wrap(err, "failed to save recipe")
	}

	if err := s.recipeRepo.Create(ctx, copied); err != nil {
		return nil, errors.NewDatabaseError("save recipe copy", err)
	}
	s.logEvents(copied)

	s.logger.Info("Recipe saved",
		zap.String("source_recipe_id", recipeID.String()),
		zap.String("copy_recipe_id", copied.ID().String()),
		zap.String("user_id", userID.String()),
	)
	return entityToDTO(copied), nil
}

// GetRecipeByID returns one recipe. Global recipes are visible to
// everyone; owned recipes only to their owner.
func (s *RecipeService) GetRecipeByID(ctx context.Context, recipeID uuid.UUID, requesterID *uuid.UUID) (*inbound.RecipeDTO, error) {
	if dto := s.cachedRecipe(ctx, recipeID); dto != nil {
		if s.canView(dto, requesterID) {
			return dto, nil
		}
		return nil, errors.NewRecipeNotFoundError(recipeID.String())
	}

	recipeEntity, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		return nil, errors.NewRecipeNotFoundError(recipeID.String())
	}

	dto := entityToDTO(recipeEntity)
	s.cacheRecipe(ctx, dto)

	if !s.canView(dto, requesterID) {
		return nil, errors.NewRecipeNotFoundError(recipeID.String())
	}
	return dto, nil
}

// ListRecipes returns a page of the user's own recipes.
func (s *RecipeService) ListRecipes(ctx context.Context, ownerID uuid.UUID, params inbound.PaginationParams) (*inbound.RecipeList, error) {
	page, pageSize := normalizePagination(params)
	recipes, total, err := s.recipeRepo.FindByOwnerID(ctx, ownerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}
	return buildList(recipes, total, page, pageSize), nil
}

// ListSavedRecipes returns the page of recipes the user copied from
// others.
func (s *RecipeService) ListSavedRecipes(ctx context.Context, ownerID uuid.UUID, params inbound.PaginationParams) (*inbound.RecipeList, error) {
	page, pageSize := normalizePagination(params)
	recipes, total, err := s.recipeRepo.FindSavedByOwnerID(ctx, ownerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.NewDatabaseError("list saved recipes", err)
	}
	return buildList(recipes, total, page, pageSize), nil
}

// SearchRecipes searches recipes by text and vocabulary facets.
func (s *RecipeService) SearchRecipes(ctx context.Context, query inbound.SearchQuery) (*inbound.RecipeList, error) {
	page, pageSize := normalizePagination(query.Pagination)

	criteria := outbound.SearchCriteria{
		Query:         query.Text,
		Cuisines:      normalizeCuisines(query.Cuisines),
		Tags:          recipe.NormalizeTags(query.Tags),
		DietaryLabels: recipe.NormalizeDietaryLabels(query.DietaryLabels),
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
		OrderBy:       query.Pagination.OrderBy,
		OrderDir:      query.Pagination.Order,
	}
	if query.MaxTime > 0 {
		maxTime := query.MaxTime
		criteria.MaxTime = &maxTime
	}

	recipes, total, err := s.recipeRepo.Search(ctx, criteria)
	if err != nil {
		return nil, errors.NewDatabaseError("search recipes", err)
	}
	return buildList(recipes, total, page, pageSize), nil
}

// canView reports whether the requester may read the recipe. Saved
// collections are private; global recipes are public.
func (s *RecipeService) canView(dto *inbound.RecipeDTO, requesterID *uuid.UUID) bool {
	if dto.OwnerID == nil {
		return true
	}
	return requesterID != nil && *dto.OwnerID == *requesterID
}

func (s *RecipeService) logEvents(entity *recipe.Recipe) {
	for _, event := range entity.Events() {
		s.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	entity.ClearEvents()
}

func recipeCacheKey(id uuid.UUID) string {
	return "recipe:" + id.String()
}

func (s *RecipeService) cachedRecipe(ctx context.Context, id uuid.UUID) *inbound.RecipeDTO {
	data, err := s.cache.Get(ctx, recipeCacheKey(id))
	if err != nil || len(data) == 0 {
		return nil
	}
	var dto inbound.RecipeDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil
	}
	return &dto
}

func (s *RecipeService) cacheRecipe(ctx context.Context, dto *inbound.RecipeDTO) {
	data, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, recipeCacheKey(dto.ID), data, time.Hour); err != nil {
		s.logger.Debug("recipe cache set failed", zap.Error(err))
	}
}

func (s *RecipeService) invalidateRecipeCache(id uuid.UUID) {
	if err := s.cache.Delete(context.Background(), recipeCacheKey(id)); err != nil {
		s.logger.Debug("recipe cache invalidation failed", zap.Error(err))
	}
}

// normalizeCuisines maps search facets onto the canonical cuisine
// vocabulary, dropping anything unrecognized.
func normalizeCuisines(raw []string) []string {
	var out []string
	for _, v := range raw {
		if canonical, ok := recipe.NormalizeCuisine(v); ok {
			out = append(out, canonical)
		}
	}
	return out
}

func normalizePagination(params inbound.PaginationParams) (page, pageSize int) {
	page = params.Page
	if page < 1 {
		page = 1
	}
	pageSize = params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func buildList(recipes []*recipe.Recipe, total, page, pageSize int) *inbound.RecipeList {
	dtos := make([]inbound.RecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		dtos = append(dtos, *entityToDTO(r))
	}
	totalPages := (total + pageSize - 1) / pageSize
	return &inbound.RecipeList{
		Recipes:    dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// commandToPartial maps command fields into the builder's input shape.
func commandToPartial(
	title string, description *string,
	servings, calories, prepTime, cookTime *int,
	tags []string, cuisine *string, dietaryLabels []string,
	ingredients, steps []string, imageURL string,
) *recipe.PartialRecipeData {
	p := &recipe.PartialRecipeData{
		Title:           title,
		Servings:        servings,
		Calories:        calories,
		PrepTimeMinutes: prepTime,
		CookTimeMinutes: cookTime,
		Tags:            tags,
		DietaryLabels:   dietaryLabels,
		Ingredients:     ingredients,
		Steps:           steps,
		ImageURL:        imageURL,
	}
	if description != nil {
		p.Description = *description
	}
	if cuisine != nil {
		p.Cuisine = *cuisine
	}
	return p
}

func buildEnvelope(p *recipe.PartialRecipeData) (*recipe.RecipeEnvelope, []string) {
	return recipe.BuildEnvelope(p, "")
}

// entityToDTO converts a domain recipe to its transfer shape.
func entityToDTO(r *recipe.Recipe) *inbound.RecipeDTO {
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
