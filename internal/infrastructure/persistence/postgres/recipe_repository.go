package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
)

// RecipeRepository implements outbound.RecipeRepository on PostgreSQL.
// List fields of the envelope are stored as jsonb so the row maps
// one to one onto the transfer representation.
type RecipeRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRecipeRepository creates a PostgreSQL recipe repository.
func NewRecipeRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecipeRepository {
	return &RecipeRepository{pool: pool, logger: logger}
}

const recipeColumns = `id, owner_id, title, description, servings, calories,
	prep_time_minutes, cook_time_minutes, tags, cuisine, dietary_labels,
	source, ingredients, steps, media, metadata, saved_from_id,
	created_at, updated_at`

// Create inserts a new recipe row.
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	row, err := recipeToRow(rec)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO recipes (`+recipeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		row.id, row.ownerID, row.title, row.description, row.servings, row.calories,
		row.prepTime, row.cookTime, row.tags, row.cuisine, row.dietaryLabels,
		row.source, row.ingredients, row.steps, row.media, row.metadata, row.savedFromID,
		row.createdAt, row.updatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing recipe row.
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	row, err := recipeToRow(rec)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE recipes SET
			title = $2, description = $3, servings = $4, calories = $5,
			prep_time_minutes = $6, cook_time_minutes = $7, tags = $8,
			cuisine = $9, dietary_labels = $10, ingredients = $11,
			steps = $12, media = $13, metadata = $14, updated_at = $15
		WHERE id = $1`,
		row.id, row.title, row.description, row.servings, row.calories,
		row.prepTime, row.cookTime, row.tags, row.cuisine, row.dietaryLabels,
		row.ingredients, row.steps, row.media, row.metadata, row.updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

// Delete removes a recipe row.
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

// FindByID loads one recipe.
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	rec, err := scanRecipe(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, recipe.ErrRecipeNotFound
	}
	return rec, err
}

// FindByOwnerID returns a page of recipes owned by a user, newest first.
func (r *RecipeRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM recipes WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE owner_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	recipes, err := scanRecipes(rows)
	return recipes, total, err
}

// FindSavedByOwnerID returns the subset of a user's recipes that were
// copied from somebody else's.
func (r *RecipeRepository) FindSavedByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM recipes WHERE owner_id = $1 AND saved_from_id IS NOT NULL`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count saved recipes: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+recipeColumns+` FROM recipes
		WHERE owner_id = $1 AND saved_from_id IS NOT NULL
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query saved recipes: %w", err)
	}
	defer rows.Close()

	recipes, err := scanRecipes(rows)
	return recipes, total, err
}

// FindByIDs loads a batch of recipes in one round trip.
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query recipes by ids: %w", err)
	}
	defer rows.Close()
	return scanRecipes(rows)
}

// Search filters recipes by text, vocabulary facets and total time.
func (r *RecipeRepository) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if criteria.OwnerID != nil {
		conds = append(conds, "owner_id = "+arg(*criteria.OwnerID))
	}
	if q := strings.TrimSpace(criteria.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if len(criteria.Cuisines) > 0 {
		conds = append(conds, "cuisine = ANY("+arg(criteria.Cuisines)+")")
	}
	if len(criteria.Tags) > 0 {
		b, _ := json.Marshal(criteria.Tags)
		conds = append(conds, "tags @> "+arg(b))
	}
	if len(criteria.DietaryLabels) > 0 {
		b, _ := json.Marshal(criteria.DietaryLabels)
		conds = append(conds, "dietary_labels @> "+arg(b))
	}
	if criteria.MaxTime != nil {
		conds = append(conds, "coalesce(prep_time_minutes, 0) + coalesce(cook_time_minutes, 0) <= "+arg(*criteria.MaxTime))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM recipes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	orderBy := "created_at"
	switch criteria.OrderBy {
	case "title", "updated_at", "created_at":
		orderBy = criteria.OrderBy
	}
	orderDir := "DESC"
	if strings.EqualFold(criteria.OrderDir, "asc") {
		orderDir = "ASC"
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes` + where +
		fmt.Sprintf(" ORDER BY %s %s OFFSET %s LIMIT %s",
			orderBy, orderDir, arg(criteria.Offset), arg(criteria.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search recipes: %w", err)
	}
	defer rows.Close()

	recipes, err := scanRecipes(rows)
	return recipes, total, err
}

// recipeRow is the flat database shape of a recipe.
type recipeRow struct {
	id            uuid.UUID
	ownerID       *uuid.UUID
	title         string
	description   *string
	servings      *int
	calories      *int
	prepTime      *int
	cookTime      *int
	tags          []byte
	cuisine       *string
	dietaryLabels []byte
	source        []byte
	ingredients   []byte
	steps         []byte
	media         []byte
	metadata      []byte
	savedFromID   *uuid.UUID
	createdAt     time.Time
	updatedAt     time.Time
}

func recipeToRow(rec *recipe.Recipe) (*recipeRow, error) {
	marshal := func(v interface{}, what string) ([]byte, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal recipe %s: %w", what, err)
		}
		return b, nil
	}

	tags, err := marshal(emptyIfNil(rec.Tags()), "tags")
	if err != nil {
		return nil, err
	}
	dietary, err := marshal(emptyIfNil(rec.DietaryLabels()), "dietary labels")
	if err != nil {
		return nil, err
	}
	source, err := marshal(rec.Source(), "source")
	if err != nil {
		return nil, err
	}
	ingredients, err := marshal(rec.Ingredients(), "ingredients")
	if err != nil {
		return nil, err
	}
	steps, err := marshal(rec.Steps(), "steps")
	if err != nil {
		return nil, err
	}
	media, err := marshal(rec.Media(), "media")
	if err != nil {
		return nil, err
	}
	metadata, err := marshal(rec.Metadata(), "metadata")
	if err != nil {
		return nil, err
	}

	return &recipeRow{
		id:            rec.ID(),
		ownerID:       rec.OwnerID(),
		title:         rec.Title(),
		description:   rec.Description(),
		servings:      rec.Servings(),
		calories:      rec.Calories(),
		prepTime:      rec.PrepTimeMinutes(),
		cookTime:      rec.CookTimeMinutes(),
		tags:          tags,
		cuisine:       rec.Cuisine(),
		dietaryLabels: dietary,
		source:        source,
		ingredients:   ingredients,
		steps:         steps,
		media:         media,
		metadata:      metadata,
		savedFromID:   rec.SavedFromID(),
		createdAt:     rec.CreatedAt(),
		updatedAt:     rec.UpdatedAt(),
	}, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanRecipe(row pgx.Row) (*recipe.Recipe, error) {
	var r recipeRow
	if err := row.Scan(
		&r.id, &r.ownerID, &r.title, &r.description, &r.servings, &r.calories,
		&r.prepTime, &r.cookTime, &r.tags, &r.cuisine, &r.dietaryLabels,
		&r.source, &r.ingredients, &r.steps, &r.media, &r.metadata, &r.savedFromID,
		&r.createdAt, &r.updatedAt,
	); err != nil {
		return nil, err
	}
	return rowToRecipe(&r)
}

func scanRecipes(rows pgx.Rows) ([]*recipe.Recipe, error) {
	var out []*recipe.Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func rowToRecipe(r *recipeRow) (*recipe.Recipe, error) {
	env := &recipe.RecipeEnvelope{
		Title:           r.title,
		Description:     r.description,
		Servings:        r.servings,
		Calories:        r.calories,
		PrepTimeMinutes: r.prepTime,
		CookTimeMinutes: r.cookTime,
		Cuisine:         r.cuisine,
	}

	unmarshal := func(b []byte, v interface{}, what string) error {
		if len(b) == 0 {
			return nil
		}
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("unmarshal recipe %s: %w", what, err)
		}
		return nil
	}

	if err := unmarshal(r.tags, &env.Tags, "tags"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.dietaryLabels, &env.DietaryLabels, "dietary labels"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.source, &env.Source, "source"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.ingredients, &env.Ingredients, "ingredients"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.steps, &env.Steps, "steps"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.media, &env.Media, "media"); err != nil {
		return nil, err
	}
	if err := unmarshal(r.metadata, &env.Metadata, "metadata"); err != nil {
		return nil, err
	}

	return recipe.Rehydrate(r.id, r.ownerID, env, r.savedFromID, r.createdAt, r.updatedAt), nil
}
