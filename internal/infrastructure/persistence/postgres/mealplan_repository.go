package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/mealplan"
)

// ErrMealPlanNotFound is returned when no plan exists for the date.
var ErrMealPlanNotFound = errors.New("meal plan not found")

// ErrMealPlanExists is returned when a plan for the date was already
// generated, so a second generator run loses the race cleanly.
var ErrMealPlanExists = errors.New("meal plan already exists for date")

// MealPlanRepository implements outbound.MealPlanRepository on
// PostgreSQL. The plan date carries a unique constraint.
type MealPlanRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewMealPlanRepository creates a PostgreSQL meal plan repository.
func NewMealPlanRepository(pool *pgxpool.Pool, logger *zap.Logger) *MealPlanRepository {
	return &MealPlanRepository{pool: pool, logger: logger}
}

// Create inserts a plan for its day.
func (r *MealPlanRepository) Create(ctx context.Context, plan *mealplan.Plan) error {
	entries, err := json.Marshal(plan.Entries())
	if err != nil {
		return fmt.Errorf("marshal meal plan entries: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO meal_plans (id, plan_date, entries, created_at)
		VALUES ($1, $2, $3, $4)`,
		plan.ID(), plan.Date(), entries, plan.CreatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrMealPlanExists
		}
		return fmt.Errorf("insert meal plan: %w", err)
	}
	return nil
}

// FindByDate loads the plan for a day. The date is truncated to
// midnight UTC before lookup.
func (r *MealPlanRepository) FindByDate(ctx context.Context, date time.Time) (*mealplan.Plan, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	var (
		id          uuid.UUID
		planDate    time.Time
		entriesJSON []byte
		createdAt   time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, plan_date, entries, created_at
		FROM meal_plans WHERE plan_date = $1`, day,
	).Scan(&id, &planDate, &entriesJSON, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMealPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query meal plan: %w", err)
	}

	var entries []mealplan.Entry
	if err := json.Unmarshal(entriesJSON, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal meal plan entries: %w", err)
	}
	return mealplan.Rehydrate(id, planDate, entries, createdAt), nil
}
