package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/importjob"
)

// ErrImportJobNotFound is returned when no job matches the lookup.
var ErrImportJobNotFound = errors.New("import job not found")

// ImportJobRepository implements outbound.ImportJobRepository on
// PostgreSQL.
type ImportJobRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewImportJobRepository creates a PostgreSQL import job repository.
func NewImportJobRepository(pool *pgxpool.Pool, logger *zap.Logger) *ImportJobRepository {
	return &ImportJobRepository{pool: pool, logger: logger}
}

const importJobColumns = `id, user_id, job_type, input_url, status, attempts,
	last_error, recipe_id, created_at, updated_at`

// Create inserts a new job row.
func (r *ImportJobRepository) Create(ctx context.Context, job *importjob.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO import_jobs (`+importJobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID(), job.UserID(), string(job.Type()), job.InputURL(), string(job.Status()),
		job.Attempts(), job.LastError(), job.RecipeID(), job.CreatedAt(), job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert import job: %w", err)
	}
	return nil
}

// Update persists a job's state transition.
func (r *ImportJobRepository) Update(ctx context.Context, job *importjob.Job) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE import_jobs SET
			status = $2, attempts = $3, last_error = $4, recipe_id = $5, updated_at = $6
		WHERE id = $1`,
		job.ID(), string(job.Status()), job.Attempts(), job.LastError(),
		job.RecipeID(), job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImportJobNotFound
	}
	return nil
}

// FindByID loads one job.
func (r *ImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*importjob.Job, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`, id)
	job, err := scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrImportJobNotFound
	}
	return job, err
}

// FindByUserID returns a page of a user's jobs, newest first.
func (r *ImportJobRepository) FindByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*importjob.Job, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM import_jobs WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count import jobs: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+importJobColumns+` FROM import_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*importjob.Job
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

// ClaimNextPending atomically moves the oldest pending job to
// processing and counts the attempt. SKIP LOCKED keeps concurrent
// workers off the same row. Returns nil with no error when the queue
// is empty.
func (r *ImportJobRepository) ClaimNextPending(ctx context.Context) (*importjob.Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE import_jobs SET
			status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM import_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+importJobColumns)

	job, err := scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim import job: %w", err)
	}
	return job, nil
}

func scanImportJob(row pgx.Row) (*importjob.Job, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		jobType   string
		inputURL  string
		status    string
		attempts  int
		lastError string
		recipeID  *uuid.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&id, &userID, &jobType, &inputURL, &status, &attempts,
		&lastError, &recipeID, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	return importjob.Rehydrate(
		id, userID,
		importjob.JobType(jobType), inputURL, importjob.Status(status),
		attempts, lastError, recipeID, createdAt, updatedAt,
	), nil
}
