package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/importjob"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
)

// fakeRecipeRepo records created recipes.
type fakeRecipeRepo struct {
	created   []*recipe.Recipe
	createErr error
}

func (f *fakeRecipeRepo) Create(ctx context.Context, r *recipe.Recipe) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, r)
	return nil
}

func (f *fakeRecipeRepo) Update(ctx context.Context, r *recipe.Recipe) error { return nil }
func (f *fakeRecipeRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }

func (f *fakeRecipeRepo) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	return nil, errors.New("not found")
}

func (f *fakeRecipeRepo) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipeRepo) FindSavedByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*recipe.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipeRepo) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int, error) {
	return nil, 0, nil
}

func newTestWorker(jobs outbound.ImportJobRepository, recipes outbound.RecipeRepository, pipeline *Pipeline) *Worker {
	return NewWorker(jobs, recipes, pipeline, time.Millisecond, zap.NewNop())
}

func enqueuePending(t *testing.T, repo *fakeJobRepo, userID uuid.UUID) *importjob.Job {
	t.Helper()
	job, err := importjob.NewURLJob(userID, "https://example.com/recipe")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), job))
	return job
}

func TestWorker_Drain_CompletesJob(t *testing.T) {
	jobs := newFakeJobRepo()
	recipes := &fakeRecipeRepo{}
	userID := uuid.New()
	job := enqueuePending(t, jobs, userID)

	winner := &fakeStrategy{name: StrategyJSONLD, applies: true, attempt: Attempt{Envelope: testEnvelope(t)}}
	w := newTestWorker(jobs, recipes, newTestPipeline(&fakeFetcher{result: htmlFetch()}, winner))

	w.drain(context.Background())

	require.Len(t, recipes.created, 1)
	saved := recipes.created[0]
	require.NotNil(t, saved.OwnerID())
	assert.Equal(t, userID, *saved.OwnerID())

	assert.Equal(t, importjob.StatusCompleted, job.Status())
	require.NotNil(t, job.RecipeID())
	assert.Equal(t, saved.ID(), *job.RecipeID())
	assert.Equal(t, 1, job.Attempts())
}

func TestWorker_Process_FailureRequeues(t *testing.T) {
	jobs := newFakeJobRepo()
	userID := uuid.New()
	enqueuePending(t, jobs, userID)

	job, err := jobs.ClaimNextPending(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)

	silent := &fakeStrategy{name: "a", applies: true}
	w := newTestWorker(jobs, &fakeRecipeRepo{}, newTestPipeline(&fakeFetcher{result: htmlFetch()}, silent))

	w.process(context.Background(), job)

	assert.Equal(t, importjob.StatusPending, job.Status(), "the first failure goes back to the queue")
	assert.Equal(t, 1, job.Attempts())
	assert.NotEmpty(t, job.LastError())
}

func TestWorker_Drain_ExhaustsAttempts(t *testing.T) {
	jobs := newFakeJobRepo()
	job := enqueuePending(t, jobs, uuid.New())

	// A requeued job is claimable again within the same drain, so a
	// persistently failing URL burns through all attempts in one pass.
	silent := &fakeStrategy{name: "a", applies: true}
	w := newTestWorker(jobs, &fakeRecipeRepo{}, newTestPipeline(&fakeFetcher{result: htmlFetch()}, silent))

	w.drain(context.Background())

	assert.Equal(t, importjob.StatusFailed, job.Status())
	assert.Equal(t, importjob.MaxAttempts, job.Attempts())
}

func TestWorker_Process_RecipePersistFailureCountsAsAttempt(t *testing.T) {
	jobs := newFakeJobRepo()
	enqueuePending(t, jobs, uuid.New())

	job, err := jobs.ClaimNextPending(context.Background())
	require.NoError(t, err)

	winner := &fakeStrategy{name: StrategyJSONLD, applies: true, attempt: Attempt{Envelope: testEnvelope(t)}}
	recipes := &fakeRecipeRepo{createErr: errors.New("db down")}
	w := newTestWorker(jobs, recipes, newTestPipeline(&fakeFetcher{result: htmlFetch()}, winner))

	w.process(context.Background(), job)

	assert.Equal(t, importjob.StatusPending, job.Status())
	assert.Contains(t, job.LastError(), "db down")
}

func TestWorker_Drain_StopsWhenQueueEmpty(t *testing.T) {
	jobs := newFakeJobRepo()
	w := newTestWorker(jobs, &fakeRecipeRepo{}, newTestPipeline(&fakeFetcher{result: htmlFetch()}))

	done := make(chan struct{})
	go func() {
		w.drain(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain should return immediately on an empty queue")
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	jobs := newFakeJobRepo()
	w := newTestWorker(jobs, &fakeRecipeRepo{}, newTestPipeline(&fakeFetcher{result: htmlFetch()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
