package importjob

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewURLJob(t *testing.T) {
	userID := uuid.New()

	job, err := NewURLJob(userID, "https://example.com/recipe")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, job.ID())
	assert.Equal(t, userID, job.UserID())
	assert.Equal(t, JobTypeURL, job.Type())
	assert.Equal(t, StatusPending, job.Status())
	assert.Zero(t, job.Attempts())
	assert.Nil(t, job.RecipeID())
}

func TestNewURLJob_RequiresURL(t *testing.T) {
	_, err := NewURLJob(uuid.New(), "")

	assert.Error(t, err)
}

func TestJob_StartProcessing(t *testing.T) {
	job, _ := NewURLJob(uuid.New(), "https://example.com")

	require.NoError(t, job.StartProcessing())

	assert.Equal(t, StatusProcessing, job.Status())
	assert.Equal(t, 1, job.Attempts())

	assert.Error(t, job.StartProcessing(), "a processing job cannot be claimed again")
}

func TestJob_Complete(t *testing.T) {
	job, _ := NewURLJob(uuid.New(), "https://example.com")
	require.NoError(t, job.StartProcessing())

	recipeID := uuid.New()
	require.NoError(t, job.Complete(recipeID))

	assert.Equal(t, StatusCompleted, job.Status())
	require.NotNil(t, job.RecipeID())
	assert.Equal(t, recipeID, *job.RecipeID())
	assert.Empty(t, job.LastError())
}

func TestJob_Complete_RequiresProcessing(t *testing.T) {
	job, _ := NewURLJob(uuid.New(), "https://example.com")

	assert.Error(t, job.Complete(uuid.New()))
}

func TestJob_RecordFailure_RequeuesUntilAttemptsExhausted(t *testing.T) {
	job, _ := NewURLJob(uuid.New(), "https://example.com")

	for attempt := 1; attempt < MaxAttempts; attempt++ {
		require.NoError(t, job.StartProcessing())
		require.NoError(t, job.RecordFailure("transient fetch error"))
		assert.Equal(t, StatusPending, job.Status(), "attempt %d should requeue", attempt)
		assert.Equal(t, attempt, job.Attempts())
		assert.Equal(t, "transient fetch error", job.LastError())
	}

	require.NoError(t, job.StartProcessing())
	require.NoError(t, job.RecordFailure("still broken"))

	assert.Equal(t, StatusFailed, job.Status())
	assert.Equal(t, MaxAttempts, job.Attempts())
	assert.Equal(t, "still broken", job.LastError())
}

func TestJob_RecordFailure_RequiresProcessing(t *testing.T) {
	job, _ := NewURLJob(uuid.New(), "https://example.com")

	assert.Error(t, job.RecordFailure("nope"))
}

func TestRehydrate(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	recipeID := uuid.New()
	created := time.Now().Add(-time.Hour)
	updated := time.Now()

	job := Rehydrate(id, userID, JobTypeURL, "https://example.com", StatusCompleted, 2, "", &recipeID, created, updated)

	assert.Equal(t, id, job.ID())
	assert.Equal(t, userID, job.UserID())
	assert.Equal(t, StatusCompleted, job.Status())
	assert.Equal(t, 2, job.Attempts())
	assert.Equal(t, &recipeID, job.RecipeID())
	assert.Equal(t, created, job.CreatedAt())
	assert.Equal(t, updated, job.UpdatedAt())
}
