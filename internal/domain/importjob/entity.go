// Package importjob defines the async recipe import job entity
package importjob

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobType discriminates the import input kind.
type JobType string

const (
	JobTypeURL   JobType = "url"
	JobTypeImage JobType = "image" // reserved, not processed yet
)

// Status represents the lifecycle of an import job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// MaxAttempts is how many times the worker retries the whole pipeline
// before marking a job permanently failed.
const MaxAttempts = 3

// Job represents one queued import request. The worker claims a
// pending job, runs the extraction pipeline, and either completes it
// with the created recipe id or requeues it until attempts run out.
type Job struct {
	id        uuid.UUID
	userID    uuid.UUID
	jobType   JobType
	inputURL  string
	status    Status
	attempts  int
	lastError string
	recipeID  *uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewURLJob creates a pending URL import job.
func NewURLJob(userID uuid.UUID, inputURL string) (*Job, error) {
	if inputURL == "" {
		return nil, errors.New("input url is required")
	}

	now := time.Now()
	return &Job{
		id:        uuid.New(),
		userID:    userID,
		jobType:   JobTypeURL,
		inputURL:  inputURL,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Rehydrate rebuilds a job from persisted state.
func Rehydrate(
	id, userID uuid.UUID,
	jobType JobType,
	inputURL string,
	status Status,
	attempts int,
	lastError string,
	recipeID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *Job {
	return &Job{
		id:        id,
		userID:    userID,
		jobType:   jobType,
		inputURL:  inputURL,
		status:    status,
		attempts:  attempts,
		lastError: lastError,
		recipeID:  recipeID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the job id
func (j *Job) ID() uuid.UUID { return j.id }

// UserID returns the requesting user
func (j *Job) UserID() uuid.UUID { return j.userID }

// Type returns the job type
func (j *Job) Type() JobType { return j.jobType }

// InputURL returns the URL to import
func (j *Job) InputURL() string { return j.inputURL }

// Status returns the job status
func (j *Job) Status() Status { return j.status }

// Attempts returns how many times the pipeline has run for this job
func (j *Job) Attempts() int { return j.attempts }

// LastError returns the last pipeline error message
func (j *Job) LastError() string { return j.lastError }

// RecipeID returns the created recipe id after completion
func (j *Job) RecipeID() *uuid.UUID { return j.recipeID }

// CreatedAt returns when the job was enqueued
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns when the job last changed
func (j *Job) UpdatedAt() time.Time { return j.updatedAt }

// StartProcessing claims a pending job and counts the attempt.
func (j *Job) StartProcessing() error {
	if j.status != StatusPending {
		return errors.New("can only start processing pending jobs")
	}

	j.status = StatusProcessing
	j.attempts++
	j.updatedAt = time.Now()
	return nil
}

// Complete marks the job completed with the created recipe.
func (j *Job) Complete(recipeID uuid.UUID) error {
	if j.status != StatusProcessing {
		return errors.New("can only complete processing jobs")
	}

	j.status = StatusCompleted
	j.recipeID = &recipeID
	j.lastError = ""
	j.updatedAt = time.Now()
	return nil
}

// RecordFailure records a pipeline error. The job goes back to pending
// while attempts remain, and to failed once they are exhausted.
func (j *Job) RecordFailure(errorMessage string) error {
	if j.status != StatusProcessing {
		return errors.New("can only fail processing jobs")
	}

	j.lastError = errorMessage
	if j.attempts >= MaxAttempts {
		j.status = StatusFailed
	} else {
		j.status = StatusPending
	}
	j.updatedAt = time.Now()
	return nil
}
