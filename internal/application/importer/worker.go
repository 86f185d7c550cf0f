package importer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/importjob"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
)

// Worker drains the import job queue. Each tick it claims one pending
// job, runs the pipeline, and records the outcome; failed jobs go back
// to pending until their attempts run out.
type Worker struct {
	jobs     outbound.ImportJobRepository
	recipes  outbound.RecipeRepository
	pipeline *Pipeline
	interval time.Duration
	logger   *zap.Logger
}

// NewWorker creates an import worker polling at the given interval.
func NewWorker(
	jobs outbound.ImportJobRepository,
	recipes outbound.RecipeRepository,
	pipeline *Pipeline,
	interval time.Duration,
	logger *zap.Logger,
) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		jobs:     jobs,
		recipes:  recipes,
		pipeline: pipeline,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. It drains all claimable
// jobs on each tick before sleeping again.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("import worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("import worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		job, err := w.jobs.ClaimNextPending(ctx)
		if err != nil {
			w.logger.Error("claiming import job failed", zap.Error(err))
			return
		}
		if job == nil {
			return
		}
		w.process(ctx, job)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// process runs the pipeline for one claimed job. The claim already
// moved the job to processing and counted the attempt.
func (w *Worker) process(ctx context.Context, job *importjob.Job) {
	log := w.logger.With(
		zap.String("job_id", job.ID().String()),
		zap.String("url", job.InputURL()),
		zap.Int("attempt", job.Attempts()),
	)
	log.Info("processing import job")

	result, err := w.pipeline.Run(ctx, job.InputURL())
	if err != nil {
		w.fail(ctx, job, err, log)
		return
	}

	ownerID := job.UserID()
	rec, err := recipe.FromEnvelope(result.Envelope, &ownerID)
	if err != nil {
		w.fail(ctx, job, err, log)
		return
	}
	if err := w.recipes.Create(ctx, rec); err != nil {
		w.fail(ctx, job, err, log)
		return
	}

	if err := job.Complete(rec.ID()); err != nil {
		log.Error("completing import job failed", zap.Error(err))
		return
	}
	if err := w.jobs.Update(ctx, job); err != nil {
		log.Error("persisting completed import job failed", zap.Error(err))
		return
	}
	log.Info("import job completed",
		zap.String("recipe_id", rec.ID().String()),
		zap.String("strategy", result.ExtractedFrom),
	)
}

func (w *Worker) fail(ctx context.Context, job *importjob.Job, cause error, log *zap.Logger) {
	if err := job.RecordFailure(cause.Error()); err != nil {
		log.Error("recording import failure failed", zap.Error(err))
		return
	}
	if err := w.jobs.Update(ctx, job); err != nil {
		log.Error("persisting failed import job failed", zap.Error(err))
		return
	}
	if job.Status() == importjob.StatusFailed {
		log.Warn("import job failed permanently", zap.Error(cause))
	} else {
		log.Warn("import job attempt failed, requeued", zap.Error(cause))
	}
}
