package importer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/importjob"
	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/errors"
)

// PipelineResult is a successful run of the strategy cascade.
type PipelineResult struct {
	ExtractedFrom string
	Warnings      []string
	Envelope      *recipe.RecipeEnvelope
}

// Pipeline runs the fetch guard and the extraction cascade for one URL.
type Pipeline struct {
	fetcher    outbound.PageFetcher
	strategies []Strategy
	logger     *zap.Logger
}

// NewPipeline wires the cascade in priority order: share payload,
// structured data, readable content, raw text mining, AI fallback.
func NewPipeline(fetcher outbound.PageFetcher, ai outbound.AIService, aiTextCap int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		strategies: []Strategy{
			NewChatGPTStrategy(logger),
			NewJSONLDStrategy(logger),
			NewReadabilityStrategy(logger),
			NewHeuristicStrategy(logger),
			NewAIStrategy(ai, aiTextCap, logger),
		},
		logger: logger,
	}
}

// Run fetches the page and walks the cascade until a tier produces a
// complete envelope. Missing-field evidence from failed tiers
// accumulates so the final error tells the caller what was found but
// incomplete.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*PipelineResult, error) {
	fetched, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	in := &Input{
		Body:        fetched.Body,
		SourceURL:   fetched.FinalURL,
		ContentType: fetched.ContentType,
	}

	var (
		missing     []string
		aiAttempted bool
		aiFailed    bool
	)
	for _, strat := range p.strategies {
		if !strat.Applies(in) {
			continue
		}

		attempt := strat.Extract(ctx, in)
		if attempt.Succeeded() {
			p.logger.Info("recipe extracted",
				zap.String("url", rawURL),
				zap.String("strategy", strat.Name()),
			)
			return &PipelineResult{
				ExtractedFrom: strat.Name(),
				Warnings:      strategyWarnings(strat.Name()),
				Envelope:      attempt.Envelope,
			}, nil
		}

		missing = mergeMissing(missing, attempt.MissingFields)
		if attempt.AIAttempted {
			aiAttempted = true
			aiFailed = attempt.AIFailed
		}
		// Text a tier recovered feeds the AI fallback; the first tier
		// to recover any keeps priority.
		if in.OverrideText == "" && strings.TrimSpace(attempt.Text) != "" {
			in.OverrideText = attempt.Text
		}
	}

	if len(missing) > 0 {
		return nil, errors.NewImportMissingFieldsError(missing, aiAttempted, aiFailed)
	}
	return nil, errors.NewImportNoRecipeFoundError()
}

func strategyWarnings(name string) []string {
	switch name {
	case StrategyReadability:
		return []string{"recipe recovered from readable page text; some fields may be missing or imprecise"}
	case StrategyHeuristic:
		return []string{"recipe mined from raw page text; review fields before saving"}
	case StrategyAI:
		return []string{"recipe structured by AI from page text; estimated fields may be imprecise"}
	default:
		return nil
	}
}

// Service implements the import use cases: synchronous preview and the
// async job queue, both gated by the daily per-user quota.
type Service struct {
	pipeline   *Pipeline
	quota      outbound.ImportQuota
	dailyLimit int
	jobs       outbound.ImportJobRepository
	logger     *zap.Logger
}

// NewService creates the import service.
func NewService(
	pipeline *Pipeline,
	quota outbound.ImportQuota,
	dailyLimit int,
	jobs outbound.ImportJobRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		pipeline:   pipeline,
		quota:      quota,
		dailyLimit: dailyLimit,
		jobs:       jobs,
		logger:     logger,
	}
}

// PreviewImport runs the full pipeline without persisting anything.
// The quota is consumed before any network activity so a blocked user
// cannot trigger outbound fetches.
func (s *Service) PreviewImport(ctx context.Context, userID uuid.UUID, rawURL string) (*inbound.ImportPreview, error) {
	if err := s.consumeQuota(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return &inbound.ImportPreview{
		ExtractedFrom: result.ExtractedFrom,
		Warnings:      result.Warnings,
		RecipeData:    result.Envelope,
		SavePayload:   result.Envelope,
	}, nil
}

// EnqueueImport queues a URL for background processing. The quota is
// charged at enqueue time; worker retries do not consume it again.
func (s *Service) EnqueueImport(ctx context.Context, userID uuid.UUID, rawURL string) (*inbound.ImportJobDTO, error) {
	if err := s.consumeQuota(ctx, userID); err != nil {
		return nil, err
	}

	job, err := importjob.NewURLJob(userID, rawURL)
	if err != nil {
		return nil, errors.NewImportInvalidURLError(err.Error())
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, errors.NewDatabaseError("create import job", err)
	}

	s.logger.Info("import job queued",
		zap.String("job_id", job.ID().String()),
		zap.String("user_id", userID.String()),
	)
	return jobToDTO(job), nil
}

// GetImportJob returns a job's state. Jobs belonging to other users
// read as not found.
func (s *Service) GetImportJob(ctx context.Context, jobID, userID uuid.UUID) (*inbound.ImportJobDTO, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, errors.NewNotFoundError("import job")
	}
	if job.UserID() != userID {
		return nil, errors.NewNotFoundError("import job")
	}
	return jobToDTO(job), nil
}

func (s *Service) consumeQuota(ctx context.Context, userID uuid.UUID) error {
	allowed, remaining, err := s.quota.Consume(ctx, userID)
	if err != nil {
		// Quota storage failing open would let one outage disable the
		// limit; fail closed instead.
		s.logger.Error("import quota check failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return errors.NewInternalError("import quota unavailable")
	}
	if !allowed {
		return errors.NewQuotaExceededError("daily recipe imports", s.dailyLimit)
	}
	s.logger.Debug("import quota consumed",
		zap.String("user_id", userID.String()),
		zap.Int("remaining", remaining),
	)
	return nil
}

func jobToDTO(job *importjob.Job) *inbound.ImportJobDTO {
	return &inbound.ImportJobDTO{
		ID:        job.ID(),
		Type:      string(job.Type()),
		InputURL:  job.InputURL(),
		Status:    string(job.Status()),
		Attempts:  job.Attempts(),
		LastError: job.LastError(),
		RecipeID:  job.RecipeID(),
		CreatedAt: job.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt().UTC().Format(time.RFC3339),
	}
}
