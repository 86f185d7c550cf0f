// Package importer implements the cascading recipe extraction
// pipeline: fetch a page, then try structured data, share payloads,
// readable content, raw text mining, and finally an AI fallback, in
// that order, until one tier produces a complete recipe envelope.
package importer

import (
	"context"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
)

// Strategy names reported in the preview response.
const (
	StrategyChatGPT     = "chatgpt"
	StrategyJSONLD      = "jsonld"
	StrategyReadability = "readability"
	StrategyHeuristic   = "heuristic"
	StrategyAI          = "ai"
)

// Input carries one fetched page through the strategy cascade.
type Input struct {
	Body        []byte
	SourceURL   string
	ContentType string

	// OverrideText is plain text recovered by an earlier tier, handed
	// to the AI tier in preference to stripped HTML. Share text wins
	// over readability text.
	OverrideText string
}

// Attempt is the outcome of one extraction tier. Exactly one of
// Envelope or MissingFields is meaningful: a nil envelope with an
// empty missing list means the tier saw no recipe signal at all.
type Attempt struct {
	Envelope      *recipe.RecipeEnvelope
	MissingFields []string

	// Text is recovered plain text worth feeding to the AI tier.
	Text string

	// AI diagnostics, populated by the AI tier only.
	AIAttempted bool
	AIFailed    bool
}

// Succeeded reports whether the tier produced a complete envelope.
func (a Attempt) Succeeded() bool {
	return a.Envelope != nil
}

// Strategy is one self-contained extraction tier. Strategies never
// return errors: a tier that cannot contribute reports an empty
// attempt, optionally with missing-field evidence, and the
// orchestrator moves on.
type Strategy interface {
	Name() string
	Applies(in *Input) bool
	Extract(ctx context.Context, in *Input) Attempt
}

// mergeMissing folds a tier's missing-field evidence into the running
// set, preserving first-seen order.
func mergeMissing(running []string, found []string) []string {
	for _, f := range found {
		exists := false
		for _, r := range running {
			if r == f {
				exists = true
				break
			}
		}
		if !exists {
			running = append(running, f)
		}
	}
	return running
}
