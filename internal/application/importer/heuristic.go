package importer

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// heuristicStrategy is the last non-AI resort: brute-force the HTML to
// plain text and run the same section mining as the other text tiers.
type heuristicStrategy struct {
	logger *zap.Logger
}

// NewHeuristicStrategy creates the HTML-to-text extraction tier.
func NewHeuristicStrategy(logger *zap.Logger) Strategy {
	return &heuristicStrategy{logger: logger}
}

func (s *heuristicStrategy) Name() string { return StrategyHeuristic }

func (s *heuristicStrategy) Applies(in *Input) bool {
	return !isJSONContentType(in.ContentType)
}

func (s *heuristicStrategy) Extract(ctx context.Context, in *Input) Attempt {
	text := htmlToText(in.Body)
	if strings.TrimSpace(text) == "" {
		return Attempt{}
	}

	return mineTextSections(text, in.SourceURL, minerHints{
		TitleHint: documentTitle(in.Body),
	})
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style|noscript)\b[^>]*>.*?</\s*(?:script|style|noscript)\s*>`)
	lineBreakRe   = regexp.MustCompile(`(?i)</(p|div|section|article|h[1-6]|tr|table|ul|ol|blockquote)>|<(li|br)\b[^>]*/?>`)
	anyTagRe      = regexp.MustCompile(`<[^>]*>`)
	multiBlankRe  = regexp.MustCompile(`\n{3,}`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

// htmlToText strips markup down to newline-structured plain text:
// scripts and styles removed, block boundaries and list items turned
// into newlines, remaining tags dropped, a fixed entity set unescaped,
// and runs of blank lines collapsed.
func htmlToText(body []byte) string {
	text := scriptStyleRe.ReplaceAllString(string(body), " ")
	text = lineBreakRe.ReplaceAllString(text, "\n")
	text = anyTagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(multiBlankRe.ReplaceAllString(text, "\n\n"))
}
