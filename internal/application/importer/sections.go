package importer

import (
	"strings"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
)

// The plain-text section miner shared by the share, readability and
// heuristic tiers. It locates labeled ingredient/step sections in
// free-form text and promotes them to an envelope.

var (
	ingredientLabels = []string{"ingredients"}
	stepLabels       = []string{"instructions", "directions", "method", "preparation", "steps"}
	stopLabels       = []string{"nutrition", "notes", "tips", "storage", "video"}
)

// minerHints carries optional context recovered by the calling tier.
type minerHints struct {
	TitleHint   string
	AuthorName  string
	Attribution string
}

// mineTextSections extracts a recipe from plain text. Title comes from
// the hint, else the first markdown heading, else the first content
// line. Sections start at a label line and run until another label, a
// stop word, or a blank line after at least one collected item.
func mineTextSections(text, sourceURL string, hints minerHints) Attempt {
	rawLines := strings.Split(text, "\n")
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = strings.TrimSpace(l)
	}

	partial := &recipe.PartialRecipeData{
		Title:       hints.TitleHint,
		AuthorName:  hints.AuthorName,
		Attribution: hints.Attribution,
		Ingredients: collectSection(lines, ingredientLabels),
		Steps:       collectSection(lines, stepLabels),
	}

	if strings.TrimSpace(partial.Title) == "" {
		partial.Title = deriveTitle(lines)
	}

	env, missing := recipe.BuildEnvelope(partial, sourceURL)
	return Attempt{Envelope: env, MissingFields: missing}
}

// deriveTitle picks the first markdown heading, else the first
// non-empty line.
func deriveTitle(lines []string) string {
	for _, l := range lines {
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "#") {
			return strings.TrimSpace(strings.TrimLeft(l, "# "))
		}
	}
	for _, l := range lines {
		if l != "" {
			return l
		}
	}
	return ""
}

// collectSection finds the first line labeling the wanted section and
// gathers its items.
func collectSection(lines []string, labels []string) []string {
	start := -1
	for i, l := range lines {
		if matchesLabel(l, labels) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var items []string
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			// a blank directly after the heading is tolerated; a blank
			// after items closes the section
			if len(items) > 0 {
				break
			}
			continue
		}
		if isAnySectionLabel(line) {
			break
		}
		items = append(items, stripLineMarker(line))
	}
	return items
}

// matchesLabel reports whether line, after stripping heading and
// bullet markers and a trailing colon, equals a label or starts with
// one followed by a space.
func matchesLabel(line string, labels []string) bool {
	cleaned := normalizeLabelLine(line)
	if cleaned == "" {
		return false
	}
	for _, label := range labels {
		if cleaned == label || strings.HasPrefix(cleaned, label+" ") {
			return true
		}
	}
	return false
}

func isAnySectionLabel(line string) bool {
	return matchesLabel(line, ingredientLabels) ||
		matchesLabel(line, stepLabels) ||
		matchesLabel(line, stopLabels)
}

func normalizeLabelLine(line string) string {
	cleaned := strings.TrimSpace(line)
	cleaned = strings.TrimLeft(cleaned, "#*-•·◦‣>– ")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), ":")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// stripLineMarker removes a leading bullet or numbered-list marker
// from a collected item.
func stripLineMarker(line string) string {
	s := strings.TrimSpace(line)
	trimmed := strings.TrimLeft(s, "-*•·◦‣>– ")
	if trimmed != s {
		return strings.TrimSpace(trimmed)
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
