package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
)

// jsonLDStrategy parses schema.org Recipe markup embedded in
// <script type="application/ld+json"> blocks, or the whole body when
// the page itself is a JSON document.
type jsonLDStrategy struct {
	logger *zap.Logger
}

// NewJSONLDStrategy creates the structured-data extraction tier.
func NewJSONLDStrategy(logger *zap.Logger) Strategy {
	return &jsonLDStrategy{logger: logger}
}

func (s *jsonLDStrategy) Name() string { return StrategyJSONLD }

func (s *jsonLDStrategy) Applies(in *Input) bool { return true }

func (s *jsonLDStrategy) Extract(ctx context.Context, in *Input) Attempt {
	var docs []interface{}

	if isJSONContentType(in.ContentType) {
		var doc interface{}
		if err := json.Unmarshal(in.Body, &doc); err != nil {
			return Attempt{}
		}
		docs = append(docs, doc)
	} else {
		docs = extractJSONLDBlocks(in.Body)
	}

	var nodes []map[string]interface{}
	for _, doc := range docs {
		nodes = append(nodes, collectRecipeNodes(doc)...)
	}
	if len(nodes) == 0 {
		return Attempt{}
	}

	// Try each node in document order; the first that builds into a
	// complete envelope wins. If none completes, report the first
	// node's gaps so the caller sees a precise missing-field list.
	var firstMissing []string
	for i, node := range nodes {
		partial := mapRecipeNode(node)
		env, missing := recipe.BuildEnvelope(partial, in.SourceURL)
		if env != nil {
			s.logger.Debug("structured data extraction succeeded",
				zap.String("url", in.SourceURL),
				zap.Int("node_index", i),
			)
			return Attempt{Envelope: env}
		}
		if i == 0 {
			firstMissing = missing
		}
	}
	return Attempt{MissingFields: firstMissing}
}

// isJSONContentType reports whether the fetched document is itself a
// JSON or JSON-LD payload rather than HTML.
func isJSONContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType == "application/json" || mediaType == "application/ld+json"
}

var htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

// extractJSONLDBlocks finds every ld+json script block in the page and
// parses each one independently; a page may embed several.
func extractJSONLDBlocks(body []byte) []interface{} {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []interface{}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := htmlCommentRe.ReplaceAllString(sel.Text(), "")
		var parsed interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}
		out = append(out, parsed)
	})
	return out
}

// collectRecipeNodes recursively expands @graph containers and arrays,
// returning every node whose @type qualifies as a schema.org Recipe.
func collectRecipeNodes(doc interface{}) []map[string]interface{} {
	var nodes []map[string]interface{}

	switch v := doc.(type) {
	case []interface{}:
		for _, item := range v {
			nodes = append(nodes, collectRecipeNodes(item)...)
		}
	case map[string]interface{}:
		if isRecipeType(v["@type"]) {
			nodes = append(nodes, v)
		}
		if graph, ok := v["@graph"]; ok {
			nodes = append(nodes, collectRecipeNodes(graph)...)
		}
	}
	return nodes
}

// isRecipeType matches @type values that equal, or namespace-qualify
// as, "Recipe" (e.g. "schema:Recipe", "https://schema.org/Recipe").
func isRecipeType(typeVal interface{}) bool {
	check := func(t string) bool {
		t = strings.ToLower(strings.TrimSpace(t))
		return t == "recipe" ||
			strings.HasSuffix(t, "/recipe") ||
			strings.HasSuffix(t, ":recipe") ||
			strings.HasSuffix(t, "#recipe")
	}

	switch v := typeVal.(type) {
	case string:
		return check(v)
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok && check(s) {
				return true
			}
		}
	}
	return false
}

// mapRecipeNode maps one schema.org Recipe node to partial data.
func mapRecipeNode(node map[string]interface{}) *recipe.PartialRecipeData {
	partial := &recipe.PartialRecipeData{}

	partial.Title = firstString(node["name"], node["headline"])
	partial.Description = firstString(node["description"])
	partial.Servings = parseLeadingInt(node["recipeYield"])
	partial.PrepTimeMinutes = parseDurationMinutes(node["prepTime"])
	partial.CookTimeMinutes = parseDurationMinutes(node["cookTime"])

	if nutrition, ok := node["nutrition"].(map[string]interface{}); ok {
		partial.Calories = parseLeadingInt(nutrition["calories"])
	}

	partial.Ingredients = stringList(node["recipeIngredient"])
	if len(partial.Ingredients) == 0 {
		partial.Ingredients = stringList(node["ingredients"])
	}

	partial.Steps = parseInstructions(node["recipeInstructions"])

	partial.Cuisine = firstString(node["recipeCuisine"], node["cuisine"])
	partial.Tags = tagCandidates(node["keywords"], node["recipeCategory"])
	partial.DietaryLabels = dietCandidates(node["suitableForDiet"])
	partial.ImageURL = extractImageURL(node["image"])
	if partial.ImageURL == "" {
		partial.ImageURL = extractImageURL(node["thumbnailUrl"])
	}
	partial.AuthorName = personName(node["author"])
	if attribution := personName(node["publisher"]); attribution != "" {
		partial.Attribution = attribution
	} else {
		partial.Attribution = partial.AuthorName
	}

	return partial
}

// parseInstructions handles the instruction shapes seen in the wild:
// a plain string, an array of strings, HowToStep objects, and
// HowToSection objects nesting itemListElement lists.
func parseInstructions(v interface{}) []string {
	var steps []string

	var walk func(item interface{})
	walk = func(item interface{}) {
		switch s := item.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				steps = append(steps, t)
			}
		case []interface{}:
			for _, it := range s {
				walk(it)
			}
		case map[string]interface{}:
			if elements, ok := s["itemListElement"]; ok {
				walk(elements)
				return
			}
			if text := firstString(s["text"], s["name"]); text != "" {
				steps = append(steps, text)
			}
		}
	}

	if single, ok := v.(string); ok {
		// a single long string without newlines is split into sentences
		if strings.Contains(single, "\n") {
			for _, line := range strings.Split(single, "\n") {
				if t := strings.TrimSpace(line); t != "" {
					steps = append(steps, t)
				}
			}
		} else {
			steps = splitSentences(single)
		}
		return steps
	}

	walk(v)
	return steps
}

var sentenceBoundaryRe = regexp.MustCompile(`(?:[.!?])\s+`)

// splitSentences splits prose into sentences, keeping the terminal
// punctuation on each sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	bounds := sentenceBoundaryRe.FindAllStringIndex(text, -1)
	var out []string
	prev := 0
	for _, b := range bounds {
		sentence := strings.TrimSpace(text[prev : b[0]+1])
		if sentence != "" {
			out = append(out, sentence)
		}
		prev = b[1]
	}
	if rest := strings.TrimSpace(text[prev:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// tagCandidates merges keywords and recipeCategory into tag inputs. A
// lone comma-joined keyword string is split into parts.
func tagCandidates(keywords, category interface{}) []string {
	var out []string

	appendSplit := func(s string) {
		if strings.Contains(s, ",") {
			for _, part := range strings.Split(s, ",") {
				if t := strings.TrimSpace(part); t != "" {
					out = append(out, t)
				}
			}
		} else if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}

	for _, v := range []interface{}{keywords, category} {
		switch s := v.(type) {
		case string:
			appendSplit(s)
		case []interface{}:
			for _, item := range s {
				if str, ok := item.(string); ok {
					appendSplit(str)
				}
			}
		}
	}
	return out
}

// dietCandidates flattens suitableForDiet values, stripping schema.org
// URL prefixes and the "Diet" suffix so the normalizer sees bare labels.
func dietCandidates(v interface{}) []string {
	var out []string

	clean := func(s string) {
		s = strings.TrimSpace(s)
		if i := strings.LastIndexAny(s, "/#:"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(s, "Diet")
		if s != "" {
			out = append(out, s)
		}
	}

	switch s := v.(type) {
	case string:
		clean(s)
	case []interface{}:
		for _, item := range s {
			if str, ok := item.(string); ok {
				clean(str)
			}
		}
	}
	return out
}

// extractImageURL handles string, array and ImageObject image shapes.
func extractImageURL(v interface{}) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case []interface{}:
		if len(img) > 0 {
			return extractImageURL(img[0])
		}
	case map[string]interface{}:
		if u := firstString(img["url"], img["contentUrl"]); u != "" {
			return u
		}
		if nested, ok := img["image"]; ok {
			return extractImageURL(nested)
		}
	}
	return ""
}

// personName extracts a name from author/publisher shapes.
func personName(v interface{}) string {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case []interface{}:
		if len(p) > 0 {
			return personName(p[0])
		}
	case map[string]interface{}:
		return firstString(p["name"])
	}
	return ""
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		switch s := v.(type) {
		case string:
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		case []interface{}:
			if len(s) > 0 {
				if nested := firstString(s[0]); nested != "" {
					return nested
				}
			}
		}
	}
	return ""
}

func stringList(v interface{}) []string {
	var out []string
	switch s := v.(type) {
	case string:
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	case []interface{}:
		for _, item := range s {
			if str, ok := item.(string); ok {
				if t := strings.TrimSpace(str); t != "" {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

var leadingIntRe = regexp.MustCompile(`\d+`)

// parseLeadingInt pulls the first integer out of a string, array or
// number value ("4 servings" yields 4).
func parseLeadingInt(v interface{}) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		if m := leadingIntRe.FindString(n); m != "" {
			if i, err := strconv.Atoi(m); err == nil {
				return &i
			}
		}
	case []interface{}:
		for _, item := range n {
			if parsed := parseLeadingInt(item); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}

var isoDurationRe = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseDurationMinutes accepts an ISO-8601 duration ("PT15M") or a
// plain number of minutes.
func parseDurationMinutes(v interface{}) *int {
	switch d := v.(type) {
	case float64:
		i := int(d)
		if i < 0 {
			return nil
		}
		return &i
	case string:
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			return nil
		}
		if m := isoDurationRe.FindStringSubmatch(trimmed); m != nil {
			days, _ := strconv.Atoi(zeroIfEmpty(m[1]))
			hours, _ := strconv.Atoi(zeroIfEmpty(m[2]))
			minutes, _ := strconv.Atoi(zeroIfEmpty(m[3]))
			seconds, _ := strconv.ParseFloat(zeroIfEmpty(m[4]), 64)

			total := days*24*60 + hours*60 + minutes
			if total == 0 && seconds > 0 {
				total = 1
			}
			return &total
		}
		if i, err := strconv.Atoi(trimmed); err == nil && i >= 0 {
			return &i
		}
	}
	return nil
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
