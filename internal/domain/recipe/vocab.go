package recipe

import (
	"regexp"
	"strings"
)

// Canonical vocabularies. These are the only values that may appear on
// a stored recipe; free-text extracted values must pass through the
// Normalize functions below and unmapped values are dropped, never
// invented. The persistence check constraints enforce the same lists.

// CanonicalCuisines is the closed set of cuisine values.
var CanonicalCuisines = []string{
	"italian",
	"french",
	"spanish",
	"greek",
	"mediterranean",
	"middle_eastern",
	"indian",
	"thai",
	"vietnamese",
	"chinese",
	"japanese",
	"korean",
	"mexican",
	"caribbean",
	"american",
	"african",
	"other",
}

// CanonicalDietaryLabels is the closed set of dietary label values.
var CanonicalDietaryLabels = []string{
	"vegetarian",
	"vegan",
	"pescatarian",
	"gluten_free",
	"dairy_free",
	"nut_free",
	"low_carb",
	"keto",
	"paleo",
	"halal",
	"kosher",
}

// CanonicalTags is the closed set of recipe tags.
var CanonicalTags = []string{
	"breakfast",
	"lunch",
	"dinner",
	"dessert",
	"snack",
	"appetizer",
	"side_dish",
	"main_course",
	"soup",
	"salad",
	"baking",
	"grilling",
	"one_pot",
	"slow_cooker",
	"quick",
	"easy",
	"healthy",
	"comfort_food",
	"spicy",
	"kid_friendly",
	"budget",
	"high_protein",
	"low_calorie",
	"holiday",
	"drink",
}

// vocabRule maps a free-text pattern to a canonical value. Rules are
// evaluated in order, first match wins.
type vocabRule struct {
	pattern   *regexp.Regexp
	canonical string
}

func rule(pattern, canonical string) vocabRule {
	return vocabRule{pattern: regexp.MustCompile(pattern), canonical: canonical}
}

// Exact canonical values always map to themselves before the synonym
// rules run, which makes normalization idempotent by construction.

var cuisineRules = []vocabRule{
	rule(`italy|italian|tuscan|sicilian|pasta|pizza`, "italian"),
	rule(`france|french|provencal|proven[çc]al`, "french"),
	rule(`spain|spanish|tapas|basque|catalan`, "spanish"),
	rule(`greek|greece`, "greek"),
	rule(`mediterranean`, "mediterranean"),
	rule(`middle.?east|lebanese|persian|iranian|turkish|israeli|moroccan`, "middle_eastern"),
	rule(`india|indian|punjabi|curry`, "indian"),
	rule(`thai|thailand`, "thai"),
	rule(`vietnam`, "vietnamese"),
	rule(`china|chinese|cantonese|sichuan|szechuan`, "chinese"),
	rule(`japan|japanese|sushi|ramen`, "japanese"),
	rule(`korea|korean`, "korean"),
	rule(`mexic|tex.?mex|latin`, "mexican"),
	rule(`caribbean|jamaican|cuban|creole|cajun`, "caribbean"),
	rule(`america|usa|southern|bbq|barbecue`, "american"),
	rule(`africa|ethiopian|nigerian`, "african"),
	rule(`fusion|international|world`, "other"),
}

var dietaryRules = []vocabRule{
	// vegan before vegetarian so "vegan" never downgrades
	rule(`vegan|plant.?based`, "vegan"),
	rule(`vegetarian|veggie|meatless|ovo|lacto`, "vegetarian"),
	rule(`pescatarian|pescetarian`, "pescatarian"),
	rule(`gluten.?free|coeliac|celiac`, "gluten_free"),
	rule(`dairy.?free|lactose.?free|non.?dairy`, "dairy_free"),
	rule(`nut.?free|peanut.?free`, "nut_free"),
	rule(`keto|ketogenic`, "keto"),
	rule(`low.?carb`, "low_carb"),
	rule(`paleo|caveman|whole.?30`, "paleo"),
	rule(`halal`, "halal"),
	rule(`kosher`, "kosher"),
}

var tagRules = []vocabRule{
	rule(`breakfast|brunch|morning`, "breakfast"),
	rule(`lunch|midday`, "lunch"),
	rule(`dinner|supper|evening meal`, "dinner"),
	rule(`dessert|sweet|cake|cookie|pudding`, "dessert"),
	rule(`snack`, "snack"),
	rule(`appetizer|starter|hors`, "appetizer"),
	rule(`side`, "side_dish"),
	rule(`main.?(course|dish)|entree|entr[ée]e`, "main_course"),
	rule(`soup|stew|broth|chowder`, "soup"),
	rule(`salad`, "salad"),
	rule(`bak(e|ing|ed)|bread|pastry`, "baking"),
	rule(`grill|barbecue|bbq`, "grilling"),
	rule(`one.?(pot|pan)|sheet.?pan|skillet`, "one_pot"),
	rule(`slow.?cook|crock.?pot|instant.?pot`, "slow_cooker"),
	rule(`quick|fast|[0-9]+.?minute|weeknight`, "quick"),
	rule(`easy|simple|beginner`, "easy"),
	rule(`healthy|nutritious|light|clean`, "healthy"),
	rule(`comfort`, "comfort_food"),
	rule(`spicy|hot|chil[il]`, "spicy"),
	rule(`kid|child|family`, "kid_friendly"),
	rule(`budget|cheap|frugal|affordable`, "budget"),
	rule(`protein`, "high_protein"),
	rule(`low.?cal`, "low_calorie"),
	rule(`holiday|christmas|thanksgiving|easter|festive`, "holiday"),
	rule(`drink|beverage|smoothie|cocktail|juice`, "drink"),
}

var (
	cuisineSet = toSet(CanonicalCuisines)
	dietarySet = toSet(CanonicalDietaryLabels)
	tagSet     = toSet(CanonicalTags)
)

func toSet(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func normalizeLabel(raw string, set map[string]struct{}, rules []vocabRule) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}
	if _, ok := set[cleaned]; ok {
		return cleaned, true
	}
	// canonical values use underscores; tolerate spaces and hyphens
	joined := strings.NewReplacer(" ", "_", "-", "_").Replace(cleaned)
	if _, ok := set[joined]; ok {
		return joined, true
	}
	for _, r := range rules {
		if r.pattern.MatchString(cleaned) {
			return r.canonical, true
		}
	}
	return "", false
}

// NormalizeCuisine maps a free-text cuisine to a canonical value.
// Returns false when no rule matches; callers must drop the value.
func NormalizeCuisine(raw string) (string, bool) {
	return normalizeLabel(raw, cuisineSet, cuisineRules)
}

// NormalizeDietaryLabel maps a free-text dietary label to a canonical value.
func NormalizeDietaryLabel(raw string) (string, bool) {
	return normalizeLabel(raw, dietarySet, dietaryRules)
}

// NormalizeTag maps a free-text tag to a canonical value.
func NormalizeTag(raw string) (string, bool) {
	return normalizeLabel(raw, tagSet, tagRules)
}

// NormalizeTags maps a list of free-text tags to canonical values,
// dropping unmapped entries and deduplicating while preserving the
// order of first appearance.
func NormalizeTags(raw []string) []string {
	return normalizeList(raw, NormalizeTag)
}

// NormalizeDietaryLabels maps a list of free-text dietary labels to
// canonical values, dropping unmapped entries and deduplicating.
func NormalizeDietaryLabels(raw []string) []string {
	return normalizeList(raw, NormalizeDietaryLabel)
}

func normalizeList(raw []string, normalize func(string) (string, bool)) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range raw {
		canonical, ok := normalize(r)
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

// IsCanonicalCuisine reports whether v is a member of the cuisine vocabulary.
func IsCanonicalCuisine(v string) bool {
	_, ok := cuisineSet[v]
	return ok
}

// IsCanonicalDietaryLabel reports whether v is a member of the dietary vocabulary.
func IsCanonicalDietaryLabel(v string) bool {
	_, ok := dietarySet[v]
	return ok
}

// IsCanonicalTag reports whether v is a member of the tag vocabulary.
func IsCanonicalTag(v string) bool {
	_, ok := tagSet[v]
	return ok
}
