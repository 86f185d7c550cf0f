package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Source type discriminators for RecipeEnvelope.Source.
const (
	SourceTypeURL    = "url"
	SourceTypeManual = "manual"
	SourceTypeAI     = "ai"
)

// Required envelope field names, as reported in missing-field errors.
const (
	FieldTitle       = "title"
	FieldIngredients = "ingredients"
	FieldSteps       = "steps"
)

// Sanitization caps applied while building an envelope.
const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxIngredientLen  = 500
	maxStepLen        = 2000
	maxLabelLen       = 50
	maxAttributionLen = 500
	maxAuthorLen      = 200
)

// EnvelopeIngredient is one ingredient line as extracted.
type EnvelopeIngredient struct {
	RawText string `json:"raw_text" validate:"required,max=500"`
}

// EnvelopeStep is one instruction step as extracted.
type EnvelopeStep struct {
	Instruction string `json:"instruction" validate:"required,max=2000"`
}

// EnvelopeMedia is one media attachment on an envelope.
type EnvelopeMedia struct {
	MediaType   string `json:"media_type" validate:"required,oneof=image video"`
	URL         string `json:"url" validate:"required,url"`
	Name        string `json:"name,omitempty" validate:"max=200"`
	IsGenerated bool   `json:"is_generated"`
}

// EnvelopeSource records where an envelope came from.
type EnvelopeSource struct {
	Type string `json:"type" validate:"required,oneof=url manual ai"`
	URL  string `json:"url,omitempty" validate:"omitempty,max=2048"`
}

// RecipeEnvelope is the canonical transfer representation of a recipe,
// independent of storage. It is constructed once per import attempt and
// immutable once returned. An envelope with an empty title, no
// ingredients, or no steps is invalid and is never returned as a success.
type RecipeEnvelope struct {
	Title           string               `json:"title" validate:"required,max=200"`
	Description     *string              `json:"description" validate:"omitempty,max=2000"`
	Servings        *int                 `json:"servings" validate:"omitempty,gte=0"`
	Calories        *int                 `json:"calories" validate:"omitempty,gte=0"`
	PrepTimeMinutes *int                 `json:"prep_time_minutes" validate:"omitempty,gte=0"`
	CookTimeMinutes *int                 `json:"cook_time_minutes" validate:"omitempty,gte=0"`
	Tags            []string             `json:"tags" validate:"dive,max=50"`
	Cuisine         *string              `json:"cuisine" validate:"omitempty,max=50"`
	DietaryLabels   []string             `json:"dietary_labels" validate:"dive,max=50"`
	Source          EnvelopeSource       `json:"source" validate:"required"`
	Ingredients     []EnvelopeIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Steps           []EnvelopeStep       `json:"steps" validate:"required,min=1,dive"`
	Media           []EnvelopeMedia      `json:"media" validate:"dive"`
	Metadata        map[string]string    `json:"metadata,omitempty"`
}

var envelopeValidator = validator.New()

// Validate checks the envelope against the full wire schema, including
// canonical vocabulary membership for tags, cuisine and dietary labels.
func (e *RecipeEnvelope) Validate() error {
	if err := envelopeValidator.Struct(e); err != nil {
		return err
	}
	for _, t := range e.Tags {
		if !IsCanonicalTag(t) {
			return fmt.Errorf("tag %q is not a canonical tag", t)
		}
	}
	if e.Cuisine != nil && !IsCanonicalCuisine(*e.Cuisine) {
		return fmt.Errorf("cuisine %q is not a canonical cuisine", *e.Cuisine)
	}
	for _, d := range e.DietaryLabels {
		if !IsCanonicalDietaryLabel(d) {
			return fmt.Errorf("dietary label %q is not a canonical label", d)
		}
	}
	return nil
}

// PartialRecipeData is the not-yet-validated accumulator each
// extraction strategy produces. Every field is optional; the envelope
// builder decides whether it amounts to a complete recipe.
type PartialRecipeData struct {
	Title           string
	Description     string
	Servings        *int
	Calories        *int
	PrepTimeMinutes *int
	CookTimeMinutes *int
	Tags            []string
	Cuisine         string
	DietaryLabels   []string
	Ingredients     []string
	Steps           []string
	ImageURL        string
	Attribution     string
	AuthorName      string
}

// MissingRequiredFields reports which of the three required fields are
// absent. Each field is checked independently so the caller always sees
// the full gap list, not just the first failure.
func (p *PartialRecipeData) MissingRequiredFields() []string {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if len(nonEmpty(p.Ingredients)) == 0 {
		missing = append(missing, FieldIngredients)
	}
	if len(nonEmpty(p.Steps)) == 0 {
		missing = append(missing, FieldSteps)
	}
	return missing
}

// BuildEnvelope promotes partial data to a validated RecipeEnvelope, or
// returns the list of required fields that are missing. It sanitizes
// lengths, strips bullet glyphs, and maps tags, cuisine and dietary
// labels through canonical normalization. A schema failure after
// sanitization is downgraded to a missing-fields result rather than
// surfaced as a raw validation error.
func BuildEnvelope(p *PartialRecipeData, sourceURL string) (*RecipeEnvelope, []string) {
	if missing := p.MissingRequiredFields(); len(missing) > 0 {
		return nil, missing
	}

	env := &RecipeEnvelope{
		Title:           truncate(strings.TrimSpace(p.Title), maxTitleLen),
		Servings:        nonNegative(p.Servings),
		Calories:        nonNegative(p.Calories),
		PrepTimeMinutes: nonNegative(p.PrepTimeMinutes),
		CookTimeMinutes: nonNegative(p.CookTimeMinutes),
		Tags:            truncateAll(NormalizeTags(p.Tags), maxLabelLen),
		DietaryLabels:   truncateAll(NormalizeDietaryLabels(p.DietaryLabels), maxLabelLen),
		Source:          EnvelopeSource{Type: SourceTypeURL, URL: sourceURL},
		Metadata:        map[string]string{},
	}

	if desc := strings.TrimSpace(p.Description); desc != "" {
		d := truncate(desc, maxDescriptionLen)
		env.Description = &d
	}
	if cuisine, ok := NormalizeCuisine(p.Cuisine); ok {
		c := truncate(cuisine, maxLabelLen)
		env.Cuisine = &c
	}

	for _, ing := range nonEmpty(p.Ingredients) {
		env.Ingredients = append(env.Ingredients, EnvelopeIngredient{
			RawText: truncate(stripBullet(ing), maxIngredientLen),
		})
	}
	for _, step := range nonEmpty(p.Steps) {
		env.Steps = append(env.Steps, EnvelopeStep{
			Instruction: truncate(stripBullet(step), maxStepLen),
		})
	}

	if p.ImageURL != "" {
		env.Media = append(env.Media, EnvelopeMedia{
			MediaType: "image",
			URL:       p.ImageURL,
			Name:      env.Title,
		})
	}

	if attribution := strings.TrimSpace(p.Attribution); attribution != "" {
		env.Metadata["attribution"] = truncate(attribution, maxAttributionLen)
	}
	if author := strings.TrimSpace(p.AuthorName); author != "" {
		env.Metadata["author_name"] = truncate(author, maxAuthorLen)
	}

	// Final gate: anything slipping past sanitization is reported as an
	// extraction gap, never as a raw schema error.
	if err := env.Validate(); err != nil {
		return nil, []string{FieldIngredients, FieldSteps}
	}
	return env, nil
}

// ErrEnvelopeIncomplete marks an envelope failing the completeness invariant.
var ErrEnvelopeIncomplete = errors.New("recipe envelope is incomplete")

func nonEmpty(items []string) []string {
	var out []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, strings.TrimSpace(it))
		}
	}
	return out
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := *v
	return &n
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func truncateAll(items []string, max int) []string {
	for i, it := range items {
		items[i] = truncate(it, max)
	}
	return items
}

var bulletGlyphs = "-*•·◦‣>–—"

// stripBullet removes a leading list marker such as "- ", "* ", "3." or
// "1)" from an extracted line.
func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimLeft(s, bulletGlyphs)
	if trimmed != s {
		return strings.TrimSpace(trimmed)
	}
	// numbered markers: digits followed by "." or ")"
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
