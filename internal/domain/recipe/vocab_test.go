package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCuisine(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Italian", "italian", true},
		{"  ITALIAN  ", "italian", true},
		{"Tuscan", "italian", true},
		{"Tex-Mex", "mexican", true},
		{"middle eastern", "middle_eastern", true},
		{"Middle-Eastern", "middle_eastern", true},
		{"Lebanese", "middle_eastern", true},
		{"Szechuan", "chinese", true},
		{"fusion", "other", true},
		{"martian", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeCuisine(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCuisine_Idempotent(t *testing.T) {
	for _, canonical := range CanonicalCuisines {
		got, ok := NormalizeCuisine(canonical)
		require.True(t, ok, "canonical cuisine %q must map", canonical)
		assert.Equal(t, canonical, got)
	}
}

func TestNormalizeDietaryLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Vegan", "vegan", true},
		{"plant-based", "vegan", true},
		{"Veggie", "vegetarian", true},
		{"gluten-free", "gluten_free", true},
		{"Gluten Free", "gluten_free", true},
		{"coeliac", "gluten_free", true},
		{"Ketogenic", "keto", true},
		{"whole30", "paleo", true},
		{"carnivore", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeDietaryLabel(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDietaryLabel_VeganNeverDowngrades(t *testing.T) {
	// "vegan" matches the vegetarian synonyms too; order must keep it vegan.
	got, ok := NormalizeDietaryLabel("vegan")
	require.True(t, ok)
	assert.Equal(t, "vegan", got)
}

func TestNormalizeDietaryLabel_Idempotent(t *testing.T) {
	for _, canonical := range CanonicalDietaryLabels {
		got, ok := NormalizeDietaryLabel(canonical)
		require.True(t, ok, "canonical label %q must map", canonical)
		assert.Equal(t, canonical, got)
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Breakfast", "breakfast", true},
		{"brunch", "breakfast", true},
		{"30 minute meals", "quick", true},
		{"weeknight", "quick", true},
		{"crockpot", "slow_cooker", true},
		{"sheet pan", "one_pot", true},
		{"entrée", "main_course", true},
		{"comfort food", "comfort_food", true},
		{"thanksgiving", "holiday", true},
		{"smoothie", "drink", true},
		{"xyzzy", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeTag(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTag_Idempotent(t *testing.T) {
	for _, canonical := range CanonicalTags {
		got, ok := NormalizeTag(canonical)
		require.True(t, ok, "canonical tag %q must map", canonical)
		assert.Equal(t, canonical, got)
	}
}

func TestNormalizeTags_DropsAndDeduplicates(t *testing.T) {
	got := NormalizeTags([]string{"Brunch", "breakfast", "xyzzy", "Quick", "30-minute"})

	assert.Equal(t, []string{"breakfast", "quick"}, got)
}

func TestNormalizeTags_Empty(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags([]string{"nonsense"}))
}

func TestNormalizeDietaryLabels_PreservesOrder(t *testing.T) {
	got := NormalizeDietaryLabels([]string{"kosher", "plant based", "vegan", "unknown"})

	assert.Equal(t, []string{"kosher", "vegan"}, got)
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonicalCuisine("thai"))
	assert.False(t, IsCanonicalCuisine("Thai"))
	assert.True(t, IsCanonicalDietaryLabel("halal"))
	assert.False(t, IsCanonicalDietaryLabel("flexitarian"))
	assert.True(t, IsCanonicalTag("soup"))
	assert.False(t, IsCanonicalTag("soups"))
}
