package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
)

const stewText = `# Grandma's Stew

A rich stew for cold evenings.

Ingredients:
- 500g beef
- 2 carrots
- 1 onion

Instructions:
1. Brown the beef in a heavy pot.
2. Add the vegetables.
3. Simmer for two hours.

Notes:
Freezes well.`

func TestMineTextSections_CompleteRecipe(t *testing.T) {
	attempt := mineTextSections(stewText, "https://example.com/stew", minerHints{})

	require.True(t, attempt.Succeeded())
	env := attempt.Envelope
	assert.Equal(t, "Grandma's Stew", env.Title, "title comes from the markdown heading")
	require.Len(t, env.Ingredients, 3)
	assert.Equal(t, "500g beef", env.Ingredients[0].RawText)
	require.Len(t, env.Steps, 3)
	assert.Equal(t, "Brown the beef in a heavy pot.", env.Steps[0].Instruction)
	assert.Equal(t, "Simmer for two hours.", env.Steps[2].Instruction)
}

func TestMineTextSections_TitleHintWins(t *testing.T) {
	attempt := mineTextSections(stewText, "https://example.com/stew", minerHints{
		TitleHint: "Sunday Stew",
	})

	require.True(t, attempt.Succeeded())
	assert.Equal(t, "Sunday Stew", attempt.Envelope.Title)
}

func TestMineTextSections_HintsFlowIntoMetadata(t *testing.T) {
	attempt := mineTextSections(stewText, "https://example.com/stew", minerHints{
		AuthorName:  "Grandma",
		Attribution: "example.com",
	})

	require.True(t, attempt.Succeeded())
	assert.Equal(t, "Grandma", attempt.Envelope.Metadata["author_name"])
	assert.Equal(t, "example.com", attempt.Envelope.Metadata["attribution"])
}

func TestMineTextSections_StepSynonyms(t *testing.T) {
	for _, label := range []string{"Instructions", "Directions", "Method", "Preparation", "Steps"} {
		t.Run(label, func(t *testing.T) {
			text := "Pancakes\n\nIngredients:\n- flour\n- milk\n\n" + label + ":\n1. Mix.\n2. Fry."

			attempt := mineTextSections(text, "https://example.com", minerHints{})

			require.True(t, attempt.Succeeded(), "label %q should open the step section", label)
			assert.Len(t, attempt.Envelope.Steps, 2)
		})
	}
}

func TestMineTextSections_BlankLineClosesSection(t *testing.T) {
	text := `Soup

Ingredients:
- water
- salt

This paragraph is not an ingredient.

Steps:
1. Boil.`

	attempt := mineTextSections(text, "https://example.com", minerHints{})

	require.True(t, attempt.Succeeded())
	require.Len(t, attempt.Envelope.Ingredients, 2)
	assert.Equal(t, "salt", attempt.Envelope.Ingredients[1].RawText)
}

func TestMineTextSections_StopWordClosesSection(t *testing.T) {
	text := "Bread\n\nIngredients:\n- flour\nNutrition:\n- 200 kcal\nSteps:\n1. Bake."

	attempt := mineTextSections(text, "https://example.com", minerHints{})

	require.True(t, attempt.Succeeded())
	require.Len(t, attempt.Envelope.Ingredients, 1)
	assert.Equal(t, "flour", attempt.Envelope.Ingredients[0].RawText)
}

func TestMineTextSections_MissingSectionsReported(t *testing.T) {
	attempt := mineTextSections("Just some prose about food.", "https://example.com", minerHints{})

	assert.False(t, attempt.Succeeded())
	assert.Equal(t, []string{recipe.FieldIngredients, recipe.FieldSteps}, attempt.MissingFields)
}

func TestMineTextSections_FirstLineTitleFallback(t *testing.T) {
	text := "Quick Omelette\nIngredients:\n- 2 eggs\nSteps:\n1. Whisk and fry."

	attempt := mineTextSections(text, "https://example.com", minerHints{})

	require.True(t, attempt.Succeeded())
	assert.Equal(t, "Quick Omelette", attempt.Envelope.Title)
}
