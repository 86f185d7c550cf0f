package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsShareURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://chatgpt.com/share/abc123", true},
		{"https://chat.openai.com/share/abc123", true},
		{"https://www.chatgpt.com/share/abc123", true},
		{"https://chatgpt.com/c/abc123", false},
		{"https://example.com/share/abc123", false},
		{"https://notchatgpt.com/share/abc123", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsShareURL(tt.url), "url %s", tt.url)
	}
}

func TestChatGPTStrategy_Applies(t *testing.T) {
	strat := NewChatGPTStrategy(zap.NewNop())

	assert.True(t, strat.Applies(&Input{SourceURL: "https://chatgpt.com/share/abc"}))
	assert.False(t, strat.Applies(&Input{SourceURL: "https://example.com/recipe"}))
}

func TestDecodeJSString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain text`, "plain text"},
		{`line one\nline two`, "line one\nline two"},
		{`tab\there`, "tab\there"},
		{`say \"hi\"`, `say "hi"`},
		{`back\\slash`, `back\slash`},
		{`café`, "café"},
		{`emoji 🍜 soup`, "emoji 🍜 soup"},
		{`dangling\`, "dangling\\"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decodeJSString(tt.in), "input %q", tt.in)
	}
}

func TestDecodeStreamChunks(t *testing.T) {
	chunks := []string{
		`1a:{\"message\":\"# Ramen\\nIngredients:\\n- noodles\"}`,
		`2b:not json at all`,
	}

	candidates := DecodeStreamChunks(chunks)

	require.Len(t, candidates, 2)
	assert.Equal(t, "# Ramen\nIngredients:\n- noodles", candidates[0])
	assert.Equal(t, "not json at all", candidates[1])
}

func TestSelectRecipeCandidate(t *testing.T) {
	short := "Ingredients and instructions"
	full := "# Pad Thai\n\nIngredients:\n- rice noodles\n- tamarind paste\n\nInstructions:\n1. Soak the noodles.\n2. Stir-fry everything."
	noise := "Just some chatter about dinner plans."

	got := selectRecipeCandidate([]string{noise, short, full})

	assert.Equal(t, full, got)
}

func TestSelectRecipeCandidate_FallbackToPartialMatch(t *testing.T) {
	partial := "Ingredients: flour, water"

	got := selectRecipeCandidate([]string{"nothing here", partial})

	assert.Equal(t, partial, got)
}

func TestSelectRecipeCandidate_NoMatch(t *testing.T) {
	assert.Equal(t, "", selectRecipeCandidate([]string{"hello", "world"}))
}

func TestDeriveShareTitle(t *testing.T) {
	assert.Equal(t, "Pad Thai", deriveShareTitle("# Pad Thai\nIngredients:\n- noodles"))
	assert.Equal(t, "A lovely noodle dish", deriveShareTitle("Ingredients:\nA lovely noodle dish"))
	assert.Equal(t, "", deriveShareTitle(""))
}

func sharePageBody(recipeChunk string) []byte {
	return []byte(`<html><head><title>ChatGPT - Shared Ramen</title></head><body>
<script>streamController.enqueue("` + recipeChunk + `")</script>
</body></html>`)
}

func TestChatGPTStrategy_Extract(t *testing.T) {
	chunk := `1a:{\"content\":\"# Midnight Ramen\\n\\nIngredients:\\n- 1 pack noodles\\n- 2 cups broth\\n\\nInstructions:\\n1. Boil the broth.\\n2. Add the noodles and serve.\"}`
	strat := NewChatGPTStrategy(zap.NewNop())
	in := &Input{
		Body:      sharePageBody(chunk),
		SourceURL: "https://chatgpt.com/share/abc123",
	}

	attempt := strat.Extract(context.Background(), in)

	require.True(t, attempt.Succeeded())
	env := attempt.Envelope
	assert.Equal(t, "Midnight Ramen", env.Title)
	require.Len(t, env.Ingredients, 2)
	assert.Equal(t, "1 pack noodles", env.Ingredients[0].RawText)
	require.Len(t, env.Steps, 2)
	assert.Equal(t, "chatgpt.com", env.Metadata["attribution"])
	assert.NotEmpty(t, attempt.Text, "decoded share text feeds the AI fallback")
}

func TestChatGPTStrategy_Extract_NoChunks(t *testing.T) {
	strat := NewChatGPTStrategy(zap.NewNop())
	in := &Input{
		Body:      []byte(`<html><body>no scripts here</body></html>`),
		SourceURL: "https://chatgpt.com/share/abc123",
	}

	attempt := strat.Extract(context.Background(), in)

	assert.False(t, attempt.Succeeded())
	assert.Empty(t, attempt.MissingFields)
}

func TestChatGPTStrategy_Extract_IncompleteRecipe(t *testing.T) {
	chunk := `1a:{\"content\":\"Ingredients:\\n- just one thing\\n\\nno instructions were given, sorry\"}`
	strat := NewChatGPTStrategy(zap.NewNop())
	in := &Input{
		Body:      sharePageBody(chunk),
		SourceURL: "https://chatgpt.com/share/abc123",
	}

	attempt := strat.Extract(context.Background(), in)

	assert.False(t, attempt.Succeeded())
	assert.Contains(t, attempt.MissingFields, "steps")
}
