package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTMLToText(t *testing.T) {
	html := `<html><head>
<title>Pancakes</title>
<style>body { color: red; }</style>
<script>console.log("noise")</script>
</head><body>
<h1>Pancakes</h1>
<p>Fluffy &amp; light.</p>
<h2>Ingredients:</h2>
<ul><li>1 cup flour</li><li>1 egg</li></ul>
<h2>Steps:</h2>
<ol><li>Mix the batter.</li><li>Fry until golden.</li></ol>
</body></html>`

	text := htmlToText([]byte(html))

	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "<")
	assert.Contains(t, text, "Fluffy & light.")
	assert.Contains(t, text, "1 cup flour\n")
	assert.Contains(t, text, "Mix the batter.\n")
}

func TestHTMLToText_CollapsesBlankRuns(t *testing.T) {
	text := htmlToText([]byte("<p>one</p><br><br><br><br><p>two</p>"))

	assert.NotContains(t, text, "\n\n\n")
}

func TestHeuristicStrategy_Extract(t *testing.T) {
	html := `<html><head><title>Grandma's Stew Recipe</title></head><body>
<h1>Grandma's Stew</h1>
<p>Ingredients:</p>
<ul><li>500g beef</li><li>2 carrots</li></ul>
<p>Directions:</p>
<ol><li>Brown the beef.</li><li>Simmer for two hours.</li></ol>
</body></html>`
	strat := NewHeuristicStrategy(zap.NewNop())
	in := &Input{
		Body:        []byte(html),
		SourceURL:   "https://example.com/stew",
		ContentType: "text/html",
	}

	attempt := strat.Extract(context.Background(), in)

	require.True(t, attempt.Succeeded())
	env := attempt.Envelope
	assert.Equal(t, "Grandma's Stew Recipe", env.Title, "title taken from the document title")
	require.Len(t, env.Ingredients, 2)
	assert.Equal(t, "500g beef", env.Ingredients[0].RawText)
	require.Len(t, env.Steps, 2)
}

func TestHeuristicStrategy_Extract_OGTitlePreferred(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Stew, The Real Name">
<title>Some Blog | Stew</title>
</head><body>
<p>Ingredients:</p><ul><li>beef</li></ul>
<p>Steps:</p><ol><li>Cook it.</li></ol>
</body></html>`
	strat := NewHeuristicStrategy(zap.NewNop())

	attempt := strat.Extract(context.Background(), &Input{
		Body:        []byte(html),
		SourceURL:   "https://example.com/stew",
		ContentType: "text/html",
	})

	require.True(t, attempt.Succeeded())
	assert.Equal(t, "Stew, The Real Name", attempt.Envelope.Title)
}

func TestHeuristicStrategy_Extract_NoSections(t *testing.T) {
	strat := NewHeuristicStrategy(zap.NewNop())

	attempt := strat.Extract(context.Background(), &Input{
		Body:        []byte("<html><body><p>Nothing about cooking.</p></body></html>"),
		SourceURL:   "https://example.com",
		ContentType: "text/html",
	})

	assert.False(t, attempt.Succeeded())
	assert.Contains(t, attempt.MissingFields, "ingredients")
	assert.Contains(t, attempt.MissingFields, "steps")
}

func TestHeuristicStrategy_Applies(t *testing.T) {
	strat := NewHeuristicStrategy(zap.NewNop())

	assert.True(t, strat.Applies(&Input{ContentType: "text/html"}))
	assert.False(t, strat.Applies(&Input{ContentType: "application/json"}))
	assert.False(t, strat.Applies(&Input{ContentType: "application/ld+json; charset=utf-8"}))
}
