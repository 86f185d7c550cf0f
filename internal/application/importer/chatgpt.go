package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// chatGPTStrategy recovers recipe text from ChatGPT share pages. Those
// pages embed their content as a sequence of streamed, JSON-string
// escaped chunks pushed through streamController.enqueue(...); the
// recipe lives somewhere inside the decoded string values.
type chatGPTStrategy struct {
	logger *zap.Logger
}

// NewChatGPTStrategy creates the conversation-share extraction tier.
func NewChatGPTStrategy(logger *zap.Logger) Strategy {
	return &chatGPTStrategy{logger: logger}
}

func (s *chatGPTStrategy) Name() string { return StrategyChatGPT }

// Applies matches known chat-share URL shapes only; every other page
// skips this tier entirely.
func (s *chatGPTStrategy) Applies(in *Input) bool {
	return IsShareURL(in.SourceURL)
}

// IsShareURL reports whether rawURL points at a ChatGPT share page.
func IsShareURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "chatgpt.com" && host != "chat.openai.com" &&
		!strings.HasSuffix(host, ".chatgpt.com") {
		return false
	}
	return strings.Contains(u.Path, "/share/")
}

func (s *chatGPTStrategy) Extract(ctx context.Context, in *Input) Attempt {
	chunks := extractStreamChunks(in.Body)
	if len(chunks) == 0 {
		return Attempt{}
	}

	candidates := DecodeStreamChunks(chunks)
	best := selectRecipeCandidate(candidates)
	if best == "" {
		return Attempt{}
	}

	title := deriveShareTitle(best)
	if title == "" {
		title = pageTitle(in.Body)
	}

	hostname := ""
	if u, err := url.Parse(in.SourceURL); err == nil {
		hostname = u.Hostname()
	}

	s.logger.Debug("recovered share text",
		zap.String("url", in.SourceURL),
		zap.Int("chunks", len(chunks)),
		zap.Int("candidate_len", len(best)),
	)

	attempt := mineTextSections(best, in.SourceURL, minerHints{
		TitleHint:   title,
		Attribution: hostname,
	})
	attempt.Text = best
	return attempt
}

var enqueueRe = regexp.MustCompile(`streamController\.enqueue\("((?:[^"\\]|\\.)*)"\)`)

// extractStreamChunks pulls the raw escaped chunk literals out of the
// share page's inline scripts.
func extractStreamChunks(body []byte) []string {
	matches := enqueueRe.FindAllSubmatch(body, -1)
	chunks := make([]string, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, string(m[1]))
	}
	return chunks
}

// DecodeStreamChunks turns raw escaped chunks into candidate text
// strings. Each chunk is JS-string unescaped; the result may be
// newline-delimited records prefixed with an id token, each carrying a
// JSON payload whose nested string values are mined recursively.
// The decoder is deliberately standalone so upstream format drift
// stays contained here.
func DecodeStreamChunks(chunks []string) []string {
	var candidates []string
	for _, chunk := range chunks {
		decoded := decodeJSString(chunk)
		for _, line := range strings.Split(decoded, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			payload := stripRecordID(line)
			var parsed interface{}
			if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
				candidates = append(candidates, mineStrings(parsed)...)
				continue
			}
			candidates = append(candidates, payload)
		}
	}
	return candidates
}

var recordIDRe = regexp.MustCompile(`^[0-9a-fA-F]{1,8}:`)

// stripRecordID removes a leading "1a:" style token from a streamed
// record line.
func stripRecordID(line string) string {
	if loc := recordIDRe.FindStringIndex(line); loc != nil {
		return line[loc[1]:]
	}
	return line
}

// mineStrings collects every string leaf in a decoded JSON value,
// walking arrays and objects and skipping non-string leaves.
func mineStrings(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) != "" {
			out = append(out, val)
		}
	case []interface{}:
		for _, item := range val {
			out = append(out, mineStrings(item)...)
		}
	case map[string]interface{}:
		for _, item := range val {
			out = append(out, mineStrings(item)...)
		}
	}
	return out
}

// decodeJSString interprets JavaScript string escapes, including
// \uXXXX sequences and surrogate pairs.
func decodeJSString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0':
			b.WriteByte(0)
		case 'u':
			r, consumed := decodeUnicodeEscape(s[i+1:])
			if consumed == 0 {
				b.WriteByte('u')
				break
			}
			b.WriteRune(r)
			i += consumed
		default:
			// \", \\, \/, \' and anything unrecognized decode to the
			// escaped character itself
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// decodeUnicodeEscape decodes the hex digits after "\u", pairing a
// high surrogate with a following "\uXXXX" low surrogate when present.
// It returns the rune and how many input bytes were consumed.
func decodeUnicodeEscape(s string) (rune, int) {
	if len(s) < 4 {
		return 0, 0
	}
	hi, ok := parseHex4(s[:4])
	if !ok {
		return 0, 0
	}
	if utf16.IsSurrogate(rune(hi)) && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		if lo, ok := parseHex4(s[6:10]); ok {
			if r := utf16.DecodeRune(rune(hi), rune(lo)); r != 0xFFFD {
				return r, 10
			}
		}
	}
	return rune(hi), 4
}

func parseHex4(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < 4; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | uint32(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | uint32(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | uint32(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}

// selectRecipeCandidate picks the most recipe-shaped decoded string:
// the longest one over 80 chars mentioning ingredients AND a step
// synonym, falling back to the longest mentioning either.
func selectRecipeCandidate(candidates []string) string {
	stepTerms := []string{"steps", "instructions", "directions"}

	var best, fallback string
	for _, c := range candidates {
		lower := strings.ToLower(c)
		hasIngredients := strings.Contains(lower, "ingredients")
		hasSteps := false
		for _, t := range stepTerms {
			if strings.Contains(lower, t) {
				hasSteps = true
				break
			}
		}

		if hasIngredients && hasSteps && len(c) > 80 && len(c) > len(best) {
			best = c
		}
		if (hasIngredients || hasSteps) && len(c) > len(fallback) {
			fallback = c
		}
	}
	if best != "" {
		return best
	}
	return fallback
}

// deriveShareTitle picks a title from the recovered text: the first
// markdown heading, else the first content line that is not itself a
// section label.
func deriveShareTitle(text string) string {
	var firstContent string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if firstContent == "" {
			lower := strings.ToLower(strings.TrimSuffix(line, ":"))
			if lower != "ingredients" && lower != "steps" && lower != "instructions" {
				firstContent = line
			}
		}
	}
	return firstContent
}

// pageTitle extracts the page <title>, stripping a "ChatGPT" prefix.
func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimPrefix(title, "ChatGPT -")
	title = strings.TrimPrefix(title, "ChatGPT –")
	title = strings.TrimPrefix(title, "ChatGPT")
	return strings.TrimSpace(title)
}
