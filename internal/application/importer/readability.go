package importer

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// readabilityStrategy runs a generic readable-content extraction over
// the page and mines the resulting plain text for labeled sections.
type readabilityStrategy struct {
	logger *zap.Logger
}

// NewReadabilityStrategy creates the readable-content extraction tier.
func NewReadabilityStrategy(logger *zap.Logger) Strategy {
	return &readabilityStrategy{logger: logger}
}

func (s *readabilityStrategy) Name() string { return StrategyReadability }

func (s *readabilityStrategy) Applies(in *Input) bool {
	return !isJSONContentType(in.ContentType)
}

func (s *readabilityStrategy) Extract(ctx context.Context, in *Input) Attempt {
	pageURL, err := url.Parse(in.SourceURL)
	if err != nil {
		return Attempt{}
	}

	article, err := readability.FromReader(bytes.NewReader(in.Body), pageURL)
	if err != nil {
		s.logger.Debug("readability extraction failed",
			zap.String("url", in.SourceURL),
			zap.Error(err),
		)
		return Attempt{}
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Attempt{}
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = documentTitle(in.Body)
	}

	attempt := mineTextSections(text, in.SourceURL, minerHints{
		TitleHint:  title,
		AuthorName: strings.TrimSpace(article.Byline),
	})
	attempt.Text = text
	return attempt
}

// documentTitle returns the page's og:title meta value, else <title>.
func documentTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
