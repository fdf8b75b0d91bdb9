// Package readability implements the primary clipper.Extractor with
// go-shiori/go-readability.
package readability

import (
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/clipper"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements clipper.Extractor at compile time.
var _ clipper.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Relative
// references in the content resolve against baseURL.
func (e *Extractor) Extract(rawHTML string, baseURL string) (*clipper.ArticleDraft, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, clipper.Errorf(clipper.EINVALID, "empty HTML input")
	}

	var pageURL *url.URL
	if u, err := url.Parse(baseURL); err == nil && u.IsAbs() {
		pageURL = u
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, clipper.Errorf(clipper.ENOTFOUND, "readability: %v", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, clipper.Errorf(clipper.ENOTFOUND, "readability found no content")
	}

	draft := &clipper.ArticleDraft{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
		TextContent: strings.TrimSpace(article.TextContent),
		Meta: clipper.MetaInfo{
			Image:    article.Image,
			Favicon:  article.Favicon,
			SiteName: article.SiteName,
			Author:   strings.TrimSpace(article.Byline),
		},
	}
	if draft.Meta.Author != "" {
		draft.Meta.Authors = []string{draft.Meta.Author}
	}
	if article.PublishedTime != nil {
		draft.Meta.PublishDate = article.PublishedTime.UTC().Format(time.RFC3339)
	}
	return draft, nil
}
