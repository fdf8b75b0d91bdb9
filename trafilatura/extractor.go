// Package trafilatura implements the secondary clipper.Extractor with
// markusmobius/go-trafilatura.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/clipper"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements clipper.Extractor at compile time.
var _ clipper.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content with links and
// images kept.
func (e *Extractor) Extract(rawHTML string, baseURL string) (*clipper.ArticleDraft, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, clipper.Errorf(clipper.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
		IncludeLinks:   true,
		IncludeImages:  true,
	}
	if u, err := url.Parse(baseURL); err == nil && u.IsAbs() {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, clipper.Errorf(clipper.ENOTFOUND, "trafilatura: %v", err)
	}
	if result.ContentNode == nil {
		return nil, clipper.Errorf(clipper.ENOTFOUND, "trafilatura found no content")
	}

	contentHTML, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, err
	}

	draft := &clipper.ArticleDraft{
		Title:       strings.TrimSpace(result.Metadata.Title),
		ContentHTML: contentHTML,
		TextContent: strings.TrimSpace(result.ContentText),
		Meta: clipper.MetaInfo{
			Image:    result.Metadata.Image,
			SiteName: result.Metadata.Sitename,
			Author:   strings.TrimSpace(result.Metadata.Author),
		},
	}
	if draft.Meta.Author != "" {
		draft.Meta.Authors = []string{draft.Meta.Author}
	}
	if !result.Metadata.Date.IsZero() {
		draft.Meta.PublishDate = result.Metadata.Date.UTC().Format(time.RFC3339)
	}
	return draft, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", clipper.Errorf(clipper.EINTERNAL, "failed to render content: %v", err)
	}
	return buf.String(), nil
}
