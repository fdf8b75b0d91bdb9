package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/fwojciec/clipper"
)

var _ clipper.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor reads page metadata from a raw HTML document. Open
// Graph values come from go-opengraph; everything else, and whatever Open
// Graph lacks, from the document itself.
type MetadataExtractor struct{}

// NewMetadataExtractor creates a new MetadataExtractor.
func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

// ExtractMetadata applies the preference order for each field. Image,
// favicon and canonical URL are absolute against baseURL.
func (e *MetadataExtractor) ExtractMetadata(html string, baseURL string) (*clipper.Metadata, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	base := parseBase(baseURL)

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(html)); err != nil {
		og = opengraph.NewOpenGraph()
	}
	var ogImage string
	if len(og.Images) > 0 && og.Images[0] != nil {
		ogImage = og.Images[0].URL
	}

	m := &clipper.Metadata{
		Title: firstNonEmpty(
			normalizeSpace(og.Title),
			metaContent(doc, `meta[name="twitter:title"]`, `meta[property="twitter:title"]`),
			firstText(doc, "title"),
			firstText(doc, "h1"),
		),
		Description: firstNonEmpty(
			metaContent(doc, `meta[name="description"]`),
			strings.TrimSpace(og.Description),
			metaContent(doc, `meta[name="twitter:description"]`, `meta[property="twitter:description"]`),
		),
	}

	if img := firstNonEmpty(ogImage, metaContent(doc, `meta[name="twitter:image"]`, `meta[property="twitter:image"]`)); img != "" {
		m.Image = resolve(base, img)
	}

	m.Favicon = resolve(base, firstNonEmpty(
		attr(doc.Find(`link[rel="icon"]`), "href"),
		attr(doc.Find(`link[rel="shortcut icon"]`), "href"),
		attr(doc.Find(`link[rel="apple-touch-icon"]`), "href"),
	))
	if m.Favicon == "" && base != nil {
		m.Favicon = base.Scheme + "://" + base.Host + "/favicon.ico"
	}

	m.SiteName = strings.TrimSpace(og.SiteName)
	if m.SiteName == "" && base != nil {
		m.SiteName = base.Hostname()
	}

	articleAuthors := distinctContent(doc, `meta[property="article:author"]`)
	m.Author = firstNonEmpty(
		metaContent(doc, `meta[name="author"]`),
		firstOf(articleAuthors),
		normalizeSpace(doc.Find(`[rel="author"]`).First().Text()),
	)
	if m.Author != "" {
		m.Authors = append(m.Authors, m.Author)
	}
	for _, a := range articleAuthors {
		if a != m.Author {
			m.Authors = append(m.Authors, a)
		}
	}

	m.PublishDate = firstNonEmpty(
		metaContent(doc, `meta[property="article:published_time"]`, `meta[name="date"]`, `meta[itemprop="datePublished"]`),
		attr(doc.Find("time[datetime]"), "datetime"),
	)

	m.CanonicalURL = firstNonEmpty(
		resolve(base, attr(doc.Find(`link[rel="canonical"]`), "href")),
		resolve(base, strings.TrimSpace(og.URL)),
	)
	if m.CanonicalURL == "" && base != nil {
		m.CanonicalURL = base.String()
	}

	return m, nil
}

// distinctContent returns the distinct non-empty content values of
// matching meta elements in document order.
func distinctContent(doc *goquery.Document, selector string) []string {
	var values []string
	seen := make(map[string]bool)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		v := strings.TrimSpace(s.AttrOr("content", ""))
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	})
	return values
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
