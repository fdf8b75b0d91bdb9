package goquery

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clipper"
)

var _ clipper.Extractor = (*StructuredDataExtractor)(nil)

// StructuredDataExtractor builds an article from schema.org JSON-LD blocks.
type StructuredDataExtractor struct{}

// NewStructuredDataExtractor creates a new StructuredDataExtractor.
func NewStructuredDataExtractor() *StructuredDataExtractor {
	return &StructuredDataExtractor{}
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Extract scans application/ld+json scripts for the first article-like
// item and synthesizes escaped HTML from its headline and body. Blocks
// that fail to parse are skipped.
func (e *StructuredDataExtractor) Extract(doc string, baseURL string) (*clipper.ArticleDraft, error) {
	d, err := parse(doc)
	if err != nil {
		return nil, err
	}

	var found map[string]any
	d.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		for _, item := range flatten(data) {
			if isArticle(item) && (str(item["headline"]) != "" || str(item["name"]) != "" || str(item["articleBody"]) != "") {
				found = item
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, clipper.Errorf(clipper.ENOTFOUND, "no article in structured data")
	}

	headline := firstNonEmpty(str(found["headline"]), str(found["name"]))
	body := str(found["articleBody"])

	var b strings.Builder
	var paragraphs []string
	b.WriteString("<article>")
	if headline != "" {
		b.WriteString("<h1>" + html.EscapeString(headline) + "</h1>")
	}
	b.WriteString("<div>")
	for _, p := range paragraphBreak.Split(body, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, p)
		b.WriteString("<p>" + html.EscapeString(p) + "</p>")
	}
	b.WriteString("</div></article>")

	base := parseBase(baseURL)
	meta := clipper.MetaInfo{
		Authors:     names(found["author"]),
		PublishDate: str(found["datePublished"]),
	}
	if len(meta.Authors) > 0 {
		meta.Author = meta.Authors[0]
	}
	if img := imageURL(found["image"]); img != "" {
		meta.Image = resolve(base, img)
	}
	if publisher, ok := found["publisher"].(map[string]any); ok {
		meta.SiteName = str(publisher["name"])
	}

	return &clipper.ArticleDraft{
		Title:       headline,
		ContentHTML: b.String(),
		TextContent: strings.Join(paragraphs, "\n\n"),
		Meta:        meta,
	}, nil
}

// flatten returns the objects of a JSON-LD value, descending into arrays
// and @graph containers.
func flatten(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{t}
		if graph, ok := t["@graph"]; ok {
			out = append(out, flatten(graph)...)
		}
		return out
	}
	return nil
}

// isArticle reports whether the item's @type mentions Article or the
// item carries article fields.
func isArticle(item map[string]any) bool {
	if _, ok := item["articleBody"]; ok {
		return true
	}
	if _, ok := item["headline"]; ok {
		return true
	}
	switch t := item["@type"].(type) {
	case string:
		return strings.Contains(t, "Article")
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.Contains(s, "Article") {
				return true
			}
		}
	}
	return false
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// names reads an author value: a string, an object with a name, or a list
// of either.
func names(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case map[string]any:
		if s := str(t["name"]); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			for _, n := range names(item) {
				if !contains(out, n) {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return str(t["url"])
	case []any:
		for _, item := range t {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
