// Package goquery implements the HTML-walking parts of clipper on top of
// PuerkitoBio/goquery: metadata, selector and structured-data extraction,
// AMP discovery, sanitizing and proxy rewriting.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clipper"
)

func parse(html string) (*goquery.Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, clipper.Errorf(clipper.EINVALID, "empty HTML input")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, clipper.Errorf(clipper.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// parseBase returns nil when baseURL is empty or not absolute.
func parseBase(baseURL string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// isSpecialURL reports references that are never resolved.
func isSpecialURL(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "tel:") ||
		strings.HasPrefix(ref, "data:")
}

func isJavaScriptURL(ref string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "javascript:")
}

func isDataURL(ref string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "data:")
}

// resolve makes ref absolute against base. Special references, and
// anything when base is nil, are returned unchanged.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil || isSpecialURL(ref) {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// attr returns the trimmed value of the first element in sel with a
// non-empty value for name.
func attr(sel *goquery.Selection, name string) string {
	var value string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
			value = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return value
}

// metaContent returns the content of the first <meta> matching any of
// selectors, tried in order.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, s := range selectors {
		if v := attr(doc.Find(s), "content"); v != "" {
			return v
		}
	}
	return ""
}

func firstText(doc *goquery.Document, selector string) string {
	return normalizeSpace(doc.Find(selector).First().Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// bodyHTML renders the children of <body>, the form fragments come back in.
func bodyHTML(doc *goquery.Document) (string, error) {
	html, err := doc.Find("body").Html()
	if err != nil {
		return "", clipper.Errorf(clipper.EINTERNAL, "failed to render HTML: %v", err)
	}
	return strings.TrimSpace(html), nil
}
