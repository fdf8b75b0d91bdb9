package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clipper"
)

var _ clipper.Extractor = (*SelectorExtractor)(nil)

// ContentSelectors are the article containers tried in order.
var ContentSelectors = []string{
	"article",
	"[role=main]",
	"main",
	"#article-body",
	"[class*=article-body]",
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"#content",
}

// AMPSelectors are the containers tried on AMP documents.
var AMPSelectors = []string{
	"article",
	"main",
	"#article-body",
}

// disruptive elements are removed before selectors are matched.
const disruptive = "script, style, nav, header, footer, aside, noscript, form, iframe"

// SelectorExtractor returns the first element matching an ordered list of
// selectors whose text is longer than a minimum.
type SelectorExtractor struct {
	selectors []string
	minText   int
}

// NewSelectorExtractor creates an extractor over selectors. A minText of
// zero uses the configured default.
func NewSelectorExtractor(minText int, selectors ...string) *SelectorExtractor {
	if minText <= 0 {
		minText = clipper.DefaultConfig().MinNodeTextLength
	}
	if len(selectors) == 0 {
		selectors = ContentSelectors
	}
	return &SelectorExtractor{selectors: selectors, minText: minText}
}

// Extract returns the outer HTML of the first sufficiently long match.
func (e *SelectorExtractor) Extract(html string, baseURL string) (*clipper.ArticleDraft, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	title := firstNonEmpty(firstText(doc, "title"), firstText(doc, "h1"))
	doc.Find(disruptive).Remove()

	for _, selector := range e.selectors {
		var draft *clipper.ArticleDraft
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := normalizeSpace(s.Text())
			if len([]rune(text)) <= e.minText {
				return true
			}
			content, err := goquery.OuterHtml(s)
			if err != nil {
				return true
			}
			draft = &clipper.ArticleDraft{
				Title:       title,
				ContentHTML: content,
				TextContent: text,
			}
			return false
		})
		if draft != nil {
			return draft, nil
		}
	}
	return nil, clipper.Errorf(clipper.ENOTFOUND, "no content selector matched")
}

var _ clipper.AMPLocator = (*AMPLocator)(nil)

// AMPLocator finds the AMP version a document declares.
type AMPLocator struct{}

// NewAMPLocator creates a new AMPLocator.
func NewAMPLocator() *AMPLocator {
	return &AMPLocator{}
}

// LocateAMP checks link[rel=amphtml] then meta[name=amphtml].
func (l *AMPLocator) LocateAMP(html string, baseURL string) (string, bool) {
	doc, err := parse(html)
	if err != nil {
		return "", false
	}
	ref := firstNonEmpty(
		attr(doc.Find(`link[rel="amphtml"]`), "href"),
		metaContent(doc, `meta[name="amphtml"]`),
	)
	if ref == "" || isSpecialURL(ref) {
		return "", false
	}
	abs := resolve(parseBase(baseURL), ref)
	if !strings.HasPrefix(abs, "http://") && !strings.HasPrefix(abs, "https://") {
		return "", false
	}
	return abs, true
}
