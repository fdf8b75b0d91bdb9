package clipper

import "time"

// DefaultTitle is used when no title could be recovered from a page.
const DefaultTitle = "Untitled"

// ExtractionResult is the normalized article produced for a URL.
// A result with Success set to false is a valid outcome, not an error.
type ExtractionResult struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ReaderHTML  string    `json:"readerHtml"`
	Markdown    string    `json:"markdown"`
	MetaInfo    MetaInfo  `json:"metaInfo"`
	ExtractedAt time.Time `json:"extractedAt"`
	Success     bool      `json:"success"`

	// Strategy names the extraction strategy that produced the content.
	Strategy Strategy `json:"strategy,omitempty"`
}

// FailedResult returns the result reported when no strategy recovered content.
// Every string field is empty.
func FailedResult(now time.Time) *ExtractionResult {
	return &ExtractionResult{
		ExtractedAt: now.UTC(),
		Success:     false,
	}
}

// Clone returns a deep copy of the result so cached values are never shared.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	other := *r
	if r.MetaInfo.Authors != nil {
		other.MetaInfo.Authors = append([]string(nil), r.MetaInfo.Authors...)
	}
	return &other
}

// MetaInfo holds page metadata. All fields are optional.
type MetaInfo struct {
	Image        string   `json:"image,omitempty"`
	Favicon      string   `json:"favicon,omitempty"`
	SiteName     string   `json:"siteName,omitempty"`
	Author       string   `json:"author,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	PublishDate  string   `json:"publishDate,omitempty"`
	CanonicalURL string   `json:"canonicalUrl,omitempty"`
	WordCount    int      `json:"wordCount,omitempty"`
}

// Merge fills empty fields of m with values from other.
// Authors are unioned, preserving order of first appearance.
func (m *MetaInfo) Merge(other MetaInfo) {
	if m.Image == "" {
		m.Image = other.Image
	}
	if m.Favicon == "" {
		m.Favicon = other.Favicon
	}
	if m.SiteName == "" {
		m.SiteName = other.SiteName
	}
	if m.Author == "" {
		m.Author = other.Author
	}
	if m.PublishDate == "" {
		m.PublishDate = other.PublishDate
	}
	if m.CanonicalURL == "" {
		m.CanonicalURL = other.CanonicalURL
	}
	if m.WordCount == 0 {
		m.WordCount = other.WordCount
	}
	for _, a := range other.Authors {
		if !containsString(m.Authors, a) {
			m.Authors = append(m.Authors, a)
		}
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// MarkdownResult is the response of the Markdown-only extraction.
type MarkdownResult struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Markdown    string    `json:"markdown"`
	ExtractedAt time.Time `json:"extractedAt"`
	Success     bool      `json:"success"`

	// Reason explains a failed extraction. Empty on success.
	Reason string `json:"reason,omitempty"`
}

// Metadata is the page-level metadata read from the raw document head.
type Metadata struct {
	Title       string
	Description string
	MetaInfo
}

// ArticleDraft is the best-effort article produced by an Extractor.
type ArticleDraft struct {
	// Title is the article title, possibly empty.
	Title string

	// ContentHTML is the main content as an HTML fragment.
	ContentHTML string

	// TextContent is the plain text of ContentHTML. Extractors that
	// cannot compute it cheaply leave it empty.
	TextContent string

	// Meta carries any metadata the extractor found along the way.
	Meta MetaInfo
}

// Strategy identifies a step of the extraction cascade.
type Strategy string

// Extraction strategies in the order the pipeline tries them.
const (
	StrategyDirect         Strategy = "direct"
	StrategyRefetch        Strategy = "refetch"
	StrategySelectors      Strategy = "selectors"
	StrategyTrafilatura    Strategy = "trafilatura"
	StrategyStructuredData Strategy = "jsonld"
	StrategyAMP            Strategy = "amp"
	StrategyRender         Strategy = "render"
)
