package clipper

// Extractor isolates the main content of an HTML page.
type Extractor interface {
	// Extract processes raw HTML and returns a best-effort article.
	// The baseURL resolves relative references. Implementations return
	// ENOTFOUND when the page holds nothing they recognize as content.
	Extract(html string, baseURL string) (*ArticleDraft, error)
}

// MetadataExtractor reads page-level metadata (Open Graph, Twitter cards,
// link relations) from a raw HTML document.
type MetadataExtractor interface {
	ExtractMetadata(html string, baseURL string) (*Metadata, error)
}

// AMPLocator finds the AMP version of a page.
type AMPLocator interface {
	// LocateAMP returns the AMP URL declared by the document.
	// The second return value is false when the document declares none.
	LocateAMP(html string, baseURL string) (string, bool)
}

// URLSet remembers URLs. Implementations may report false positives.
type URLSet interface {
	Add(url string)
	Test(url string) bool
}
