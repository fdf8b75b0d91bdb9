package clipper

import (
	"context"
	"fmt"
)

// ExtractionService turns URLs into articles.
// Neither method returns an error for extraction failures: a result with
// Success set to false is the normal way to report them.
type ExtractionService interface {
	Extract(ctx context.Context, url string) *ExtractionResult
	ExtractMarkdown(ctx context.Context, url string) *MarkdownResult
}

// ProxyResponse is a proxied body ready to be written to a client.
type ProxyResponse struct {
	Body        []byte
	ContentType string
	FinalURL    string
	Strategy    string
	Cached      bool
}

// ProxyService fetches third-party pages and images on behalf of a frontend.
type ProxyService interface {
	// FetchPage returns the page body, rewritten for iframe display when it
	// is HTML. Returns *ProxyError when every identity failed.
	FetchPage(ctx context.Context, url string) (*ProxyResponse, error)

	// FetchImage returns image bytes. Returns EINVALID for data: URLs and
	// *ProxyError when every identity failed.
	FetchImage(ctx context.Context, url string) (*ProxyResponse, error)
}

// CacheService reports on and clears the process caches.
type CacheService interface {
	CacheStats() CacheStats
	ClearCaches(ctx context.Context) ClearResult
}

// ProxyError is the actionable failure returned by the proxy endpoints.
type ProxyError struct {
	Message     string   `json:"message"`
	URL         string   `json:"url"`
	LastError   string   `json:"lastError"`
	Attempts    int      `json:"attempts"`
	Suggestions []string `json:"suggestions"`
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("%s (%d attempts): %s", e.Message, e.Attempts, e.LastError)
}
