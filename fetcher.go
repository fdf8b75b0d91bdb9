package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Identity is a browser-like persona used when fetching a URL.
type Identity struct {
	Name      string
	UserAgent string
}

// Known identities.
var (
	IdentityDesktopChrome = Identity{
		Name:      "desktop-chrome",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
	IdentityMobileSafari = Identity{
		Name:      "mobile-safari",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	}
	IdentityDesktopFirefox = Identity{
		Name:      "desktop-firefox",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	}
	IdentityGooglebot = Identity{
		Name:      "googlebot",
		UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	}
)

// DefaultIdentities returns the identities tried for documents, in order.
// The first one is used for the initial download; the rest are alternates.
func DefaultIdentities() []Identity {
	return []Identity{
		IdentityDesktopChrome,
		IdentityMobileSafari,
		IdentityDesktopFirefox,
		IdentityGooglebot,
	}
}

// ImageIdentities returns the identities tried for images, in order.
// Mobile Safari is accepted by the most image CDNs.
func ImageIdentities() []Identity {
	return []Identity{
		IdentityMobileSafari,
		IdentityDesktopChrome,
		IdentityDesktopFirefox,
		IdentityGooglebot,
	}
}

// FetchKind selects the header set and size policy for a fetch.
type FetchKind int

const (
	KindDocument FetchKind = iota
	KindImage
)

// FetchRequest describes a single fetch attempt.
type FetchRequest struct {
	URL      string
	Identity Identity
	Kind     FetchKind

	// Timeout bounds this attempt. Zero means the fetcher default.
	Timeout time.Duration
}

// FetchResult is a successful response.
type FetchResult struct {
	Body        []byte
	FinalURL    string
	ContentType string
	StatusCode  int
}

// Fetcher performs a single HTTP GET. Implementations follow redirects and
// classify failures as *FetchError. They never retry.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
}

// FetchOutcome classifies a fetch attempt.
type FetchOutcome string

// Fetch outcomes.
const (
	OutcomeSuccess   FetchOutcome = "success"
	OutcomeHTTPError FetchOutcome = "http_error"
	OutcomeTimeout   FetchOutcome = "timeout"
	OutcomeBlocked   FetchOutcome = "blocked"
	OutcomeTooSmall  FetchOutcome = "too_small"
	OutcomeNetwork   FetchOutcome = "network"
)

// FetchError is a classified fetch failure.
type FetchError struct {
	URL        string
	Outcome    FetchOutcome
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Outcome {
	case OutcomeHTTPError:
		return fmt.Sprintf("HTTP %d for %s: %s", e.StatusCode, e.URL, StatusSummary(e.StatusCode))
	case OutcomeTimeout:
		return fmt.Sprintf("timeout fetching %s", e.URL)
	case OutcomeBlocked:
		return fmt.Sprintf("blocked page returned for %s", e.URL)
	case OutcomeTooSmall:
		return fmt.Sprintf("response too small for %s", e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s failed", e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// OutcomeOf returns the outcome recorded in err.
// Unclassified errors are reported as OutcomeNetwork.
func OutcomeOf(err error) FetchOutcome {
	if err == nil {
		return OutcomeSuccess
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Outcome
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return OutcomeNetwork
}

// StatusSummary returns a short human explanation of an HTTP status.
func StatusSummary(code int) string {
	switch {
	case code == http.StatusForbidden:
		return "access forbidden, the site may block automated requests"
	case code == http.StatusNotFound:
		return "page not found"
	case code == http.StatusUnauthorized:
		return "authentication required"
	case code == http.StatusTooManyRequests:
		return "rate limited by the site"
	case code >= 500:
		return "server error on the remote site"
	}
	return "unexpected status"
}

// FetchAttempt records one try of a retry loop.
type FetchAttempt struct {
	Identity   Identity
	Timeout    time.Duration
	Outcome    FetchOutcome
	StatusCode int
	Err        string
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
