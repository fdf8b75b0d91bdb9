// Package http implements clipper.Fetcher over net/http and serves the
// clipper HTTP API.
package http

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/clipper"
)

// DefaultFetchTimeout is the default timeout for a single fetch.
const DefaultFetchTimeout = 30 * time.Second

// MaxRedirects is the number of redirects followed before giving up.
const MaxRedirects = 10

// blockedScanBytes bounds the body size the block-phrase heuristic applies to.
// Real articles are larger and routinely mention the phrases.
const blockedScanBytes = 4096

var blockPhrases = []string{"access denied", "forbidden", "blocked", "unauthorized"}

// Ensure Fetcher implements clipper.Fetcher at compile time.
var _ clipper.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves URLs with browser-like headers and classifies failures.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	minDocument  int
	minImage     int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the default per-request timeout.
// Requests carrying their own Timeout override it.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodyBytes caps the number of body bytes read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithMinBytes sets the smallest accepted document and image bodies.
func WithMinBytes(document, image int) Option {
	return func(f *Fetcher) {
		f.minDocument = document
		f.minImage = image
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.client.Transport = rt
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	cfg := clipper.DefaultConfig()
	f := &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
		timeout:      DefaultFetchTimeout,
		maxBodyBytes: cfg.MaxBodyBytes,
		minDocument:  cfg.MinDocumentBytes,
		minImage:     cfg.MinImageBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET for req.
func (f *Fetcher) Fetch(ctx context.Context, req clipper.FetchRequest) (*clipper.FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, clipper.Errorf(clipper.EINVALID, "invalid url %q: %v", req.URL, err)
	}
	setHeaders(httpReq.Header, req.Identity, req.Kind)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, classify(req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &clipper.FetchError{
			URL:        req.URL,
			Outcome:    clipper.OutcomeHTTPError,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, classify(req.URL, err)
	}

	result := &clipper.FetchResult{
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	switch req.Kind {
	case clipper.KindImage:
		if len(body) < f.minImage && !strings.HasPrefix(result.ContentType, "image/") {
			return nil, &clipper.FetchError{URL: req.URL, Outcome: clipper.OutcomeTooSmall, StatusCode: resp.StatusCode}
		}
	default:
		if len(body) < f.minDocument {
			return nil, &clipper.FetchError{URL: req.URL, Outcome: clipper.OutcomeTooSmall, StatusCode: resp.StatusCode}
		}
		if looksBlocked(body) {
			return nil, &clipper.FetchError{URL: req.URL, Outcome: clipper.OutcomeBlocked, StatusCode: resp.StatusCode}
		}
	}

	return result, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
		if err != nil {
			return nil, err
		}
		// Servers send both zlib-wrapped and raw deflate streams.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			r = zr
		} else {
			r = flate.NewReader(bytes.NewReader(raw))
		}
	}
	return io.ReadAll(io.LimitReader(r, f.maxBodyBytes))
}

func setHeaders(h http.Header, id clipper.Identity, kind clipper.FetchKind) {
	ua := id.UserAgent
	if ua == "" {
		ua = clipper.IdentityDesktopChrome.UserAgent
	}
	h.Set("User-Agent", ua)
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Connection", "keep-alive")

	switch kind {
	case clipper.KindImage:
		h.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
		h.Set("Sec-Fetch-Dest", "image")
		h.Set("Sec-Fetch-Mode", "no-cors")
		h.Set("Sec-Fetch-Site", "cross-site")
	default:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
		h.Set("Upgrade-Insecure-Requests", "1")
		h.Set("Sec-Fetch-Dest", "document")
		h.Set("Sec-Fetch-Mode", "navigate")
		h.Set("Sec-Fetch-Site", "none")
		h.Set("Sec-Fetch-User", "?1")
	}
}

func classify(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &clipper.FetchError{URL: url, Outcome: clipper.OutcomeTimeout, Err: err}
	}
	return &clipper.FetchError{URL: url, Outcome: clipper.OutcomeNetwork, Err: err}
}

// looksBlocked reports whether a short body reads like a block page.
func looksBlocked(body []byte) bool {
	if len(body) >= blockedScanBytes {
		return titleBlocked(body)
	}
	lower := strings.ToLower(string(body))
	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func titleBlocked(body []byte) bool {
	head := body[:min(len(body), blockedScanBytes*4)]
	lower := strings.ToLower(string(head))
	start := strings.Index(lower, "<title")
	if start < 0 {
		return false
	}
	end := strings.Index(lower[start:], "</title>")
	if end < 0 {
		return false
	}
	title := lower[start : start+end]
	for _, phrase := range blockPhrases {
		if strings.Contains(title, phrase) {
			return true
		}
	}
	return false
}
