package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/clipper"
)

var _ clipper.ProxyService = (*Proxy)(nil)

// ProxySuggestions are offered to the user when a page cannot be proxied.
func ProxySuggestions(url string) []string {
	return []string{
		"Try the archived copy at https://web.archive.org/web/" + url,
		"Open the original page in a new tab",
		"The site may block automated access",
	}
}

// Proxy fetches third-party pages and images for display by a frontend.
// Bodies are cached in the proxy cache keyed by kind and URL.
type Proxy struct {
	Fetcher clipper.Fetcher

	// Limiter paces page fetches and ImageLimiter paces image fetches.
	// Either may be nil.
	Limiter      clipper.DomainLimiter
	ImageLimiter clipper.DomainLimiter

	Rewriter clipper.PageRewriter
	Images   clipper.ImageSanitizer
	Cache    clipper.ProxyCache

	// PageIdentities and ImageIdentities default to
	// clipper.DefaultIdentities and clipper.ImageIdentities.
	PageIdentities  []clipper.Identity
	ImageIdentities []clipper.Identity

	Config clipper.Config
	Logger *slog.Logger
	Now    func() time.Time
}

// FetchPage returns the page at rawURL. HTML is rewritten for iframe display.
func (p *Proxy) FetchPage(ctx context.Context, rawURL string) (*clipper.ProxyResponse, error) {
	url, err := clipper.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := "page:" + url
	if resp, ok := p.cached(key); ok {
		return resp, nil
	}

	ids := p.PageIdentities
	if len(ids) == 0 {
		ids = clipper.DefaultIdentities()
	}
	res, attempts, err := p.fetch(ctx, url, clipper.KindDocument, ids, p.Limiter)
	if err != nil {
		return nil, p.proxyError(url, attempts, err)
	}

	body, contentType := res.Body, res.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if isHTML(contentType) && p.Rewriter != nil {
		rewritten, err := p.Rewriter.Rewrite(string(body), res.FinalURL)
		if err != nil {
			p.logger().Warn("proxy rewrite failed", "url", url, "err", err)
		} else {
			body = []byte(rewritten)
		}
	}

	return p.store(key, body, contentType, res.FinalURL, attempts), nil
}

// FetchImage returns the image at rawURL. data: URLs are rejected since the
// browser can render them without a proxy.
func (p *Proxy) FetchImage(ctx context.Context, rawURL string) (*clipper.ProxyResponse, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(rawURL)), "data:") {
		return nil, clipper.Errorf(clipper.EINVALID, "data URLs are not proxied")
	}
	url, err := clipper.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	key := "image:" + url
	if resp, ok := p.cached(key); ok {
		return resp, nil
	}

	ids := p.ImageIdentities
	if len(ids) == 0 {
		ids = clipper.ImageIdentities()
	}
	res, attempts, err := p.fetch(ctx, url, clipper.KindImage, ids, p.ImageLimiter)
	if err != nil {
		return nil, p.proxyError(url, attempts, err)
	}

	body, contentType := res.Body, res.ContentType
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = http.DetectContentType(body)
	}
	if isSVG(contentType, body) {
		contentType = "image/svg+xml"
		if p.Images != nil {
			clean, err := p.Images.Sanitize(body)
			if err != nil {
				return nil, p.proxyError(url, attempts, err)
			}
			body = clean
		}
	}

	return p.store(key, body, contentType, res.FinalURL, attempts), nil
}

func (p *Proxy) fetch(ctx context.Context, url string, kind clipper.FetchKind, ids []clipper.Identity, limiter clipper.DomainLimiter) (*clipper.FetchResult, Attempts, error) {
	cfg := p.Config.WithDefaults()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	begin := time.Now()
	rot := &Rotation{
		Fetcher:    p.Fetcher,
		Limiter:    limiter,
		Identities: ids,
		Timeout:    cfg.RetryTimeout,
	}
	res, attempts, err := rot.Fetch(ctx, url, kind)
	p.logger().Info("proxy fetch",
		"url", url,
		"attempts", len(attempts),
		"duration", time.Since(begin),
		"err", err,
	)
	return res, attempts, err
}

func (p *Proxy) cached(key string) (*clipper.ProxyResponse, bool) {
	if p.Cache == nil {
		return nil, false
	}
	p.Cache.Sweep()
	entry, ok := p.Cache.Get(key)
	if !ok {
		return nil, false
	}
	return &clipper.ProxyResponse{
		Body:        entry.Body,
		ContentType: entry.ContentType,
		FinalURL:    entry.FinalURL,
		Strategy:    entry.StrategyUsed,
		Cached:      true,
	}, true
}

func (p *Proxy) store(key string, body []byte, contentType, finalURL string, attempts Attempts) *clipper.ProxyResponse {
	strategy := ""
	if n := len(attempts); n > 0 {
		strategy = attempts[n-1].Identity.Name
	}
	if p.Cache != nil {
		now := p.now()
		p.Cache.Set(key, &clipper.ProxyEntry{
			Body:           body,
			ContentType:    contentType,
			FinalURL:       finalURL,
			StrategyUsed:   strategy,
			CachedAt:       now,
			LastAccessedAt: now,
		})
	}
	return &clipper.ProxyResponse{
		Body:        body,
		ContentType: contentType,
		FinalURL:    finalURL,
		Strategy:    strategy,
	}
}

func (p *Proxy) proxyError(url string, attempts Attempts, err error) *clipper.ProxyError {
	last := attempts.LastError()
	if last == "" && err != nil {
		last = err.Error()
	}
	return &clipper.ProxyError{
		Message:     "Unable to load this page through the proxy",
		URL:         url,
		LastError:   last,
		Attempts:    len(attempts),
		Suggestions: ProxySuggestions(url),
	}
}

func (p *Proxy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (p *Proxy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

func isSVG(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "image/") {
		return strings.Contains(ct, "svg")
	}
	head := bytes.ToLower(body[:min(len(body), 512)])
	return bytes.Contains(head, []byte("<svg"))
}
