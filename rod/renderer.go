// Package rod renders JavaScript-heavy pages in headless Chrome via go-rod.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/clipper"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Renderer implements clipper.Renderer at compile time.
var _ clipper.Renderer = (*Renderer)(nil)

// DefaultIdleTime is how long the network must be quiet before the DOM is
// captured.
const DefaultIdleTime = 500 * time.Millisecond

// Renderer loads pages in a managed headless browser.
// Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	manager   *BrowserManager
	idle      time.Duration
	userAgent string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithIdleTime sets how long the network must be idle before capture.
func WithIdleTime(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.idle = d
	}
}

// WithIdentity renders pages with the identity's User-Agent.
func WithIdentity(id clipper.Identity) RendererOption {
	return func(r *Renderer) {
		r.userAgent = id.UserAgent
	}
}

// NewRenderer creates a Renderer on top of manager. The renderer does not
// own the manager; closing the renderer closes it.
func NewRenderer(manager *BrowserManager, opts ...RendererOption) *Renderer {
	r := &Renderer{
		manager: manager,
		idle:    DefaultIdleTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the browser is still running.
func (r *Renderer) Available() bool {
	return r.manager != nil && r.manager.Available()
}

// Render navigates to url, waits for the load event and for the network
// to go idle, then returns the rendered HTML. The page is closed on every
// path.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !r.Available() {
		return "", clipper.Errorf(clipper.EUNAVAILABLE, "renderer is closed")
	}

	page, release, err := r.manager.OpenPage()
	if err != nil {
		return "", err
	}
	defer release()

	page = page.Context(ctx)
	if r.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}); err != nil {
			return "", err
		}
	}

	waitIdle := page.WaitRequestIdle(r.idle, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return page.HTML()
}

// Close shuts down the browser.
func (r *Renderer) Close() error {
	if r.manager == nil {
		return nil
	}
	return r.manager.Close()
}
