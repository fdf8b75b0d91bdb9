package clipper

import "context"

// Renderer loads a page in a headless browser and returns the rendered DOM.
// It is an optional capability: environments without a browser inject
// NopRenderer and the pipeline skips the render stage.
type Renderer interface {
	// Available reports whether Render can be called.
	Available() bool

	// Render navigates to the URL, waits for the network to settle and
	// returns the rendered HTML. The context bounds the whole operation.
	Render(ctx context.Context, url string) (string, error)

	// Close releases browser resources.
	Close() error
}

// Ensure NopRenderer implements Renderer at compile time.
var _ Renderer = NopRenderer{}

// NopRenderer is the Renderer used when no headless browser is available.
type NopRenderer struct{}

// Available always returns false.
func (NopRenderer) Available() bool { return false }

// Render always fails with EUNAVAILABLE.
func (NopRenderer) Render(context.Context, string) (string, error) {
	return "", Errorf(EUNAVAILABLE, "headless rendering is not available")
}

// Close is a no-op.
func (NopRenderer) Close() error { return nil }
