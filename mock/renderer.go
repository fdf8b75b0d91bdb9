package mock

import (
	"context"

	"github.com/fwojciec/clipper"
)

var _ clipper.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of clipper.Renderer.
type Renderer struct {
	AvailableFn func() bool
	RenderFn    func(ctx context.Context, url string) (string, error)
	CloseFn     func() error
}

func (r *Renderer) Available() bool {
	return r.AvailableFn()
}

func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	return r.RenderFn(ctx, url)
}

func (r *Renderer) Close() error {
	return r.CloseFn()
}
