package main

import (
	"context"
	"fmt"
	"time"

	cliphttp "github.com/fwojciec/clipper/http"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	s := cliphttp.NewServer()
	s.Addr = c.Addr
	s.Extraction = deps.Extraction
	s.Proxy = deps.Proxy
	s.Caches = deps.Caches
	if deps.Logger != nil {
		s.Logger = deps.Logger
	}

	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", s.URL())

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		<-ctx.Done()
		return s.Close()
	})
	if deps.Sweep != nil && c.SweepInterval > 0 {
		g.Go(func() error {
			sweepEvery(ctx, c.SweepInterval, deps.Sweep)
			return nil
		})
	}
	return g.Wait()
}

func sweepEvery(ctx context.Context, interval time.Duration, sweep func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}
