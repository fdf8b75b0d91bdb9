// Package slog provides logging decorators for clipper services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/clipper"
)

// Ensure LoggingFetcher implements clipper.Fetcher.
var _ clipper.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-attempt logging.
type LoggingFetcher struct {
	next   clipper.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next clipper.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the attempt and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, req clipper.FetchRequest) (res *clipper.FetchResult, err error) {
	defer func(begin time.Time) {
		var bytes, status int
		if res != nil {
			bytes, status = len(res.Body), res.StatusCode
		}
		f.logger.Info("fetch",
			"url", req.URL,
			"identity", req.Identity.Name,
			"bytes", bytes,
			"status", status,
			"outcome", clipper.OutcomeOf(err),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, req)
}
