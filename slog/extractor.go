package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/clipper"
)

// Ensure LoggingExtractor implements clipper.Extractor.
var _ clipper.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging.
type LoggingExtractor struct {
	name   string
	next   clipper.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor. The name tells the
// extractors of the cascade apart in the log.
func NewLoggingExtractor(name string, next clipper.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{name: name, next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the outcome.
func (e *LoggingExtractor) Extract(html string, baseURL string) (draft *clipper.ArticleDraft, err error) {
	defer func(begin time.Time) {
		var title string
		var bytes int
		if draft != nil {
			title, bytes = draft.Title, len(draft.ContentHTML)
		}
		e.logger.Debug("extractor",
			"extractor", e.name,
			"url", baseURL,
			"title", title,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(html, baseURL)
}
