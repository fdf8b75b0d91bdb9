// Package extract implements the extraction cascade, the page and image
// proxy, and cache administration on top of the clipper interfaces.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/clipper"
	"golang.org/x/sync/singleflight"
)

var _ clipper.ExtractionService = (*Pipeline)(nil)

// Pipeline turns a URL into an article. It downloads the page, runs the
// primary extractor and, when the result is too thin, walks the fallback
// strategies in order until one recovers enough content.
type Pipeline struct {
	Fetcher    clipper.Fetcher
	Limiter    clipper.DomainLimiter
	Identities []clipper.Identity

	Primary        clipper.Extractor
	Selectors      clipper.Extractor
	Secondary      clipper.Extractor
	StructuredData clipper.Extractor
	AMP            clipper.AMPLocator
	AMPContent     clipper.Extractor
	AMPMisses      clipper.URLSet
	Renderer       clipper.Renderer

	Metadata  clipper.MetadataExtractor
	Sanitizer clipper.Sanitizer
	Converter clipper.Converter

	Cache clipper.ExtractionCache
	Store clipper.ExtractionStore

	Config clipper.Config
	Logger *slog.Logger
	Now    func() time.Time

	group singleflight.Group
}

// run carries the state shared by the strategies of one extraction.
type run struct {
	url    string
	parent context.Context

	// doc is the best raw document seen so far and base the URL its
	// relative references resolve against.
	doc  string
	base string

	// best is the longest non-empty result, served when no strategy
	// reaches its threshold.
	best    *StrategyResult
	bestLen int
}

// Extract returns the article for rawURL. It never fails: unreachable
// pages, malformed URLs and exhausted strategies all produce a result with
// Success set to false.
//
// Concurrent calls for one URL share a single extraction, which runs
// detached from any caller's context and is bounded by the request
// timeout. A caller whose context ends stops waiting without cancelling
// the others.
func (p *Pipeline) Extract(ctx context.Context, rawURL string) *clipper.ExtractionResult {
	key, err := clipper.NormalizeURL(rawURL)
	if err != nil {
		p.logger().Warn("extract rejected", "url", rawURL, "err", err)
		return clipper.FailedResult(p.now())
	}

	if cached, ok := p.lookup(ctx, key); ok {
		return cached
	}

	ch := p.group.DoChan(key, func() (any, error) {
		return p.extract(context.WithoutCancel(ctx), key), nil
	})
	select {
	case res := <-ch:
		return res.Val.(*clipper.ExtractionResult).Clone()
	case <-ctx.Done():
		p.logger().Warn("extract abandoned", "url", key, "err", ctx.Err())
		return clipper.FailedResult(p.now())
	}
}

// ExtractMarkdown returns the Markdown rendition of rawURL. A failure is
// reported through Success and Reason, never as an error.
func (p *Pipeline) ExtractMarkdown(ctx context.Context, rawURL string) *clipper.MarkdownResult {
	result := p.Extract(ctx, rawURL)

	md := &clipper.MarkdownResult{
		URL:         rawURL,
		Title:       result.Title,
		Markdown:    result.Markdown,
		ExtractedAt: result.ExtractedAt,
		Success:     result.Success && result.Markdown != "",
	}
	if !md.Success {
		md.Reason = fmt.Sprintf("Failed to extract markdown for %s", rawURL)
	}
	return md
}

func (p *Pipeline) extract(ctx context.Context, url string) *clipper.ExtractionResult {
	cfg := p.config()
	begin := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	r := &run{url: url, parent: ctx}
	var result *clipper.ExtractionResult
	if won := p.cascade(reqCtx, r); won != nil {
		result = p.build(r, won)
	}

	if result == nil || !result.Success {
		if stale, ok := p.stale(ctx, url); ok {
			p.logger().Info("extract served stale",
				"url", url,
				"duration", time.Since(begin),
			)
			return stale
		}
		p.logger().Warn("extract failed",
			"url", url,
			"duration", time.Since(begin),
		)
		return clipper.FailedResult(p.now())
	}

	p.remember(ctx, url, result)
	p.logger().Info("extract",
		"url", url,
		"strategy", result.Strategy,
		"words", result.MetaInfo.WordCount,
		"duration", time.Since(begin),
	)
	return result
}

// cascade runs the strategies strictly in order and returns the first
// result meeting its threshold, else the longest non-empty result, else nil.
func (p *Pipeline) cascade(ctx context.Context, r *run) *StrategyResult {
	for _, step := range p.steps() {
		res := step(ctx, r)
		if res.Err != nil {
			p.logger().Warn("strategy failed",
				"url", r.url,
				"strategy", res.Strategy,
				"err", res.Err,
			)
			continue
		}

		n := len([]rune(p.text(res.Draft)))
		if n > r.bestLen {
			best := res
			r.best, r.bestLen = &best, n
		}
		if n >= p.threshold(res.Strategy) {
			return &res
		}
		p.logger().Warn("strategy insufficient",
			"url", r.url,
			"strategy", res.Strategy,
			"chars", n,
		)
	}
	return r.best
}

// build assembles the public result from the winning strategy.
func (p *Pipeline) build(r *run, won *StrategyResult) *clipper.ExtractionResult {
	metaDoc, metaBase := won.Doc, won.Base
	if won.Strategy == clipper.StrategyAMP && r.doc != "" {
		metaDoc, metaBase = r.doc, r.base
	}
	meta := p.metadata(metaDoc, metaBase)

	reader, err := p.Sanitizer.Sanitize(won.Draft.ContentHTML, won.Base, true)
	if err != nil {
		p.logger().Warn("sanitize failed", "url", r.url, "err", err)
		reader = ""
	}
	text := p.Sanitizer.PlainText(reader)
	if text == "" {
		text = strings.TrimSpace(won.Draft.TextContent)
	}
	if text == "" && reader == "" {
		return nil
	}

	var markdown string
	if plain, err := p.Sanitizer.Sanitize(won.Draft.ContentHTML, won.Base, false); err != nil {
		p.logger().Warn("sanitize failed", "url", r.url, "err", err)
	} else if markdown, err = p.Converter.Convert(plain); err != nil {
		p.logger().Warn("markdown conversion failed", "url", r.url, "err", err)
		markdown = ""
	}

	info := meta.MetaInfo
	info.Merge(won.Draft.Meta)
	info.WordCount = len(strings.Fields(text))

	return &clipper.ExtractionResult{
		Title:       firstNonEmpty(meta.Title, won.Draft.Title, clipper.DefaultTitle),
		Description: meta.Description,
		Content:     text,
		ReaderHTML:  reader,
		Markdown:    markdown,
		MetaInfo:    info,
		ExtractedAt: p.now().UTC(),
		Success:     true,
		Strategy:    won.Strategy,
	}
}

func (p *Pipeline) metadata(doc, base string) *clipper.Metadata {
	if p.Metadata == nil || doc == "" {
		return &clipper.Metadata{}
	}
	meta, err := p.Metadata.ExtractMetadata(doc, base)
	if err != nil || meta == nil {
		p.logger().Warn("metadata extraction failed", "url", base, "err", err)
		return &clipper.Metadata{}
	}
	return meta
}

// lookup consults the memory cache, then the durable store.
func (p *Pipeline) lookup(ctx context.Context, url string) (*clipper.ExtractionResult, bool) {
	if p.Cache != nil {
		p.Cache.Sweep()
		if cached, ok := p.Cache.Get(url); ok {
			return cached, true
		}
	}
	if p.Store == nil {
		return nil, false
	}
	result, cachedAt, err := p.Store.FindExtraction(ctx, url)
	if err != nil {
		if clipper.ErrorCode(err) != clipper.ENOTFOUND {
			p.logger().Warn("extraction store lookup failed", "url", url, "err", err)
		}
		return nil, false
	}
	if p.now().Sub(cachedAt) >= p.config().ExtractionTTL {
		return nil, false
	}
	if p.Cache != nil {
		p.Cache.Set(url, result)
	}
	return result, true
}

// stale returns a previously successful result younger than the stale TTL.
func (p *Pipeline) stale(ctx context.Context, url string) (*clipper.ExtractionResult, bool) {
	if p.Cache != nil {
		if result, ok := p.Cache.GetStale(url); ok {
			return result, true
		}
	}
	if p.Store == nil {
		return nil, false
	}
	result, cachedAt, err := p.Store.FindExtraction(ctx, url)
	if err != nil || !result.Success {
		return nil, false
	}
	if p.now().Sub(cachedAt) >= p.config().StaleTTL() {
		return nil, false
	}
	return result, true
}

func (p *Pipeline) remember(ctx context.Context, url string, result *clipper.ExtractionResult) {
	if p.Cache != nil {
		p.Cache.Set(url, result)
	}
	if p.Store != nil {
		if err := p.Store.SaveExtraction(ctx, url, result, p.now()); err != nil {
			p.logger().Warn("extraction store save failed", "url", url, "err", err)
		}
	}
}

// text returns the plain text of a draft.
func (p *Pipeline) text(d *clipper.ArticleDraft) string {
	if d == nil {
		return ""
	}
	if t := strings.TrimSpace(d.TextContent); t != "" {
		return t
	}
	return strings.TrimSpace(p.Sanitizer.PlainText(d.ContentHTML))
}

// threshold is the text length a strategy's result needs to win.
func (p *Pipeline) threshold(s clipper.Strategy) int {
	cfg := p.config()
	switch s {
	case clipper.StrategySelectors, clipper.StrategyAMP, clipper.StrategyRender:
		return cfg.MinNodeTextLength
	case clipper.StrategyStructuredData:
		return 1
	}
	return cfg.MinTextLength
}

func (p *Pipeline) identities() []clipper.Identity {
	if len(p.Identities) > 0 {
		return p.Identities
	}
	return clipper.DefaultIdentities()
}

func (p *Pipeline) config() clipper.Config {
	return p.Config.WithDefaults()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
