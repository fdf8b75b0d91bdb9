package extract

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/fwojciec/clipper"
)

// StrategyResult is the outcome of one step of the cascade: either a draft
// together with the document it came from, or the reason the step failed.
type StrategyResult struct {
	Strategy clipper.Strategy
	Draft    *clipper.ArticleDraft

	// Doc is the raw document the draft was extracted from and Base
	// the URL its relative references resolve against.
	Doc  string
	Base string

	Err error
}

// Ok reports whether the strategy produced a draft.
func (r StrategyResult) Ok() bool {
	return r.Err == nil && r.Draft != nil
}

func failed(s clipper.Strategy, err error) StrategyResult {
	return StrategyResult{Strategy: s, Err: err}
}

var (
	errNoDocument = clipper.Errorf(clipper.ENOTFOUND, "no document to extract from")
	errAMPMiss    = clipper.Errorf(clipper.ENOTFOUND, "guessed AMP url previously missed")
)

type step func(ctx context.Context, r *run) StrategyResult

// steps returns the cascade in execution order.
func (p *Pipeline) steps() []step {
	return []step{
		p.direct,
		p.refetch,
		p.selectors,
		p.secondary,
		p.structuredData,
		p.amp,
		p.render,
	}
}

// direct downloads the page with the first identity and runs the primary extractor.
func (p *Pipeline) direct(ctx context.Context, r *run) StrategyResult {
	rot := p.rotation(p.identities()[:1], p.config().FetchTimeout)
	res, _, err := rot.Fetch(ctx, r.url, clipper.KindDocument)
	if err != nil {
		return failed(clipper.StrategyDirect, err)
	}
	r.doc, r.base = string(res.Body), res.FinalURL
	return p.extractWith(clipper.StrategyDirect, p.Primary, r.doc, r.base)
}

// refetch downloads the page again with the alternate identities and
// reruns the primary extractor. A successful download replaces the
// document later strategies work on.
func (p *Pipeline) refetch(ctx context.Context, r *run) StrategyResult {
	ids := p.identities()
	if len(ids) < 2 {
		return failed(clipper.StrategyRefetch, clipper.Errorf(clipper.EUNAVAILABLE, "no alternate identities"))
	}
	rot := p.rotation(ids[1:], p.config().RetryTimeout)
	res, _, err := rot.Fetch(ctx, r.url, clipper.KindDocument)
	if err != nil {
		return failed(clipper.StrategyRefetch, err)
	}
	r.doc, r.base = string(res.Body), res.FinalURL
	return p.extractWith(clipper.StrategyRefetch, p.Primary, r.doc, r.base)
}

func (p *Pipeline) selectors(_ context.Context, r *run) StrategyResult {
	return p.extractDoc(clipper.StrategySelectors, p.Selectors, r)
}

func (p *Pipeline) secondary(_ context.Context, r *run) StrategyResult {
	return p.extractDoc(clipper.StrategyTrafilatura, p.Secondary, r)
}

func (p *Pipeline) structuredData(_ context.Context, r *run) StrategyResult {
	return p.extractDoc(clipper.StrategyStructuredData, p.StructuredData, r)
}

// amp fetches the AMP version of the page. When the document declares
// none, a ?amp=true variant is guessed; guesses that fail are remembered
// in AMPMisses so later extractions skip them.
func (p *Pipeline) amp(ctx context.Context, r *run) StrategyResult {
	if p.AMPContent == nil {
		return failed(clipper.StrategyAMP, clipper.Errorf(clipper.EUNAVAILABLE, "no AMP extractor"))
	}

	var (
		ampURL   string
		declared bool
	)
	if r.doc != "" && p.AMP != nil {
		ampURL, declared = p.AMP.LocateAMP(r.doc, r.base)
	}
	if !declared {
		guess, ok := guessAMPURL(r.url)
		if !ok {
			return failed(clipper.StrategyAMP, clipper.Errorf(clipper.ENOTFOUND, "page is already an AMP variant"))
		}
		if p.AMPMisses != nil && p.AMPMisses.Test(guess) {
			return failed(clipper.StrategyAMP, errAMPMiss)
		}
		ampURL = guess
	}

	rot := p.rotation(p.identities()[:1], p.config().RetryTimeout)
	res, _, err := rot.Fetch(ctx, ampURL, clipper.KindDocument)
	if err == nil {
		result := p.extractWith(clipper.StrategyAMP, p.AMPContent, string(res.Body), res.FinalURL)
		if result.Ok() || declared {
			return result
		}
		err = result.Err
	}
	if !declared && p.AMPMisses != nil && ctx.Err() == nil {
		p.AMPMisses.Add(ampURL)
	}
	return failed(clipper.StrategyAMP, err)
}

// render loads the page in the headless browser. Its deadline derives from
// the caller's context, not the request timeout, so reaching this stage
// extends the budget while a client disconnect still cancels it.
func (p *Pipeline) render(_ context.Context, r *run) StrategyResult {
	if p.Renderer == nil || !p.Renderer.Available() {
		return failed(clipper.StrategyRender, clipper.Errorf(clipper.EUNAVAILABLE, "headless rendering is not available"))
	}

	ctx, cancel := context.WithTimeout(r.parent, p.config().RenderTimeout)
	defer cancel()

	html, err := p.Renderer.Render(ctx, r.url)
	if err != nil {
		return failed(clipper.StrategyRender, err)
	}

	primary := p.extractWith(clipper.StrategyRender, p.Primary, html, r.url)
	if primary.Ok() && len([]rune(p.text(primary.Draft))) >= p.config().MinTextLength {
		return primary
	}
	if selected := p.extractWith(clipper.StrategyRender, p.Selectors, html, r.url); selected.Ok() {
		return selected
	}
	return primary
}

func (p *Pipeline) extractDoc(s clipper.Strategy, ex clipper.Extractor, r *run) StrategyResult {
	if r.doc == "" {
		return failed(s, errNoDocument)
	}
	return p.extractWith(s, ex, r.doc, r.base)
}

func (p *Pipeline) extractWith(s clipper.Strategy, ex clipper.Extractor, doc, base string) StrategyResult {
	if ex == nil {
		return failed(s, clipper.Errorf(clipper.EUNAVAILABLE, "no extractor configured for %s", s))
	}
	draft, err := ex.Extract(doc, base)
	if err != nil {
		return failed(s, err)
	}
	if draft == nil {
		return failed(s, errors.New("extractor returned no draft"))
	}
	return StrategyResult{Strategy: s, Draft: draft, Doc: doc, Base: base}
}

func (p *Pipeline) rotation(ids []clipper.Identity, timeout time.Duration) *Rotation {
	return &Rotation{
		Fetcher:    p.Fetcher,
		Limiter:    p.Limiter,
		Identities: ids,
		Timeout:    timeout,
	}
}

// guessAMPURL returns rawURL with amp=true set. It reports false when the
// URL already carries that parameter.
func guessAMPURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	q := u.Query()
	if q.Get("amp") == "true" {
		return "", false
	}
	q.Set("amp", "true")
	u.RawQuery = q.Encode()
	return u.String(), true
}
