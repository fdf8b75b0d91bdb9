package extract

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/clipper"
)

// Attempts is the outcome of an identity rotation loop.
type Attempts []clipper.FetchAttempt

// LastError returns the error message of the final failed attempt.
func (a Attempts) LastError() string {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Err != "" {
			return a[i].Err
		}
	}
	return ""
}

// Rotation fetches a URL with an ordered list of identities until one
// succeeds. It is the only place that retries fetches.
type Rotation struct {
	Fetcher    clipper.Fetcher
	Limiter    clipper.DomainLimiter
	Identities []clipper.Identity

	// Timeout bounds each attempt. Zero means the fetcher default.
	Timeout time.Duration

	// MaxAttempts caps the identities tried. Zero means all of them.
	MaxAttempts int
}

// Fetch tries each identity in order and returns the first success.
// The attempts are returned in every case. A permanent miss (404, 410)
// stops the rotation since no identity will change it.
func (r *Rotation) Fetch(ctx context.Context, url string, kind clipper.FetchKind) (*clipper.FetchResult, Attempts, error) {
	identities := r.Identities
	if r.MaxAttempts > 0 && r.MaxAttempts < len(identities) {
		identities = identities[:r.MaxAttempts]
	}
	if len(identities) == 0 {
		return nil, nil, clipper.Errorf(clipper.EINVALID, "no fetch identities configured")
	}

	var (
		attempts Attempts
		lastErr  error
	)
	for _, id := range identities {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx, clipper.Hostname(url)); err != nil {
				lastErr = err
				break
			}
		}

		result, err := r.Fetcher.Fetch(ctx, clipper.FetchRequest{
			URL:      url,
			Identity: id,
			Kind:     kind,
			Timeout:  r.Timeout,
		})
		attempt := clipper.FetchAttempt{
			Identity: id,
			Timeout:  r.Timeout,
			Outcome:  clipper.OutcomeOf(err),
		}
		if err == nil {
			attempt.StatusCode = result.StatusCode
			attempts = append(attempts, attempt)
			return result, attempts, nil
		}

		attempt.Err = err.Error()
		attempt.StatusCode = statusOf(err)
		attempts = append(attempts, attempt)
		lastErr = err

		if attempt.StatusCode == http.StatusNotFound || attempt.StatusCode == http.StatusGone {
			break
		}
	}
	return nil, attempts, lastErr
}

func statusOf(err error) int {
	var fe *clipper.FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
