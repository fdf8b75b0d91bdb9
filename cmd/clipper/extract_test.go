package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/clipper"
	main "github.com/fwojciec/clipper/cmd/clipper"
	"github.com/fwojciec/clipper/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCmd_Run(t *testing.T) {
	t.Parallel()

	article := &clipper.ExtractionResult{
		Title:    "Harbor lights return",
		Content:  "The old lighthouse was switched on again.",
		MetaInfo: clipper.MetaInfo{Author: "Ann Lee", SiteName: "Coastal Post"},
		Success:  true,
	}

	t.Run("prints title, byline and text", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &stdout,
			Stderr: &stderr,
			Extraction: &mock.ExtractionService{
				ExtractFn: func(_ context.Context, url string) *clipper.ExtractionResult {
					assert.Equal(t, "https://example.com/story", url)
					return article
				},
			},
		}

		err := (&main.ExtractCmd{URL: "https://example.com/story"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "Harbor lights return\nAnn Lee | Coastal Post\n\nThe old lighthouse was switched on again.\n", stdout.String())
	})

	t.Run("prints JSON", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &stdout,
			Extraction: &mock.ExtractionService{
				ExtractFn: func(context.Context, string) *clipper.ExtractionResult { return article },
			},
		}

		err := (&main.ExtractCmd{URL: "https://example.com/story", JSON: true}).Run(deps)

		require.NoError(t, err)
		var got clipper.ExtractionResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
		assert.Equal(t, "Harbor lights return", got.Title)
	})

	t.Run("fails when nothing was extracted", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &stdout,
			Stderr: &stderr,
			Extraction: &mock.ExtractionService{
				ExtractFn: func(context.Context, string) *clipper.ExtractionResult {
					return clipper.FailedResult(time.Now())
				},
			},
		}

		err := (&main.ExtractCmd{URL: "https://example.com/empty"}).Run(deps)

		assert.Equal(t, clipper.ENOTFOUND, clipper.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no article content found")
		assert.Empty(t, stdout.String())
	})
}

func TestMarkdownCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints title heading and markdown", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &stdout,
			Extraction: &mock.ExtractionService{
				ExtractMarkdownFn: func(_ context.Context, url string) *clipper.MarkdownResult {
					return &clipper.MarkdownResult{URL: url, Title: "Harbor", Markdown: "Lights are back.", Success: true}
				},
			},
		}

		err := (&main.MarkdownCmd{URL: "https://example.com/story"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "# Harbor\n\nLights are back.\n", stdout.String())
	})

	t.Run("reports the failure reason", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &stdout,
			Stderr: &stderr,
			Extraction: &mock.ExtractionService{
				ExtractMarkdownFn: func(_ context.Context, url string) *clipper.MarkdownResult {
					return &clipper.MarkdownResult{URL: url, Reason: "Failed to extract markdown for " + url}
				},
			},
		}

		err := (&main.MarkdownCmd{URL: "https://example.com/story"}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "Failed to extract markdown for https://example.com/story")
	})
}

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	swept := false
	deps := &main.Dependencies{
		Ctx:    ctx,
		Stdout: &stdout,
		Logger: main.NewLogger(&bytes.Buffer{}, "text", "info"),
		Sweep:  func(context.Context) { swept = true },
	}

	err := (&main.ServeCmd{Addr: "127.0.0.1:0", SweepInterval: time.Hour}).Run(deps)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Listening on http://127.0.0.1:")
	assert.False(t, swept)
}
