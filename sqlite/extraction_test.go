package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(title string) *clipper.ExtractionResult {
	return &clipper.ExtractionResult{
		Title:       title,
		Description: "A description",
		Content:     "<p>Hello</p>",
		ReaderHTML:  "<p>Hello</p>",
		Markdown:    "Hello",
		MetaInfo: clipper.MetaInfo{
			SiteName:  "Example",
			Authors:   []string{"Ada", "Grace"},
			WordCount: 1,
		},
		ExtractedAt: time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC),
		Success:     true,
		Strategy:    clipper.StrategyDirect,
	}
}

func TestExtractionStore_SaveAndFind(t *testing.T) {
	t.Parallel()

	t.Run("round trips the result and cache time", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewExtractionStore(setupTestDB(t))
		ctx := context.Background()
		cachedAt := time.Date(2024, 3, 4, 5, 6, 7, 123456789, time.UTC)

		require.NoError(t, store.SaveExtraction(ctx, "https://example.com/a", testResult("A"), cachedAt))

		got, at, err := store.FindExtraction(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, testResult("A"), got)
		assert.True(t, cachedAt.Equal(at))
	})

	t.Run("replaces a previous result", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewExtractionStore(setupTestDB(t))
		ctx := context.Background()

		require.NoError(t, store.SaveExtraction(ctx, "https://example.com/a", testResult("old"), time.Now()))
		require.NoError(t, store.SaveExtraction(ctx, "https://example.com/a", testResult("new"), time.Now()))

		got, _, err := store.FindExtraction(ctx, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Title)
	})

	t.Run("returns ENOTFOUND for unknown urls", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewExtractionStore(setupTestDB(t))

		_, _, err := store.FindExtraction(context.Background(), "https://example.com/missing")
		assert.Equal(t, clipper.ENOTFOUND, clipper.ErrorCode(err))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewExtractionStore(setupTestDB(t))
		ctx := context.Background()

		err := store.SaveExtraction(ctx, "", testResult("A"), time.Now())
		assert.Equal(t, clipper.EINVALID, clipper.ErrorCode(err))

		err = store.SaveExtraction(ctx, "https://example.com/a", nil, time.Now())
		assert.Equal(t, clipper.EINVALID, clipper.ErrorCode(err))
	})
}

func TestExtractionStore_DeleteExtractions(t *testing.T) {
	t.Parallel()

	store := sqlite.NewExtractionStore(setupTestDB(t))
	ctx := context.Background()
	for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		require.NoError(t, store.SaveExtraction(ctx, u, testResult(u), time.Now()))
	}

	n, err := store.DeleteExtractions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, _, err = store.FindExtraction(ctx, "https://a.example")
	assert.Equal(t, clipper.ENOTFOUND, clipper.ErrorCode(err))
}

func TestExtractionStore_PurgeExtractions(t *testing.T) {
	t.Parallel()

	store := sqlite.NewExtractionStore(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveExtraction(ctx, "https://old.example", testResult("old"), base))
	require.NoError(t, store.SaveExtraction(ctx, "https://mid.example", testResult("mid"), base.Add(500*time.Millisecond)))
	require.NoError(t, store.SaveExtraction(ctx, "https://new.example", testResult("new"), base.Add(2*time.Hour)))

	n, err := store.PurgeExtractions(ctx, base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = store.FindExtraction(ctx, "https://new.example")
	assert.NoError(t, err)
}
