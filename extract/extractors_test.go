package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/bloom"
	"github.com/fwojciec/clipper/extract"
	"github.com/fwojciec/clipper/goquery"
	cliphttp "github.com/fwojciec/clipper/http"
	"github.com/fwojciec/clipper/htmltomarkdown"
	"github.com/fwojciec/clipper/readability"
	"github.com/fwojciec/clipper/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Harbor lights return</title><meta name="description" content="The lighthouse is lit again."></head>
<body>
<nav><a href="/">Home</a> <a href="/news">News</a></nav>
<article>
<h1>Harbor lights return</h1>
<p>Hello
    world. The old lighthouse on the northern pier was switched on again last night after a restoration
    that took the volunteers almost three years to finish.</p>
<p>Residents gathered along the seawall to watch the beam sweep across the water, and several fishing
    crews sounded their horns as they came into the harbor.</p>
<p>The restoration committee said the lamp will run every evening through the winter season and that
    guided tours of the tower begin next month.</p>
</article>
<footer>Copyright Coastal Post</footer>
</body>
</html>`

const structuredDataPage = `<!DOCTYPE html>
<html>
<head>
<title>Tide tables</title>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"NewsArticle","headline":"Tide tables updated",
 "author":{"@type":"Person","name":"Ada Shore"},"datePublished":"2024-03-01",
 "articleBody":"The harbor office published new tide tables this week.\n\nSpring tides are expected to peak on Thursday."}
</script>
</head>
<body><div id="app"></div></body>
</html>`

// realPipeline wires the pipeline to the production extractors.
func realPipeline() *extract.Pipeline {
	return &extract.Pipeline{
		Fetcher:        cliphttp.NewFetcher(),
		Primary:        readability.NewExtractor(),
		Selectors:      goquery.NewSelectorExtractor(50),
		Secondary:      trafilatura.NewExtractor(),
		StructuredData: goquery.NewStructuredDataExtractor(),
		AMP:            goquery.NewAMPLocator(),
		AMPContent:     goquery.NewSelectorExtractor(50, goquery.AMPSelectors...),
		AMPMisses:      bloom.NewFilter(100, 0.01),
		Renderer:       clipper.NopRenderer{},
		Metadata:       goquery.NewMetadataExtractor(),
		Sanitizer:      goquery.NewSanitizer(),
		Converter:      htmltomarkdown.NewConverter(),
	}
}

func TestPipeline_Extract_RealExtractors(t *testing.T) {
	t.Parallel()

	t.Run("extracts a simple article", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(articlePage))
		}))
		defer server.Close()

		result := realPipeline().Extract(context.Background(), server.URL+"/news/harbor-lights")

		require.True(t, result.Success)
		assert.Equal(t, clipper.StrategyDirect, result.Strategy)
		assert.Equal(t, "Harbor lights return", result.Title)
		assert.Contains(t, result.Content, "Hello world.")
		assert.NotContains(t, result.Content, "Copyright")
		assert.Contains(t, result.Markdown, "lighthouse")
		assert.Positive(t, result.MetaInfo.WordCount)
	})

	t.Run("falls back to JSON-LD when the body is empty", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(structuredDataPage))
		}))
		defer server.Close()

		result := realPipeline().Extract(context.Background(), server.URL+"/tides")

		require.True(t, result.Success)
		assert.Equal(t, clipper.StrategyStructuredData, result.Strategy)
		assert.Contains(t, result.Content, "new tide tables")
		assert.Contains(t, result.Content, "Spring tides")
		assert.Equal(t, "Ada Shore", result.MetaInfo.Author)
	})

	t.Run("reports failure when every identity is refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}))
		defer server.Close()

		result := realPipeline().Extract(context.Background(), server.URL+"/paywalled")

		assert.False(t, result.Success)
		assert.Empty(t, result.Title)
		assert.Empty(t, result.Content)
		assert.False(t, result.ExtractedAt.IsZero())
	})
}
