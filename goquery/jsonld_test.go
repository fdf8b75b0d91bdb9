package goquery_test

import (
	"testing"

	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ldPage(blocks ...string) string {
	html := "<html><head>"
	for _, b := range blocks {
		html += `<script type="application/ld+json">` + b + `</script>`
	}
	return html + "</head><body><div id=app></div></body></html>"
}

func TestStructuredDataExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("synthesizes an article from a NewsArticle", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{
			"@context": "https://schema.org",
			"@type": "NewsArticle",
			"headline": "Big <News>",
			"articleBody": "First paragraph.\n\nSecond & last paragraph.",
			"author": [{"@type": "Person", "name": "Ada"}, {"name": "Grace"}],
			"datePublished": "2024-01-02",
			"image": {"url": "/lead.jpg"},
			"publisher": {"name": "Example Times"}
		}`)

		draft, err := goquery.NewStructuredDataExtractor().Extract(html, "https://example.com/a")
		require.NoError(t, err)

		assert.Equal(t, "<article><h1>Big &lt;News&gt;</h1><div><p>First paragraph.</p><p>Second &amp; last paragraph.</p></div></article>", draft.ContentHTML)
		assert.Equal(t, "Big <News>", draft.Title)
		assert.Equal(t, "First paragraph.\n\nSecond & last paragraph.", draft.TextContent)
		assert.Equal(t, []string{"Ada", "Grace"}, draft.Meta.Authors)
		assert.Equal(t, "Ada", draft.Meta.Author)
		assert.Equal(t, "2024-01-02", draft.Meta.PublishDate)
		assert.Equal(t, "https://example.com/lead.jpg", draft.Meta.Image)
		assert.Equal(t, "Example Times", draft.Meta.SiteName)
	})

	t.Run("finds articles in graphs and arrays", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			block string
		}{
			{name: "graph", block: `{"@graph": [{"@type": "WebSite", "name": "Site"}, {"@type": "Article", "headline": "Found"}]}`},
			{name: "array", block: `[{"@type": "Organization", "name": "Org"}, {"@type": "BlogPosting", "headline": "Found"}]`},
			{name: "type array", block: `{"@type": ["Thing", "ReportageNewsArticle"], "name": "Found"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				draft, err := goquery.NewStructuredDataExtractor().Extract(ldPage(tt.block), "https://example.com")
				require.NoError(t, err)
				assert.Equal(t, "Found", draft.Title)
			})
		}
	})

	t.Run("skips malformed blocks", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{not json`, `{"@type": "Article", "headline": "Second block"}`)

		draft, err := goquery.NewStructuredDataExtractor().Extract(html, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "Second block", draft.Title)
	})

	t.Run("returns ENOTFOUND without article data", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{"@type": "Organization", "name": "Org"}`)

		_, err := goquery.NewStructuredDataExtractor().Extract(html, "https://example.com")
		assert.Equal(t, clipper.ENOTFOUND, clipper.ErrorCode(err))
	})
}
