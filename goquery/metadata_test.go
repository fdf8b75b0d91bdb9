package goquery_test

import (
	"testing"

	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataExtractor_ExtractMetadata(t *testing.T) {
	t.Parallel()

	t.Run("prefers Open Graph values", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head>
<title>Document Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description">
<meta property="og:image" content="/images/cover.jpg">
<meta property="og:site_name" content="Example News">
<meta property="og:url" content="https://example.com/story">
<meta name="twitter:title" content="Twitter Title">
</head>
<body><h1>Heading</h1></body>
</html>`

		m, err := goquery.NewMetadataExtractor().ExtractMetadata(html, "https://example.com/story?ref=x")
		require.NoError(t, err)

		assert.Equal(t, "OG Title", m.Title)
		assert.Equal(t, "OG description", m.Description)
		assert.Equal(t, "https://example.com/images/cover.jpg", m.Image)
		assert.Equal(t, "Example News", m.SiteName)
		assert.Equal(t, "https://example.com/story", m.CanonicalURL)
	})

	t.Run("falls back through the title chain", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			head string
			body string
			want string
		}{
			{name: "twitter title", head: `<meta name="twitter:title" content="Tw"><title>Doc</title>`, want: "Tw"},
			{name: "document title", head: `<title> Doc  Title </title>`, body: `<h1>H</h1>`, want: "Doc Title"},
			{name: "first heading", body: `<h1>First</h1><h1>Second</h1>`, want: "First"},
			{name: "nothing", body: `<p>text</p>`, want: ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				html := "<html><head>" + tt.head + "</head><body>" + tt.body + "</body></html>"
				m, err := goquery.NewMetadataExtractor().ExtractMetadata(html, "https://example.com/")
				require.NoError(t, err)
				assert.Equal(t, tt.want, m.Title)
			})
		}
	})

	t.Run("prefers meta description over Open Graph", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
<meta property="og:description" content="OG">
<meta name="description" content="Plain">
</head><body></body></html>`

		m, err := goquery.NewMetadataExtractor().ExtractMetadata(html, "https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, "Plain", m.Description)
	})

	t.Run("resolves favicons and falls back to favicon.ico", func(t *testing.T) {
		t.Parallel()

		withIcon := `<html><head><link rel="apple-touch-icon" href="/touch.png"><link rel="icon" href="icons/fav.png"></head></html>`
		m, err := goquery.NewMetadataExtractor().ExtractMetadata(withIcon, "https://example.com/blog/post")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/blog/icons/fav.png", m.Favicon)

		m, err = goquery.NewMetadataExtractor().ExtractMetadata(`<html><head></head></html>`, "https://example.com/blog/post")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/favicon.ico", m.Favicon)
	})

	t.Run("uses host name and base URL when nothing is declared", func(t *testing.T) {
		t.Parallel()

		m, err := goquery.NewMetadataExtractor().ExtractMetadata(`<html><body><p>x</p></body></html>`, "https://news.example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "news.example.com", m.SiteName)
		assert.Equal(t, "https://news.example.com/a", m.CanonicalURL)
	})

	t.Run("collects authors and publish date", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
<meta property="article:author" content="Grace">
<meta property="article:author" content="Linus">
<meta property="article:author" content="Grace">
<meta name="author" content="Ada">
<meta property="article:published_time" content="2024-02-03T10:00:00Z">
<link rel="canonical" href="/canonical">
</head><body><time datetime="2020-01-01">old</time></body></html>`

		m, err := goquery.NewMetadataExtractor().ExtractMetadata(html, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "Ada", m.Author)
		assert.Equal(t, []string{"Ada", "Grace", "Linus"}, m.Authors)
		assert.Equal(t, "2024-02-03T10:00:00Z", m.PublishDate)
		assert.Equal(t, "https://example.com/canonical", m.CanonicalURL)
	})

	t.Run("falls back to time element and rel author", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><a rel="author" href="/me"> Jane  Doe </a><time datetime="2021-05-06">May</time></body></html>`

		m, err := goquery.NewMetadataExtractor().ExtractMetadata(html, "https://example.com/a")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", m.Author)
		assert.Equal(t, "2021-05-06", m.PublishDate)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewMetadataExtractor().ExtractMetadata("  ", "https://example.com")
		assert.Equal(t, clipper.EINVALID, clipper.ErrorCode(err))
	})
}
