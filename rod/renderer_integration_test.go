//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, opts ...rod.RendererOption) *rod.Renderer {
	t.Helper()
	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	r := rod.NewRenderer(manager, opts...)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRenderer_Render_ReturnsScriptedContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Story</title></head>
<body>
<article id="story">Loading...</article>
<script>
setTimeout(function () {
  document.getElementById('story').textContent = 'Rendered article body';
}, 50);
</script>
</body>
</html>`))
	}))
	defer srv.Close()

	r := newRenderer(t)
	require.True(t, r.Available())

	html, err := r.Render(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, html, "Rendered article body")
}

func TestRenderer_Render_SendsIdentity(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer srv.Close()

	r := newRenderer(t, rod.WithIdentity(clipper.IdentityDesktopFirefox))

	_, err := r.Render(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, clipper.IdentityDesktopFirefox.UserAgent, <-agents)
}

func TestRenderer_Render_HonoursDeadline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`<html><body>late</body></html>`))
	}))
	defer srv.Close()

	r := newRenderer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Render(ctx, srv.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRenderer_Close(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	r := rod.NewRenderer(manager)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.False(t, r.Available())
	_, err = r.Render(context.Background(), "http://example.com")
	assert.Equal(t, clipper.EUNAVAILABLE, clipper.ErrorCode(err))
}
