package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/clipper"
	clipperhttp "github.com/fwojciec/clipper/http"
	"github.com/fwojciec/clipper/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(s *clipperhttp.Server, method, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestServer_Extract(t *testing.T) {
	t.Parallel()

	t.Run("returns the extraction result as JSON", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Extraction = &mock.ExtractionService{
			ExtractFn: func(_ context.Context, url string) *clipper.ExtractionResult {
				assert.Equal(t, "https://example.com/story", url)
				return &clipper.ExtractionResult{Title: "Story", Content: "Body", Success: true, Strategy: clipper.StrategyDirect}
			},
		}

		w := serve(s, http.MethodPost, "/extract", `{"url":"https://example.com/story"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var got clipper.ExtractionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Story", got.Title)
		assert.True(t, got.Success)
	})

	t.Run("reports extraction failures with 200", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Extraction = &mock.ExtractionService{
			ExtractFn: func(context.Context, string) *clipper.ExtractionResult {
				return clipper.FailedResult(time.Now())
			},
		}

		w := serve(s, http.MethodPost, "/extract", `{"url":"https://example.com/story"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("rejects bad request bodies with 400", func(t *testing.T) {
		t.Parallel()

		for name, body := range map[string]string{
			"malformed JSON": `{"url":`,
			"missing url":    `{}`,
			"blank url":      `{"url":"  "}`,
			"unsupported":    `{"url":"ftp://example.com/file"}`,
		} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				s := clipperhttp.NewServer()
				s.Extraction = &mock.ExtractionService{}

				w := serve(s, http.MethodPost, "/extract", body)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), `"error"`)
			})
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()

		w := serve(s, http.MethodGet, "/extract", "")

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestServer_ExtractMarkdown(t *testing.T) {
	t.Parallel()

	s := clipperhttp.NewServer()
	s.Extraction = &mock.ExtractionService{
		ExtractMarkdownFn: func(_ context.Context, url string) *clipper.MarkdownResult {
			return &clipper.MarkdownResult{URL: url, Success: false, Reason: "no content"}
		},
	}

	w := serve(s, http.MethodPost, "/extract_markdown", `{"url":"https://example.com/story"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got clipper.MarkdownResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "https://example.com/story", got.URL)
	assert.Equal(t, "no content", got.Reason)
}

func TestServer_Proxy(t *testing.T) {
	t.Parallel()

	page := &clipper.ProxyResponse{Body: []byte("<html>ok</html>"), ContentType: "text/html", Strategy: "desktop-chrome"}

	t.Run("serves proxied pages with caching headers", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchPageFn: func(_ context.Context, url string) (*clipper.ProxyResponse, error) {
				assert.Equal(t, "https://example.com/a?b=c", url)
				return page, nil
			},
		}

		w := serve(s, http.MethodGet, "/proxy?url=https%3A%2F%2Fexample.com%2Fa%3Fb%3Dc", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<html>ok</html>", w.Body.String())
		assert.Equal(t, "text/html", w.Header().Get("Content-Type"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		assert.Equal(t, clipperhttp.ETag(page.Body), w.Header().Get("ETag"))
		assert.NotEmpty(t, w.Header().Get(clipperhttp.RequestIDHeader))
	})

	t.Run("marks cached responses", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchPageFn: func(context.Context, string) (*clipper.ProxyResponse, error) {
				return &clipper.ProxyResponse{Body: []byte("x"), ContentType: "text/plain", Cached: true}, nil
			},
		}

		w := serve(s, http.MethodGet, "/proxy?url=https://example.com/", "")

		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	})

	t.Run("answers 304 for a matching ETag", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchPageFn: func(context.Context, string) (*clipper.ProxyResponse, error) { return page, nil },
		}

		r := httptest.NewRequest(http.MethodGet, "/proxy?url=https://example.com/", nil)
		r.Header.Set("If-None-Match", clipperhttp.ETag(page.Body))
		w := httptest.NewRecorder()
		s.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("returns 502 with the proxy error", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchPageFn: func(_ context.Context, url string) (*clipper.ProxyResponse, error) {
				return nil, &clipper.ProxyError{
					Message:     "Unable to load this page through the proxy",
					URL:         url,
					LastError:   "HTTP 403",
					Attempts:    4,
					Suggestions: []string{"Open the original page in a new tab"},
				}
			},
		}

		w := serve(s, http.MethodGet, "/proxy?url=https://example.com/", "")

		require.Equal(t, http.StatusBadGateway, w.Code)
		var got clipper.ProxyError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 4, got.Attempts)
		assert.Equal(t, "HTTP 403", got.LastError)
		assert.Equal(t, []string{"Open the original page in a new tab"}, got.Suggestions)
	})

	t.Run("requires a url parameter", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()

		w := serve(s, http.MethodGet, "/proxy", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps data URL rejection to 400 on the image route", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchImageFn: func(context.Context, string) (*clipper.ProxyResponse, error) {
				return nil, clipper.Errorf(clipper.EINVALID, "data URLs are not proxied")
			},
		}

		w := serve(s, http.MethodGet, "/proxy/image?url=data:image/png;base64,AAAA", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"data URLs are not proxied"}`, w.Body.String())
	})

	t.Run("passes the raw url parameter through", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			target string
			want   string
		}{
			{name: "unencoded semicolon", target: "/proxy/image?url=https://cdn.example.com/a;v=2.png", want: "https://cdn.example.com/a;v=2.png"},
			{name: "unencoded query", target: "/proxy/image?url=https://cdn.example.com/a.png?w=10&h=20", want: "https://cdn.example.com/a.png?w=10&h=20"},
			{name: "encoded", target: "/proxy/image?url=https%3A%2F%2Fcdn.example.com%2Fa%20b.png", want: "https://cdn.example.com/a b.png"},
			{name: "after another parameter", target: "/proxy/image?v=1&url=https://cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
			{name: "data URL", target: "/proxy/image?url=data:image/png;base64,AAAA", want: "data:image/png;base64,AAAA"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				var got string
				s := clipperhttp.NewServer()
				s.Proxy = &mock.ProxyService{
					FetchImageFn: func(_ context.Context, url string) (*clipper.ProxyResponse, error) {
						got = url
						return &clipper.ProxyResponse{Body: []byte("x"), ContentType: "image/png"}, nil
					},
				}

				w := serve(s, http.MethodGet, tt.target, "")

				require.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("passes an unencoded page url with a semicolon", func(t *testing.T) {
		t.Parallel()

		var got string
		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchPageFn: func(_ context.Context, url string) (*clipper.ProxyResponse, error) {
				got = url
				return &clipper.ProxyResponse{Body: []byte("x"), ContentType: "text/html"}, nil
			},
		}

		w := serve(s, http.MethodGet, "/proxy?url=https://example.com/a;b", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com/a;b", got)
	})

	t.Run("serves images", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Proxy = &mock.ProxyService{
			FetchImageFn: func(context.Context, string) (*clipper.ProxyResponse, error) {
				return &clipper.ProxyResponse{Body: []byte("\x89PNG"), ContentType: "image/png"}, nil
			},
		}

		w := serve(s, http.MethodGet, "/proxy/image?url=https://cdn.example.com/a.png", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "4", w.Header().Get("Content-Length"))
	})
}

func TestServer_Caches(t *testing.T) {
	t.Parallel()

	t.Run("reports cache stats", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Caches = &mock.CacheService{
			CacheStatsFn: func() clipper.CacheStats {
				return clipper.CacheStats{
					ProxyCache:      clipper.ProxyCacheStats{TotalEntries: 2, TotalSizeMB: 1.5, HitRate: 0.5},
					ExtractionCache: clipper.ExtractionCacheStats{TotalEntries: 3, ValidEntries: 1},
					CacheLimits:     clipper.CacheLimits{ExtractionTTLSeconds: 3600, EvictionTarget: 0.8},
				}
			},
		}

		w := serve(s, http.MethodGet, "/cache-stats", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.InDelta(t, 2, got["proxyCache"]["totalEntries"], 0)
		assert.InDelta(t, 1.5, got["proxyCache"]["totalSizeMb"], 0)
		assert.InDelta(t, 1, got["extractionCache"]["validEntries"], 0)
		assert.InDelta(t, 3600, got["cacheLimits"]["extractionTtlSeconds"], 0)
	})

	t.Run("clears caches", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		s.Caches = &mock.CacheService{
			ClearCachesFn: func(context.Context) clipper.ClearResult {
				return clipper.ClearResult{Cleared: 5, ExtractionCleared: 2, ProxyCleared: 3}
			},
		}

		w := serve(s, http.MethodPost, "/clear-cache", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cleared":5,"extractionCleared":2,"proxyCleared":3}`, w.Body.String())
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s := clipperhttp.NewServer()

	w := serve(s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_RequestID(t *testing.T) {
	t.Parallel()

	t.Run("keeps a client supplied ID", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.Header.Set(clipperhttp.RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		s.ServeHTTP(w, r)

		assert.Equal(t, "abc-123", w.Header().Get(clipperhttp.RequestIDHeader))
	})

	t.Run("answers CORS preflight", func(t *testing.T) {
		t.Parallel()

		s := clipperhttp.NewServer()

		w := serve(s, http.MethodOptions, "/extract", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestServer_Open(t *testing.T) {
	t.Parallel()

	s := clipperhttp.NewServer()
	s.Addr = "127.0.0.1:0"
	require.NoError(t, s.Open())
	defer s.Close()

	resp, err := http.Get(s.URL() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, clipperhttp.ErrorStatusCode(clipper.EINVALID))
	assert.Equal(t, http.StatusNotFound, clipperhttp.ErrorStatusCode(clipper.ENOTFOUND))
	assert.Equal(t, http.StatusInternalServerError, clipperhttp.ErrorStatusCode("bogus"))
}
