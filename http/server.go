package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/clipper"
	"github.com/google/uuid"
)

// ShutdownTimeout is the time given for outstanding requests to finish
// before the server shuts down.
const ShutdownTimeout = 5 * time.Second

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 1 << 20

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Server serves the clipper HTTP API.
type Server struct {
	ln     net.Listener
	server *http.Server
	router *http.ServeMux

	// Addr is the bind address, for example ":8080".
	Addr string

	// Services used by the handlers.
	Extraction clipper.ExtractionService
	Proxy      clipper.ProxyService
	Caches     clipper.CacheService

	Logger *slog.Logger
}

// NewServer returns a new Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		router: http.NewServeMux(),
		Logger: slog.New(slog.DiscardHandler),
	}
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.router.HandleFunc("POST /extract", s.handleExtract)
	s.router.HandleFunc("POST /extract_markdown", s.handleExtractMarkdown)
	s.router.HandleFunc("GET /proxy", s.handleProxyPage)
	s.router.HandleFunc("GET "+clipper.ImageProxyPath, s.handleProxyImage)
	s.router.HandleFunc("GET /cache-stats", s.handleCacheStats)
	s.router.HandleFunc("POST /clear-cache", s.handleClearCache)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Open binds the listener and starts serving in a goroutine.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() { _ = s.server.Serve(s.ln) }()
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the bound port. Only valid after Open.
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the local base URL of the running server.
func (s *Server) URL() string {
	return "http://127.0.0.1:" + strconv.Itoa(s.Port())
}

// ServeHTTP assigns a request ID, sets CORS headers, logs the request and
// dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()

	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.router.ServeHTTP(rec, r)

	s.Logger.Info("http request",
		"id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"bytes", rec.bytes,
		"duration", time.Since(begin),
	)
}

type urlRequest struct {
	URL string `json:"url"`
}

// decodeURL reads and validates the {"url": ...} request body.
func decodeURL(w http.ResponseWriter, r *http.Request) (string, error) {
	var req urlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return "", clipper.Errorf(clipper.EINVALID, "Invalid JSON body.")
	}
	return validURL(req.URL)
}

func validURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", clipper.Errorf(clipper.EINVALID, "URL required.")
	}
	if _, err := clipper.NormalizeURL(raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// queryURL returns the url query parameter. Everything after "url=" is
// taken as the value so unencoded targets containing ';' or '&' survive.
func queryURL(r *http.Request) string {
	raw := r.URL.RawQuery
	i := strings.Index(raw, "url=")
	for i > 0 && raw[i-1] != '&' && raw[i-1] != ';' {
		j := strings.Index(raw[i+1:], "url=")
		if j < 0 {
			return ""
		}
		i += j + 1
	}
	if i < 0 {
		return ""
	}
	v := raw[i+len("url="):]
	if u, err := neturl.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	url, err := decodeURL(w, r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.Extraction.Extract(r.Context(), url))
}

func (s *Server) handleExtractMarkdown(w http.ResponseWriter, r *http.Request) {
	url, err := decodeURL(w, r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.Extraction.ExtractMarkdown(r.Context(), url))
}

func (s *Server) handleProxyPage(w http.ResponseWriter, r *http.Request) {
	url, err := validURL(queryURL(r))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	resp, err := s.Proxy.FetchPage(r.Context(), url)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeProxied(w, r, resp)
}

func (s *Server) handleProxyImage(w http.ResponseWriter, r *http.Request) {
	raw := queryURL(r)
	if strings.TrimSpace(raw) == "" {
		s.Error(w, r, clipper.Errorf(clipper.EINVALID, "URL required."))
		return
	}
	resp, err := s.Proxy.FetchImage(r.Context(), raw)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.writeProxied(w, r, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.Caches.CacheStats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.Caches.ClearCaches(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// writeProxied writes a proxied body with its caching headers. A matching
// If-None-Match short-circuits to 304.
func (s *Server) writeProxied(w http.ResponseWriter, r *http.Request, resp *clipper.ProxyResponse) {
	etag := ETag(resp.Body)
	h := w.Header()
	h.Set("Content-Type", resp.ContentType)
	h.Set("Cache-Control", "public, max-age=86400")
	h.Set("ETag", etag)
	if resp.Cached {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	if resp.Strategy != "" {
		h.Set("X-Proxy-Strategy", resp.Strategy)
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Body); err != nil {
		s.Logger.Debug("writing proxied body", "err", err)
	}
}

// ETag returns the quoted xxhash of body.
func ETag(body []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
}

// Error writes err to the client. A *clipper.ProxyError is written as-is
// with 502; application errors are mapped to a status by code.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	var pe *clipper.ProxyError
	if errors.As(err, &pe) {
		s.Logger.Warn("proxy failed", "url", pe.URL, "attempts", pe.Attempts, "err", pe.LastError)
		s.writeJSON(w, r, http.StatusBadGateway, pe)
		return
	}

	code, message := clipper.ErrorCode(err), clipper.ErrorMessage(err)
	if code == clipper.EINTERNAL {
		s.Logger.Error("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, r, ErrorStatusCode(code), &ErrorResponse{Error: message})
}

// ErrorResponse is the JSON body of an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

var codes = map[string]int{
	clipper.EINVALID:     http.StatusBadRequest,
	clipper.ENOTFOUND:    http.StatusNotFound,
	clipper.EUNAVAILABLE: http.StatusServiceUnavailable,
	clipper.EBLOCKED:     http.StatusBadGateway,
	clipper.EINTERNAL:    http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Debug("writing json response", "path", r.URL.Path, "err", err)
	}
}

// statusRecorder captures the status and size of a response for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
