package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/clipper"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config clipper.Config

	Extraction clipper.ExtractionService
	Proxy      clipper.ProxyService
	Caches     clipper.CacheService

	// Sweep expires cache entries. The serve command runs it periodically.
	Sweep func(ctx context.Context)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigFile string `name:"config" type:"path" env:"CLIPPER_CONFIG" help:"YAML file with pipeline and cache settings"`
	LogFormat  string `enum:"text,json" default:"text" env:"CLIPPER_LOG_FORMAT" help:"Log format (text, json)"`
	LogLevel   string `enum:"debug,info,warn,error" default:"info" env:"CLIPPER_LOG_LEVEL" help:"Log level"`
	CacheDB    string `name:"cache-db" type:"path" env:"CLIPPER_CACHE_DB" help:"SQLite file that keeps successful extractions across restarts"`
	Render     bool   `default:"true" negatable:"" env:"CLIPPER_RENDER" help:"Use a headless browser as the last fallback"`
	BrowserBin string `name:"browser-bin" type:"path" env:"CLIPPER_BROWSER_BIN" help:"Chrome binary used for rendering"`
	NoSandbox  bool   `name:"no-sandbox" env:"CLIPPER_NO_SANDBOX" help:"Run Chrome without its sandbox (containers running as root)"`

	HostRPS        float64       `name:"host-rps" env:"CLIPPER_HOST_RPS" help:"Outbound requests per second per host (default 2)"`
	ExtractionTTL  time.Duration `name:"extraction-ttl" env:"CLIPPER_EXTRACTION_TTL" help:"Extraction cache TTL (default 1h)"`
	ProxyTTL       time.Duration `name:"proxy-ttl" env:"CLIPPER_PROXY_TTL" help:"Proxy cache TTL (default 2h)"`
	ProxyMaxMB     int64         `name:"proxy-max-mb" env:"CLIPPER_PROXY_MAX_MB" help:"Proxy cache size ceiling in MiB (default 50)"`
	RequestTimeout time.Duration `name:"request-timeout" env:"CLIPPER_REQUEST_TIMEOUT" help:"Timeout for one extraction or proxy request (default 30s)"`
	RenderTimeout  time.Duration `name:"render-timeout" env:"CLIPPER_RENDER_TIMEOUT" help:"Timeout for the headless render stage (default 20s)"`
	RenderIdle     time.Duration `name:"render-idle" env:"CLIPPER_RENDER_IDLE" help:"Network quiet time before a rendered page is captured (default 500ms)"`

	Serve    ServeCmd    `cmd:"" help:"Serve the HTTP API"`
	Extract  ExtractCmd  `cmd:"" help:"Extract the article at a URL"`
	Markdown MarkdownCmd `cmd:"" help:"Print the Markdown rendition of the article at a URL"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr          string        `default:":8080" env:"CLIPPER_ADDR" help:"Listen address"`
	PublicURL     string        `name:"public-url" env:"CLIPPER_PUBLIC_URL" help:"Externally reachable base URL, used for image links in proxied pages"`
	SweepInterval time.Duration `name:"sweep-interval" default:"1m" help:"How often expired cache entries are removed"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL  string `arg:"" help:"Article URL"`
	JSON bool   `help:"Print the full result as JSON"`
}

// MarkdownCmd is the "markdown" subcommand.
type MarkdownCmd struct {
	URL string `arg:"" help:"Article URL"`
}
