package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/clipper"
	"github.com/fwojciec/clipper/bloom"
	"github.com/fwojciec/clipper/cache"
	"github.com/fwojciec/clipper/etree"
	"github.com/fwojciec/clipper/extract"
	"github.com/fwojciec/clipper/goquery"
	"github.com/fwojciec/clipper/htmltomarkdown"
	cliphttp "github.com/fwojciec/clipper/http"
	"github.com/fwojciec/clipper/readability"
	"github.com/fwojciec/clipper/rod"
	clipslog "github.com/fwojciec/clipper/slog"
	"github.com/fwojciec/clipper/sqlite"
	"github.com/fwojciec/clipper/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ampMissCapacity sizes the filter of guessed AMP URLs known not to exist.
const ampMissCapacity = 100_000

// Main represents the program.
type Main struct {
	// SQLite database backing the durable extraction tier, if enabled.
	DB *sqlite.DB

	// Renderer is the headless browser renderer, if one was started.
	Renderer clipper.Renderer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var firstErr error
	if m.Renderer != nil {
		if err := m.Renderer.Close(); err != nil {
			firstErr = err
		}
	}
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("clipper"),
		kong.Description("Extract readable articles from web pages and proxy them for display"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'clipper --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(cli.ConfigFile)
	if err != nil {
		return err
	}
	cfg = cli.Apply(cfg)

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: NewLogger(stderr, cli.LogFormat, cli.LogLevel),
		Config: cfg,
	}

	imageProxy := clipper.ImageProxyPath
	if strings.HasPrefix(kongCtx.Command(), "serve") {
		imageProxy = strings.TrimRight(PublicURL(cli.Serve.Addr, cli.Serve.PublicURL), "/") + clipper.ImageProxyPath
	}

	if err := m.wire(cli, deps, imageProxy); err != nil {
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// wire builds the services behind the commands.
func (m *Main) wire(cli *CLI, deps *Dependencies, imageProxy string) error {
	cfg, logger := deps.Config, deps.Logger

	var fetcher clipper.Fetcher = cliphttp.NewFetcher(
		cliphttp.WithTimeout(cfg.FetchTimeout),
		cliphttp.WithMaxBodyBytes(cfg.MaxBodyBytes),
		cliphttp.WithMinBytes(cfg.MinDocumentBytes, cfg.MinImageBytes),
	)
	fetcher = clipslog.NewLoggingFetcher(fetcher, logger)

	var limiter, imageLimiter clipper.DomainLimiter
	if cfg.HostRPS > 0 {
		limiter = extract.NewDomainLimiter(cfg.HostRPS)
		imageLimiter = extract.NewDomainLimiter(cfg.HostRPS, extract.WithBurst(extract.ImageBurst))
	}

	var store *sqlite.ExtractionStore
	if cli.CacheDB != "" {
		m.DB = sqlite.NewDB(cli.CacheDB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Set CLIPPER_CACHE_DB or --cache-db to a writable path")
			return fmt.Errorf("failed to open cache database at %q: %w", cli.CacheDB, err)
		}
		store = sqlite.NewExtractionStore(m.DB)
	}

	m.Renderer = clipper.NopRenderer{}
	if cli.Render {
		var opts []rod.ManagerOption
		if cli.BrowserBin != "" {
			opts = append(opts, rod.WithBrowserBin(cli.BrowserBin))
		}
		if cli.NoSandbox {
			opts = append(opts, rod.WithNoSandbox())
		}
		manager, err := rod.NewBrowserManager(opts...)
		if err != nil {
			logger.Warn("headless browser unavailable, render fallback disabled", "err", err)
		} else {
			m.Renderer = clipslog.NewLoggingRenderer(rod.NewRenderer(manager, rod.WithIdleTime(cfg.RenderIdle)), logger)
		}
	}

	sanitizer := goquery.NewSanitizer()
	sanitizer.ImageProxy = clipper.ImageProxyPath
	if strings.HasPrefix(imageProxy, "http") {
		sanitizer.ImageProxy = imageProxy
	}

	ampMisses := bloom.NewFilter(ampMissCapacity, 0.01)
	extractionCache := cache.NewExtractionCache(cfg.ExtractionTTL, cfg.StaleFactor)
	proxyCache := cache.NewProxyCache(cfg.ProxyTTL, cfg.ProxyMaxBytes, cfg.EvictionTarget)

	logged := func(name string, e clipper.Extractor) clipper.Extractor {
		return clipslog.NewLoggingExtractor(name, e, logger)
	}
	pipeline := &extract.Pipeline{
		Fetcher:        fetcher,
		Limiter:        limiter,
		Identities:     clipper.DefaultIdentities(),
		Primary:        logged("readability", readability.NewExtractor()),
		Selectors:      logged("selectors", goquery.NewSelectorExtractor(cfg.MinNodeTextLength)),
		Secondary:      logged("trafilatura", trafilatura.NewExtractor()),
		StructuredData: logged("jsonld", goquery.NewStructuredDataExtractor()),
		AMP:            goquery.NewAMPLocator(),
		AMPContent:     logged("amp", goquery.NewSelectorExtractor(cfg.MinNodeTextLength, goquery.AMPSelectors...)),
		AMPMisses:      ampMisses,
		Renderer:       m.Renderer,
		Metadata:       goquery.NewMetadataExtractor(),
		Sanitizer:      sanitizer,
		Converter:      htmltomarkdown.NewConverter(),
		Cache:          extractionCache,
		Config:         cfg,
		Logger:         logger,
	}
	caches := &extract.Caches{
		Extraction: extractionCache,
		Proxy:      proxyCache,
		Config:     cfg,
		Logger:     logger,
	}
	if store != nil {
		pipeline.Store = store
		caches.Store = store
	}

	deps.Extraction = pipeline
	deps.Caches = caches
	deps.Proxy = &extract.Proxy{
		Fetcher:      fetcher,
		Limiter:      limiter,
		ImageLimiter: imageLimiter,
		Rewriter:     goquery.NewProxyRewriter(imageProxy),
		Images:       etree.NewSVGSanitizer(),
		Cache:        proxyCache,
		Config:       cfg,
		Logger:       logger,
	}
	deps.Sweep = func(ctx context.Context) {
		removed := extractionCache.Sweep() + proxyCache.Sweep()
		if store != nil {
			n, err := store.PurgeExtractions(ctx, time.Now().Add(-cfg.StaleTTL()))
			if err != nil {
				logger.Warn("purging extraction store failed", "err", err)
			}
			removed += n
		}
		if removed > 0 {
			logger.Debug("cache sweep", "removed", removed, "amp_misses", ampMisses.EstimatedCount())
		}
	}
	return nil
}

// PublicURL returns the externally reachable base URL of the server. It
// falls back to localhost on the port of addr.
func PublicURL(addr, explicit string) string {
	if explicit != "" {
		return explicit
	}
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host
}
