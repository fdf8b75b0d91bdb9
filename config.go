package clipper

import "time"

// Config holds the tunables of the extraction pipeline and caches.
// The content thresholds were tuned empirically and are not invariants.
type Config struct {
	// ExtractionTTL is how long an extraction result is served from cache.
	ExtractionTTL time.Duration `yaml:"extraction_ttl"`

	// StaleFactor multiplies ExtractionTTL for serving a previously
	// successful result when a fresh extraction fails.
	StaleFactor int `yaml:"stale_factor"`

	// ProxyTTL is how long a proxied body is served from cache.
	ProxyTTL time.Duration `yaml:"proxy_ttl"`

	// ProxyMaxBytes is the proxy cache byte ceiling.
	ProxyMaxBytes int64 `yaml:"proxy_max_bytes"`

	// EvictionTarget is the fraction of ProxyMaxBytes eviction shrinks to.
	EvictionTarget float64 `yaml:"eviction_target"`

	// RequestTimeout bounds a whole extraction or proxy request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// FetchTimeout bounds the initial fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// RetryTimeout bounds each alternate-identity and AMP fetch.
	RetryTimeout time.Duration `yaml:"retry_timeout"`

	// RenderTimeout bounds the headless render stage.
	RenderTimeout time.Duration `yaml:"render_timeout"`

	// RenderIdle is how long the rendered page's network must be quiet
	// before its DOM is captured.
	RenderIdle time.Duration `yaml:"render_idle"`

	// MinTextLength is the text length an extraction needs to be sufficient.
	MinTextLength int `yaml:"min_text_length"`

	// MinNodeTextLength is the text length a selector match needs.
	MinNodeTextLength int `yaml:"min_node_text_length"`

	// MinDocumentBytes is the smallest document body accepted by the fetcher.
	MinDocumentBytes int `yaml:"min_document_bytes"`

	// MinImageBytes is the smallest body accepted for an image response
	// that does not declare an image content type.
	MinImageBytes int `yaml:"min_image_bytes"`

	// MaxBodyBytes caps response bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// HostRPS limits outbound requests per host. Zero disables limiting.
	HostRPS float64 `yaml:"host_rps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ExtractionTTL:     time.Hour,
		StaleFactor:       24,
		ProxyTTL:          2 * time.Hour,
		ProxyMaxBytes:     50 * 1024 * 1024,
		EvictionTarget:    0.8,
		RequestTimeout:    30 * time.Second,
		FetchTimeout:      30 * time.Second,
		RetryTimeout:      15 * time.Second,
		RenderTimeout:     20 * time.Second,
		RenderIdle:        500 * time.Millisecond,
		MinTextLength:     100,
		MinNodeTextLength: 50,
		MinDocumentBytes:  100,
		MinImageBytes:     1024,
		MaxBodyBytes:      10 * 1024 * 1024,
		HostRPS:           2,
	}
}

// WithDefaults returns c with every zero field replaced by its default.
// HostRPS is left alone since zero disables limiting.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ExtractionTTL <= 0 {
		c.ExtractionTTL = d.ExtractionTTL
	}
	if c.StaleFactor <= 0 {
		c.StaleFactor = d.StaleFactor
	}
	if c.ProxyTTL <= 0 {
		c.ProxyTTL = d.ProxyTTL
	}
	if c.ProxyMaxBytes <= 0 {
		c.ProxyMaxBytes = d.ProxyMaxBytes
	}
	if c.EvictionTarget <= 0 || c.EvictionTarget > 1 {
		c.EvictionTarget = d.EvictionTarget
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.RetryTimeout <= 0 {
		c.RetryTimeout = d.RetryTimeout
	}
	if c.RenderTimeout <= 0 {
		c.RenderTimeout = d.RenderTimeout
	}
	if c.RenderIdle <= 0 {
		c.RenderIdle = d.RenderIdle
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = d.MinTextLength
	}
	if c.MinNodeTextLength <= 0 {
		c.MinNodeTextLength = d.MinNodeTextLength
	}
	if c.MinDocumentBytes <= 0 {
		c.MinDocumentBytes = d.MinDocumentBytes
	}
	if c.MinImageBytes <= 0 {
		c.MinImageBytes = d.MinImageBytes
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	return c
}

// StaleTTL is the age up to which a successful extraction may be served
// after a fresh extraction failed.
func (c Config) StaleTTL() time.Duration {
	return c.ExtractionTTL * time.Duration(c.StaleFactor)
}
