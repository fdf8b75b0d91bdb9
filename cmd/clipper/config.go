package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/clipper"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (clipper.Config, error) {
	cfg := clipper.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

// Apply overlays the flags that were given on cfg. Unset flags keep the
// file or default value.
func (c *CLI) Apply(cfg clipper.Config) clipper.Config {
	if c.HostRPS > 0 {
		cfg.HostRPS = c.HostRPS
	}
	if c.ExtractionTTL > 0 {
		cfg.ExtractionTTL = c.ExtractionTTL
	}
	if c.ProxyTTL > 0 {
		cfg.ProxyTTL = c.ProxyTTL
	}
	if c.ProxyMaxMB > 0 {
		cfg.ProxyMaxBytes = c.ProxyMaxMB * 1024 * 1024
	}
	if c.RequestTimeout > 0 {
		cfg.RequestTimeout = c.RequestTimeout
	}
	if c.RenderTimeout > 0 {
		cfg.RenderTimeout = c.RenderTimeout
	}
	if c.RenderIdle > 0 {
		cfg.RenderIdle = c.RenderIdle
	}
	return cfg
}

// NewLogger builds the process logger from the log flags.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
