// Package config handles storecheck configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/storecheck/storecheck/profile"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

// PlatformAuto selects the profile from the page's HTML.
const PlatformAuto = "auto"

// Config is the top-level storecheck configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Tolerance ToleranceConfig `yaml:"tolerance"`
	Checks    ChecksConfig    `yaml:"checks"`
	// Platform forces a selector profile, or "auto".
	Platform string                                 `yaml:"platform"`
	Profiles map[string]map[string]profile.Override `yaml:"profiles"`
	Pages    []string                               `yaml:"pages"`
	Sinks    []SinkConfig                           `yaml:"sinks"`
	Store    StoreConfig                            `yaml:"store"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Mode             string        `yaml:"mode"` // headless | headful
	Stealth          *bool         `yaml:"stealth"`
	Viewport         Viewport      `yaml:"viewport"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"` // fonts | media
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// StealthEnabled defaults to true.
func (b BrowserConfig) StealthEnabled() bool {
	return b.Stealth == nil || *b.Stealth
}

// Viewport is the emulated window size. Height sizes the lazy-load
// scroll step.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TimeoutConfig holds per-operation timeouts and settle delays.
type TimeoutConfig struct {
	Navigation         time.Duration `yaml:"navigation"`
	FallbackNavigation time.Duration `yaml:"fallback_navigation"`
	Selector           time.Duration `yaml:"selector"`
	Settle             time.Duration `yaml:"settle"`
	ObservationWindow  time.Duration `yaml:"observation_window"`
	ScrollPause        time.Duration `yaml:"scroll_pause"`
	Probe              time.Duration `yaml:"probe"`
}

// ToleranceConfig bounds the signal counts a page may carry. Unset values
// take defaults; an explicit 0 is kept.
type ToleranceConfig struct {
	MaxCriticalErrors *int `yaml:"max_critical_errors"`
	MaxWarnings       *int `yaml:"max_warnings"`
}

// Resolve returns the tolerance with defaults applied.
func (t ToleranceConfig) Resolve() result.Tolerance {
	out := result.Tolerance{MaxCriticalErrors: 0, MaxWarnings: 5}
	if t.MaxCriticalErrors != nil {
		out.MaxCriticalErrors = *t.MaxCriticalErrors
	}
	if t.MaxWarnings != nil {
		out.MaxWarnings = *t.MaxWarnings
	}
	return out
}

// ChecksConfig tunes the individual checks.
type ChecksConfig struct {
	MinDescriptionLength int           `yaml:"min_description_length"`
	MinMetaTitleLength   int           `yaml:"min_meta_title_length"`
	MinAltSize           int           `yaml:"min_alt_size"`
	SlowLoad             time.Duration `yaml:"slow_load"`
	// Noise extends the built-in benign console-error substrings.
	Noise          []string `yaml:"noise"`
	LazySweep      *bool    `yaml:"lazy_sweep"`
	LazyIdentify   string   `yaml:"lazy_identify"` // index | src
	MaxScrollSteps int      `yaml:"max_scroll_steps"`
}

// LazySweepEnabled defaults to true.
func (c ChecksConfig) LazySweepEnabled() bool {
	return c.LazySweep == nil || *c.LazySweep
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type    string `yaml:"type"` // stdout | webhook
	URL     string `yaml:"url"`
	Retries int    `yaml:"retries"`
}

// StoreConfig enables the SQLite result history.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file, applies defaults and validates.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields. Callers building a Config in code use it.
func (c *Config) ApplyDefaults() { c.applyDefaults() }

func (c *Config) applyDefaults() {
	b := &c.Browser
	if b.Mode == "" {
		b.Mode = "headless"
	}
	if b.Viewport.Width <= 0 {
		b.Viewport.Width = 1920
	}
	if b.Viewport.Height <= 0 {
		b.Viewport.Height = 1080
	}
	if b.MemoryLimit <= 0 {
		b.MemoryLimit = 1 << 30
	}
	if b.RecycleInterval <= 0 {
		b.RecycleInterval = 4 * time.Hour
	}
	if b.XvfbDisplay == "" {
		b.XvfbDisplay = ":99"
	}

	t := &c.Timeouts
	if t.Navigation <= 0 {
		t.Navigation = 30 * time.Second
	}
	if t.FallbackNavigation <= 0 {
		t.FallbackNavigation = 15 * time.Second
	}
	if t.Selector <= 0 {
		t.Selector = 5 * time.Second
	}
	if t.Settle <= 0 {
		t.Settle = 2 * time.Second
	}
	if t.ObservationWindow <= 0 {
		t.ObservationWindow = 2 * time.Second
	}
	if t.ScrollPause <= 0 {
		t.ScrollPause = 500 * time.Millisecond
	}
	if t.Probe <= 0 {
		t.Probe = 5 * time.Second
	}

	k := &c.Checks
	if k.MinDescriptionLength <= 0 {
		k.MinDescriptionLength = 10
	}
	if k.MinMetaTitleLength <= 0 {
		k.MinMetaTitleLength = 10
	}
	if k.MinAltSize <= 0 {
		k.MinAltSize = 50
	}
	if k.SlowLoad <= 0 {
		k.SlowLoad = 5 * time.Second
	}
	if k.LazyIdentify == "" {
		k.LazyIdentify = "index"
	}
	if k.MaxScrollSteps <= 0 {
		k.MaxScrollSteps = 50
	}

	if c.Platform == "" {
		c.Platform = PlatformAuto
	}
	for i := range c.Sinks {
		if c.Sinks[i].Type == "webhook" && c.Sinks[i].Retries <= 0 {
			c.Sinks[i].Retries = 3
		}
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch c.Browser.Mode {
	case "headless", "headful":
	default:
		add("browser.mode: %q is not headless or headful", c.Browser.Mode)
	}
	for _, r := range c.Browser.ResourceBlocking {
		switch strings.ToLower(r) {
		case "fonts", "media":
		default:
			add("browser.resource_blocking: %q cannot be blocked (fonts, media)", r)
		}
	}

	tol := c.Tolerance.Resolve()
	if tol.MaxCriticalErrors < 0 {
		add("tolerance.max_critical_errors: must be >= 0")
	}
	if tol.MaxWarnings < 0 {
		add("tolerance.max_warnings: must be >= 0")
	}

	switch c.Checks.LazyIdentify {
	case "index", "src":
	default:
		add("checks.lazy_identify: %q is not index or src", c.Checks.LazyIdentify)
	}

	for _, p := range c.Pages {
		if err := CheckURL(p); err != nil {
			add("pages: %v", err)
		}
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if err := CheckURL(s.URL); err != nil {
				add("sinks[%d]: %v", i, err)
			}
		default:
			add("sinks[%d].type: %q is not stdout or webhook", i, s.Type)
		}
	}
	return errors.Join(errs...)
}

// CheckURL accepts absolute http and https URLs.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q: need absolute http(s) url", raw)
	}
	return nil
}
