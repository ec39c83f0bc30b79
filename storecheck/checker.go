// Package storecheck drives a browser against storefront product pages and
// decides, per page, whether the page is production ready.
//
// Each page runs one sequential pipeline: listeners attach, the page
// loads (with a looser fallback criterion), structural and image checks
// run, the signal window closes, and the verdict is composed. Faults are
// recorded on the page result; a batch never aborts.
package storecheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/storecheck/storecheck/internal/browser"
	"github.com/hazyhaar/storecheck/storecheck/internal/config"
	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
	"github.com/hazyhaar/storecheck/storecheck/internal/images"
	"github.com/hazyhaar/storecheck/storecheck/internal/signals"
	"github.com/hazyhaar/storecheck/storecheck/internal/sink"
	"github.com/hazyhaar/storecheck/storecheck/internal/structural"
	"github.com/hazyhaar/storecheck/storecheck/internal/verdict"
	"github.com/hazyhaar/storecheck/storecheck/profile"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

const performanceScript = `() => {
	const nav = performance.getEntriesByType('navigation')[0];
	if (nav) {
		return {
			dom_content_loaded_ms: Math.round(nav.domContentLoadedEventEnd),
			load_ms: Math.round(nav.loadEventEnd),
		};
	}
	const t = performance.timing;
	return {
		dom_content_loaded_ms: Math.max(0, t.domContentLoadedEventEnd - t.navigationStart),
		load_ms: Math.max(0, t.loadEventEnd - t.navigationStart),
	};
}`

// Checker runs page checks against one browser session. Pages are checked
// one at a time.
type Checker struct {
	cfg     *config.Config
	mgr     *browser.Manager // nil when the browser is supplied
	browser dom.Browser
	catalog *profile.Catalog
	rules   signals.Rules
	sinkR   *sink.Router
	logger  *slog.Logger

	mu    sync.Mutex
	newID func() string
}

// Option configures a Checker.
type Option func(*Checker)

// WithBrowser supplies the tab source instead of launching Chrome. The
// caller owns its lifecycle.
func WithBrowser(b dom.Browser) Option {
	return func(c *Checker) { c.browser = b }
}

// WithSinks adds result sinks.
func WithSinks(sinks ...Sink) Option {
	return func(c *Checker) {
		for _, s := range sinks {
			c.sinkR.Add(s)
		}
	}
}

func withIDs(f func() string) Option {
	return func(c *Checker) { c.newID = f }
}

// New creates a Checker. cfg may be nil for defaults. Profile overrides
// are merged into the built-in catalog here.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Checker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.ApplyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog, err := profile.Builtin().Merge(cfg.Profiles)
	if err != nil {
		return nil, fmt.Errorf("storecheck: profiles: %w", err)
	}
	if cfg.Platform != config.PlatformAuto {
		if _, ok := catalog.Get(cfg.Platform); !ok {
			return nil, fmt.Errorf("storecheck: platform %q has no selector profile (have %v)", cfg.Platform, catalog.Platforms())
		}
	}

	c := &Checker{
		cfg:     cfg,
		catalog: catalog,
		rules: signals.Rules{
			Noise:     slices.Concat(signals.DefaultNoise, cfg.Checks.Noise),
			SlowLoad:  cfg.Checks.SlowLoad,
			Tolerance: cfg.Tolerance.Resolve(),
		},
		sinkR:  sink.NewRouter(logger),
		logger: logger,
		newID:  newRunID,
	}
	for _, o := range opts {
		o(c)
	}

	if c.browser == nil {
		c.mgr = browser.NewManager(browser.Config{
			RemoteURL:       cfg.Browser.Remote,
			Mode:            browser.Mode(cfg.Browser.Mode),
			Stealth:         cfg.Browser.StealthEnabled(),
			ViewportWidth:   cfg.Browser.Viewport.Width,
			ViewportHeight:  cfg.Browser.Viewport.Height,
			MemoryLimit:     cfg.Browser.MemoryLimit,
			RecycleInterval: cfg.Browser.RecycleInterval,
			BlockResources:  cfg.Browser.ResourceBlocking,
			XvfbDisplay:     cfg.Browser.XvfbDisplay,
			Logger:          logger,
		})
		c.browser = c.mgr
	}
	return c, nil
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Catalog returns the effective selector catalog.
func (c *Checker) Catalog() *profile.Catalog { return c.catalog }

// Config returns the effective configuration.
func (c *Checker) Config() *Config { return c.cfg }

// Start launches Chrome when the Checker owns it.
func (c *Checker) Start(ctx context.Context) error {
	if c.mgr == nil {
		return nil
	}
	if err := c.mgr.Start(ctx); err != nil {
		return fmt.Errorf("storecheck: start browser: %w", err)
	}
	return nil
}

// Close shuts down sinks and the owned browser.
func (c *Checker) Close() error {
	err := c.sinkR.Close()
	if c.mgr != nil {
		err = errors.Join(err, c.mgr.Close())
	}
	return err
}

// CheckAll checks urls in order and returns one result per URL plus the
// batch summary, which is also sent to the sinks.
func (c *Checker) CheckAll(ctx context.Context, urls []string) ([]*result.PageTestResult, result.Summary) {
	out := make([]*result.PageTestResult, 0, len(urls))
	for _, u := range urls {
		out = append(out, c.CheckPage(ctx, u))
	}

	vals := make([]result.PageTestResult, len(out))
	for i, r := range out {
		vals[i] = *r
	}
	sum := result.Summarize(vals)
	if err := c.sinkR.SendSummary(ctx, sum); err != nil {
		c.logger.Warn("checker: send summary failed", "error", err)
	}
	c.logger.Info("checker: batch done", "total", sum.Total, "passed", sum.Passed, "failed", sum.Failed)
	return out, sum
}

// CheckPage runs the full pipeline for one URL. It never returns nil;
// operational faults are recorded in the result's Error field.
func (c *Checker) CheckPage(ctx context.Context, url string) (res *result.PageTestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in := verdict.Input{ID: c.newID(), URL: url, StartedAt: time.Now()}
	log := c.logger.With("url", url, "id", in.ID)

	defer func() {
		if p := recover(); p != nil {
			in.Fault = fmt.Errorf("checker: panic: %v", p)
		}
		in.Duration = time.Since(in.StartedAt)
		r := verdict.Aggregate(in)
		res = &r

		observe(res)
		if r.Error != "" {
			log.Error("checker: page faulted", "error", r.Error)
		} else {
			log.Info("checker: page checked",
				"passed", r.Passed,
				"platform", r.Platform,
				"critical", r.CriticalCount(),
				"warnings", r.WarningCount(),
				"duration", r.Duration)
		}
		if err := c.sinkR.Send(ctx, res); err != nil {
			log.Warn("checker: send result failed", "error", err)
		}
	}()

	if err := config.CheckURL(url); err != nil {
		in.Fault = fmt.Errorf("checker: %w", err)
		return
	}
	in.Fault = c.run(ctx, url, &in, log)
	return
}

func (c *Checker) run(ctx context.Context, url string, in *verdict.Input, log *slog.Logger) error {
	tab, err := c.browser.NewTab(ctx)
	if err != nil {
		return fmt.Errorf("checker: open tab: %w", err)
	}
	defer func() {
		if err := tab.Close(); err != nil {
			log.Debug("checker: close tab", "error", err)
		}
	}()

	col := signals.NewCollector(signals.Config{
		PageURL:           url,
		Rules:             c.rules,
		ObservationWindow: c.cfg.Timeouts.ObservationWindow,
		Logger:            c.logger,
	})
	defer col.Close()
	stop := tab.Listen(ctx, col)
	defer stop()

	degraded, err := c.navigate(ctx, tab, url, log)
	in.Degraded = degraded
	if err != nil {
		return err
	}

	if err := sleep(ctx, c.cfg.Timeouts.Settle); err != nil {
		return fmt.Errorf("checker: settle: %w", err)
	}

	prof := c.selectProfile(ctx, tab, in, log)

	sr, err := structural.Validate(ctx, tab, prof, structural.Config{
		SelectorTimeout:      c.cfg.Timeouts.Selector,
		MinDescriptionLength: c.cfg.Checks.MinDescriptionLength,
		MinMetaTitleLength:   c.cfg.Checks.MinMetaTitleLength,
		Logger:               c.logger,
	})
	if err != nil {
		return fmt.Errorf("checker: structural: %w", err)
	}
	in.Structural = sr

	ir, err := images.Audit(ctx, tab, col, images.Config{
		ViewportHeight: c.cfg.Browser.Viewport.Height,
		ScrollPause:    c.cfg.Timeouts.ScrollPause,
		ProbeTimeout:   c.cfg.Timeouts.Probe,
		MinAltSize:     c.cfg.Checks.MinAltSize,
		LazySweep:      c.cfg.Checks.LazySweepEnabled(),
		IdentifyBy:     c.cfg.Checks.LazyIdentify,
		MaxScrollSteps: c.cfg.Checks.MaxScrollSteps,
		Logger:         c.logger,
	})
	if err != nil {
		return fmt.Errorf("checker: images: %w", err)
	}
	in.Images = ir

	sig, err := col.Finalize(ctx, func(ctx context.Context) (result.Performance, error) {
		var perf result.Performance
		err := tab.Eval(ctx, performanceScript, &perf)
		return perf, err
	})
	if err != nil {
		return fmt.Errorf("checker: signals: %w", err)
	}
	in.Signals = &sig
	return nil
}

// navigate tries the strict criterion first, then DOMContentLoaded.
func (c *Checker) navigate(ctx context.Context, tab dom.Tab, url string, log *slog.Logger) (degraded bool, err error) {
	nctx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Navigation)
	err = tab.Navigate(nctx, url, dom.WaitNetworkIdle)
	cancel()
	if err == nil {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, fmt.Errorf("checker: navigation: %w", ctx.Err())
	}
	log.Warn("checker: navigation fell back", "error", err)

	fctx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.FallbackNavigation)
	defer cancel()
	if ferr := tab.Navigate(fctx, url, dom.WaitDOMContentLoaded); ferr != nil {
		return true, fmt.Errorf("checker: navigation failed: %w", errors.Join(err, ferr))
	}
	return true, nil
}

func (c *Checker) selectProfile(ctx context.Context, tab dom.Tab, in *verdict.Input, log *slog.Logger) profile.Profile {
	if c.cfg.Platform != config.PlatformAuto {
		in.Platform = c.cfg.Platform
		return c.catalog.For(c.cfg.Platform)
	}

	html, err := tab.HTML(ctx)
	if err != nil {
		log.Warn("checker: read html for detection", "error", err)
		in.Platform = profile.Generic
		return c.catalog.For(profile.Generic)
	}
	in.Platform, in.PlatformDetected = profile.DetectString(html)
	return c.catalog.For(in.Platform)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
