package signals

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

var (
	// ErrArmed is returned when results are read before Finalize.
	ErrArmed = errors.New("signals: collector still armed")
	// ErrFinalized is returned by a second Finalize call.
	ErrFinalized = errors.New("signals: collector already finalized")
)

// State is the collector lifecycle.
type State int32

const (
	Armed State = iota
	Finalized
)

func (s State) String() string {
	if s == Finalized {
		return "finalized"
	}
	return "armed"
}

// Config for a Collector.
type Config struct {
	// PageURL is the navigated URL; security checks apply when it is HTTPS.
	PageURL string
	Rules   Rules
	// ObservationWindow is waited at Finalize to catch delayed async errors.
	// It is a settle heuristic, not a quiescence guarantee.
	ObservationWindow time.Duration
	// Buffer is the intake channel capacity. Default: 1024.
	Buffer int
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SampleFunc reads navigation timing before the collector finalizes.
type SampleFunc func(ctx context.Context) (result.Performance, error)

// Collector accumulates raw signals for one page. Listener goroutines call
// the recorder methods concurrently; only the drain goroutine touches the
// log until Finalize has returned.
type Collector struct {
	cfg   Config
	state atomic.Int32

	in   chan RawSignal
	stop chan struct{}
	done chan struct{}
	log  []RawSignal

	mu       sync.RWMutex
	statuses map[string]int

	// intake is held shared by producers across the state check and the
	// send, and exclusively while sealing, so every signal is either
	// logged or dropped.
	intake  sync.RWMutex
	dropped atomic.Int64

	once  sync.Once
	ready chan struct{}
	res   result.SignalResult
}

// NewCollector returns an Armed collector with its drain goroutine running.
func NewCollector(cfg Config) *Collector {
	cfg.defaults()
	c := &Collector{
		cfg:      cfg,
		in:       make(chan RawSignal, cfg.Buffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
		statuses: make(map[string]int),
	}
	go c.drain()
	return c
}

// State returns the current lifecycle state.
func (c *Collector) State() State { return State(c.state.Load()) }

func (c *Collector) drain() {
	defer close(c.done)
	for {
		select {
		case s := <-c.in:
			c.log = append(c.log, s)
		case <-c.stop:
			for {
				select {
				case s := <-c.in:
					c.log = append(c.log, s)
				default:
					return
				}
			}
		}
	}
}

// Record hands a raw signal to the collector. Signals arriving after the
// window closed are counted as dropped.
func (c *Collector) Record(s RawSignal) {
	c.intake.RLock()
	defer c.intake.RUnlock()
	if c.State() != Armed {
		c.dropped.Add(1)
		return
	}
	c.in <- s
}

// seal moves to Finalized and waits for the drain to empty the buffer.
func (c *Collector) seal() {
	c.intake.Lock()
	c.state.Store(int32(Finalized))
	c.intake.Unlock()
	close(c.stop)
	<-c.done
}

// Console records console output. Only errors become signals.
func (c *Collector) Console(level, text, sourceURL string) {
	if !strings.EqualFold(level, "error") {
		return
	}
	c.Record(ConsoleMessage{Text: text, SourceURL: sourceURL, Time: time.Now()})
}

// Exception records an uncaught in-page exception.
func (c *Collector) Exception(message, sourceURL string) {
	c.Record(PageException{Message: message, SourceURL: sourceURL, Time: time.Now()})
}

// RequestFailed records a failed request. Cancelled requests and requests
// blocked by the client's own resource blocking are not failures.
func (c *Collector) RequestFailed(url, reason, resourceType string, canceled bool) {
	if canceled || strings.Contains(reason, "ERR_BLOCKED_BY_CLIENT") {
		return
	}
	c.Record(NewRequestFailure(url, reason, resourceType, time.Now()))
}

// Response indexes the status by URL and records derived signals.
func (c *Collector) Response(url string, status int, resourceType string, headers map[string]string) {
	c.mu.Lock()
	c.statuses[url] = status
	c.mu.Unlock()

	for _, s := range FromResponse(c.cfg.PageURL, url, status, resourceType, headers, time.Now()) {
		c.Record(s)
	}
}

// Status returns the last HTTP status seen for url.
func (c *Collector) Status(url string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.statuses[url]
	return s, ok
}

// Finalize waits the observation window, samples performance, stops
// intake and classifies. A cancelled ctx cuts the window short. Only the
// first call does work; later calls return ErrFinalized.
func (c *Collector) Finalize(ctx context.Context, sample SampleFunc) (result.SignalResult, error) {
	first := false
	c.once.Do(func() {
		first = true
		defer close(c.ready)

		if c.cfg.ObservationWindow > 0 {
			t := time.NewTimer(c.cfg.ObservationWindow)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}

		var perf result.Performance
		if sample != nil {
			p, err := sample(ctx)
			if err != nil {
				c.cfg.Logger.Debug("signals: performance sample failed", "error", err)
			} else {
				perf = p
			}
		}

		c.seal()

		c.res = Classify(c.log, perf, c.cfg.Rules)
		c.cfg.Logger.Debug("signals: finalized",
			"page", c.cfg.PageURL,
			"raw", len(c.log),
			"critical", c.res.CriticalCount,
			"warnings", c.res.WarningCount,
			"filtered", c.res.Filtered,
			"dropped", c.dropped.Load())
	})
	if !first {
		return result.SignalResult{}, ErrFinalized
	}
	return c.res, nil
}

// Result returns the classification once finalized.
func (c *Collector) Result() (result.SignalResult, error) {
	select {
	case <-c.ready:
		return c.res, nil
	default:
		return result.SignalResult{}, ErrArmed
	}
}

// Raw returns a copy of the raw log once finalized.
func (c *Collector) Raw() ([]RawSignal, error) {
	select {
	case <-c.ready:
		return append([]RawSignal(nil), c.log...), nil
	default:
		return nil, ErrArmed
	}
}

// Dropped counts signals that arrived after the window closed.
func (c *Collector) Dropped() int64 { return c.dropped.Load() }

// Close stops intake without waiting or sampling. It is a no-op after
// Finalize.
func (c *Collector) Close() {
	c.once.Do(func() {
		defer close(c.ready)
		c.seal()
		c.res = Classify(c.log, result.Performance{}, c.cfg.Rules)
	})
}
