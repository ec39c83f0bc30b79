package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// Router fans out results to all sinks. One sink error does not block the
// others; errors are logged and the first is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Add appends a sink.
func (r *Router) Add(s Sink) { r.sinks = append(r.sinks, s) }

// Len returns the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Send(ctx context.Context, res *result.PageTestResult) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Send(ctx, res); err != nil {
			r.logger.Warn("sink: send page failed", "url", res.URL, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) SendSummary(ctx context.Context, sum result.Summary) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendSummary(ctx, sum); err != nil {
			r.logger.Warn("sink: send summary failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
