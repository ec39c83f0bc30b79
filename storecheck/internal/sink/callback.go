package sink

import (
	"context"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// PageFunc is called for each page result.
type PageFunc func(ctx context.Context, r *result.PageTestResult) error

// SummaryFunc is called once per batch.
type SummaryFunc func(ctx context.Context, s result.Summary) error

// Callback delivers results via Go function calls when the checker is
// embedded in another program.
type Callback struct {
	onPage    PageFunc
	onSummary SummaryFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onPage PageFunc, onSummary SummaryFunc) *Callback {
	return &Callback{onPage: onPage, onSummary: onSummary}
}

func (c *Callback) Send(ctx context.Context, r *result.PageTestResult) error {
	if c.onPage != nil {
		return c.onPage(ctx, r)
	}
	return nil
}

func (c *Callback) SendSummary(ctx context.Context, s result.Summary) error {
	if c.onSummary != nil {
		return c.onSummary(ctx, s)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
