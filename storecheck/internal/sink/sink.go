// Package sink delivers page results to output backends.
package sink

import (
	"context"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// Sink is the output interface. Implementations deliver results to
// different backends (stdout, webhook, in-process callback, SQLite).
type Sink interface {
	Send(ctx context.Context, r *result.PageTestResult) error
	SendSummary(ctx context.Context, s result.Summary) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
