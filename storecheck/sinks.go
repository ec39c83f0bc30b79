package storecheck

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/storecheck/storecheck/internal/sink"
	"github.com/hazyhaar/storecheck/storecheck/internal/store"
)

// Sink is the output interface for page results.
type Sink = sink.Sink

// PageFunc is called for each page result.
type PageFunc = sink.PageFunc

// SummaryFunc is called once per batch.
type SummaryFunc = sink.SummaryFunc

// Store is the SQLite result history. It is also a Sink.
type Store = store.Store

// HistoryQuery filters Store.Recent.
type HistoryQuery = store.Query

// NewStdoutSink creates a JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, retries int, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookRetries(retries), sink.WithWebhookLogger(logger))
}

// NewCallbackSink creates an in-process sink. Either handler may be nil.
func NewCallbackSink(onPage PageFunc, onSummary SummaryFunc) Sink {
	return sink.NewCallback(onPage, onSummary)
}

// OpenStore opens the result history at path, creating parent directories.
func OpenStore(path string) (*Store, error) {
	return store.Open(path, store.WithMkdirAll())
}

// SinksFromConfig builds the sinks named in cfg. Stdout sinks write to w.
func SinksFromConfig(cfg *Config, w io.Writer, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, NewStdoutSink(w))
		case "webhook":
			out = append(out, NewWebhookSink(sc.URL, sc.Retries, logger))
		default:
			return nil, fmt.Errorf("storecheck: sinks[%d]: unknown type %q", i, sc.Type)
		}
	}
	return out, nil
}
