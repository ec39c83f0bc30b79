// Package signals collects browser-emitted events for one page during an
// observation window and classifies them by severity.
//
// A Collector is Armed when created: listener goroutines hand it raw
// signals, which a single drain goroutine appends to its log. Finalize
// closes the window, stops the drain and classifies the log exactly once.
package signals

import (
	"time"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// RawSignal is the closed set of events the collector accepts. Variants
// are decided at ingestion; classification never inspects payload shapes.
type RawSignal interface {
	At() time.Time
	// Hint is the severity suggested at ingestion. Classification may
	// re-tag console errors and drop noise.
	Hint() result.Severity
	raw()
}

// ConsoleMessage is a console.error call.
type ConsoleMessage struct {
	Text      string
	SourceURL string
	Time      time.Time
}

// PageException is an uncaught exception in page context.
type PageException struct {
	Message   string
	SourceURL string
	Time      time.Time
}

// RequestFailure is a request that never produced a response.
type RequestFailure struct {
	URL          string
	Reason       string
	ResourceType string
	CORS         bool
	Critical     bool // resource matches the critical-resource pattern
	Time         time.Time
}

// ResponseError is a response with status >= 400.
type ResponseError struct {
	URL          string
	Status       int
	ResourceType string
	Critical     bool
	Time         time.Time
}

// SecurityFinding is a passive per-response security observation.
type SecurityFinding struct {
	Kind   result.SignalKind // KindMixedContent or KindInsecureCookie
	URL    string
	Detail string
	Time   time.Time
}

func (s ConsoleMessage) At() time.Time  { return s.Time }
func (s PageException) At() time.Time   { return s.Time }
func (s RequestFailure) At() time.Time  { return s.Time }
func (s ResponseError) At() time.Time   { return s.Time }
func (s SecurityFinding) At() time.Time { return s.Time }

func (ConsoleMessage) Hint() result.Severity  { return result.SeverityWarning }
func (PageException) Hint() result.Severity   { return result.SeverityCritical }
func (SecurityFinding) Hint() result.Severity { return result.SeverityWarning }

func (s RequestFailure) Hint() result.Severity {
	if s.Critical {
		return result.SeverityCritical
	}
	return result.SeverityWarning
}

func (s ResponseError) Hint() result.Severity {
	if s.Status >= 500 || s.Critical {
		return result.SeverityCritical
	}
	return result.SeverityWarning
}

func (ConsoleMessage) raw()  {}
func (PageException) raw()   {}
func (RequestFailure) raw()  {}
func (ResponseError) raw()   {}
func (SecurityFinding) raw() {}
