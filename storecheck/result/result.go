// Package result defines the structured types produced by storecheck.
// These are the public API contract: reporting layers (CLI output, sinks,
// the HTTP API) import this package and never mutate a returned result.
package result

import "time"

// Severity classifies a finding.
type Severity string

const (
	SeverityCritical Severity = "critical" // fails the page by itself
	SeverityWarning  Severity = "warning"  // counted against the warning tolerance
)

// SignalKind is the unified taxonomy for browser-emitted signals.
type SignalKind string

const (
	KindConsoleError     SignalKind = "console_error"
	KindPageError        SignalKind = "page_error"        // uncaught exception
	KindNetworkFailure   SignalKind = "network_failure"   // request never completed
	KindCORSFailure      SignalKind = "cors_failure"      // request blocked by CORS
	KindHTTPError        SignalKind = "http_error"        // response status >= 400
	KindCriticalResource SignalKind = "critical_resource" // 4xx on checkout/cart/api/core bundle
	KindMixedContent     SignalKind = "mixed_content"
	KindInsecureCookie   SignalKind = "insecure_cookie"
	KindSlowLoad         SignalKind = "slow_load"
)

// Tolerance bounds how many findings of each severity a page may carry.
// Comparisons are strict: a page fails when a count exceeds its maximum.
type Tolerance struct {
	MaxCriticalErrors int `json:"max_critical_errors" yaml:"max_critical_errors"`
	MaxWarnings       int `json:"max_warnings" yaml:"max_warnings"`
}

// Allows reports whether the given counts stay within tolerance.
func (t Tolerance) Allows(critical, warnings int) bool {
	return critical <= t.MaxCriticalErrors && warnings <= t.MaxWarnings
}

// ElementCheck is the outcome of locating one logical element.
type ElementCheck struct {
	Name            string   `json:"name"`
	Found           bool     `json:"found"`
	MatchedSelector string   `json:"matched_selector,omitempty"`
	Text            string   `json:"text,omitempty"`
	Visible         *bool    `json:"visible,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
	Count           int      `json:"count,omitempty"`      // matched nodes for list elements (images, variants)
	Candidates      []string `json:"candidates,omitempty"` // attempted selectors when not found
}

// Finding is a structural or image issue with its severity.
type Finding struct {
	Element  string   `json:"element"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Meta holds page-level meta information.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StructuralResult is the Structural Validator output.
type StructuralResult struct {
	Passed   bool                    `json:"passed"`
	Elements map[string]ElementCheck `json:"elements"`
	Meta     Meta                    `json:"meta"`
	Findings []Finding               `json:"findings,omitempty"`
}

// Critical returns the critical findings.
func (s StructuralResult) Critical() []Finding { return filter(s.Findings, SeverityCritical) }

// Warnings returns the warning findings.
func (s StructuralResult) Warnings() []Finding { return filter(s.Findings, SeverityWarning) }

// LoadStatus is the resolved state of one image.
type LoadStatus string

const (
	LoadOK           LoadStatus = "loaded"
	LoadFailed       LoadStatus = "failed"
	LoadInconclusive LoadStatus = "inconclusive" // probe answered opaquely
)

// ImageRecord describes one discovered image node.
type ImageRecord struct {
	Index      int        `json:"index"`
	Src        string     `json:"src"`
	Alt        string     `json:"alt"`
	Width      int        `json:"width"`  // natural width
	Height     int        `json:"height"` // natural height
	Loading    string     `json:"loading,omitempty"`
	Lazy       bool       `json:"lazy,omitempty"` // surfaced by the scroll sweep
	Status     LoadStatus `json:"status"`
	Evidence   string     `json:"evidence,omitempty"` // dom | network | probe
	HTTPStatus int        `json:"http_status,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Loaded reports whether the image resolved as loaded.
func (r ImageRecord) Loaded() bool { return r.Status == LoadOK }

// ImageResult is the Image Load Auditor output.
type ImageResult struct {
	Passed       bool          `json:"passed"`
	Total        int           `json:"total"`
	Loaded       int           `json:"loaded"`
	Failed       int           `json:"failed"`
	Inconclusive int           `json:"inconclusive"`
	LazyLoaded   int           `json:"lazy_loaded"`
	Images       []ImageRecord `json:"images"`
	MissingAlt   []string      `json:"missing_alt,omitempty"`
}

// ClassifiedSignal is a browser signal after noise filtering and tagging.
type ClassifiedSignal struct {
	Kind      SignalKind `json:"kind"`
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
	URL       string     `json:"url,omitempty"`
	Status    int        `json:"status,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Performance holds navigation timing sampled before finalize.
type Performance struct {
	DOMContentLoadedMS int64 `json:"dom_content_loaded_ms"`
	LoadMS             int64 `json:"load_ms"`
}

// SignalResult is the Signal Classifier output.
type SignalResult struct {
	Passed        bool               `json:"passed"`
	Signals       []ClassifiedSignal `json:"signals,omitempty"`
	CriticalCount int                `json:"critical_count"`
	WarningCount  int                `json:"warning_count"`
	Filtered      int                `json:"filtered"`
	Performance   Performance        `json:"performance"`
}

// Count returns how many classified signals have the given kind.
func (s SignalResult) Count(kind SignalKind) int {
	n := 0
	for _, sig := range s.Signals {
		if sig.Kind == kind {
			n++
		}
	}
	return n
}

// PageTestResult is the frozen outcome of one page run.
type PageTestResult struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	Platform         string            `json:"platform"`
	PlatformDetected bool              `json:"platform_detected"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         time.Duration     `json:"duration"`
	Degraded         bool              `json:"degraded,omitempty"` // navigation used the fallback criterion
	Structural       *StructuralResult `json:"structural,omitempty"`
	Images           *ImageResult      `json:"images,omitempty"`
	Signals          *SignalResult     `json:"signals,omitempty"`
	Passed           bool              `json:"passed"`
	Error            string            `json:"error,omitempty"`
}

// CriticalCount sums critical findings across every module.
func (r PageTestResult) CriticalCount() int {
	n := 0
	if r.Structural != nil {
		n += len(r.Structural.Critical())
	}
	if r.Images != nil {
		n += r.Images.Failed
	}
	if r.Signals != nil {
		n += r.Signals.CriticalCount
	}
	return n
}

// WarningCount sums warnings across every module.
func (r PageTestResult) WarningCount() int {
	n := 0
	if r.Structural != nil {
		n += len(r.Structural.Warnings())
	}
	if r.Signals != nil {
		n += r.Signals.WarningCount
	}
	return n
}

func filter(fs []Finding, sev Severity) []Finding {
	var out []Finding
	for _, f := range fs {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}
