// Package verdict composes module results into one page verdict.
package verdict

import (
	"time"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// Input carries everything one page run produced. Nil module results mean
// the module never ran, which only happens on a fault.
type Input struct {
	ID               string
	URL              string
	Platform         string
	PlatformDetected bool
	StartedAt        time.Time
	Duration         time.Duration
	Degraded         bool

	Structural *result.StructuralResult
	Images     *result.ImageResult
	Signals    *result.SignalResult

	// Fault is an operational fault caught at the pipeline boundary.
	Fault error
}

// Aggregate returns the frozen page result. A page passes iff every module
// passed and no fault occurred.
func Aggregate(in Input) result.PageTestResult {
	r := result.PageTestResult{
		ID:               in.ID,
		URL:              in.URL,
		Platform:         in.Platform,
		PlatformDetected: in.PlatformDetected,
		StartedAt:        in.StartedAt,
		Duration:         in.Duration,
		Degraded:         in.Degraded,
		Structural:       in.Structural,
		Images:           in.Images,
		Signals:          in.Signals,
	}
	if in.Fault != nil {
		r.Error = in.Fault.Error()
		return r
	}
	r.Passed = in.Structural != nil && in.Structural.Passed &&
		in.Images != nil && in.Images.Passed &&
		in.Signals != nil && in.Signals.Passed
	return r
}
