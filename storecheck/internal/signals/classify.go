package signals

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// DefaultNoise lists substrings of console errors emitted by analytics,
// advertising and tracking vendors. Matching errors are dropped.
var DefaultNoise = []string{
	"google-analytics",
	"googletagmanager",
	"gtag",
	"doubleclick",
	"googlesyndication",
	"adsbygoogle",
	"facebook",
	"fbevents",
	"connect.facebook.net",
	"hotjar",
	"segment.io",
	"analytics",
	"tiktok",
	"pinterest",
	"snapchat",
	"bat.bing.com",
	"klaviyo",
	"criteo",
	"taboola",
	"outbrain",
}

// DefaultCriticalPhrases mark console errors that report unhandled faults.
var DefaultCriticalPhrases = []string{
	"uncaught",
	"syntax error",
	"syntaxerror",
	"reference error",
	"referenceerror",
	"type error",
	"typeerror",
	"unhandled",
}

// DefaultSlowLoad is the load time above which a slow-load warning is added.
const DefaultSlowLoad = 5000 * time.Millisecond

// Rules drive classification.
type Rules struct {
	Noise           []string
	CriticalPhrases []string
	SlowLoad        time.Duration
	Tolerance       result.Tolerance
}

func (r *Rules) defaults() {
	if r.Noise == nil {
		r.Noise = DefaultNoise
	}
	if r.CriticalPhrases == nil {
		r.CriticalPhrases = DefaultCriticalPhrases
	}
	if r.SlowLoad <= 0 {
		r.SlowLoad = DefaultSlowLoad
	}
}

// Classify filters noise, tags severity and applies the tolerance verdict.
func Classify(log []RawSignal, perf result.Performance, rules Rules) result.SignalResult {
	rules.defaults()
	res := result.SignalResult{Performance: perf}

	for _, raw := range log {
		sig, keep := classifyOne(raw, rules)
		if !keep {
			res.Filtered++
			continue
		}
		res.Signals = append(res.Signals, sig)
	}

	if load := time.Duration(perf.LoadMS) * time.Millisecond; load > rules.SlowLoad {
		res.Signals = append(res.Signals, result.ClassifiedSignal{
			Kind:      result.KindSlowLoad,
			Severity:  result.SeverityWarning,
			Message:   fmt.Sprintf("page load took %dms (threshold %dms)", perf.LoadMS, rules.SlowLoad.Milliseconds()),
			Timestamp: time.Now(),
		})
	}

	for _, s := range res.Signals {
		switch s.Severity {
		case result.SeverityCritical:
			res.CriticalCount++
		case result.SeverityWarning:
			res.WarningCount++
		}
	}
	res.Passed = rules.Tolerance.Allows(res.CriticalCount, res.WarningCount)
	return res
}

func classifyOne(raw RawSignal, rules Rules) (result.ClassifiedSignal, bool) {
	sig := result.ClassifiedSignal{Severity: raw.Hint(), Timestamp: raw.At()}

	switch s := raw.(type) {
	case ConsoleMessage:
		if containsAny(s.Text, rules.Noise) {
			return sig, false
		}
		sig.Kind, sig.Message, sig.URL = result.KindConsoleError, s.Text, s.SourceURL
		if containsAny(s.Text, rules.CriticalPhrases) {
			sig.Severity = result.SeverityCritical
		} else {
			sig.Severity = result.SeverityWarning
		}

	case PageException:
		sig.Kind, sig.Message, sig.URL = result.KindPageError, s.Message, s.SourceURL

	case RequestFailure:
		sig.Kind = result.KindNetworkFailure
		if s.CORS {
			sig.Kind = result.KindCORSFailure
		}
		sig.URL = s.URL
		sig.Message = fmt.Sprintf("%s request failed: %s", orDefault(s.ResourceType, "resource"), s.Reason)

	case ResponseError:
		sig.Kind, sig.URL, sig.Status = result.KindHTTPError, s.URL, s.Status
		if s.Critical && s.Status < 500 {
			sig.Kind = result.KindCriticalResource
		}
		sig.Message = fmt.Sprintf("HTTP %d for %s", s.Status, orDefault(s.ResourceType, "resource"))

	case SecurityFinding:
		sig.Kind, sig.URL, sig.Message = s.Kind, s.URL, s.Detail
	}
	return sig, true
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
