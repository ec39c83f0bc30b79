package signals

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hazyhaar/storecheck/storecheck/result"
)

// criticalPaths mark requests whose failure breaks purchasing.
var criticalPaths = []string{"/checkout", "/cart", "/api"}

// criticalScripts are bundle names treated as core application code.
var criticalScripts = map[string]bool{"main.js": true, "app.js": true, "bundle.js": true}

// IsCriticalResource reports whether rawURL is a checkout, cart or API
// call, a stylesheet, or a core script bundle.
func IsCriticalResource(rawURL string) bool {
	p := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = strings.ToLower(u.Path)
	}
	for _, c := range criticalPaths {
		if strings.Contains(p, c) {
			return true
		}
	}
	if strings.HasSuffix(p, ".css") {
		return true
	}
	return criticalScripts[path.Base(p)]
}

// corsMarkers identify CORS rejections in a network failure reason.
var corsMarkers = []string{"cors", "access-control", "cross-origin"}

// IsCORSFailure reports whether a failure reason is a CORS rejection.
func IsCORSFailure(reason string) bool {
	r := strings.ToLower(reason)
	for _, m := range corsMarkers {
		if strings.Contains(r, m) {
			return true
		}
	}
	return false
}

// NewRequestFailure builds a failure signal, categorised at ingestion.
func NewRequestFailure(rawURL, reason, resourceType string, at time.Time) RequestFailure {
	return RequestFailure{
		URL:          rawURL,
		Reason:       reason,
		ResourceType: resourceType,
		CORS:         IsCORSFailure(reason),
		Critical:     IsCriticalResource(rawURL),
		Time:         at,
	}
}

// FromResponse derives raw signals from one completed response: an error
// for status >= 400 and the passive security findings that apply when the
// page itself is served over HTTPS.
func FromResponse(pageURL, rawURL string, status int, resourceType string, headers map[string]string, at time.Time) []RawSignal {
	var out []RawSignal
	if status >= 400 {
		out = append(out, ResponseError{
			URL:          rawURL,
			Status:       status,
			ResourceType: resourceType,
			Critical:     IsCriticalResource(rawURL),
			Time:         at,
		})
	}

	if !isHTTPS(pageURL) {
		return out
	}
	if strings.HasPrefix(strings.ToLower(rawURL), "http://") {
		out = append(out, SecurityFinding{
			Kind:   result.KindMixedContent,
			URL:    rawURL,
			Detail: fmt.Sprintf("HTTP %s loaded on HTTPS page", orDefault(resourceType, "resource")),
			Time:   at,
		})
	}
	for _, name := range insecureCookies(headers) {
		out = append(out, SecurityFinding{
			Kind:   result.KindInsecureCookie,
			URL:    rawURL,
			Detail: fmt.Sprintf("cookie %q set without Secure flag", name),
			Time:   at,
		})
	}
	return out
}

// insecureCookies returns the names of cookies set without Secure. CDP
// folds repeated Set-Cookie headers into one value separated by newlines.
func insecureCookies(headers map[string]string) []string {
	var names []string
	for k, v := range headers {
		if !strings.EqualFold(k, "set-cookie") {
			continue
		}
		for _, line := range strings.Split(v, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			c, err := http.ParseSetCookie(line)
			if err != nil {
				continue
			}
			if !c.Secure {
				names = append(names, c.Name)
			}
		}
	}
	return names
}

func isHTTPS(u string) bool {
	return strings.HasPrefix(strings.ToLower(u), "https://")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return strings.ToLower(s)
}
