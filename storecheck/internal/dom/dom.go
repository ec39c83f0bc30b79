// Package dom declares the page capabilities the checks consume. The rod
// adapter in internal/browser implements them against a live Chrome tab;
// tests implement them in memory.
package dom

import "context"

// Element is one node returned by a selector query.
type Element interface {
	// Text returns the rendered text content.
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Visible reports whether the node has a non-empty layout box.
	Visible(ctx context.Context) (bool, error)
	// Enabled reports whether the node accepts interaction (not disabled).
	Enabled(ctx context.Context) (bool, error)
}

// Page is a DOM query and script evaluation surface.
type Page interface {
	// QueryAll returns every node matching selector in document order.
	// A malformed selector returns an error.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Eval runs a JS function in page context and decodes its JSON result
	// into out (which may be nil).
	Eval(ctx context.Context, js string, out any, args ...any) error
}

// WaitUntil is the navigation completion criterion.
type WaitUntil string

const (
	WaitNetworkIdle      WaitUntil = "network_idle"
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "dom_content_loaded"
)

// Recorder receives browser events while a tab is being listened to.
// The signals Collector implements it.
type Recorder interface {
	Console(level, text, sourceURL string)
	Exception(message, sourceURL string)
	RequestFailed(url, reason, resourceType string, canceled bool)
	Response(url string, status int, resourceType string, headers map[string]string)
}

// Tab is one page handle lent to the checks for a single URL.
type Tab interface {
	Page
	// Listen attaches event listeners feeding rec. They stay attached until
	// the returned stop function is called or ctx ends.
	Listen(ctx context.Context, rec Recorder) (stop func())
	// Navigate loads url and waits for the completion criterion.
	Navigate(ctx context.Context, url string, until WaitUntil) error
	// HTML returns the serialised document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Browser lends tabs. The session itself is owned by the caller.
type Browser interface {
	NewTab(ctx context.Context) (Tab, error)
}
