// Package resolver locates logical page elements by trying candidate
// selectors in order. The first candidate whose node satisfies the content
// predicate wins; later candidates are never evaluated.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
	"github.com/hazyhaar/storecheck/storecheck/profile"
)

// maxNodesPerCandidate caps how many nodes of one selector are inspected.
const maxNodesPerCandidate = 10

// pricePattern accepts text carrying a currency symbol or at least one digit.
var pricePattern = regexp.MustCompile(`[\p{Sc}\d]`)

// Match is a resolved element.
type Match struct {
	Selector string
	Element  dom.Element
	Text     string // trimmed text, read for text and price predicates
	Count    int    // nodes matched by the winning selector
}

// NotFoundError reports that no candidate satisfied the predicate.
type NotFoundError struct {
	Candidates []string
}

func (e *NotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return "resolver: no candidate selectors"
	}
	return fmt.Sprintf("resolver: no match among %d candidates: %s",
		len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Options tunes resolution.
type Options struct {
	// Timeout bounds each candidate independently. Zero means no bound
	// beyond the parent context.
	Timeout time.Duration
}

// Resolve returns the first candidate that matches a node satisfying pred.
// Selectors that fail (malformed, timed out, detached node) count as
// non-matches. Only a cancelled parent context aborts the loop.
func Resolve(ctx context.Context, page dom.Page, candidates []string, pred profile.Predicate, opts Options) (*Match, error) {
	for _, sel := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m := try(ctx, page, sel, pred, opts.Timeout); m != nil {
			return m, nil
		}
	}
	return nil, &NotFoundError{Candidates: append([]string(nil), candidates...)}
}

func try(ctx context.Context, page dom.Page, sel string, pred profile.Predicate, timeout time.Duration) *Match {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	nodes, err := page.QueryAll(ctx, sel)
	if err != nil || len(nodes) == 0 {
		return nil
	}

	limit := min(len(nodes), maxNodesPerCandidate)
	for _, el := range nodes[:limit] {
		text, ok := satisfies(ctx, el, pred)
		if ok {
			return &Match{Selector: sel, Element: el, Text: text, Count: len(nodes)}
		}
	}
	return nil
}

// satisfies applies the content predicate. Any read error fails the node.
func satisfies(ctx context.Context, el dom.Element, pred profile.Predicate) (string, bool) {
	switch pred {
	case profile.PredicateText:
		text, err := el.Text(ctx)
		if err != nil {
			return "", false
		}
		text = strings.TrimSpace(text)
		return text, text != ""
	case profile.PredicatePrice:
		text, err := el.Text(ctx)
		if err != nil {
			return "", false
		}
		text = strings.TrimSpace(text)
		return text, IsPrice(text)
	case profile.PredicateVisible:
		visible, err := el.Visible(ctx)
		return "", err == nil && visible
	default:
		return "", true
	}
}

// IsPrice reports whether text looks like a price.
func IsPrice(text string) bool {
	return pricePattern.MatchString(text)
}
