package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
)

// Tab is a rod page implementing dom.Tab.
type Tab struct {
	page   *rod.Page
	router *rod.HijackRouter
	mgr    *Manager
	log    *slog.Logger
	once   sync.Once
}

var _ dom.Tab = (*Tab)(nil)

// Page exposes the underlying rod page.
func (t *Tab) Page() *rod.Page { return t.page }

func lifecycle(until dom.WaitUntil) proto.PageLifecycleEventName {
	switch until {
	case dom.WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case dom.WaitLoad:
		return proto.PageLifecycleEventNameLoad
	default:
		return proto.PageLifecycleEventNameNetworkAlmostIdle
	}
}

// Navigate loads url and blocks until the lifecycle event for until fires
// or ctx ends.
func (t *Tab) Navigate(ctx context.Context, url string, until dom.WaitUntil) error {
	p := t.page.Context(ctx)
	wait := p.WaitNavigation(lifecycle(until))
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("browser: wait %s on %s: %w", until, url, err)
	}
	return nil
}

func (t *Tab) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := t.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = element{el}
	}
	return out, nil
}

func (t *Tab) Eval(ctx context.Context, js string, out any, args ...any) error {
	res, err := t.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := res.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("browser: decode eval result: %w", err)
	}
	return nil
}

// HTML returns the serialised document.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get html: %w", err)
	}
	return html, nil
}

// Close releases the page. Safe to call more than once.
func (t *Tab) Close() error {
	var err error
	t.once.Do(func() {
		if t.router != nil {
			if rerr := t.router.Stop(); rerr != nil {
				t.log.Debug("browser: stop hijack router", "error", rerr)
			}
		}
		err = t.page.Close()
		t.mgr.tabClosed()
	})
	return err
}

type element struct{ el *rod.Element }

func (e element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e element) Enabled(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`function () {
		return !this.disabled && this.getAttribute('aria-disabled') !== 'true';
	}`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
