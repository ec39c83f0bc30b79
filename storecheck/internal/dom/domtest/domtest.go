// Package domtest provides in-memory dom implementations for tests.
package domtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
)

// Element is a static node.
type Element struct {
	TextValue string
	Attrs     map[string]string
	Hidden    bool
	Disabled  bool
	TextErr   error
}

func (e *Element) Text(context.Context) (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.TextValue, nil
}

func (e *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) Visible(context.Context) (bool, error) { return !e.Hidden, nil }

func (e *Element) Enabled(context.Context) (bool, error) { return !e.Disabled, nil }

// ScriptFunc answers an Eval call. Its return value is JSON round-tripped
// into the caller's output.
type ScriptFunc func(args []any) (any, error)

// Page is an in-memory dom.Page. Selectors map to fixed node lists;
// scripts are matched by substring of the evaluated source.
type Page struct {
	mu        sync.Mutex
	Nodes     map[string][]*Element
	Invalid   map[string]bool // selectors that fail as malformed
	Stalled   map[string]bool // selectors that block until ctx is done
	Scripts   map[string]ScriptFunc
	Queries   []string // selectors queried, in order
	Evaluated []string // script keys hit, in order
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		Nodes:   make(map[string][]*Element),
		Invalid: make(map[string]bool),
		Stalled: make(map[string]bool),
		Scripts: make(map[string]ScriptFunc),
	}
}

// Set registers nodes for a selector.
func (p *Page) Set(selector string, els ...*Element) *Page {
	p.Nodes[selector] = els
	return p
}

// Stall makes queries for selector block until their context ends.
func (p *Page) Stall(selector string) *Page {
	p.Stalled[selector] = true
	return p
}

// Script registers a script answer keyed by a substring of its source.
func (p *Page) Script(key string, fn ScriptFunc) *Page {
	p.Scripts[key] = fn
	return p
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	p.mu.Lock()
	p.Queries = append(p.Queries, selector)
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Stalled[selector] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.Invalid[selector] {
		return nil, fmt.Errorf("domtest: invalid selector %q", selector)
	}
	els := p.Nodes[selector]
	out := make([]dom.Element, len(els))
	for i, e := range els {
		out[i] = e
	}
	return out, nil
}

func (p *Page) Eval(ctx context.Context, js string, out any, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, fn := range p.Scripts {
		if !strings.Contains(js, key) {
			continue
		}
		p.mu.Lock()
		p.Evaluated = append(p.Evaluated, key)
		p.mu.Unlock()
		v, err := fn(args)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
	return errors.New("domtest: no script registered")
}

// Tab wraps Page with navigation and event playback.
type Tab struct {
	*Page
	Document string
	// NavErr maps a completion criterion to the error Navigate returns.
	NavErr map[dom.WaitUntil]error
	// Events is replayed into the recorder when Listen attaches.
	Events func(rec dom.Recorder)

	mu        sync.Mutex
	Navigated []dom.WaitUntil
	Closed    bool
	Listening bool
}

// NewTab returns a tab over an empty page.
func NewTab() *Tab {
	return &Tab{Page: NewPage(), NavErr: make(map[dom.WaitUntil]error)}
}

func (t *Tab) Listen(_ context.Context, rec dom.Recorder) func() {
	t.mu.Lock()
	t.Listening = true
	t.mu.Unlock()
	if t.Events != nil {
		t.Events(rec)
	}
	return func() {
		t.mu.Lock()
		t.Listening = false
		t.mu.Unlock()
	}
}

func (t *Tab) Navigate(_ context.Context, _ string, until dom.WaitUntil) error {
	t.mu.Lock()
	t.Navigated = append(t.Navigated, until)
	t.mu.Unlock()
	return t.NavErr[until]
}

func (t *Tab) HTML(context.Context) (string, error) { return t.Document, nil }

func (t *Tab) Close() error {
	t.mu.Lock()
	t.Closed = true
	t.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (t *Tab) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Closed
}

// Browser hands out pre-built tabs in order.
type Browser struct {
	mu   sync.Mutex
	Tabs []*Tab
	Err  error
	next int
}

func (b *Browser) NewTab(context.Context) (dom.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	if b.next >= len(b.Tabs) {
		return nil, errors.New("domtest: no more tabs")
	}
	t := b.Tabs[b.next]
	b.next++
	return t, nil
}
