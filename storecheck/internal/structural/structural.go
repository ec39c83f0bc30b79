// Package structural checks that a product page carries the fixed catalog
// of logical elements, using the resolver against the active profile.
package structural

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
	"github.com/hazyhaar/storecheck/storecheck/internal/resolver"
	"github.com/hazyhaar/storecheck/storecheck/profile"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

// maxStoredText caps text kept in element results.
const maxStoredText = 200

const metaScript = `() => {
	const pick = (sel) => {
		const el = document.querySelector(sel);
		return el ? (el.getAttribute('content') || '') : '';
	};
	return {
		title: document.title || '',
		description: pick('meta[name="description"]') || pick('meta[property="og:description"]'),
	};
}`

// Config tunes the validator.
type Config struct {
	SelectorTimeout      time.Duration
	MinDescriptionLength int // default 10
	MinMetaTitleLength   int // default 10
	Logger               *slog.Logger
}

func (c *Config) defaults() {
	if c.MinDescriptionLength <= 0 {
		c.MinDescriptionLength = 10
	}
	if c.MinMetaTitleLength <= 0 {
		c.MinMetaTitleLength = 10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

var strict = bluemonday.StrictPolicy()

// Validate runs the checklist against page. It never fails on a missing
// element; the returned error is reserved for a cancelled context.
func Validate(ctx context.Context, page dom.Page, prof profile.Profile, cfg Config) (*result.StructuralResult, error) {
	cfg.defaults()
	v := &validation{
		ctx:  ctx,
		page: page,
		prof: prof,
		cfg:  cfg,
		res:  &result.StructuralResult{Elements: make(map[string]result.ElementCheck)},
	}

	v.required(profile.Title, "product title")
	v.required(profile.Price, "product price")
	v.description()
	v.addToCart()
	v.images()
	v.variants()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.meta()

	v.res.Passed = len(v.res.Critical()) == 0
	cfg.Logger.Debug("structural: checked",
		"platform", prof.Platform,
		"passed", v.res.Passed,
		"findings", len(v.res.Findings))
	return v.res, nil
}

type validation struct {
	ctx  context.Context
	page dom.Page
	prof profile.Profile
	cfg  Config
	res  *result.StructuralResult
}

func (v *validation) resolve(name string) (*resolver.Match, result.ElementCheck) {
	return v.resolveAs(name, v.prof.Element(name).Predicate)
}

func (v *validation) resolveAs(name string, pred profile.Predicate) (*resolver.Match, result.ElementCheck) {
	el := v.prof.Element(name)
	check := result.ElementCheck{Name: name}
	m, err := resolver.Resolve(v.ctx, v.page, el.Candidates, pred, resolver.Options{Timeout: v.cfg.SelectorTimeout})
	if err != nil {
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			check.Candidates = nf.Candidates
		}
		return nil, check
	}
	check.Found = true
	check.MatchedSelector = m.Selector
	check.Text = truncate(normalize(m.Text))
	check.Count = m.Count
	return m, check
}

func (v *validation) add(sev result.Severity, element, format string, args ...any) {
	v.res.Findings = append(v.res.Findings, result.Finding{
		Element:  element,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validation) required(name, label string) {
	_, check := v.resolve(name)
	v.res.Elements[name] = check
	if !check.Found {
		v.add(result.SeverityCritical, name, "%s not found", label)
	}
}

func (v *validation) description() {
	_, check := v.resolve(profile.Description)
	v.res.Elements[profile.Description] = check
	switch {
	case !check.Found:
		v.add(result.SeverityWarning, profile.Description, "product description not found")
	case utf8.RuneCountInString(check.Text) < v.cfg.MinDescriptionLength:
		v.add(result.SeverityWarning, profile.Description,
			"product description too short (%d < %d characters)",
			utf8.RuneCountInString(check.Text), v.cfg.MinDescriptionLength)
	}
}

// addToCart prefers the first visible node across all candidates. Only
// when none is visible does a present node get reported as hidden.
func (v *validation) addToCart() {
	visible := true
	m, check := v.resolveAs(profile.AddToCart, profile.PredicateVisible)
	if m == nil && v.ctx.Err() == nil {
		m, check = v.resolveAs(profile.AddToCart, profile.PredicateExists)
		visible = false
	}
	defer func() { v.res.Elements[profile.AddToCart] = check }()
	if m == nil {
		v.add(result.SeverityCritical, profile.AddToCart, "add-to-cart control not found")
		return
	}

	enabled, err := m.Element.Enabled(v.ctx)
	if err != nil {
		enabled = true
	}
	check.Visible = &visible
	check.Enabled = &enabled

	if !visible {
		v.add(result.SeverityCritical, profile.AddToCart, "add-to-cart control %q is not visible", m.Selector)
		return
	}
	if !enabled {
		v.add(result.SeverityWarning, profile.AddToCart, "add-to-cart control is disabled (possibly out of stock)")
	}
}

func (v *validation) images() {
	_, check := v.resolve(profile.Images)
	v.res.Elements[profile.Images] = check
	if !check.Found {
		v.add(result.SeverityWarning, profile.Images, "no product images found")
	}
}

// variants are informational only.
func (v *validation) variants() {
	_, check := v.resolve(profile.Variants)
	v.res.Elements[profile.Variants] = check
}

func (v *validation) meta() {
	var meta result.Meta
	if err := v.page.Eval(v.ctx, metaScript, &meta); err != nil {
		v.cfg.Logger.Debug("structural: meta read failed", "error", err)
	}
	meta.Title = normalize(meta.Title)
	meta.Description = normalize(meta.Description)
	v.res.Meta = meta

	switch n := utf8.RuneCountInString(meta.Title); {
	case n == 0:
		v.add(result.SeverityWarning, "meta_title", "meta title missing")
	case n < v.cfg.MinMetaTitleLength:
		v.add(result.SeverityWarning, "meta_title", "meta title too short (%d < %d characters)", n, v.cfg.MinMetaTitleLength)
	}
	if meta.Description == "" {
		v.add(result.SeverityWarning, "meta_description", "meta description missing")
	}
}

// normalize strips markup and collapses whitespace.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxStoredText {
		return s
	}
	r := []rune(s)
	return string(r[:maxStoredText]) + "…"
}
