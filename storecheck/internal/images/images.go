// Package images audits image loading on a rendered page: every <img> is
// enumerated, its load state resolved from DOM, network and probe evidence,
// and a scroll sweep surfaces lazy-loaded images.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/storecheck/storecheck/internal/dom"
	"github.com/hazyhaar/storecheck/storecheck/result"
)

const enumerateScript = `() => Array.from(document.images).map((img) => ({
	src: img.currentSrc || img.src || '',
	alt: img.getAttribute('alt') || '',
	width: img.naturalWidth || 0,
	height: img.naturalHeight || 0,
	rendered_width: img.width || 0,
	rendered_height: img.height || 0,
	complete: !!img.complete,
	loading: img.getAttribute('loading') || img.loading || 'eager',
}))`

const probeScript = `async (src) => {
	try {
		const res = await fetch(src, { method: 'HEAD', mode: 'no-cors', cache: 'no-store' });
		if (res.type === 'opaque') {
			return { status: 0, opaque: true, error: '' };
		}
		return { status: res.status, opaque: false, error: '' };
	} catch (e) {
		return { status: 0, opaque: false, error: String(e) };
	}
}`

// Identification strategies for images surfaced by the sweep.
const (
	IdentifyByIndex = "index" // new = beyond the previously known count
	IdentifyBySrc   = "src"   // new = resolved URL not seen before
)

// StatusLookup returns the HTTP status observed on the network for a URL.
type StatusLookup interface {
	Status(url string) (int, bool)
}

// Config tunes the auditor.
type Config struct {
	// ViewportHeight is the scroll step of the lazy-load sweep.
	ViewportHeight int
	// ScrollPause is waited after each scroll step.
	ScrollPause time.Duration
	// ProbeTimeout bounds each in-page HEAD probe.
	ProbeTimeout time.Duration
	// MinAltSize: images larger than this on both axes need alt text.
	MinAltSize int
	// LazySweep enables the scroll sweep.
	LazySweep bool
	// IdentifyBy selects how sweep images are recognised as new.
	IdentifyBy string
	// MaxScrollSteps bounds the sweep on pages that keep growing.
	MaxScrollSteps int
	Logger         *slog.Logger
}

func (c *Config) defaults() {
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 1080
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.MinAltSize <= 0 {
		c.MinAltSize = 50
	}
	if c.IdentifyBy == "" {
		c.IdentifyBy = IdentifyByIndex
	}
	if c.MaxScrollSteps <= 0 {
		c.MaxScrollSteps = 50
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// rawImage is one enumerated node.
type rawImage struct {
	Src            string `json:"src"`
	Alt            string `json:"alt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	RenderedWidth  int    `json:"rendered_width"`
	RenderedHeight int    `json:"rendered_height"`
	Complete       bool   `json:"complete"`
	Loading        string `json:"loading"`
}

type probeResult struct {
	Status int    `json:"status"`
	Opaque bool   `json:"opaque"`
	Error  string `json:"error"`
}

// Auditor runs one audit per page.
type Auditor struct {
	page     dom.Page
	statuses StatusLookup
	cfg      Config
	res      *result.ImageResult
}

// Audit enumerates and validates every image on page.
func Audit(ctx context.Context, page dom.Page, statuses StatusLookup, cfg Config) (*result.ImageResult, error) {
	cfg.defaults()
	a := &Auditor{page: page, statuses: statuses, cfg: cfg, res: &result.ImageResult{}}

	initial, err := a.enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("images: enumerate: %w", err)
	}
	for i, img := range initial {
		a.record(ctx, i, img, false)
	}

	if cfg.LazySweep {
		if err := a.sweep(ctx, initial); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			cfg.Logger.Warn("images: lazy sweep aborted", "error", err)
		}
	}

	a.res.Total = len(a.res.Images)
	a.res.Passed = a.res.Failed == 0
	cfg.Logger.Debug("images: audited",
		"total", a.res.Total,
		"failed", a.res.Failed,
		"lazy", a.res.LazyLoaded)
	return a.res, nil
}

func (a *Auditor) enumerate(ctx context.Context) ([]rawImage, error) {
	var imgs []rawImage
	if err := a.page.Eval(ctx, enumerateScript, &imgs); err != nil {
		return nil, err
	}
	return imgs, nil
}

// record validates img and appends it to the result.
func (a *Auditor) record(ctx context.Context, index int, img rawImage, lazy bool) {
	rec := a.validate(ctx, index, img)
	rec.Lazy = lazy

	switch rec.Status {
	case result.LoadOK:
		a.res.Loaded++
	case result.LoadFailed:
		a.res.Failed++
	case result.LoadInconclusive:
		a.res.Inconclusive++
	}
	if lazy {
		a.res.LazyLoaded++
	}
	if a.missingAlt(img) {
		a.res.MissingAlt = append(a.res.MissingAlt, img.Src)
	}
	a.res.Images = append(a.res.Images, rec)
}

// validate resolves the load state. Preference: DOM completion with
// natural dimensions, then the intercepted network status, then an
// in-page HEAD probe. Zero natural dimensions always fail.
func (a *Auditor) validate(ctx context.Context, index int, img rawImage) result.ImageRecord {
	rec := result.ImageRecord{
		Index:   index,
		Src:     img.Src,
		Alt:     img.Alt,
		Width:   img.Width,
		Height:  img.Height,
		Loading: img.Loading,
	}

	switch {
	case img.Src == "":
		rec.Status, rec.Error = result.LoadFailed, "missing src"
	case img.Complete && img.Width > 0 && img.Height > 0:
		rec.Status, rec.Evidence = result.LoadOK, "dom"
	case isDataURI(img.Src):
		rec.Status, rec.Evidence, rec.Error = result.LoadFailed, "dom", "inline image did not decode"
	default:
		a.fromNetwork(ctx, &rec)
	}

	if img.Width == 0 || img.Height == 0 {
		rec.Status = result.LoadFailed
		if rec.Error == "" {
			rec.Error = "zero dimensions"
		}
	}
	return rec
}

func (a *Auditor) fromNetwork(ctx context.Context, rec *result.ImageRecord) {
	if a.statuses != nil {
		if status, ok := a.statuses.Status(rec.Src); ok {
			rec.HTTPStatus, rec.Evidence = status, "network"
			if status == 200 {
				rec.Status = result.LoadOK
			} else {
				rec.Status, rec.Error = result.LoadFailed, fmt.Sprintf("HTTP %d", status)
			}
			return
		}
	}

	rec.Evidence = "probe"
	pctx, cancel := context.WithTimeout(ctx, a.cfg.ProbeTimeout)
	defer cancel()

	var pr probeResult
	if err := a.page.Eval(pctx, probeScript, &pr, rec.Src); err != nil {
		rec.Status, rec.Error = result.LoadFailed, "probe: "+err.Error()
		return
	}
	switch {
	case pr.Error != "":
		rec.Status, rec.Error = result.LoadFailed, pr.Error
	case pr.Opaque:
		rec.Status = result.LoadInconclusive
	case pr.Status == 200:
		rec.Status, rec.HTTPStatus = result.LoadOK, pr.Status
	default:
		rec.Status, rec.HTTPStatus, rec.Error = result.LoadFailed, pr.Status, fmt.Sprintf("HTTP %d", pr.Status)
	}
}

func (a *Auditor) missingAlt(img rawImage) bool {
	if isDataURI(img.Src) || strings.TrimSpace(img.Alt) != "" {
		return false
	}
	w, h := img.RenderedWidth, img.RenderedHeight
	if w == 0 && h == 0 {
		w, h = img.Width, img.Height
	}
	return w > a.cfg.MinAltSize && h > a.cfg.MinAltSize
}

func isDataURI(src string) bool {
	return strings.HasPrefix(strings.ToLower(src), "data:")
}
