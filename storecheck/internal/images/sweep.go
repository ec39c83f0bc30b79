package images

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const docHeightScript = `() => Math.max(
	document.body ? document.body.scrollHeight : 0,
	document.documentElement ? document.documentElement.scrollHeight : 0)`

const scrollScript = `(y) => { window.scrollTo(0, y); return window.scrollY; }`

// sweep scrolls the document one viewport at a time, waits for deferred
// loads, and validates images that appeared since the previous step.
//
// In index mode an image is new when its position is beyond the count known
// before the step. Reordering or removal in the DOM breaks that assumption;
// src mode identifies images by resolved URL instead.
func (a *Auditor) sweep(ctx context.Context, initial []rawImage) error {
	known := len(initial)
	seen := make(map[string]bool, len(initial))
	for i, img := range initial {
		seen[imageKey(i, img)] = true
	}

	height, err := a.docHeight(ctx)
	if err != nil {
		return err
	}

	step := a.cfg.ViewportHeight
	steps := 0
	for offset := step; offset < height && steps < a.cfg.MaxScrollSteps; offset += step {
		steps++
		if err := a.page.Eval(ctx, scrollScript, nil, offset); err != nil {
			return fmt.Errorf("scroll to %d: %w", offset, err)
		}
		if err := sleep(ctx, a.cfg.ScrollPause); err != nil {
			return err
		}

		current, err := a.enumerate(ctx)
		if err != nil {
			return err
		}

		switch a.cfg.IdentifyBy {
		case IdentifyBySrc:
			for i, img := range current {
				key := imageKey(i, img)
				if seen[key] {
					continue
				}
				seen[key] = true
				a.record(ctx, i, img, true)
			}
		default:
			for i := known; i < len(current); i++ {
				a.record(ctx, i, current[i], true)
			}
			known = len(current)
		}

		if h, err := a.docHeight(ctx); err == nil {
			height = h
		}
	}

	if steps > 0 {
		if err := a.page.Eval(ctx, scrollScript, nil, 0); err != nil {
			a.cfg.Logger.Debug("images: scroll reset failed", "error", err)
		}
	}
	a.cfg.Logger.Debug("images: sweep done", "steps", steps, "height", height)
	return nil
}

func (a *Auditor) docHeight(ctx context.Context) (int, error) {
	var h int
	if err := a.page.Eval(ctx, docHeightScript, &h); err != nil {
		return 0, fmt.Errorf("document height: %w", err)
	}
	return h, nil
}

// imageKey identifies an image in src mode. Images without a source fall
// back to their position.
func imageKey(index int, img rawImage) string {
	if img.Src == "" {
		return "#" + strconv.Itoa(index)
	}
	return img.Src
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
