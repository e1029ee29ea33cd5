// Package resize owns one surface's height. It grows the surface so all
// wrapped content is visible, never shrinks below the first measured
// height, and never exceeds a fixed share of the viewport. When the
// surface is not laid out yet the initial height is estimated and replaced
// by a real measurement as soon as one is available.
package resize

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/internal/textutil"
	"github.com/typewell/promptarea/pkg/config"
	"github.com/typewell/promptarea/pkg/sched"
	"github.com/typewell/promptarea/pkg/surface"
)

const visibilityKey = "resize.visibility"

// Resizer recomputes and applies one surface's height.
type Resizer struct {
	surf surface.Surface
	sch  sched.Scheduler
	cfg  config.ResizeConfig

	mu                sync.Mutex
	initialHeight     int
	initialIsEstimate bool
	lastContent       string
	lastWidth         int
	lastHeight        int
	visibilityPolls   int
	onHeight          func(css string)

	autoResizes atomic.Uint64
	destroyed   atomic.Bool

	log *log.Logger
}

// NewResizer creates a Resizer for surf. Zero config fields fall back to
// defaults.
func NewResizer(surf surface.Surface, scheduler sched.Scheduler, cfg config.ResizeConfig) *Resizer {
	def := config.DefaultConfig().Resize
	if cfg.ViewportRatio <= 0 || cfg.ViewportRatio > 1 {
		cfg.ViewportRatio = def.ViewportRatio
	}
	if cfg.EstimateLines <= 0 {
		cfg.EstimateLines = def.EstimateLines
	}
	if cfg.DefaultLineHeight <= 0 {
		cfg.DefaultLineHeight = def.DefaultLineHeight
	}
	if cfg.VisibilityPollMs <= 0 {
		cfg.VisibilityPollMs = def.VisibilityPollMs
	}
	if cfg.MaxVisibilityPolls <= 0 {
		cfg.MaxVisibilityPolls = def.MaxVisibilityPolls
	}
	return &Resizer{
		surf: surf,
		sch:  scheduler,
		cfg:  cfg,
		log:  logger.Default("resize"),
	}
}

// OnHeightChange registers a callback receiving the applied CSS height
// string after every height mutation.
func (r *Resizer) OnHeightChange(fn func(css string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHeight = fn
}

// OffHeightChange removes the height callback.
func (r *Resizer) OffHeightChange() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHeight = nil
}

// Resize recomputes the surface height. Failures degrade to resetting the
// height to the initial measurement; nothing escapes to the caller.
func (r *Resizer) Resize() {
	if r.destroyed.Load() {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("Resize measurement panicked: %v", rec)
			r.resetToInitial()
		}
	}()

	text := r.surf.Value()
	width := r.surf.ContentWidth()

	initial := r.resolveInitialHeight()

	r.mu.Lock()
	memoHit := text == r.lastContent && width == r.lastWidth && r.surf.HeightPx() == r.lastHeight && r.lastHeight != 0
	r.mu.Unlock()
	if memoHit {
		return
	}

	if strings.TrimSpace(text) == "" {
		r.apply(initial)
		r.memoize(text, width, initial)
		return
	}

	natural, err := r.surf.NaturalHeight()
	if err != nil {
		r.log.Warnf("Natural height measurement failed: %v", err)
		r.resetToInitial()
		return
	}

	lineHeight := r.lineHeight()
	padding := r.surf.VerticalPadding()

	contentLines := int(math.Ceil(float64(natural-padding) / lineHeight))
	totalLines := textutil.NewlineCount(text) + 1
	if contentLines > totalLines {
		totalLines = contentLines
	}

	viewportCap := int(r.cfg.ViewportRatio * float64(r.surf.ViewportHeight()))
	minNeeded := int(float64(totalLines)*lineHeight) + padding

	var target int
	switch {
	case natural <= viewportCap:
		target = natural
	case minNeeded <= viewportCap:
		target = minNeeded
	default:
		target = viewportCap
	}
	if target < initial {
		target = initial
	}

	r.apply(target)
	r.memoize(text, width, target)
}

// resolveInitialHeight establishes the height floor. A real layout
// measurement wins; otherwise an estimate is used and a visibility poll
// replaces it with the first real measurement.
func (r *Resizer) resolveInitialHeight() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialHeight > 0 && !r.initialIsEstimate {
		return r.initialHeight
	}
	if oh := r.surf.OffsetHeight(); oh > 0 {
		if r.initialIsEstimate {
			r.log.Debugf("Replacing estimated initial height %d with measured %d", r.initialHeight, oh)
		}
		r.initialHeight = oh
		r.initialIsEstimate = false
		r.sch.Cancel(visibilityKey)
		return r.initialHeight
	}
	if r.initialHeight == 0 {
		lineHeight := r.lineHeightLocked()
		r.initialHeight = int(lineHeight*float64(r.cfg.EstimateLines)) + r.surf.VerticalPadding()
		r.initialIsEstimate = true
		r.visibilityPolls = 0
		r.watchVisibilityLocked()
	}
	return r.initialHeight
}

// watchVisibilityLocked schedules the poll that swaps the estimated
// initial height for a real measurement once the surface is visible.
func (r *Resizer) watchVisibilityLocked() {
	r.sch.After(visibilityKey, time.Duration(r.cfg.VisibilityPollMs)*time.Millisecond, func() {
		if r.destroyed.Load() {
			return
		}
		r.mu.Lock()
		if !r.initialIsEstimate {
			r.mu.Unlock()
			return
		}
		if oh := r.surf.OffsetHeight(); oh > 0 {
			r.initialHeight = oh
			r.initialIsEstimate = false
			r.lastContent = ""
			r.lastWidth = 0
			r.lastHeight = 0
			r.mu.Unlock()
			r.Resize()
			return
		}
		r.visibilityPolls++
		if r.visibilityPolls < r.cfg.MaxVisibilityPolls {
			r.watchVisibilityLocked()
		} else {
			r.log.Debugf("Giving up visibility polling after %d attempts", r.visibilityPolls)
		}
		r.mu.Unlock()
	})
}

func (r *Resizer) lineHeight() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lineHeightLocked()
}

// lineHeightLocked resolves the line height: computed style first, then
// the synthetic probe, then the configured default.
func (r *Resizer) lineHeightLocked() float64 {
	if lh, ok := r.surf.LineHeight(); ok && lh > 0 {
		return lh
	}
	if probe := r.surf.ProbeLineHeight(); probe > 0 {
		return probe
	}
	return r.cfg.DefaultLineHeight
}

func (r *Resizer) apply(px int) {
	r.surf.SetHeightPx(px)
	r.autoResizes.Add(1)
	r.mu.Lock()
	onHeight := r.onHeight
	r.mu.Unlock()
	if onHeight != nil {
		onHeight(fmt.Sprintf("%dpx", px))
	}
}

func (r *Resizer) memoize(text string, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastContent = text
	r.lastWidth = width
	r.lastHeight = height
}

func (r *Resizer) resetToInitial() {
	r.mu.Lock()
	initial := r.initialHeight
	r.mu.Unlock()
	if initial > 0 {
		r.apply(initial)
	}
}

// ClearMemo drops cached measurements so the next Resize recomputes from
// scratch. Called after viewport changes.
func (r *Resizer) ClearMemo() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastContent = ""
	r.lastWidth = 0
	r.lastHeight = 0
}

// InitialHeight reports the current height floor and whether it is still
// an estimate.
func (r *Resizer) InitialHeight() (px int, estimate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialHeight, r.initialIsEstimate
}

// AutoResizes reports how many times a height was applied.
func (r *Resizer) AutoResizes() uint64 {
	return r.autoResizes.Load()
}

// Destroy stops the visibility poll and makes further Resize calls no-ops.
func (r *Resizer) Destroy() {
	if r.destroyed.Swap(true) {
		return
	}
	r.sch.Cancel(visibilityKey)
}
