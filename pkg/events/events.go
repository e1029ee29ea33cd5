// Package events routes surface input events into the resize and match
// managers. It is the adapter target for host toolkits: the host calls the
// On* methods, the binder debounces and dispatches. Binding is idempotent
// and all routing stops after Destroy.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/pkg/config"
	"github.com/typewell/promptarea/pkg/match"
	"github.com/typewell/promptarea/pkg/resize"
	"github.com/typewell/promptarea/pkg/sched"
	"github.com/typewell/promptarea/pkg/store"
	"github.com/typewell/promptarea/pkg/surface"
)

const (
	inputKey    = "events.input"
	pasteKey    = "events.paste"
	viewportKey = "events.viewport"
	suppressKey = "events.suppress"
)

// Binder connects one surface's events to its managers.
type Binder struct {
	surf    surface.Surface
	resizer *resize.Resizer
	matcher *match.Manager
	sch     sched.Scheduler
	st      *store.Store
	cfg     config.EventsConfig

	mu        sync.Mutex
	bound     bool
	composing bool
	suppress  bool

	manualResizes atomic.Uint64
	pasteOps      atomic.Uint64
	destroyed     atomic.Bool

	ctx context.Context
	log *log.Logger
}

// NewBinder wires a Binder. The store may be nil when manual heights need
// no persistence. Zero config fields fall back to defaults.
func NewBinder(surf surface.Surface, resizer *resize.Resizer, matcher *match.Manager, scheduler sched.Scheduler, st *store.Store, cfg config.EventsConfig) *Binder {
	def := config.DefaultConfig().Events
	if cfg.InputDebounceMs <= 0 {
		cfg.InputDebounceMs = def.InputDebounceMs
	}
	if cfg.ViewportDebounceMs <= 0 {
		cfg.ViewportDebounceMs = def.ViewportDebounceMs
	}
	if cfg.FrameDelayMs <= 0 {
		cfg.FrameDelayMs = def.FrameDelayMs
	}
	if cfg.SuppressionMs <= 0 {
		cfg.SuppressionMs = def.SuppressionMs
	}
	return &Binder{
		surf:    surf,
		resizer: resizer,
		matcher: matcher,
		sch:     scheduler,
		st:      st,
		cfg:     cfg,
		ctx:     context.Background(),
		log:     logger.Default("events"),
	}
}

// Bind starts routing events. A no-op when already bound.
func (b *Binder) Bind() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bound || b.destroyed.Load() {
		return
	}
	b.bound = true
}

// Unbind stops routing and drops pending debounced work. Safe to call
// repeatedly.
func (b *Binder) Unbind() {
	b.mu.Lock()
	wasBound := b.bound
	b.bound = false
	b.mu.Unlock()
	if wasBound {
		b.sch.Cancel(inputKey)
		b.sch.Cancel(pasteKey)
		b.sch.Cancel(viewportKey)
		b.sch.Cancel(suppressKey)
	}
}

// Bound reports whether events are currently routed.
func (b *Binder) Bound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

func (b *Binder) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound && !b.destroyed.Load()
}

// OnTextChanged handles a text mutation. The resize runs when the
// debounce fires; the match update follows asynchronously unless an IME
// composition is in progress or a just-applied selection suppressed it.
func (b *Binder) OnTextChanged() {
	if !b.active() {
		return
	}
	b.sch.After(inputKey, time.Duration(b.cfg.InputDebounceMs)*time.Millisecond, b.handleInput)
}

func (b *Binder) handleInput() {
	if b.destroyed.Load() {
		return
	}
	b.resizer.Resize()

	b.mu.Lock()
	consumed := b.suppress
	b.suppress = false
	skip := b.composing || consumed
	b.mu.Unlock()
	if consumed {
		b.sch.Cancel(suppressKey)
	}
	if skip {
		return
	}
	go b.updateMatches()
}

func (b *Binder) updateMatches() {
	if b.destroyed.Load() {
		return
	}
	text := b.surf.Value()
	cursor, _ := b.surf.Selection()
	b.matcher.UpdateMatches(b.ctx, text, cursor)
}

// OnPaste schedules a single deferred resize on the next frame.
func (b *Binder) OnPaste() {
	if !b.active() {
		return
	}
	b.pasteOps.Add(1)
	b.sch.After(pasteKey, time.Duration(b.cfg.FrameDelayMs)*time.Millisecond, b.resizer.Resize)
}

// OnCompositionStart gates match updates while an IME composition runs.
func (b *Binder) OnCompositionStart() {
	if !b.active() {
		return
	}
	b.mu.Lock()
	b.composing = true
	b.mu.Unlock()
}

// OnCompositionEnd lifts the gate and forces one match update for the
// composed text.
func (b *Binder) OnCompositionEnd() {
	if !b.active() {
		return
	}
	b.mu.Lock()
	b.composing = false
	b.mu.Unlock()
	b.resizer.Resize()
	go b.updateMatches()
}

// OnManualResize records a user-dragged height and persists it so it
// survives reloads.
func (b *Binder) OnManualResize(heightPx int) {
	if !b.active() || heightPx <= 0 {
		return
	}
	b.manualResizes.Add(1)
	if b.st != nil {
		if err := b.st.SetManualHeight(heightPx); err != nil {
			b.log.Warnf("Failed to persist manual height %dpx: %v", heightPx, err)
		}
	}
}

// OnViewportResize clears cached measurements and reapplies the viewport
// clamp, debounced.
func (b *Binder) OnViewportResize() {
	if !b.active() {
		return
	}
	b.sch.After(viewportKey, time.Duration(b.cfg.ViewportDebounceMs)*time.Millisecond, func() {
		if b.destroyed.Load() {
			return
		}
		b.resizer.ClearMemo()
		b.resizer.Resize()
	})
}

// OnSelectionApplied is fired by the match manager after a candidate is
// spliced in. The resulting input change still resizes, but must not start
// a new match round: the flag is consumed by the next debounced input
// round. The expiry timer is a safety net for when no round ever fires, so
// it is scheduled past the debounce rather than racing it.
func (b *Binder) OnSelectionApplied() {
	if !b.active() {
		return
	}
	b.mu.Lock()
	b.suppress = true
	b.mu.Unlock()
	expiry := time.Duration(b.cfg.SuppressionMs+b.cfg.InputDebounceMs) * time.Millisecond
	b.sch.After(suppressKey, expiry, func() {
		b.mu.Lock()
		b.suppress = false
		b.mu.Unlock()
	})
	b.OnTextChanged()
}

// Composing reports whether an IME composition is in progress.
func (b *Binder) Composing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.composing
}

// ManualResizes reports how many manual resizes were recorded.
func (b *Binder) ManualResizes() uint64 {
	return b.manualResizes.Load()
}

// PasteOperations reports how many paste events were seen.
func (b *Binder) PasteOperations() uint64 {
	return b.pasteOps.Load()
}

// Destroy unbinds and permanently stops routing.
func (b *Binder) Destroy() {
	if b.destroyed.Swap(true) {
		return
	}
	b.Unbind()
}
