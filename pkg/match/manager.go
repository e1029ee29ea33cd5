package match

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/internal/textutil"
	"github.com/typewell/promptarea/pkg/surface"
)

// session tracks which trigger phrase the next accepted candidate will
// replace. The key regenerates whenever the trigger changes; once the
// trigger has been consumed by a selection, further selections under the
// same key append instead of touching the replaced span again.
type session struct {
	key         int64
	trigger     string
	replaced    bool
	consumedKey int64
}

// Manager orchestrates asynchronous match updates against one surface.
// Every update carries a monotonically increasing request id; a result
// whose id is no longer current is stale and is counted, never rendered.
type Manager struct {
	surf     surface.Surface
	proc     *Processor
	renderer Renderer
	notify   func()

	reqID     atomic.Uint64
	dropped   atomic.Uint64
	destroyed atomic.Bool

	mu   sync.Mutex
	sess session
	now  func() int64

	log *log.Logger
}

// NewManager wires a Manager over a surface, processor and renderer.
func NewManager(surf surface.Surface, proc *Processor, renderer Renderer) *Manager {
	return &Manager{
		surf:     surf,
		proc:     proc,
		renderer: renderer,
		now:      func() int64 { return time.Now().UnixNano() },
		log:      logger.Default("match"),
	}
}

// SetNotify registers the callback fired after every accepted-candidate
// mutation, so height resize and host listeners re-run.
func (m *Manager) SetNotify(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// UpdateMatches computes and renders candidates for the text before
// cursor. A call that is superseded before its lookup completes renders
// nothing. Safe to call from any goroutine; rendering happens on the
// caller's goroutine.
func (m *Manager) UpdateMatches(ctx context.Context, fullText string, cursor int) {
	if m.destroyed.Load() {
		return
	}
	id := m.reqID.Add(1)

	if cursor < 0 || cursor > len(fullText) {
		cursor = len(fullText)
	}
	before := fullText[:cursor]

	if !m.proc.ReadyToMatch(before) {
		samples := m.proc.SampleMatches(ctx)
		if m.stale(id) {
			m.dropped.Add(1)
			return
		}
		m.render(samples, true)
		return
	}

	candidates := m.proc.FindMatches(ctx, before)
	if m.stale(id) {
		m.dropped.Add(1)
		return
	}

	trigger := m.proc.LastMatchedPhrase()
	m.mu.Lock()
	if trigger != m.sess.trigger {
		m.sess = session{key: m.now(), trigger: trigger}
	}
	m.mu.Unlock()

	m.render(candidates, false)
}

func (m *Manager) stale(id uint64) bool {
	return m.destroyed.Load() || id != m.reqID.Load()
}

func (m *Manager) render(texts []string, sample bool) {
	if m.renderer == nil {
		return
	}
	candidates := make([]Candidate, 0, len(texts))
	for _, t := range texts {
		candidates = append(candidates, Candidate{
			Text:   t,
			Safe:   textutil.EscapeText(t),
			Sample: sample,
		})
	}
	m.renderer.Render(candidates)
}

// Select applies an accepted candidate to the surface. The first selection
// in a session replaces the trigger phrase in place (whole word,
// case-insensitive, scanning backward from the cursor); later selections
// in the same session, a missing trigger, or right-to-left content all
// append at the end instead.
func (m *Manager) Select(c Candidate) {
	if m.destroyed.Load() {
		return
	}
	repl := FormatReplacement(c)
	text := m.surf.Value()
	cursor, _ := m.surf.Selection()

	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()

	appendOnly := sess.replaced && sess.consumedKey == sess.key
	if !appendOnly && sess.trigger != "" && m.surf.Direction() != surface.DirectionRTL {
		if start, end, ok := textutil.FindWholeWordBefore(text, sess.trigger, cursor); ok {
			newText, newCursor := textutil.Splice(text, start, end, repl)
			m.surf.SetValue(newText)
			m.surf.SetSelection(newCursor, newCursor)
			m.mu.Lock()
			m.sess.replaced = true
			m.sess.consumedKey = m.sess.key
			m.mu.Unlock()
			m.fireNotify()
			return
		}
		m.log.Debugf("Trigger %q not found before cursor, appending instead", sess.trigger)
	}

	newText := text + repl
	m.surf.SetValue(newText)
	m.surf.SetSelection(len(newText), len(newText))
	m.fireNotify()
}

func (m *Manager) fireNotify() {
	m.mu.Lock()
	notify := m.notify
	m.mu.Unlock()
	if notify != nil {
		notify()
	}
	m.surf.NotifyInput()
}

// DroppedMatches reports how many results arrived too late to render.
func (m *Manager) DroppedMatches() uint64 {
	return m.dropped.Load()
}

// Destroy invalidates all in-flight updates and clears the rendered list.
// Results resolving afterwards are dropped without touching the surface.
func (m *Manager) Destroy() {
	if m.destroyed.Swap(true) {
		return
	}
	m.reqID.Add(1)
	if m.renderer != nil {
		m.renderer.Clear()
	}
}
