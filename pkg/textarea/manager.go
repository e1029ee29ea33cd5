// Package textarea is the facade wiring the resize, match, event and
// history managers into one lifecycle around a single surface. Hosts
// construct a Manager with explicit dependencies, initialize it once, feed
// surface events through Events(), and read values back through the
// accessor API. Every accessor degrades to a safe default once the manager
// is destroyed.
package textarea

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/internal/textutil"
	"github.com/typewell/promptarea/pkg/config"
	"github.com/typewell/promptarea/pkg/events"
	"github.com/typewell/promptarea/pkg/history"
	"github.com/typewell/promptarea/pkg/match"
	"github.com/typewell/promptarea/pkg/resize"
	"github.com/typewell/promptarea/pkg/sched"
	"github.com/typewell/promptarea/pkg/store"
	"github.com/typewell/promptarea/pkg/surface"
)

// State is the facade lifecycle.
type State int

const (
	StateIdle State = iota
	StateInit
	StateBound
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInit:
		return "Init"
	case StateBound:
		return "Bound"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

const (
	bindKey         = "textarea.bind"
	maxBindRetries  = 5
	bindBackoffBase = 200 * time.Millisecond
)

// Provider resolves the surface to bind against. It returns an error while
// the target is not available yet (document still loading, element not
// mounted); binding retries with backoff.
type Provider func() (surface.Surface, error)

// Deps are the collaborators a Manager is composed from. Provider, Lookup
// and Renderer are required; the rest default when nil.
type Deps struct {
	Provider Provider
	Lookup   match.Lookup
	Renderer match.Renderer
	// Scheduler must not be shared with another Manager: debounce keys
	// are fixed strings and Destroy cancels everything pending on it.
	Scheduler sched.Scheduler
	Store     *store.Store
	Config    *config.Config
}

// Metrics is a frozen observability snapshot.
type Metrics struct {
	AutoResizes     uint64
	DroppedMatches  uint64
	ManualResizes   uint64
	PasteOperations uint64
}

// Manager owns the manager graph for one surface.
type Manager struct {
	mu    sync.Mutex
	state State
	deps  Deps
	sch   sched.Scheduler
	st    *store.Store
	cfg   *config.Config

	surf     surface.Surface
	resizer  *resize.Resizer
	proc     *match.Processor
	matcher  *match.Manager
	binder   *events.Binder
	ring     *history.Ring
	onHeight func(css string)

	bindAttempts int

	log *log.Logger
}

// New validates dependencies and returns an idle Manager. Missing required
// collaborators fail fast with a diagnostic error rather than surfacing as
// nil dereferences mid-session.
func New(deps Deps) (*Manager, error) {
	if deps.Provider == nil {
		return nil, errors.New("textarea: Deps.Provider is required")
	}
	if deps.Lookup == nil {
		return nil, errors.New("textarea: Deps.Lookup is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("textarea: Deps.Renderer is required")
	}
	if deps.Scheduler == nil {
		deps.Scheduler = sched.NewTimers()
	}
	if deps.Store == nil {
		deps.Store = store.Open("")
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	return &Manager{
		state: StateIdle,
		deps:  deps,
		sch:   deps.Scheduler,
		st:    deps.Store,
		cfg:   deps.Config,
		log:   logger.Default("textarea"),
	}, nil
}

// Init starts binding. When the provider cannot resolve the surface yet
// the bind retries with backoff; running out of retries leaves the manager
// in Init with a warning, not an error.
func (m *Manager) Init() error {
	m.mu.Lock()
	if m.state == StateDestroyed {
		m.mu.Unlock()
		return errors.New("textarea: manager is destroyed")
	}
	if m.state == StateBound {
		m.mu.Unlock()
		return nil
	}
	m.state = StateInit
	m.bindAttempts = 0
	m.mu.Unlock()

	m.attemptBind()
	return nil
}

func (m *Manager) attemptBind() {
	m.mu.Lock()
	if m.state != StateInit {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	surf, err := m.deps.Provider()
	if err != nil || surf == nil {
		m.mu.Lock()
		m.bindAttempts++
		attempts := m.bindAttempts
		m.mu.Unlock()
		if attempts > maxBindRetries {
			m.log.Warnf("Giving up binding after %d attempts: %v", attempts-1, err)
			return
		}
		backoff := bindBackoffBase * time.Duration(1<<(attempts-1))
		m.log.Debugf("Bind target not ready (attempt %d): %v. Retrying in %s", attempts, err, backoff)
		m.sch.After(bindKey, backoff, m.attemptBind)
		return
	}
	m.bind(surf)
}

func (m *Manager) bind(surf surface.Surface) {
	m.mu.Lock()
	if m.state != StateInit {
		m.mu.Unlock()
		return
	}

	m.surf = surf
	m.resizer = resize.NewResizer(surf, m.sch, m.cfg.Resize)
	m.proc = match.NewProcessor(m.deps.Lookup, m.cfg.Match)
	m.matcher = match.NewManager(surf, m.proc, m.deps.Renderer)
	m.binder = events.NewBinder(surf, m.resizer, m.matcher, m.sch, m.st, m.cfg.Events)
	m.matcher.SetNotify(m.binder.OnSelectionApplied)
	m.resizer.OnHeightChange(m.heightChanged)

	m.ring = history.NewRing(m.cfg.History.MaxEntries)
	m.ring.Replace(m.st.History())

	m.binder.Bind()
	m.state = StateBound
	attempts := m.bindAttempts
	m.mu.Unlock()

	m.resizer.Resize()
	m.applyPersistedHeight()
	m.log.Debugf("Bound after %d retries", attempts)
}

// applyPersistedHeight re-applies the last manually dragged height, but
// only when it is within tolerance of the measured initial height. Stale
// persisted values otherwise grow the surface without bound across
// reloads.
func (m *Manager) applyPersistedHeight() {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	persisted := m.st.ManualHeight()
	if persisted <= 0 {
		return
	}
	initial, estimate := m.resizer.InitialHeight()
	if initial <= 0 || estimate {
		return
	}
	tolerance := m.cfg.Resize.HeightTolerance
	if tolerance <= 0 {
		tolerance = config.DefaultConfig().Resize.HeightTolerance
	}
	if persisted >= initial && float64(persisted) <= tolerance*float64(initial) {
		surf.SetHeightPx(persisted)
		m.log.Debugf("Re-applied persisted height %dpx", persisted)
	} else {
		m.log.Warnf("Ignoring persisted height %dpx outside tolerance of initial %dpx", persisted, initial)
	}
}

func (m *Manager) heightChanged(css string) {
	m.mu.Lock()
	onHeight := m.onHeight
	m.mu.Unlock()
	if onHeight != nil {
		onHeight(css)
	}
}

// bound returns the surface while the manager is usable, nil otherwise.
func (m *Manager) boundSurf() surface.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateBound {
		return nil
	}
	return m.surf
}

// State reports the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Events exposes the binder for host event adapters. Nil until bound.
func (m *Manager) Events() *events.Binder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binder
}

// GetValue returns the surface text, "" when unbound or destroyed.
func (m *Manager) GetValue() string {
	surf := m.boundSurf()
	if surf == nil {
		return ""
	}
	return surf.Value()
}

// SetOption adjusts SetValue/InsertAtCursor behavior.
type SetOption func(*setOptions)

type setOptions struct {
	cursor *int
	silent bool
}

// WithCursor places the caret at pos after the mutation.
func WithCursor(pos int) SetOption {
	return func(o *setOptions) { o.cursor = &pos }
}

// WithoutNotify applies the mutation without re-firing the input pipeline.
func WithoutNotify() SetOption {
	return func(o *setOptions) { o.silent = true }
}

// SetValue replaces the surface text. The caret moves to the end unless
// WithCursor overrides it; the input pipeline re-fires unless
// WithoutNotify is given.
func (m *Manager) SetValue(text string, opts ...SetOption) {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	surf.SetValue(text)
	pos := len(text)
	if o.cursor != nil {
		pos = *o.cursor
	}
	surf.SetSelection(pos, pos)
	if !o.silent {
		m.notifyChanged()
	}
}

func (m *Manager) notifyChanged() {
	m.mu.Lock()
	binder := m.binder
	m.mu.Unlock()
	if binder != nil {
		binder.OnTextChanged()
	}
}

// GetCursorPosition returns the caret offset, 0 when unbound.
func (m *Manager) GetCursorPosition() int {
	surf := m.boundSurf()
	if surf == nil {
		return 0
	}
	start, _ := surf.Selection()
	return start
}

// SetCursorPosition moves the caret.
func (m *Manager) SetCursorPosition(pos int) {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	surf.SetSelection(pos, pos)
}

// GetSelection returns the selection range.
func (m *Manager) GetSelection() (start, end int) {
	surf := m.boundSurf()
	if surf == nil {
		return 0, 0
	}
	return surf.Selection()
}

// Focus focuses the surface.
func (m *Manager) Focus() {
	if surf := m.boundSurf(); surf != nil {
		surf.Focus()
	}
}

// Blur removes focus.
func (m *Manager) Blur() {
	if surf := m.boundSurf(); surf != nil {
		surf.Blur()
	}
}

// Select selects all text.
func (m *Manager) Select() {
	if surf := m.boundSurf(); surf != nil {
		surf.SelectAll()
	}
}

// Clear empties the surface.
func (m *Manager) Clear() {
	m.SetValue("")
}

// InsertAtCursor splices text at the caret, replacing any active
// selection.
func (m *Manager) InsertAtCursor(text string, opts ...SetOption) {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	value := surf.Value()
	start, end := surf.Selection()
	newText, newCursor := textutil.Splice(value, start, end, text)
	surf.SetValue(newText)
	if o.cursor != nil {
		newCursor = *o.cursor
	}
	surf.SetSelection(newCursor, newCursor)
	if !o.silent {
		m.notifyChanged()
	}
}

// GetWordAtCursor returns the word under or just before the caret.
func (m *Manager) GetWordAtCursor() string {
	surf := m.boundSurf()
	if surf == nil {
		return ""
	}
	start, _ := surf.Selection()
	word, ok := textutil.WordAt(surf.Value(), start)
	if !ok {
		return ""
	}
	return word.Text
}

// ReplaceWordAtCursor swaps the word under the caret for the given one,
// inserting at the caret when no word is there.
func (m *Manager) ReplaceWordAtCursor(word string) {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	value := surf.Value()
	start, _ := surf.Selection()
	if w, ok := textutil.WordAt(value, start); ok {
		newText, newCursor := textutil.Splice(value, w.Start, w.End, word)
		surf.SetValue(newText)
		surf.SetSelection(newCursor, newCursor)
		m.notifyChanged()
		return
	}
	m.InsertAtCursor(word)
}

// SelectCandidate applies an accepted candidate to the surface. Hosts call
// this from their rendered-list click or keyboard handlers.
func (m *Manager) SelectCandidate(c match.Candidate) {
	m.mu.Lock()
	matcher := m.matcher
	state := m.state
	m.mu.Unlock()
	if state != StateBound || matcher == nil {
		return
	}
	matcher.Select(c)
}

// OnHeightChange registers the host callback for applied height strings.
func (m *Manager) OnHeightChange(fn func(css string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHeight = fn
}

// OffHeightChange removes the host height callback.
func (m *Manager) OffHeightChange() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onHeight = nil
}

// GetMetrics returns a frozen counter snapshot. Zero values after destroy.
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	resizer, matcher, binder := m.resizer, m.matcher, m.binder
	state := m.state
	m.mu.Unlock()
	if state != StateBound || resizer == nil || matcher == nil || binder == nil {
		return Metrics{}
	}
	return Metrics{
		AutoResizes:     resizer.AutoResizes(),
		DroppedMatches:  matcher.DroppedMatches(),
		ManualResizes:   binder.ManualResizes(),
		PasteOperations: binder.PasteOperations(),
	}
}

// SaveToHistory records the current value in the history ring and
// persists it.
func (m *Manager) SaveToHistory() {
	surf := m.boundSurf()
	if surf == nil {
		return
	}
	m.mu.Lock()
	ring := m.ring
	m.mu.Unlock()
	if ring == nil {
		return
	}
	ring.Push(surf.Value())
	if err := m.st.SetHistory(ring.Entries()); err != nil {
		m.log.Warnf("Failed to persist history: %v", err)
	}
}

// GetHistory returns the history entries, newest first.
func (m *Manager) GetHistory() []string {
	m.mu.Lock()
	ring := m.ring
	state := m.state
	m.mu.Unlock()
	if state != StateBound || ring == nil {
		return nil
	}
	return ring.Entries()
}

// LoadFromHistory sets the value to history entry i, reporting success.
func (m *Manager) LoadFromHistory(i int) bool {
	m.mu.Lock()
	ring := m.ring
	state := m.state
	m.mu.Unlock()
	if state != StateBound || ring == nil {
		return false
	}
	entry, ok := ring.Get(i)
	if !ok {
		return false
	}
	m.SetValue(entry)
	return true
}

// ClearHistory removes all history entries and persists the empty set.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	ring := m.ring
	m.mu.Unlock()
	if ring == nil {
		return
	}
	ring.Clear()
	if err := m.st.SetHistory(nil); err != nil {
		m.log.Warnf("Failed to persist cleared history: %v", err)
	}
}

// Destroy tears the graph down. All pending scheduled work is cancelled
// synchronously; late async results find the destroyed flags and do
// nothing. Destroyed is terminal except through Reinitialize.
func (m *Manager) Destroy() {
	m.mu.Lock()
	if m.state == StateDestroyed {
		m.mu.Unlock()
		return
	}
	m.state = StateDestroyed
	binder, matcher, resizer, ring := m.binder, m.matcher, m.resizer, m.ring
	m.surf = nil
	m.mu.Unlock()

	if binder != nil {
		binder.Destroy()
	}
	if matcher != nil {
		matcher.Destroy()
	}
	if resizer != nil {
		resizer.Destroy()
	}
	m.sch.CancelAll()
	if ring != nil {
		if err := m.st.SetHistory(ring.Entries()); err != nil {
			m.log.Warnf("Failed to persist history at teardown: %v", err)
		}
	}
	m.log.Debug("Destroyed")
}

// Reinitialize tears down the current graph and rebinds against whatever
// the provider resolves now. The escape hatch for hosts that replace the
// underlying element.
func (m *Manager) Reinitialize() error {
	m.mu.Lock()
	binder, matcher, resizer := m.binder, m.matcher, m.resizer
	m.binder, m.matcher, m.resizer = nil, nil, nil
	m.surf = nil
	m.state = StateIdle
	m.mu.Unlock()

	if binder != nil {
		binder.Destroy()
	}
	if matcher != nil {
		matcher.Destroy()
	}
	if resizer != nil {
		resizer.Destroy()
	}
	m.sch.CancelAll()
	return m.Init()
}
