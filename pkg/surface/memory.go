package surface

import (
	"errors"
	"math"
	"strings"
	"sync"
)

// ErrNotMeasurable is returned by Memory.NaturalHeight when measurement has
// been disabled to simulate a surface that is not laid out.
var ErrNotMeasurable = errors.New("surface: natural height not measurable")

// Memory is an in-memory Surface used by the CLI and by tests. Layout is
// simulated with a fixed glyph width: content wraps at ContentWidth and the
// natural height is derived from the wrapped line count.
type Memory struct {
	mu sync.Mutex

	value    string
	selStart int
	selEnd   int
	focused  bool

	offsetHeight int
	contentWidth int
	viewportH    int
	lineHeight   float64
	lineHeightOK bool
	probeHeight  float64
	padding      int
	heightPx     int
	glyphWidth   int
	dir          Direction

	measurable bool
	onInput    func()
}

// NewMemory returns a laid-out Memory surface with typical defaults.
func NewMemory() *Memory {
	return &Memory{
		offsetHeight: 72,
		contentWidth: 480,
		viewportH:    800,
		lineHeight:   20,
		lineHeightOK: true,
		probeHeight:  20,
		padding:      12,
		glyphWidth:   8,
		measurable:   true,
	}
}

func (m *Memory) Value() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *Memory) SetValue(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	if m.selStart > len(v) {
		m.selStart = len(v)
	}
	if m.selEnd > len(v) {
		m.selEnd = len(v)
	}
}

func (m *Memory) Selection() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selStart, m.selEnd
}

func (m *Memory) SetSelection(start, end int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	if start > len(m.value) {
		start = len(m.value)
	}
	if end > len(m.value) {
		end = len(m.value)
	}
	m.selStart, m.selEnd = start, end
}

func (m *Memory) Focus() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = true
}

func (m *Memory) Blur() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = false
}

func (m *Memory) Focused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

func (m *Memory) SelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selStart, m.selEnd = 0, len(m.value)
}

func (m *Memory) OffsetHeight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsetHeight
}

// SetOffsetHeight simulates layout changes; 0 means hidden.
func (m *Memory) SetOffsetHeight(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsetHeight = px
}

func (m *Memory) ContentWidth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contentWidth
}

func (m *Memory) SetContentWidth(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentWidth = px
}

func (m *Memory) ViewportHeight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewportH
}

func (m *Memory) SetViewportHeight(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewportH = px
}

func (m *Memory) LineHeight() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lineHeight, m.lineHeightOK
}

// SetLineHeight configures the computed line height; ok=false simulates a
// style that resolves to "normal".
func (m *Memory) SetLineHeight(px float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineHeight, m.lineHeightOK = px, ok
}

func (m *Memory) ProbeLineHeight() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeHeight
}

func (m *Memory) SetProbeLineHeight(px float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeHeight = px
}

func (m *Memory) VerticalPadding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.padding
}

func (m *Memory) SetVerticalPadding(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.padding = px
}

// NaturalHeight wraps the value at ContentWidth assuming a fixed glyph
// width and reports wrapped lines * line height + padding.
func (m *Memory) NaturalHeight() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.measurable {
		return 0, ErrNotMeasurable
	}
	lines := 0
	perLine := 1
	if m.glyphWidth > 0 && m.contentWidth > m.glyphWidth {
		perLine = m.contentWidth / m.glyphWidth
	}
	for _, seg := range strings.Split(m.value, "\n") {
		n := int(math.Ceil(float64(len(seg)) / float64(perLine)))
		if n < 1 {
			n = 1
		}
		lines += n
	}
	lh := m.lineHeight
	if lh <= 0 {
		lh = m.probeHeight
	}
	return int(float64(lines)*lh) + m.padding, nil
}

// SetMeasurable toggles NaturalHeight failures for teardown and error-path
// simulations.
func (m *Memory) SetMeasurable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.measurable = ok
}

func (m *Memory) HeightPx() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heightPx
}

func (m *Memory) SetHeightPx(px int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heightPx = px
}

func (m *Memory) Direction() Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

func (m *Memory) SetDirection(d Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = d
}

// OnInput registers the callback invoked by NotifyInput. The host adapter
// normally points this at the event binder.
func (m *Memory) OnInput(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onInput = fn
}

func (m *Memory) NotifyInput() {
	m.mu.Lock()
	fn := m.onInput
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
