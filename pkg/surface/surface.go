// Package surface abstracts the editable text surface the managers operate
// on. Hosts provide an implementation backed by their UI toolkit; the
// managers only ever read and write through this interface.
package surface

// Direction is the text direction of the surface content.
type Direction int

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

// Surface is a single editable text input. The host owns its lifetime; the
// managers never create or destroy one, they only read and mutate its value,
// selection and height.
//
// Layout methods report zero values while the surface is not laid out yet
// (hidden, detached). Callers treat a zero OffsetHeight as "not ready" and
// fall back to estimates.
type Surface interface {
	Value() string
	SetValue(string)

	// Selection returns the current selection as byte offsets into Value.
	// A collapsed selection has start == end (the caret).
	Selection() (start, end int)
	SetSelection(start, end int)

	Focus()
	Blur()
	SelectAll()

	// OffsetHeight is the laid-out height in pixels, 0 when not visible.
	OffsetHeight() int
	// ContentWidth is the writable width in pixels.
	ContentWidth() int
	// ViewportHeight is the height of the viewport containing the surface.
	ViewportHeight() int

	// LineHeight reports the computed line height. ok is false when the
	// style resolves to something non-numeric ("normal").
	LineHeight() (px float64, ok bool)
	// ProbeLineHeight measures a synthetic one-character probe with the
	// surface's font metrics. Returns 0 when no probe is possible.
	ProbeLineHeight() float64
	// VerticalPadding is the combined vertical padding and border in pixels.
	VerticalPadding() int

	// NaturalHeight measures the height the content would occupy with
	// automatic sizing (the scroll height under height:auto).
	NaturalHeight() (int, error)

	// HeightPx is the currently applied height, 0 if never set.
	HeightPx() int
	SetHeightPx(px int)

	Direction() Direction

	// NotifyInput dispatches a synthetic input-changed event back through
	// the host, so bound handlers re-run after a programmatic mutation.
	NotifyInput()
}
