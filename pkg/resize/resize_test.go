package resize

import (
	"strings"
	"testing"

	"github.com/typewell/promptarea/pkg/config"
	"github.com/typewell/promptarea/pkg/sched"
	"github.com/typewell/promptarea/pkg/surface"
)

// newTestResizer wires a Resizer over the in-memory surface and a manual
// scheduler. Memory defaults: 72px offset height, 480px content width at
// 8px per glyph (60 chars per line), 20px line height, 12px padding,
// 800px viewport.
func newTestResizer() (*Resizer, *surface.Memory, *sched.Manual) {
	surf := surface.NewMemory()
	m := sched.NewManual()
	r := NewResizer(surf, m, config.ResizeConfig{})
	return r, surf, m
}

func TestResizeEmptyTextAppliesInitial(t *testing.T) {
	r, surf, _ := newTestResizer()

	r.Resize()

	if got := surf.HeightPx(); got != 72 {
		t.Errorf("HeightPx = %d, want the measured initial 72", got)
	}
	if px, estimate := r.InitialHeight(); px != 72 || estimate {
		t.Errorf("InitialHeight = (%d, %v), want (72, false)", px, estimate)
	}
	if r.AutoResizes() != 1 {
		t.Errorf("AutoResizes = %d, want 1", r.AutoResizes())
	}
}

func TestResizeMemoizesUnchangedContent(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetValue("a photo of a dog")

	r.Resize()
	applied := r.AutoResizes()
	r.Resize()

	if r.AutoResizes() != applied {
		t.Errorf("AutoResizes grew to %d on unchanged content, want %d", r.AutoResizes(), applied)
	}
}

func TestResizeGrowsWithContent(t *testing.T) {
	r, surf, _ := newTestResizer()
	// 300 chars wrap to 5 lines of 60: natural = 5*20 + 12 = 112
	surf.SetValue(strings.Repeat("x", 300))

	r.Resize()

	if got := surf.HeightPx(); got != 112 {
		t.Errorf("HeightPx = %d, want 112", got)
	}
}

func TestResizeCountsExplicitLineBreaks(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetValue("one\ntwo\nthree\nfour\nfive")

	r.Resize()

	// 5 lines: 5*20 + 12 = 112
	if got := surf.HeightPx(); got != 112 {
		t.Errorf("HeightPx = %d, want 112", got)
	}
}

func TestResizeNeverShrinksBelowInitial(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetValue("hi")

	r.Resize()

	// one line measures 32, but the initial 72 is the floor
	if got := surf.HeightPx(); got != 72 {
		t.Errorf("HeightPx = %d, want the 72 floor", got)
	}
}

func TestResizeClampsToViewportShare(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetViewportHeight(100)
	surf.SetValue(strings.Repeat("x", 600))

	r.Resize()

	// natural 212 exceeds 0.9 * 100, the cap wins
	if got := surf.HeightPx(); got != 90 {
		t.Errorf("HeightPx = %d, want the 90 viewport cap", got)
	}
}

func TestResizeEstimatesWhenNotLaidOut(t *testing.T) {
	r, surf, m := newTestResizer()
	surf.SetOffsetHeight(0)

	r.Resize()

	// estimate: 3 lines * 20 + 12 padding
	if px, estimate := r.InitialHeight(); px != 72 || !estimate {
		t.Fatalf("InitialHeight = (%d, %v), want the (72, true) estimate", px, estimate)
	}
	if !m.Pending("resize.visibility") {
		t.Fatal("no visibility poll scheduled for the estimated height")
	}

	// the surface becomes visible with a different real height
	surf.SetOffsetHeight(100)
	m.Fire("resize.visibility")

	if px, estimate := r.InitialHeight(); px != 100 || estimate {
		t.Errorf("InitialHeight = (%d, %v) after layout, want (100, false)", px, estimate)
	}
	if got := surf.HeightPx(); got != 100 {
		t.Errorf("HeightPx = %d after layout, want 100", got)
	}
}

func TestVisibilityPollingGivesUp(t *testing.T) {
	r, surf, m := newTestResizer()
	surf.SetOffsetHeight(0)

	r.Resize()

	fired := 0
	for m.Pending("resize.visibility") {
		m.Fire("resize.visibility")
		fired++
		if fired > 100 {
			t.Fatal("visibility polling never gave up")
		}
	}
	if fired != 50 {
		t.Errorf("polled %d times before giving up, want 50", fired)
	}
	if _, estimate := r.InitialHeight(); !estimate {
		t.Error("initial height claims to be measured while hidden")
	}
}

func TestResizeMeasurementFailureResetsToInitial(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetValue(strings.Repeat("x", 300))
	r.Resize()
	if surf.HeightPx() != 112 {
		t.Fatalf("setup: HeightPx = %d, want 112", surf.HeightPx())
	}

	surf.SetValue(strings.Repeat("y", 400))
	surf.SetMeasurable(false)
	r.Resize()

	if got := surf.HeightPx(); got != 72 {
		t.Errorf("HeightPx = %d after failed measurement, want the 72 initial", got)
	}
}

func TestClearMemoForcesRecompute(t *testing.T) {
	r, surf, _ := newTestResizer()
	surf.SetValue("a photo of a dog")
	r.Resize()
	applied := r.AutoResizes()

	r.ClearMemo()
	r.Resize()

	if r.AutoResizes() != applied+1 {
		t.Errorf("AutoResizes = %d after ClearMemo, want %d", r.AutoResizes(), applied+1)
	}
}

func TestOnHeightChange(t *testing.T) {
	r, surf, _ := newTestResizer()
	var got []string
	r.OnHeightChange(func(css string) { got = append(got, css) })
	surf.SetValue(strings.Repeat("x", 300))

	r.Resize()

	if len(got) != 1 || got[0] != "112px" {
		t.Errorf("height callbacks = %v, want [112px]", got)
	}

	r.OffHeightChange()
	surf.SetValue(strings.Repeat("x", 400))
	r.Resize()
	if len(got) != 1 {
		t.Error("callback fired after OffHeightChange")
	}
}

func TestDestroyStopsResizing(t *testing.T) {
	r, surf, m := newTestResizer()
	surf.SetOffsetHeight(0)
	r.Resize()
	if !m.Pending("resize.visibility") {
		t.Fatal("setup: expected a visibility poll")
	}

	r.Destroy()

	if m.Pending("resize.visibility") {
		t.Error("visibility poll survived destroy")
	}
	surf.SetValue("text after destroy")
	r.Resize()
	if r.AutoResizes() != 1 {
		t.Errorf("AutoResizes = %d after destroy, want the pre-destroy 1", r.AutoResizes())
	}
}
