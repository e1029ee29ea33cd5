// Package match implements the phrase-matching pipeline for a prompt
// surface: trailing-window extraction, candidate lookup with fallbacks, a
// race-guarded async update path, and splice-on-select session tracking.
package match

import (
	"context"
	"strings"
)

// Lookup resolves candidate completions. Implementations live in
// match/source; the server is trusted for ranking, no client-side
// re-ordering happens here.
type Lookup interface {
	// Matches returns ranked candidates for an exact phrase,
	// case-insensitive. An empty result means no hits.
	Matches(ctx context.Context, phrase string, limit int) ([]string, error)
	// Samples returns generic clause suggestions for when no trigger word
	// is available yet.
	Samples(ctx context.Context, limit int) ([]string, error)
}

// Candidate is one renderable match. Text is the raw candidate used when
// it is accepted; Safe is the escaped form for markup rendering.
type Candidate struct {
	Text   string
	Safe   string
	Sample bool
}

// Renderer displays a candidate list. Implementations must only ever emit
// Candidate.Safe into markup; Text may carry arbitrary server content.
type Renderer interface {
	Render(candidates []Candidate)
	Clear()
}

// RendererFunc adapts a function to the Renderer interface. Clear renders
// an empty list.
type RendererFunc func(candidates []Candidate)

func (f RendererFunc) Render(candidates []Candidate) { f(candidates) }

func (f RendererFunc) Clear() { f(nil) }

// FormatReplacement converts an accepted candidate into the text spliced
// into the prompt. Samples become a bare placeholder, the comma fallback a
// separator, and real matches a placeholder with a trailing space.
func FormatReplacement(c Candidate) string {
	switch {
	case c.Sample:
		return "${" + c.Text + "}"
	case strings.TrimSpace(c.Text) == ",":
		return ", "
	default:
		return "${" + c.Text + "} "
	}
}

// fallbackSamples is the static sample set used when the remote sample
// fetch fails. The sample path must never error out.
var fallbackSamples = []string{
	"highly detailed",
	"soft natural lighting",
	"cinematic composition",
	"vibrant colors",
	"shallow depth of field",
	"studio portrait",
	"wide angle shot",
	"golden hour",
	"intricate textures",
	"minimalist background",
	"dramatic shadows",
	"photorealistic",
}
