// Package cli provides an interactive debugging loop over the full
// manager graph: type text, see the candidate list, accept candidates by
// number.
package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/typewell/promptarea/pkg/match"
)

// ConsoleRenderer prints candidate lists to stdout and remembers the last
// rendered set so :sel can pick from it.
type ConsoleRenderer struct {
	mu   sync.Mutex
	last []match.Candidate
}

func NewConsoleRenderer() *ConsoleRenderer {
	return &ConsoleRenderer{}
}

func (r *ConsoleRenderer) Render(candidates []match.Candidate) {
	r.mu.Lock()
	r.last = candidates
	r.mu.Unlock()

	if len(candidates) == 0 {
		return
	}
	for i, c := range candidates {
		kind := ""
		if c.Sample {
			kind = " (sample)"
		}
		fmt.Fprintf(os.Stdout, "  [%d] %s%s\n", i, c.Safe, kind)
	}
}

func (r *ConsoleRenderer) Clear() {
	r.mu.Lock()
	r.last = nil
	r.mu.Unlock()
}

// Candidate returns the i-th candidate of the last rendered list.
func (r *ConsoleRenderer) Candidate(i int) (match.Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.last) {
		return match.Candidate{}, false
	}
	return r.last[i], true
}
