package match

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/typewell/promptarea/internal/logger"
	"github.com/typewell/promptarea/internal/textutil"
	"github.com/typewell/promptarea/pkg/config"
)

// Processor turns trailing text into candidate lists. It tries windows of
// 1, 2 and 3 trailing words and remembers whichever phrase last produced a
// hit; that phrase is the trigger the next accepted candidate replaces.
type Processor struct {
	lookup Lookup
	cfg    config.MatchConfig

	mu          sync.Mutex
	lastMatched string

	log *log.Logger
}

// NewProcessor creates a Processor over the given lookup. Zero config
// fields fall back to defaults.
func NewProcessor(lookup Lookup, cfg config.MatchConfig) *Processor {
	def := config.DefaultConfig().Match
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = def.SampleLimit
	}
	if cfg.MinTokenLen <= 0 {
		cfg.MinTokenLen = def.MinTokenLen
	}
	if cfg.MaxWindowWords <= 0 {
		cfg.MaxWindowWords = def.MaxWindowWords
	}
	return &Processor{
		lookup: lookup,
		cfg:    cfg,
		log:    logger.Default("match"),
	}
}

// ReadyToMatch reports whether trailing text ends in a token long enough
// to query for.
func (p *Processor) ReadyToMatch(trailing string) bool {
	return utf8.RuneCountInString(textutil.LastToken(trailing)) >= p.cfg.MinTokenLen
}

// FindMatches queries the last 1, 2 then 3 trailing words and returns the
// first non-empty candidate set. Shorter windows deliberately win over
// longer ones; longest-match-first reads like the obvious ordering but the
// product behaves this way on purpose. When every window misses, a single
// separator candidate is returned so the list is never empty. Lookup
// failures degrade to a miss for that window.
func (p *Processor) FindMatches(ctx context.Context, trailing string) []string {
	for n := 1; n <= p.cfg.MaxWindowWords; n++ {
		phrase, ok := textutil.TrailingWindow(trailing, n)
		if !ok {
			break
		}
		candidates, err := p.lookup.Matches(ctx, phrase, p.cfg.Limit)
		if err != nil {
			p.log.Debugf("Lookup failed for %q: %v", phrase, err)
			continue
		}
		if len(candidates) > 0 {
			p.mu.Lock()
			p.lastMatched = phrase
			p.mu.Unlock()
			return candidates
		}
	}
	return []string{", "}
}

// SampleMatches fetches generic clause suggestions, falling back to the
// builtin static set on any failure. It never errors.
func (p *Processor) SampleMatches(ctx context.Context) []string {
	limit := p.cfg.SampleLimit
	samples, err := p.lookup.Samples(ctx, limit)
	if err != nil || len(samples) == 0 {
		if err != nil {
			p.log.Debugf("Sample fetch failed, using static samples: %v", err)
		}
		samples = fallbackSamples
	}
	if len(samples) > limit {
		samples = samples[:limit]
	}
	return samples
}

// LastMatchedPhrase returns the phrase that most recently produced a hit.
func (p *Processor) LastMatchedPhrase() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastMatched
}
