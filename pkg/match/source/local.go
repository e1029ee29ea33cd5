// Package source provides match.Lookup implementations: an HTTP client for
// the clause endpoints and a patricia-trie local index used offline and in
// tests.
package source

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/typewell/promptarea/internal/logger"
)

// Local is an in-process phrase index. Phrases are stored lowercased with
// a weight; lookups walk the subtree under the query prefix and return
// candidates by descending weight.
type Local struct {
	mu   sync.RWMutex
	trie *patricia.Trie
	log  *log.Logger
}

type weighted struct {
	phrase string
	weight int
}

// NewLocal returns an empty index.
func NewLocal() *Local {
	return &Local{
		trie: patricia.NewTrie(),
		log:  logger.Default("source"),
	}
}

// Add inserts a phrase with its weight, replacing any previous entry.
func (l *Local) Add(phrase string, weight int) {
	key := strings.ToLower(strings.TrimSpace(phrase))
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trie.Set(patricia.Prefix(key), weight)
}

// Seed bulk-inserts phrase weights.
func (l *Local) Seed(weights map[string]int) {
	for phrase, weight := range weights {
		l.Add(phrase, weight)
	}
}

// Matches returns phrases under the query prefix, heaviest first. The
// exact query itself is skipped so the input is never suggested back.
func (l *Local) Matches(ctx context.Context, phrase string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(strings.TrimSpace(phrase))
	if lower == "" {
		return nil, nil
	}

	l.mu.RLock()
	results := l.collect(lower)
	l.mu.RUnlock()

	return clip(rank(results), limit), nil
}

// Samples returns the heaviest phrases in the whole index.
func (l *Local) Samples(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	results := l.collect("")
	l.mu.RUnlock()

	return clip(rank(results), limit), nil
}

func (l *Local) collect(lowerPrefix string) []weighted {
	var results []weighted
	err := l.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		phrase := string(p)
		if phrase == lowerPrefix {
			return nil
		}
		weight := 1
		switch v := item.(type) {
		case int:
			weight = v
		case int32:
			weight = int(v)
		case uint32:
			weight = int(v)
		case float64:
			weight = int(v)
		default:
			l.log.Errorf("Unknown item type: %T for phrase %s", item, p)
		}
		results = append(results, weighted{phrase: phrase, weight: weight})
		return nil
	})
	if err != nil {
		l.log.Errorf("Error visiting trie subtree: %v", err)
	}
	return results
}

func rank(results []weighted) []string {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].weight > results[j].weight
	})
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.phrase
	}
	return out
}

func clip(out []string, limit int) []string {
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
