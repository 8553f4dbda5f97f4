// Package lru memoizes predicate decisions in a fixed-size LRU.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
)

// Memo is safe for concurrent use. A Memo built with size <= 0 is disabled:
// it stores nothing, always misses and counts nothing.
type Memo struct {
	entries   *lru.Cache[string, domain.MatchResult]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New returns a Memo holding up to size decisions.
func New(size int) (*Memo, error) {
	m := &Memo{}
	if size <= 0 {
		return m, nil
	}
	entries, err := lru.NewWithEvict(size, func(string, domain.MatchResult) {
		m.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	m.entries = entries
	return m, nil
}

// Enabled reports whether the memo stores anything.
func (m *Memo) Enabled() bool { return m.entries != nil }

func (m *Memo) Get(key string) (domain.MatchResult, bool) {
	if m.entries == nil {
		return domain.MatchResult{}, false
	}
	if d, ok := m.entries.Get(key); ok {
		m.hits.Add(1)
		return d, true
	}
	m.misses.Add(1)
	return domain.MatchResult{}, false
}

func (m *Memo) Put(key string, d domain.MatchResult) {
	if m.entries != nil {
		m.entries.Add(key, d)
	}
}

func (m *Memo) Len() int {
	if m.entries == nil {
		return 0
	}
	return m.entries.Len()
}

// Purge drops every entry; each one counts as an eviction.
func (m *Memo) Purge() {
	if m.entries != nil {
		m.entries.Purge()
	}
}

func (m *Memo) Stats() blocklist.CacheStats {
	return blocklist.CacheStats{
		Size:      m.Len(),
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
	}
}

var _ blocklist.DecisionCache = (*Memo)(nil)
