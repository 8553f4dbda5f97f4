package predicate

import "github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"

// Blocklist is the read side of the explicit identifier store.
type Blocklist interface {
	// Contains reports case-insensitive exact membership.
	Contains(id string) bool
	// Version changes on every replacement of the identifier set.
	Version() uint64
}

// Memo caches decisions by key. Satisfied by repos/blocklist.DecisionCache.
type Memo interface {
	Get(key string) (domain.MatchResult, bool)
	Put(key string, d domain.MatchResult)
}
