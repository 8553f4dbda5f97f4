package blocklist

import "github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"

// BloomFilter is the pre-filter a snapshot consults before its map.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds a filter sized for a snapshot.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache memoizes predicate results by metadata key.
type DecisionCache interface {
	Get(key string) (domain.MatchResult, bool)
	Put(key string, d domain.MatchResult)
	Len() int
	Purge()
	Stats() CacheStats
}
