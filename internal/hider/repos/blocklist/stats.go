package blocklist

import "time"

// StoreStats reports lightweight store metrics and metadata.
type StoreStats struct {
	Populated bool      `json:"populated"`
	Count     int       `json:"count"`     // explicit identifiers in the current snapshot
	Version   uint64    `json:"version"`   // bumped on every Replace; 0 until first load
	LoadedAt  time.Time `json:"loaded_at"` // zero until first load
}

// CacheStats reports decision memo metrics.
type CacheStats struct {
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}
