package engine

import (
	"context"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
)

// Fetcher downloads the raw blocklist text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
	URL() string
}

// Store is the explicit identifier set the engine loads and reads.
type Store interface {
	Load(raw string) (blocklist.LoadReport, error)
	Contains(id string) bool
	Version() uint64
	Populated() bool
	Sample(n int) []string
	Stats() blocklist.StoreStats
}
