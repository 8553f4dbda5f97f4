// Package bloom backs the store's membership pre-filter with bits-and-blooms.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
)

// DefaultFPRate replaces a false-positive rate outside (0, 1).
const DefaultFPRate = 0.01

// Factory builds filters sized for one snapshot.
type Factory struct{}

// NewFactory returns the bits-and-blooms factory.
func NewFactory() blocklist.BloomFactory { return Factory{} }

// New returns an empty filter for capacity identifiers at fpRate.
func (Factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	m, k := Parameters(capacity, fpRate)
	return &filter{bf: bitsbloom.New(m, k)}
}

// Parameters returns bit count m and hash count k for n entries at rate p.
// An empty snapshot still gets a usable one-entry filter.
func Parameters(n uint64, p float64) (m, k uint) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = DefaultFPRate
	}
	return bitsbloom.EstimateParameters(uint(n), p)
}

// filter is filled completely before its snapshot is published and never
// written afterwards, so reads take no lock.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte)               { f.bf.Add(key) }
func (f *filter) MightContain(key []byte) bool { return f.bf.Test(key) }
