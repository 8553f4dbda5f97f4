package blocklist

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/clock"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/utils"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist/parsers"
)

// snapshot is one immutable generation of the explicit identifier set.
type snapshot struct {
	ids      map[string]struct{}
	order    []string
	bloom    BloomFilter
	version  uint64
	loadedAt time.Time
}

// Store holds the explicit identifier set. Writers build a complete snapshot
// and swap it in one atomic store, so readers never observe a partial list.
type Store struct {
	current     atomic.Pointer[snapshot]
	writeMu     sync.Mutex
	factory     BloomFactory
	fpRate      float64
	profileHost string
	clock       clock.Clock
	logger      log.Logger
}

// StoreOptions configures a Store. A nil Factory disables the Bloom pre-filter.
type StoreOptions struct {
	Factory     BloomFactory
	FPRate      float64
	ProfileHost string
	Clock       clock.Clock
	Logger      log.Logger
}

// LoadReport summarizes one Load call.
type LoadReport struct {
	Loaded  int
	Skipped []parsers.SkippedLine
	Version uint64
}

// NewStore constructs an unpopulated Store.
func NewStore(opts StoreOptions) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Store{
		factory:     opts.Factory,
		fpRate:      opts.FPRate,
		profileHost: opts.ProfileHost,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
}

// Load parses raw list text and replaces the identifier set with the result.
// Unrecognized lines are dropped; an empty result is accepted with a warning.
func (s *Store) Load(raw string) (LoadReport, error) {
	res, err := parsers.ParseBlocklist(strings.NewReader(raw), s.profileHost, s.logger)
	if err != nil {
		return LoadReport{}, fmt.Errorf("parse blocklist: %w", err)
	}
	version := s.Replace(res.Identifiers)
	rep := LoadReport{Loaded: len(res.Identifiers), Skipped: res.Skipped, Version: version}

	s.logger.Info(map[string]any{
		"identifiers": rep.Loaded,
		"skipped":     len(rep.Skipped),
		"version":     version,
	}, "blocklist_loaded")
	if rep.Loaded == 0 {
		s.logger.Warn(map[string]any{"version": version}, "blocklist_empty")
	}
	return rep, nil
}

// Replace swaps in a new snapshot built from ids and returns its version.
// ids are normalized; duplicates collapse.
func (s *Store) Replace(ids []string) uint64 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := &snapshot{
		ids:      make(map[string]struct{}, len(ids)),
		order:    make([]string, 0, len(ids)),
		loadedAt: s.clock.Now(),
	}
	for _, id := range ids {
		id = utils.NormalizeIdentifier(id)
		if id == "" {
			continue
		}
		if _, ok := next.ids[id]; ok {
			continue
		}
		next.ids[id] = struct{}{}
		next.order = append(next.order, id)
	}
	if s.factory != nil {
		bf := s.factory.New(uint64(len(next.order)), s.fpRate)
		for _, id := range next.order {
			bf.Add([]byte(id))
		}
		next.bloom = bf
	}
	if prev := s.current.Load(); prev != nil {
		next.version = prev.version + 1
	} else {
		next.version = 1
	}
	s.current.Store(next)
	return next.version
}

// Contains reports whether id is on the explicit list, case-insensitively.
// An unpopulated store contains nothing.
func (s *Store) Contains(id string) bool {
	snap := s.current.Load()
	if snap == nil {
		return false
	}
	cn := utils.NormalizeIdentifier(id)
	if cn == "" {
		return false
	}
	// definitely-absent answers skip the map
	if snap.bloom != nil && !snap.bloom.MightContain([]byte(cn)) {
		return false
	}
	_, ok := snap.ids[cn]
	return ok
}

// Populated reports whether any Load or Replace has completed.
func (s *Store) Populated() bool {
	return s.current.Load() != nil
}

// Version returns the current snapshot version, 0 when unpopulated.
func (s *Store) Version() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.version
	}
	return 0
}

// Len returns the number of identifiers in the current snapshot.
func (s *Store) Len() int {
	if snap := s.current.Load(); snap != nil {
		return len(snap.order)
	}
	return 0
}

// Sample returns up to n identifiers in load order.
func (s *Store) Sample(n int) []string {
	snap := s.current.Load()
	if snap == nil || n <= 0 {
		return nil
	}
	if n > len(snap.order) {
		n = len(snap.order)
	}
	out := make([]string, n)
	copy(out, snap.order[:n])
	return out
}

// Stats returns a snapshot of store metadata.
func (s *Store) Stats() StoreStats {
	snap := s.current.Load()
	if snap == nil {
		return StoreStats{}
	}
	return StoreStats{
		Populated: true,
		Count:     len(snap.order),
		Version:   snap.version,
		LoadedAt:  snap.loadedAt,
	}
}
