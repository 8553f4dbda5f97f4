// Package engine wires the store, predicate, resolver, scanner and feed
// into per-document sessions.
//
// An engine starts passive. Boot fetches the list and arms it; until then
// every session it hands out marks and hides nothing, so a slow or failed
// fetch leaves content visible rather than judging it against an empty list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/clock"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/repos/blocklist"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/predicate"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/resolver"
)

// ErrNotArmed reports that no blocklist has been loaded yet.
var ErrNotArmed = errors.New("engine not armed")

// sampleSize is how many identifiers the load log lists.
const sampleSize = 10

// Options configures an Engine.
type Options struct {
	Store    Store
	Fetcher  Fetcher
	Keywords domain.KeywordSet
	// Cache memoizes predicate decisions. Nil disables memoization.
	Cache  blocklist.DecisionCache
	Shapes resolver.Shapes
	Clock  clock.Clock
	Logger log.Logger
}

// Stats is the engine-wide view served by the health endpoint.
type Stats struct {
	Armed    bool                 `json:"armed"`
	Keywords int                  `json:"keywords"`
	Store    blocklist.StoreStats `json:"store"`
	Cache    blocklist.CacheStats `json:"cache"`
	Sessions uint64               `json:"sessions"`
	Hidden   uint64               `json:"hidden"`
}

// Engine is safe for concurrent use; each Session it returns is not.
type Engine struct {
	store     Store
	fetcher   Fetcher
	keywords  domain.KeywordSet
	cache     blocklist.DecisionCache
	resolver  *resolver.Resolver
	predicate *predicate.Predicate
	clock     clock.Clock
	logger    log.Logger

	armed    atomic.Bool
	loadMu   sync.Mutex
	sessions atomic.Uint64
	hidden   atomic.Uint64
}

// New validates opts and returns a passive Engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("engine: fetcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	res, err := resolver.New(opts.Shapes)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		keywords: opts.Keywords,
		cache:    opts.Cache,
		resolver: res,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	var memo predicate.Memo
	if opts.Cache != nil {
		memo = opts.Cache
	}
	e.predicate = predicate.New(opts.Store, opts.Keywords, memo)
	return e, nil
}

// Boot fetches and loads the blocklist, then arms the engine. On failure
// the engine stays passive and the error is returned; nothing is retried.
func (e *Engine) Boot(ctx context.Context) error {
	return e.refresh(ctx, "boot")
}

// Reload fetches the list again and swaps the store. A failed reload keeps
// the previous list. Nodes already processed by open sessions are not
// evaluated again against the new list.
func (e *Engine) Reload(ctx context.Context) error {
	return e.refresh(ctx, "reload")
}

func (e *Engine) refresh(ctx context.Context, phase string) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.logger.Info(map[string]any{"phase": phase, "url": e.fetcher.URL()}, "blocklist_fetch_start")
	start := e.clock.Now()
	raw, err := e.fetcher.Fetch(ctx)
	elapsed := clock.Since(e.clock, start)
	if err != nil {
		e.logger.Error(map[string]any{
			"phase":   phase,
			"url":     e.fetcher.URL(),
			"elapsed": elapsed.String(),
			"error":   err.Error(),
		}, "blocklist_fetch_failed")
		return fmt.Errorf("%s: %w", phase, err)
	}

	rep, err := e.store.Load(raw)
	if err != nil {
		e.logger.Error(map[string]any{"phase": phase, "error": err.Error()}, "blocklist_load_failed")
		return fmt.Errorf("%s: %w", phase, err)
	}

	e.armed.Store(true)
	e.logger.Info(map[string]any{
		"phase":       phase,
		"elapsed":     elapsed.String(),
		"identifiers": rep.Loaded,
		"skipped":     len(rep.Skipped),
		"version":     rep.Version,
		"sample":      e.store.Sample(sampleSize),
		"keywords":    e.keywords.Len(),
	}, "engine_armed")
	return nil
}

// Armed reports whether a blocklist has been loaded.
func (e *Engine) Armed() bool { return e.armed.Load() }

// ready gates every scanner pass.
func (e *Engine) ready() bool {
	return e.armed.Load() && (e.store.Populated() || e.keywords.Len() > 0)
}

// Evaluate exposes the shared predicate.
func (e *Engine) Evaluate(author, title *string) domain.MatchResult {
	return e.predicate.Evaluate(author, title)
}

// Stats returns engine-wide counters.
func (e *Engine) Stats() Stats {
	st := Stats{
		Armed:    e.Armed(),
		Keywords: e.keywords.Len(),
		Store:    e.store.Stats(),
		Sessions: e.sessions.Load(),
		Hidden:   e.hidden.Load(),
	}
	if e.cache != nil {
		st.Cache = e.cache.Stats()
	}
	return st
}
