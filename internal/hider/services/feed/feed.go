// Package feed turns document mutations into scanner passes.
package feed

import (
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/scanner"
)

// Scanner is the pass the feed triggers.
type Scanner interface {
	Scan() scanner.ScanReport
}

// Stats counts batches seen by the feed and the ones that ran a pass.
type Stats struct {
	Batches   int
	Triggered int
}

// Feed subscribes to one document at a time. A relevant batch runs a pass
// right away, inside the document's delivery loop; there is no debounce.
type Feed struct {
	scanner Scanner
	logger  log.Logger
	match   dom.Matcher
	cancel  func()
	stats   Stats
}

// New returns a stopped Feed.
func New(s Scanner, logger log.Logger) *Feed {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Feed{scanner: s, logger: logger, match: scanner.ReferenceSelector()}
}

// Start subscribes to doc. Starting a running feed is a no-op.
func (f *Feed) Start(doc *dom.Document) {
	if f.cancel != nil {
		return
	}
	f.cancel = doc.Observe(f.onBatch)
}

// Stop unsubscribes. Stopping a stopped feed is a no-op.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.cancel = nil
}

// Running reports whether the feed is subscribed.
func (f *Feed) Running() bool { return f.cancel != nil }

// Relevant reports whether any node added by b is, or contains, an
// unprocessed reference node.
func (f *Feed) Relevant(b dom.MutationBatch) bool {
	for _, rec := range b.Records {
		for _, n := range rec.Added {
			if dom.MatchesOrContains(n, f.match) {
				return true
			}
		}
	}
	return false
}

func (f *Feed) onBatch(b dom.MutationBatch) {
	f.stats.Batches++
	if !f.Relevant(b) {
		return
	}
	f.stats.Triggered++
	rep := f.scanner.Scan()
	f.logger.Debug(map[string]any{
		"seq":        b.Seq,
		"candidates": rep.Candidates,
		"hidden":     rep.Hidden,
	}, "feed_scan")
}

// Stats returns the feed counters.
func (f *Feed) Stats() Stats { return f.stats }
