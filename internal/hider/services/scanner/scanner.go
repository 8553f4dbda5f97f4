// Package scanner evaluates every reference node of a document exactly once.
//
// A pass selects the anchors that do not carry the processed marker yet and,
// in document order, marks each one, resolves its container, reads the
// container's metadata and hides the container when the predicate blocks
// it. Marking comes first so a pass triggered from inside another never
// evaluates the same node twice.
package scanner

import (
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
)

// ProcessedClass marks a reference node that has been evaluated.
const ProcessedClass = "da-processed-link"

var referenceSel = dom.MustCompile(`a:not(.` + ProcessedClass + `)`)

// ReferenceSelector matches reference nodes that still need a pass.
func ReferenceSelector() dom.Matcher { return referenceSel }

// ScanReport counts what one pass did.
type ScanReport struct {
	Candidates int
	Resolved   int
	Unresolved int
	// Evaluated counts predicate calls; nodes whose container was already
	// blocked are resolved but not evaluated.
	Evaluated int
	Hidden    int
	// Passive is set when the pass did nothing because the scanner was not ready.
	Passive bool
}

// Stats accumulates reports across passes.
type Stats struct {
	Scans        int
	PassiveScans int
	Candidates   int
	Resolved     int
	Unresolved   int
	Evaluated    int
	Hidden       int
}

func (s *Stats) add(r ScanReport) {
	s.Scans++
	if r.Passive {
		s.PassiveScans++
		return
	}
	s.Candidates += r.Candidates
	s.Resolved += r.Resolved
	s.Unresolved += r.Unresolved
	s.Evaluated += r.Evaluated
	s.Hidden += r.Hidden
}

// Options wires a Scanner's collaborators.
type Options struct {
	Resolver   Resolver
	Predicate  Evaluator
	Visibility Visibility
	// Ready gates every pass; nil means always ready. A pass made while not
	// ready marks nothing, so the nodes are picked up once it turns true.
	Ready  func() bool
	Logger log.Logger
}

// Scanner runs passes over one document. Not safe for concurrent use.
type Scanner struct {
	doc    *dom.Document
	opts   Options
	logger log.Logger
	stats  Stats
}

// New returns a Scanner for doc.
func New(doc *dom.Document, opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Scanner{doc: doc, opts: opts, logger: logger}
}

// Scan makes one pass over the unprocessed reference nodes.
func (s *Scanner) Scan() ScanReport {
	var rep ScanReport
	defer func() { s.stats.add(rep) }()

	if s.opts.Ready != nil && !s.opts.Ready() {
		rep.Passive = true
		return rep
	}

	nodes := dom.QueryAll(s.doc.Root(), referenceSel)
	rep.Candidates = len(nodes)
	for _, n := range nodes {
		if !dom.AddClass(n, ProcessedClass) {
			continue
		}

		container, strategy := s.opts.Resolver.ResolveNamed(n)
		if container == nil {
			rep.Unresolved++
			href, _ := dom.Attr(n, "href")
			s.logger.Debug(map[string]any{"href": href}, "resolution_miss")
			continue
		}
		rep.Resolved++

		if s.opts.Visibility.IsHidden(container) {
			continue
		}

		item, author := extract(container)
		// the author link speaks for the same item; a pass reaching it
		// later has nothing new to learn
		if author != nil {
			dom.AddClass(author, ProcessedClass)
		}
		rep.Evaluated++
		res := s.opts.Predicate.Evaluate(item.AuthorID, item.Title)
		if !res.Blocked {
			continue
		}
		if s.opts.Visibility.Hide(container) {
			rep.Hidden++
			s.logger.Info(map[string]any{
				"reason":   res.Reason.String(),
				"keyword":  res.Keyword,
				"author":   item.AuthorOrEmpty(),
				"title":    item.TitleOrEmpty(),
				"strategy": strategy,
				"detail":   res.Describe(),
			}, "hiding_item")
		}
	}
	return rep
}

// Stats returns the totals of every pass so far.
func (s *Scanner) Stats() Stats { return s.stats }
