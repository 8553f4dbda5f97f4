package engine

import (
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/feed"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/scanner"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/visibility"
)

// Session is the engine bound to one document.
type Session struct {
	engine  *Engine
	doc     *dom.Document
	vis     *visibility.Controller
	scanner *scanner.Scanner
	feed    *feed.Feed
	passive bool
	closed  bool
}

// SessionStats summarizes one session.
type SessionStats struct {
	Passive bool
	Hidden  int
	Scanner scanner.Stats
	Feed    feed.Stats
}

// Attach binds the engine to doc. An armed engine installs the hide rule,
// runs the initial pass and starts following insertions. An engine that is
// not armed returns a passive session that touches nothing.
func (e *Engine) Attach(doc *dom.Document) *Session {
	n := e.sessions.Add(1)
	logger := e.logger.With(map[string]any{"session": n})

	vis := visibility.New(doc, logger)
	sc := scanner.New(doc, scanner.Options{
		Resolver:   e.resolver,
		Predicate:  e.predicate,
		Visibility: vis,
		Ready:      e.ready,
		Logger:     logger,
	})
	s := &Session{
		engine:  e,
		doc:     doc,
		vis:     vis,
		scanner: sc,
		feed:    feed.New(sc, logger),
	}

	if !e.Armed() {
		s.passive = true
		logger.Debug(nil, "session_passive")
		return s
	}

	vis.EnsureStylesInstalled()
	sc.Scan()
	s.feed.Start(doc)
	return s
}

// Document returns the bound document.
func (s *Session) Document() *dom.Document { return s.doc }

// Passive reports whether the session was attached before the engine armed.
func (s *Session) Passive() bool { return s.passive }

// Err returns ErrNotArmed for a passive session.
func (s *Session) Err() error {
	if s.passive {
		return ErrNotArmed
	}
	return nil
}

// Scan runs one more pass by hand.
func (s *Session) Scan() scanner.ScanReport {
	if s.passive {
		return scanner.ScanReport{Passive: true}
	}
	return s.scanner.Scan()
}

// Stats returns this session's counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Passive: s.passive,
		Hidden:  s.vis.Hidden(),
		Scanner: s.scanner.Stats(),
		Feed:    s.feed.Stats(),
	}
}

// Close stops the feed and folds the session's counts into the engine.
// Calling it again does nothing.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.feed.Stop()
	s.engine.hidden.Add(uint64(s.vis.Hidden()))
}
