package domain

import (
	"fmt"
	"unicode/utf8"
)

// MatchReason records which check of the predicate decided to block.
type MatchReason uint8

const (
	// ReasonNone means nothing matched.
	ReasonNone MatchReason = iota
	// ReasonExplicitList means the author id is on the explicit list.
	ReasonExplicitList
	// ReasonAuthorWildcard means the author id contains a keyword.
	ReasonAuthorWildcard
	// ReasonTitleWildcard means the title contains a keyword.
	ReasonTitleWildcard
)

// String returns a stable string representation of the reason.
func (r MatchReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonExplicitList:
		return "explicit_list"
	case ReasonAuthorWildcard:
		return "author_wildcard"
	case ReasonTitleWildcard:
		return "title_wildcard"
	default:
		return fmt.Sprintf("MatchReason(%d)", r)
	}
}

// MatchResult is the outcome of evaluating an item's metadata.
// Pure value type; Keyword is empty unless a wildcard matched.
type MatchResult struct {
	Blocked bool
	Reason  MatchReason
	Keyword string
	Author  string
	Title   string
}

// NoMatch returns a not-blocked result.
func NoMatch() MatchResult { return MatchResult{Reason: ReasonNone} }

const maxTitleInLog = 50

// Describe renders the decision for operator logs.
func (m MatchResult) Describe() string {
	switch m.Reason {
	case ReasonExplicitList:
		return fmt.Sprintf("artist list (%s)", m.Author)
	case ReasonAuthorWildcard:
		return fmt.Sprintf("artist wildcard (%s contains '%s')", m.Author, m.Keyword)
	case ReasonTitleWildcard:
		return fmt.Sprintf("title wildcard ('%s' contains '%s')", truncate(m.Title, maxTitleInLog), m.Keyword)
	default:
		return "not blocked"
	}
}

// truncate shortens s to limit runes, replacing the tail with "..." when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}
