// Package predicate decides whether an item's metadata blocks it.
//
// Checks run in a fixed order and the first match wins: the explicit list,
// then wildcard keywords against the author id, then against the title.
package predicate

import (
	"strconv"
	"strings"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/utils"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
)

// Predicate evaluates item metadata against a blocklist and keyword set.
type Predicate struct {
	list     Blocklist
	keywords domain.KeywordSet
	memo     Memo
}

// New builds a Predicate. memo may be nil.
func New(list Blocklist, keywords domain.KeywordSet, memo Memo) *Predicate {
	return &Predicate{list: list, keywords: keywords, memo: memo}
}

// Keywords returns the configured wildcard keywords.
func (p *Predicate) Keywords() domain.KeywordSet { return p.keywords }

// Evaluate returns the decision for one item. A nil field takes no part in
// the checks that read it.
func (p *Predicate) Evaluate(author, title *string) domain.MatchResult {
	a, t := "", ""
	if author != nil {
		a = utils.NormalizeIdentifier(*author)
	}
	if title != nil {
		t = *title
	}
	if a == "" && t == "" {
		return domain.NoMatch()
	}

	var key string
	if p.memo != nil {
		key = memoKey(p.list.Version(), a, t)
		if r, ok := p.memo.Get(key); ok {
			return r
		}
	}

	r := p.evaluate(a, t)
	if p.memo != nil {
		p.memo.Put(key, r)
	}
	return r
}

func (p *Predicate) evaluate(author, title string) domain.MatchResult {
	if author != "" {
		if p.list.Contains(author) {
			return domain.MatchResult{Blocked: true, Reason: domain.ReasonExplicitList, Author: author, Title: title}
		}
		if kw, ok := p.keywords.FirstIn(author); ok {
			return domain.MatchResult{Blocked: true, Reason: domain.ReasonAuthorWildcard, Keyword: kw, Author: author, Title: title}
		}
	}
	if title != "" {
		if kw, ok := p.keywords.FirstIn(title); ok {
			return domain.MatchResult{Blocked: true, Reason: domain.ReasonTitleWildcard, Keyword: kw, Author: author, Title: title}
		}
	}
	r := domain.NoMatch()
	r.Author, r.Title = author, title
	return r
}

// memoKey folds the store version in so a replaced list never serves a
// decision made against the old one.
func memoKey(version uint64, author, title string) string {
	var b strings.Builder
	b.Grow(len(author) + len(title) + 24)
	b.WriteString(strconv.FormatUint(version, 10))
	b.WriteByte(0)
	b.WriteString(author)
	b.WriteByte(0)
	b.WriteString(title)
	return b.String()
}
