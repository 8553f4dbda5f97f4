package domain

import "strings"

// KeywordSet is an ordered, immutable list of lowercase wildcard substrings.
// Order matters: the first keyword found in a text is the one reported.
type KeywordSet struct {
	words []string
}

// NewKeywordSet normalizes raw keywords: trimmed, lowercased, blanks and
// duplicates dropped, first-seen order kept.
func NewKeywordSet(raw []string) KeywordSet {
	seen := make(map[string]struct{}, len(raw))
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return KeywordSet{words: words}
}

// FirstIn returns the first keyword, in list order, contained in text.
// The comparison is case-insensitive.
func (k KeywordSet) FirstIn(text string) (string, bool) {
	if text == "" || len(k.words) == 0 {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, w := range k.words {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

// Len returns the number of keywords.
func (k KeywordSet) Len() int { return len(k.words) }

// Words returns a copy of the keywords in order.
func (k KeywordSet) Words() []string {
	out := make([]string, len(k.words))
	copy(out, k.words)
	return out
}
