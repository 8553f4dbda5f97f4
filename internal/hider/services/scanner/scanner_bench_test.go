package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/resolver"
)

// Stub implementations for benchmarking (no overhead from mocking framework)
type stubEvaluator struct {
	blocked string
}

func (s *stubEvaluator) Evaluate(author, title *string) domain.MatchResult {
	if author != nil && *author == s.blocked {
		return domain.MatchResult{Blocked: true, Reason: domain.ReasonExplicitList, Author: *author}
	}
	return domain.NoMatch()
}

type stubVisibility struct {
	hidden map[*html.Node]bool
}

func (s *stubVisibility) Hide(container *html.Node) bool {
	if s.hidden[container] {
		return false
	}
	s.hidden[container] = true
	return true
}

func (s *stubVisibility) IsHidden(container *html.Node) bool { return s.hidden[container] }

func benchGrid(cards int) string {
	var sb strings.Builder
	sb.WriteString("<html><head></head><body><main>")
	for i := 0; i < cards; i++ {
		author := fmt.Sprintf("user%d", i)
		if i%10 == 0 {
			author = "badartist"
		}
		sb.WriteString(card(fmt.Sprintf("c%d", i), author, fmt.Sprintf("piece %d", i)))
	}
	sb.WriteString("<footer><a href=\"/about\">about</a></footer></main></body></html>")
	return sb.String()
}

func newBenchScanner(b *testing.B, page string) *Scanner {
	b.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(b, err)
	res, err := resolver.New(resolver.DefaultShapes())
	require.NoError(b, err)
	return New(doc, Options{
		Resolver:   res,
		Predicate:  &stubEvaluator{blocked: "badartist"},
		Visibility: &stubVisibility{hidden: map[*html.Node]bool{}},
		Logger:     log.NewNoopLogger(),
	})
}

// BenchmarkScan measures a first pass over a freshly loaded grid.
func BenchmarkScan(b *testing.B) {
	page := benchGrid(100)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		s := newBenchScanner(b, page)
		b.StartTimer()

		rep := s.Scan()
		if rep.Hidden != 10 {
			b.Fatalf("hidden = %d, want 10", rep.Hidden)
		}
	}
}

// BenchmarkScan_NothingNew measures a pass after every node is processed.
func BenchmarkScan_NothingNew(b *testing.B) {
	s := newBenchScanner(b, benchGrid(100))
	s.Scan()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if rep := s.Scan(); rep.Candidates != 0 {
			b.Fatalf("candidates = %d, want 0", rep.Candidates)
		}
	}
}
