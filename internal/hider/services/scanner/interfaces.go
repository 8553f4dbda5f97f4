package scanner

import (
	"golang.org/x/net/html"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/domain"
)

// Resolver maps a reference node to its item container.
type Resolver interface {
	ResolveNamed(n *html.Node) (*html.Node, string)
}

// Evaluator decides whether item metadata blocks the item.
type Evaluator interface {
	Evaluate(author, title *string) domain.MatchResult
}

// Visibility applies and reads the blocked marker.
type Visibility interface {
	Hide(container *html.Node) bool
	IsHidden(container *html.Node) bool
}
