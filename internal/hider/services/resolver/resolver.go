// Package resolver maps a reference node to the container element that
// represents one whole content item.
//
// Resolution is an ordered list of strategies, most specific first. The first
// strategy that produces a container wins; when none does the node stays
// unclassified rather than guessing at a region that may hold other content.
package resolver

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
)

// Resolver runs strategies in priority order.
type Resolver struct {
	strategies []Strategy
}

// New compiles shapes into the standard strategy chain:
// known container → grid cell → inner wrapper → last resort.
func New(shapes Shapes) (*Resolver, error) {
	if shapes.HopLimit <= 0 {
		return nil, fmt.Errorf("resolver: hop limit must be positive, got %d", shapes.HopLimit)
	}
	c := &compiler{}
	r := NewWithStrategies(
		knownContainer{containers: c.compile("item containers", shapes.ItemContainers)},
		gridCell{
			hops:    shapes.HopLimit,
			cell:    c.compile("grid cell", shapes.GridCell),
			subLink: c.compile("subscription link", shapes.SubscriptionLink),
		},
		innerWrapper{
			wrapper: c.compile("inner wrapper", shapes.InnerWrapper),
			layout:  c.compile("layout parent", shapes.LayoutParent),
		},
		lastResort{
			figure:      c.compile("figure", shapes.Figure),
			contentLink: c.compile("content link", shapes.ContentLink),
		},
	)
	if c.err != nil {
		return nil, c.err
	}
	return r, nil
}

// NewWithStrategies builds a resolver from an explicit chain.
func NewWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the container for n, or nil.
func (r *Resolver) Resolve(n *html.Node) *html.Node {
	c, _ := r.ResolveNamed(n)
	return c
}

// ResolveNamed returns the container for n and the name of the strategy
// that produced it.
func (r *Resolver) ResolveNamed(n *html.Node) (*html.Node, string) {
	if !dom.IsElement(n) {
		return nil, ""
	}
	for _, s := range r.strategies {
		if c := s.Resolve(n); c != nil {
			return c, s.Name()
		}
	}
	return nil, ""
}

// Strategies lists strategy names in priority order.
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}

// compiler keeps the first selector error so New can report it once.
type compiler struct {
	err error
}

// never matches; stands in for a selector that failed to compile
var nothing = dom.MatchFunc(func(*html.Node) bool { return false })

func (c *compiler) compile(what, sel string) dom.Matcher {
	if c.err != nil {
		return nothing
	}
	s, err := dom.Compile(sel)
	if err != nil {
		c.err = fmt.Errorf("resolver: %s selector %q: %w", what, sel, err)
		return nothing
	}
	return s
}
