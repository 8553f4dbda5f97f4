package resolver

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
)

// Strategy maps a reference node to a candidate container, or nil.
type Strategy interface {
	Name() string
	Resolve(n *html.Node) *html.Node
}

// knownContainer picks the nearest enclosing whole-item wrapper.
type knownContainer struct {
	containers dom.Matcher
}

func (knownContainer) Name() string { return "known_container" }

func (s knownContainer) Resolve(n *html.Node) *html.Node {
	return dom.Closest(n, s.containers)
}

// gridCell walks up at most hops parents looking for a div that is either a
// tile by class or has a subscription link as an immediate child.
type gridCell struct {
	hops    int
	cell    dom.Matcher
	subLink dom.Matcher
}

func (gridCell) Name() string { return "grid_cell" }

func (s gridCell) Resolve(n *html.Node) *html.Node {
	cur := n
	for i := 0; i < s.hops; i++ {
		if cur == nil || dom.IsBoundary(cur) {
			return nil
		}
		parent := cur.Parent
		if parent == nil || dom.IsBoundary(parent) {
			return nil
		}
		if isDiv(parent) && (s.cell.Match(parent) || dom.ChildMatching(parent, s.subLink) != nil) {
			return parent
		}
		cur = parent
	}
	return nil
}

// innerWrapper promotes a known inner wrapper to its layout parent. The
// wrapper alone is never returned: it is too narrow to hide cleanly.
type innerWrapper struct {
	wrapper dom.Matcher
	layout  dom.Matcher
}

func (innerWrapper) Name() string { return "inner_wrapper" }

func (s innerWrapper) Resolve(n *html.Node) *html.Node {
	inner := dom.Closest(n, s.wrapper)
	if inner == nil {
		return nil
	}
	parent := inner.Parent
	if dom.IsElement(parent) && !dom.IsBoundary(parent) && s.layout.Match(parent) {
		return parent
	}
	return nil
}

// lastResort accepts an enclosing figure, then a div that directly holds a
// content link.
type lastResort struct {
	figure      dom.Matcher
	contentLink dom.Matcher
}

func (lastResort) Name() string { return "last_resort" }

func (s lastResort) Resolve(n *html.Node) *html.Node {
	if fig := dom.Closest(n, s.figure); fig != nil {
		return fig
	}
	return dom.Closest(n, dom.MatchFunc(func(c *html.Node) bool {
		return isDiv(c) && dom.ChildMatching(c, s.contentLink) != nil
	}))
}

func isDiv(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Div
}
