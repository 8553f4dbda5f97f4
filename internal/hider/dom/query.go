package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Matcher is anything that can test a node: a compiled cascadia selector or
// a func adapted with MatchFunc.
type Matcher = cascadia.Matcher

// MatchFunc adapts a plain predicate to Matcher.
type MatchFunc func(*html.Node) bool

func (f MatchFunc) Match(n *html.Node) bool { return f(n) }

// MustCompile compiles a CSS selector group, panicking on syntax errors.
// Use it for selectors fixed at build time.
func MustCompile(sel string) cascadia.Selector {
	return cascadia.MustCompile(sel)
}

// Compile compiles a CSS selector group.
func Compile(sel string) (cascadia.Selector, error) {
	return cascadia.Compile(sel)
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsBoundary reports whether n ends an upward walk: <body>, <html> or the
// document node itself.
func IsBoundary(n *html.Node) bool {
	if n == nil || n.Type == html.DocumentNode {
		return true
	}
	return n.Type == html.ElementNode && (n.DataAtom == atom.Body || n.DataAtom == atom.Html)
}

// Closest returns n or its nearest ancestor matching m, like Element.closest,
// but never looks at or past <body>.
func Closest(n *html.Node, m Matcher) *html.Node {
	for cur := n; cur != nil && !IsBoundary(cur); cur = cur.Parent {
		if cur.Type == html.ElementNode && m.Match(cur) {
			return cur
		}
	}
	return nil
}

// QueryFirst returns the first descendant of root matching m in document order.
func QueryFirst(root *html.Node, m Matcher) *html.Node {
	if root == nil {
		return nil
	}
	return cascadia.Query(root, m)
}

// QueryAll returns the descendants of root matching m in document order.
func QueryAll(root *html.Node, m Matcher) []*html.Node {
	if root == nil {
		return nil
	}
	return cascadia.QueryAll(root, m)
}

// MatchesOrContains reports whether n matches m or has a descendant that does.
func MatchesOrContains(n *html.Node, m Matcher) bool {
	if !IsElement(n) {
		return false
	}
	return m.Match(n) || cascadia.Query(n, m) != nil
}

// ChildMatching returns the first element child of n matching m.
func ChildMatching(n *html.Node, m Matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && m.Match(c) {
			return c
		}
	}
	return nil
}

// Contains reports whether descendant is n or lies inside n.
func Contains(n, descendant *html.Node) bool {
	for cur := descendant; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries class name.
func HasClass(n *html.Node, name string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds class name to n. It is a no-op when already present and
// reports whether the class was added.
func AddClass(n *html.Node, name string) bool {
	if !IsElement(n) || HasClass(n, name) {
		return false
	}
	v, _ := Attr(n, "class")
	if strings.TrimSpace(v) == "" {
		SetAttr(n, "class", name)
	} else {
		SetAttr(n, "class", strings.TrimSpace(v)+" "+name)
	}
	return true
}

// Element builds a detached element with the given attributes, given as
// key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Text builds a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
