// Package dom hosts the document tree the hider works on: an x/net/html
// node tree plus a structural mutation feed modeled on MutationObserver.
//
// A Document is not safe for concurrent use. One goroutine owns it and every
// observer callback runs on that goroutine.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNotElement is returned when a mutation targets a non-element parent.
var ErrNotElement = errors.New("dom: parent is not an element")

// MutationRecord describes one structural change under Target.
type MutationRecord struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// MutationBatch is the unit delivered to observers. Seq increases by one for
// every batch the document produces.
type MutationBatch struct {
	Seq     uint64
	Records []MutationRecord
}

// Observer receives mutation batches.
type Observer func(MutationBatch)

type subscription struct {
	id int
	fn Observer
}

// Document wraps a parsed tree and records insertions made through it.
// Changes made directly on the html.Node tree are invisible to observers.
type Document struct {
	root *html.Node

	subs   []subscription
	nextID int

	seq        uint64
	pending    []MutationBatch
	delivering bool
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return New(root), nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// New wraps an existing tree.
func New(root *html.Node) *Document {
	return &Document{root: root}
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node { return findFirst(d.root, atom.Body) }

// Head returns the <head> element, or nil.
func (d *Document) Head() *html.Node { return findFirst(d.root, atom.Head) }

// Render serializes the current tree.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the tree, returning "" on error.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Observe registers fn for every future batch and returns a cancel func.
func (d *Document) Observe(fn Observer) (cancel func()) {
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// AppendChild appends child to parent and emits one batch.
func (d *Document) AppendChild(parent, child *html.Node) error {
	return d.Batch(func(tx *Tx) error { return tx.AppendChild(parent, child) })
}

// InsertBefore inserts child before ref under parent and emits one batch.
// A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) error {
	return d.Batch(func(tx *Tx) error { return tx.InsertBefore(parent, child, ref) })
}

// RemoveChild detaches child from parent and emits one batch.
func (d *Document) RemoveChild(parent, child *html.Node) error {
	return d.Batch(func(tx *Tx) error { return tx.RemoveChild(parent, child) })
}

// AppendHTML parses fragment in the context of parent, appends the
// resulting nodes and emits one batch. It returns the inserted nodes.
func (d *Document) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	var added []*html.Node
	err := d.Batch(func(tx *Tx) error {
		var err error
		added, err = tx.AppendHTML(parent, fragment)
		return err
	})
	return added, err
}

// Batch runs fn and delivers every change it made as a single batch, the way
// a browser groups the mutations of one task. Records made before fn returns
// an error are still delivered.
func (d *Document) Batch(fn func(tx *Tx) error) error {
	tx := &Tx{}
	err := fn(tx)
	if len(tx.records) > 0 {
		d.seq++
		d.enqueue(MutationBatch{Seq: d.seq, Records: tx.records})
	}
	return err
}

// enqueue delivers b to observers. A batch produced while an observer is
// running waits until that observer returns, so callbacks never nest.
func (d *Document) enqueue(b MutationBatch) {
	d.pending = append(d.pending, b)
	if d.delivering {
		return
	}
	d.delivering = true
	defer func() { d.delivering = false }()
	for len(d.pending) > 0 {
		next := d.pending[0]
		d.pending = d.pending[1:]
		subs := append([]subscription(nil), d.subs...)
		for _, s := range subs {
			s.fn(next)
		}
	}
}

// Tx collects the records of one batch.
type Tx struct {
	records []MutationRecord
}

// AppendChild appends child to parent.
func (tx *Tx) AppendChild(parent, child *html.Node) error {
	return tx.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child before ref under parent. A nil ref appends.
func (tx *Tx) InsertBefore(parent, child, ref *html.Node) error {
	if parent == nil || (parent.Type != html.ElementNode && parent.Type != html.DocumentNode) {
		return ErrNotElement
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.InsertBefore(child, ref)
	tx.records = append(tx.records, MutationRecord{Target: parent, Added: []*html.Node{child}})
	return nil
}

// RemoveChild detaches child from parent.
func (tx *Tx) RemoveChild(parent, child *html.Node) error {
	if child.Parent != parent {
		return fmt.Errorf("dom: node is not a child of parent")
	}
	parent.RemoveChild(child)
	tx.records = append(tx.records, MutationRecord{Target: parent, Removed: []*html.Node{child}})
	return nil
}

// AppendHTML parses fragment in the context of parent and appends every node.
func (tx *Tx) AppendHTML(parent *html.Node, fragment string) ([]*html.Node, error) {
	if parent == nil || parent.Type != html.ElementNode {
		return nil, ErrNotElement
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	tx.records = append(tx.records, MutationRecord{Target: parent, Added: nodes})
	return nodes, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
