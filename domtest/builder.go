// Package domtest provides fluent helpers for building the
// *html.Node / dom.Table pairs wts tests serialize, in the spirit of
// the teacher's test/builder package: short tag-named constructors
// instead of hand-wiring parent/child/sibling pointers, with a tagged
// position map traded for direct node handles (tests here need to
// attach round-trip metadata to specific nodes, not locate cursor
// positions).
package domtest

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-wikitext/serializer/dom"
)

// Tree bundles a document body with a side table for round-trip
// metadata. wts.Serialize takes only the body: it loads data-parsoid
// and data-mw from the elements' attributes into a table of its own,
// so records attached to Meta through WithParsoid, WithMW or WithDiff
// are not seen by it.
type Tree struct {
	Body *html.Node
	Meta *dom.Table
}

// New creates an empty Tree with a <body> root.
func New() *Tree {
	return &Tree{
		Body: &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body},
		Meta: dom.NewTable(),
	}
}

// El builds an element node with the given tag, attributes, and
// children, appending the children in order. Node identity is the key
// into Meta, so callers hold onto the returned node to attach
// metadata.
func El(tag string, attrs map[string]string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for k, v := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		n.AppendChild(c)
	}
	return n
}

// Text builds a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Comment builds a comment node.
func Comment(s string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: s}
}

// Append adds children to the tree's body and returns the body node,
// ready to hand to wts.Serialize.
func (d *Tree) Append(children ...*html.Node) *html.Node {
	for _, c := range children {
		d.Body.AppendChild(c)
	}
	return d.Body
}

// WithParsoid attaches a data-parsoid record to n and returns n, so it
// chains inside an El(...) call: El("p", nil, tree.WithParsoid(Text("x"), pd)).
func (d *Tree) WithParsoid(n *html.Node, pd *dom.ParsoidData) *html.Node {
	d.Meta.SetParsoid(n, pd)
	return n
}

// WithMW attaches a data-mw record to n and returns n.
func (d *Tree) WithMW(n *html.Node, mw *dom.MWData) *html.Node {
	d.Meta.SetMW(n, mw)
	return n
}

// WithDiff attaches a diff mark to n and returns n.
func (d *Tree) WithDiff(n *html.Node, mark dom.DiffMark) *html.Node {
	d.Meta.SetDiff(n, mark)
	return n
}

// Attr is a convenience constructor for the attribute map El takes.
func Attr(pairs ...string) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}
