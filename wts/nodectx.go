package wts

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// NodeCtx bundles a DOM node with the lookups a sepnls/handler callback
// needs repeatedly (its lower-cased tag name and its ParsoidData),
// avoiding a metadata-table lookup inside every constraint function.
type NodeCtx struct {
	Node    *html.Node
	Name    string // lower-case tag name; "" for non-elements
	Parsoid *dom.ParsoidData
}

// ctxFor builds a NodeCtx for n using s's metadata table. n may be nil,
// in which case a nil *NodeCtx is returned (meaning "no neighbour").
func (s *State) ctxFor(n *html.Node) *NodeCtx {
	if n == nil {
		return nil
	}
	name := ""
	if n.Type == html.ElementNode {
		name = strings.ToLower(n.Data)
	}
	return &NodeCtx{Node: n, Name: name, Parsoid: s.meta.Parsoid(n)}
}
