// Package dom adapts golang.org/x/net/html.Node into the small DOM
// contract the serializer needs: firstChild/lastChild/previousSibling/
// nextSibling/parentNode/childNodes, nodeType/nodeName/nodeValue,
// textContent/outerHTML/innerHTML, and getAttribute/hasAttribute.
//
// Modifications:
//   - Added accessors the stdlib-adjacent html.Node does not carry
//     (GetAttribute, HasAttribute, TextContent, OuterHTML, InnerHTML).
//   - Added a node-identity side table for round-trip metadata
//     (data-parsoid, data-mw) instead of parsing attribute strings
//     on every access.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ChildNodes returns n's children in document order.
func ChildNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// NodeName mimics the DOM nodeName accessor: upper-cased tag name for
// elements, "#text" for text nodes, "#comment" for comments.
func NodeName(n *html.Node) string {
	switch n.Type {
	case html.ElementNode:
		return strings.ToUpper(n.Data)
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DoctypeNode:
		return "#doctype"
	case html.DocumentNode:
		return "#document"
	default:
		return n.Data
	}
}

// NodeValue mimics the DOM nodeValue accessor.
func NodeValue(n *html.Node) string {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return n.Data
	default:
		return ""
	}
}

// GetAttribute returns the named attribute's value and whether it was
// present at all.
func GetAttribute(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttribute reports whether n carries the named attribute.
func HasAttribute(n *html.Node, key string) bool {
	_, ok := GetAttribute(n, key)
	return ok
}

// SetAttribute sets (or replaces) the named attribute.
func SetAttribute(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttribute deletes the named attribute, if present.
func RemoveAttribute(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// TextContent concatenates the text of n and all its descendants, the
// same way Node.textContent does in a browser DOM.
func TextContent(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.CommentNode, html.DoctypeNode:
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(TextContent(c))
	}
	return sb.String()
}

// OuterHTML renders n and its subtree back to an HTML string.
func OuterHTML(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// InnerHTML renders the children of n, without n's own tag.
func InnerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return sb.String()
		}
	}
	return sb.String()
}

// IsElement reports whether n is an element node, optionally with a
// specific tag name (case-insensitive).
func IsElement(n *html.Node, name ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(name) == 0 {
		return true
	}
	return strings.EqualFold(n.Data, name[0])
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsComment reports whether n is a comment node.
func IsComment(n *html.Node) bool {
	return n != nil && n.Type == html.CommentNode
}

// IsWhitespace reports whether a text node's data is entirely
// whitespace.
func IsWhitespace(n *html.Node) bool {
	return IsText(n) && strings.TrimSpace(n.Data) == ""
}

// NewElement constructs a bare element node with the given tag and
// attributes, mirroring the small DOM-node factories
// cozy-prosemirror-go/model/to_dom.go builds for its default node
// serializers.
func NewElement(tag string, attrs map[string]string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for k, v := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
	}
	return n
}

// NewText constructs a text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// AppendChild appends child to parent's child list, matching the
// DOM operation of the same name.
func AppendChild(parent, child *html.Node) {
	parent.AppendChild(child)
}
