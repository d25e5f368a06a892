package wts

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

func registerTableHandlers(t *HandlerTable) {
	t.ByTag["table"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			s.Emit("{|"+s.SerializeAttributes(n), n)
			s.serializeChildren(n, WteNone)
			s.EnsureNewLine(n)
			s.Emit("|}", n)
		},
		Sep: SepNLs{
			Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
			After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		},
	}
	t.ByTag["tbody"] = &Handler{Handle: func(s *State, n *html.Node) { s.serializeChildren(n, WteNone) }}
	t.ByTag["tr"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			pd := s.meta.Parsoid(n)
			if !isFirstElementChild(n) || strings.HasPrefix(pd.Src, "|-") {
				s.EnsureNewLine(n)
				s.Emit("|-"+s.SerializeAttributes(n), n)
			}
			s.serializeChildren(n, WteNone)
		},
		Sep: SepNLs{
			Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
			After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		},
	}
	cellSep := SepNLs{
		Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 0, Max: 2} },
	}
	t.ByTag["th"] = &Handler{Handle: tableCellHandler("!", "!!", WteTableHeader), Sep: cellSep}
	t.ByTag["td"] = &Handler{Handle: tableCellHandler("|", "||", WteTableCell), Sep: cellSep}
	t.ByTag["caption"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			s.EnsureNewLine(n)
			s.Emit("|+"+s.SerializeAttributes(n), n)
			s.serializeChildren(n, WteNone)
		},
	}
}

func isFirstElementChild(n *html.Node) bool {
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return true
		}
		if c.Type == html.ElementNode {
			return false
		}
	}
	return true
}

func tableCellHandler(single, double string, wte WteHandler) func(*State, *html.Node) {
	return func(s *State, n *html.Node) {
		pd := s.meta.Parsoid(n)
		if pd.Stx == dom.StxRow {
			s.Emit(double, n)
		} else {
			s.EnsureNewLine(n)
			s.Emit(single, n)
		}
		if attrs := s.SerializeAttributes(n); attrs != "" {
			// A cell/header carrying attributes needs its own "|"
			// separating them from the content, or the attribute
			// string and the content text run together as one token.
			s.Emit(attrs+"|", n)
		}
		s.PushWte(wte)
		s.serializeChildren(n, WteNone)
		s.PopWte()
	}
}
