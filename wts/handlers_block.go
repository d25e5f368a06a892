package wts

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

func registerHeadingHandlers(t *HandlerTable) {
	sep := SepNLs{
		Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
	}
	handle := func(s *State, n *html.Node) {
		level := headingLevel(strings.ToLower(n.Data))
		marker := strings.Repeat("=", level)
		s.Emit(marker, n)
		if n.FirstChild == nil {
			s.Emit("<nowiki/>", n)
		} else {
			s.PushWte(WteHeading)
			s.serializeChildren(n, WteNone)
			s.PopWte()
		}
		s.Emit(marker, n)
	}
	for lvl := 1; lvl <= 6; lvl++ {
		t.ByTag["h"+strconv.Itoa(lvl)] = &Handler{Handle: handle, Sep: sep}
	}
}

func registerParagraphHandler(t *HandlerTable) {
	t.ByTag["p"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			s.serializeChildren(n, WteNone)
		},
		Sep: SepNLs{
			Before: func(self, other *NodeCtx) Constraint {
				if other != nil && isListItemName(other.Name) {
					return Constraint{Min: 0, Max: 0}
				}
				if other != nil && (other.Name == "td" || other.Name == "body") {
					return Constraint{Min: 0, Max: 1}
				}
				if other != nil && other.Name == "p" {
					return Constraint{Min: 2, Max: 2}
				}
				return Constraint{Min: 1, Max: 2}
			},
			After: func(self, other *NodeCtx) Constraint {
				if other != nil && other.Name == "p" && !endsWithBr(self) {
					return Constraint{Min: 2, Max: 2}
				}
				return Constraint{Min: 1, Max: 2}
			},
		},
	}
}

func endsWithBr(ctx *NodeCtx) bool {
	if ctx == nil || ctx.Node == nil {
		return false
	}
	last := ctx.Node.LastChild
	return last != nil && last.Type == html.ElementNode && strings.EqualFold(last.Data, "br")
}

// listBulletPrefix walks a list-item's ancestors, collecting the
// list-type character of each enclosing list (outermost first), the
// same way spec.md §4.4 describes for `ul`/`ol`/`dl` bullet-prefix
// computation; `li`/`dt`/`dd` wrapper ancestors are skipped over
// (they contribute no character of their own), and an `stx=html` list
// ancestor is skipped entirely (it renders as literal HTML, not a
// wiki bullet run).
func listBulletPrefix(s *State, li *html.Node) string {
	var chars []byte
	for p := li.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		name := strings.ToLower(p.Data)
		switch name {
		case "ul":
			if s.meta.Parsoid(p).Stx != dom.StxHTML {
				chars = append(chars, '*')
			}
		case "ol":
			if s.meta.Parsoid(p).Stx != dom.StxHTML {
				chars = append(chars, '#')
			}
		case "dl":
			if s.meta.Parsoid(p).Stx != dom.StxHTML {
				chars = append(chars, ':')
			}
		case "li", "dt", "dd":
			// transparent wrapper; keep walking up.
		default:
			// left the list-nesting chain entirely.
			reverseBytes(chars)
			return string(chars)
		}
	}
	reverseBytes(chars)
	return string(chars)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func registerListHandlers(t *HandlerTable) {
	listHandle := func(s *State, n *html.Node) {
		s.serializeChildren(n, WteListItem)
	}
	listSep := SepNLs{
		Before: func(self, other *NodeCtx) Constraint {
			return wtListEOL(other, self)
		},
		After: func(self, other *NodeCtx) Constraint {
			return wtListEOL(self, other)
		},
	}
	t.ByTag["ul"] = &Handler{Handle: listHandle, Sep: listSep}
	t.ByTag["ol"] = &Handler{Handle: listHandle, Sep: listSep}
	t.ByTag["dl"] = &Handler{Handle: listHandle, Sep: listSep}

	itemHandle := func(s *State, n *html.Node) {
		name := strings.ToLower(n.Data)
		pd := s.meta.Parsoid(n)
		firstNonSep := firstNonSeparatorChild(n)
		isNestedList := firstNonSep != nil && firstNonSep.Type == html.ElementNode && isListName(strings.ToLower(firstNonSep.Data))
		if !isNestedList {
			if name == "dd" && pd.Stx == dom.StxRow {
				s.Emit(":", n)
			} else {
				s.Emit(listBulletPrefix(s, n), n)
			}
			// The bullet marker is line-start furniture, not content: the
			// list item's own first character is still SOL-sensitive
			// (e.g. `<li>*foo</li>` must wrap "*foo" or it reparses as a
			// nested bullet), so restore onSOL after emitting it.
			s.onSOL = true
		}
		s.serializeChildren(n, WteListItem)
	}
	itemSep := SepNLs{
		Before: func(self, other *NodeCtx) Constraint {
			if self.Name == "dd" && self.Parsoid.Stx == dom.StxRow {
				return Constraint{Min: 0, Max: 0}
			}
			// Against its own parent list the item adds no requirement;
			// the list's boundary with what precedes it decides.
			if other != nil && isListName(other.Name) && other.Node == self.Node.Parent {
				return Constraint{Min: 0, Max: 2}
			}
			return Constraint{Min: 1, Max: 1}
		},
		After: func(self, other *NodeCtx) Constraint {
			if self.Name == "dt" && other != nil && other.Name == "dd" && other.Parsoid.Stx == dom.StxRow {
				return Constraint{Min: 0, Max: 0}
			}
			return Constraint{Min: 1, Max: 1}
		},
	}
	t.ByTag["li"] = &Handler{Handle: itemHandle, Sep: itemSep}
	t.ByTag["dt"] = &Handler{Handle: itemHandle, Sep: itemSep}
	t.ByTag["dd"] = &Handler{Handle: itemHandle, Sep: itemSep}
}

func firstNonSeparatorChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsWhitespace(c) || dom.IsComment(c) {
			continue
		}
		return c
	}
	return nil
}

func registerQuoteHandlers(t *HandlerTable) {
	handle := func(marker string) func(s *State, n *html.Node) {
		return func(s *State, n *html.Node) {
			if precededByQuote(n) {
				s.Emit("<nowiki/>", n)
			}
			s.Emit(marker, n)
			s.PushWte(WteQuote)
			s.serializeChildren(n, WteNone)
			s.PopWte()
			s.Emit(marker, n)
		}
	}
	t.ByTag["b"] = &Handler{Handle: handle("'''")}
	t.ByTag["strong"] = t.ByTag["b"]
	t.ByTag["i"] = &Handler{Handle: handle("''")}
	t.ByTag["em"] = t.ByTag["i"]
}

// precededByQuote looks leftwards for an immediately preceding sibling
// that ended in another quote element, descending into lastChildren,
// per spec.md §4.4 ("look leftwards, descending into lastChilds").
func precededByQuote(n *html.Node) bool {
	prev := n.PrevSibling
	for prev != nil && dom.IsWhitespace(prev) {
		prev = prev.PrevSibling
	}
	for prev != nil {
		if prev.Type == html.ElementNode && isQuoteTag(strings.ToLower(prev.Data)) {
			return true
		}
		if prev.LastChild == nil {
			return false
		}
		prev = prev.LastChild
	}
	return false
}

func isQuoteTag(name string) bool {
	switch name {
	case "b", "strong", "i", "em":
		return true
	}
	return false
}

func registerMiscBlockHandlers(t *HandlerTable) {
	t.ByTag["br"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			pd := s.meta.Parsoid(n)
			if pd.Stx == dom.StxHTML || n.Parent == nil || !strings.EqualFold(n.Parent.Data, "p") {
				s.Emit("<br>", n)
				return
			}
			// br inside a wikitext paragraph forces a paragraph
			// break rather than literal markup (spec.md §4.4, §8
			// boundary case).
			s.MergeSeparatorConstraint(Constraint{Min: 2, Max: 2})
		},
	}
	t.ByTag["hr"] = &Handler{
		Handle: func(s *State, n *html.Node) {
			pd := s.meta.Parsoid(n)
			s.Emit(strings.Repeat("-", 4+pd.ExtraDashes), n)
		},
		Sep: SepNLs{
			Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
			After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		},
	}
	t.ByTag["pre"] = &Handler{Handle: handlePre}
}

func handlePre(s *State, n *html.Node) {
	pd := s.meta.Parsoid(n)
	if pd.Stx == dom.StxHTML {
		s.Emit("<pre>", n)
		if pd.StrippedNL != "" {
			s.Emit(pd.StrippedNL, n)
		}
		prevPre := s.inHTMLPre
		s.inHTMLPre = true
		s.serializeChildren(n, WteNone)
		s.inHTMLPre = prevPre
		s.Emit("</pre>", n)
		return
	}
	prevIndent := s.inIndentPre
	s.inIndentPre = true
	inner := s.captureChildren(n, WteNone)
	s.inIndentPre = prevIndent
	s.Emit(indentEachLine(inner), n)
}

// captureChildren serializes n's children to a scratch buffer by
// temporarily swapping the sink, saving and restoring the pending
// separator around the composition so the outer run observes no side
// effects (spec.md §5's re-entrancy contract).
func (s *State) captureChildren(n *html.Node, wte WteHandler) string {
	savedSep := s.sep
	savedSink := s.sink
	savedBuf := s.buf
	savedOnSOL, savedAtStart := s.onSOL, s.atStartOfOutput
	savedLine := s.currLine

	var scratch strings.Builder
	s.buf = &scratch
	s.sink = func(text string, _ *html.Node) { scratch.WriteString(text) }
	s.sep = pendingSep{}
	s.onSOL, s.atStartOfOutput = true, true
	s.currLine = CurrLine{}

	s.serializeChildren(n, wte)
	s.flushSeparator("", nil)
	result := scratch.String()

	s.sep = savedSep
	s.sink = savedSink
	s.buf = savedBuf
	s.onSOL, s.atStartOfOutput = savedOnSOL, savedAtStart
	s.currLine = savedLine
	return result
}

func indentEachLine(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = " " + l
	}
	return strings.Join(lines, "\n")
}
