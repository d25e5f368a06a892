package wts

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
	"github.com/go-wikitext/serializer/wikiconf"
)

// Serialize is the primary API (spec.md §6):
// serialize(body, chunkSink?, selser=false) -> string | void. When sink
// is nil the return value is the concatenation of every emitted chunk.
func Serialize(body *html.Node, env *wikiconf.Env, sink ChunkSink) (out string, err error) {
	meta := dom.NewTable()
	if loadErr := meta.Load(body); loadErr != nil {
		return "", fmt.Errorf("wts: loading round-trip metadata: %w", loadErr)
	}
	if env != nil && env.EditMode {
		StripMarkerMetas(body, meta)
	}
	// data-parsoid finalization runs unconditionally (spec.md §4.1: only
	// marker-meta stripping is qualified "edit mode only").
	FinalizeParsoidData(body, meta)
	tplAttrs := CollectTemplatedAttrs(body, meta)

	handlers := DefaultHandlerTable()
	s := NewState(handlers, env, meta, nil, sink)
	for about, shadow := range tplAttrs {
		s.tplAttrs[about] = shadow
	}

	defer func() {
		if r := recover(); r != nil {
			hp := &HandlerPanic{Node: body, Cause: r}
			s.logger.Error("handler panic", "err", hp.Error())
			err = hp
		}
	}()

	s.serializeChildren(body, WteNone)
	s.flushTrailingSeparator()
	return s.Output(), nil
}

// flushTrailingSeparator disposes of whatever separator is still
// pending once the document walk is over. Unlike flushSeparator, it
// never synthesizes padding newlines to satisfy a pending min
// constraint: that constraint was computed against a "next node" that
// does not exist at the true end of the document, so honoring its min
// here would tack a spurious trailing newline onto every document
// whose last element carries a non-zero After/Before min (e.g. `p`,
// headings, `hr`, list items — spec.md §8 Scenario 1/2/3 expect none).
// Any verbatim separator source already accumulated (trailing
// whitespace/comments) is kept, with its newlines stripped.
func (s *State) flushTrailingSeparator() {
	if !s.sep.haveSrc {
		s.sep.reset()
		return
	}
	src := s.sep.src
	out := trimExcessNewlines(src, countSepNewlines(src))
	s.sep.reset()
	if out == "" {
		return
	}
	s.emitRaw(out, nil)
}

// serializeChildren walks parent's children in document order,
// maintaining the wteHandlerStack balance invariant (spec.md invariant
// 4) and routing each child through visitNode. This is the
// `serializeChildren(node, chunkSink, optionalWteHandler)` operation
// spec.md §4.2 describes, used by handlers to recurse.
func (s *State) serializeChildren(parent *html.Node, wte WteHandler) {
	depthBefore := s.wteDepth()
	if wte != WteNone {
		s.PushWte(wte)
	}

	var prev *html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		s.visitNode(c, parent, prev)
		prev = c
	}
	if prev != nil {
		s.mergeBoundaryConstraint(prev, parent, boundaryLastChild)
	}

	if wte != WteNone {
		s.PopWte()
	}
	if s.wteDepth() != depthBefore {
		s.errInvariant(parent, "wteHandlerStack unbalanced after serializeChildren")
		s.wteHandlerStack = s.wteHandlerStack[:depthBefore]
	}
}

// visitNode implements spec.md §4.2's three-way dispatch (text,
// comment, element).
func (s *State) visitNode(n, parent, prev *html.Node) {
	switch n.Type {
	case html.TextNode:
		s.visitText(n, parent, prev)
	case html.CommentNode:
		s.visitComment(n, parent, prev)
	case html.ElementNode:
		s.visitElement(n, parent, prev)
	default:
		// Doctype/document nodes carry no wikitext payload.
	}
}

// isPureSeparatorText reports whether a text node's data is entirely
// whitespace, or a leading newline run (spec.md §4.2 step 1: accumulate
// into sep.src rather than emit as content).
func isPureSeparatorText(data string) bool {
	return strings.TrimLeft(data, "\n") == "" || strings.TrimSpace(data) == ""
}

func (s *State) visitText(n, parent, prev *html.Node) {
	if isPureSeparatorText(n.Data) {
		s.AccumulateSeparatorSource(n.Data)
		return
	}
	s.mergeBoundaryConstraint(prevOrParent(prev, parent), textCtxHolder(n), siblingOrFirstChild(prev))
	text := s.EscapeWikiText(n.Data)
	s.Emit(text, n)
	s.updateCurrLineBrackets(n.Data)
}

// textCtxHolder is a tiny shim so mergeBoundaryConstraint can treat a
// text node as having no tag-specific sepnls of its own (text nodes
// carry no handler).
func textCtxHolder(n *html.Node) *html.Node { return n }

func prevOrParent(prev, parent *html.Node) *html.Node {
	if prev != nil {
		return prev
	}
	return parent
}

// siblingOrFirstChild picks the boundaryKind for a node about to be
// visited: boundaryFirstChild when it has no preceding sibling (the
// "left" side passed to mergeBoundaryConstraint is then its parent),
// boundarySibling otherwise.
func siblingOrFirstChild(prev *html.Node) boundaryKind {
	if prev == nil {
		return boundaryFirstChild
	}
	return boundarySibling
}

func (s *State) updateCurrLineBrackets(text string) {
	if strings.Contains(text, "[[") {
		s.currLine.HasOpenBrackets = true
	}
	if strings.HasSuffix(strings.TrimRight(text, " "), "=") {
		s.currLine.HasOpenHeadingChar = true
	}
}

func (s *State) visitComment(n, parent, prev *html.Node) {
	// Comments that serve purely as inter-node whitespace are folded
	// into the pending separator; here, any comment is treated as
	// separator-only unless it is the sole content of its parent,
	// which this module treats conservatively as always
	// separator-eligible (spec.md §4.2 leaves the exact boundary to
	// the DOM-utility pre-pass, out of scope).
	body := strings.ReplaceAll(n.Data, "-->", "--&gt;")
	s.AccumulateSeparatorSource("<!--" + body + "-->")
}

func (s *State) visitElement(n, parent, prev *html.Node) {
	if dom.IsDiffMarker(n) {
		s.currNodeUnmodified = false
		return
	}

	diff := s.meta.Diff(n)
	s.currNodeUnmodified = diff == dom.DiffUnmodified
	wasModified := diff == dom.DiffModified || diff == dom.DiffInserted

	s.mergeBoundaryConstraint(prevOrParent(prev, parent), n, siblingOrFirstChild(prev))

	if s.selserMode && s.trySelser(n, prev) {
		s.prevNode = n
		s.prevNodeUnmodified = s.currNodeUnmodified
		return
	}

	prevInModified := s.inModifiedContent
	if wasModified {
		s.inModifiedContent = true
	}

	handler := s.dispatchHandler(n)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panic(&HandlerPanic{Node: n, Cause: r})
			}
		}()
		if handler != nil && handler.Handle != nil {
			handler.Handle(s, n)
		} else {
			s.errInvariant(n, "no handler resolved")
		}
	}()

	s.inModifiedContent = prevInModified
	s.prevNode = n
	s.prevNodeUnmodified = s.currNodeUnmodified
}

// boundaryKind selects which of a handler's four sepnls callbacks
// applies on each side of a boundary, per the three topologies spec.md
// §4.5 lists: siblings use (A.after, B.before); B as A's first child
// uses (A.firstChild, B.before); A as B's last child uses (A.after,
// B.lastChild).
type boundaryKind int

const (
	boundarySibling boundaryKind = iota
	boundaryFirstChild
	boundaryLastChild
)

// mergeBoundaryConstraint computes and merges the separator constraint
// pair between the previously visited node/parent and the node about
// to be visited, per the three topologies in spec.md §4.5.
func (s *State) mergeBoundaryConstraint(left, right *html.Node, kind boundaryKind) {
	var afterFn, beforeFn ConstraintFunc
	if h := s.handlers.lookup(left); h != nil {
		if kind == boundaryFirstChild {
			afterFn = h.Sep.FirstChild
		} else {
			afterFn = h.Sep.After
		}
	}
	if h := s.handlers.lookup(right); h != nil {
		if kind == boundaryLastChild {
			beforeFn = h.Sep.LastChild
		} else {
			beforeFn = h.Sep.Before
		}
	}
	leftCtx, rightCtx := s.ctxFor(left), s.ctxFor(right)
	c := Constraint{Min: 0, Max: defaultMax}
	if afterFn != nil {
		c = mergeConstraints(c, afterFn(leftCtx, rightCtx), nil)
	}
	if beforeFn != nil {
		c = mergeConstraints(c, beforeFn(rightCtx, leftCtx), nil)
	}
	s.MergeSeparatorConstraint(c)
}
