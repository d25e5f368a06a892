package wts

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// leadingSepRun matches a leading run of whitespace/comments, the same
// alphabet the separator grammar accepts (spec.md §4.7 step 2).
var leadingSepRun = regexp.MustCompile(`^(?:\s|<!--(?:[^-]|-(?:[^-]|$))*-->)+`)

// trySelser implements spec.md §4.7: for an element with valid DSR and
// no current diff mark, slice the original source verbatim instead of
// running its tag handler. Returns false (and emits nothing) when
// selser cannot apply to n, leaving the normal handler path to run.
func (s *State) trySelser(n *html.Node, prev *html.Node) bool {
	if s.env == nil || s.env.PageSrc == "" {
		return false
	}
	if s.meta.Diff(n) != dom.DiffUnmodified && s.meta.Diff(n) != dom.DiffUnknown {
		return false
	}
	pd := s.meta.Parsoid(n)
	if !pd.Dsr.Valid() {
		return false
	}

	slice := pd.Dsr.Slice(s.env.PageSrc)
	if slice == "" && pd.Dsr.Start.Value != pd.Dsr.End.Value {
		return false
	}

	inIndentPre := s.inIndentPre
	if prev != nil && s.meta.Diff(prev) != dom.DiffUnmodified && !inIndentPre {
		if m := leadingSepRun.FindString(slice); m != "" {
			s.AccumulateSeparatorSource(m)
			slice = slice[len(m):]
		}
	}
	if next := n.NextSibling; next != nil && s.meta.Diff(next) != dom.DiffUnmodified {
		if idx := trailingSepStart(slice); idx >= 0 {
			s.pendingTrailingSelserSep = slice[idx:]
			slice = slice[:idx]
		}
	}

	s.flushSeparator(strings.ToLower(n.Data), n)
	s.emitRaw(slice, n)
	if s.pendingTrailingSelserSep != "" {
		s.AccumulateSeparatorSource(s.pendingTrailingSelserSep)
		s.pendingTrailingSelserSep = ""
	}

	if dom.IsEncapsulated(n) {
		if about, ok := dom.About(n); ok {
			s.activeTemplateID = about
		}
	}
	return true
}

// trailingSepRun matches a trailing run of whitespace/comments, the
// counterpart of leadingSepRun.
var trailingSepRun = regexp.MustCompile(`(?:\s|<!--(?:[^-]|-(?:[^-]|$))*-->)+$`)

// trailingSepStart finds the start byte offset of a trailing
// whitespace/comment run at the end of s, or -1 if s has none.
func trailingSepStart(s string) int {
	loc := trailingSepRun.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}
