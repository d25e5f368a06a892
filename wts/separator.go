package wts

import (
	"regexp"
	"strings"
)

// Constraint is a merged {min,max} separator-newline-count constraint
// pair (spec.md §4.5).
type Constraint struct {
	Min int
	Max int
}

// defaultMax is used when neither side of a merge specifies a max.
const defaultMax = 2

// ConstraintFunc computes a constraint between selfNode and otherNode
// for one of a handler's sepnls callbacks (before/after/firstChild/
// lastChild).
type ConstraintFunc func(self, other *NodeCtx) Constraint

// SepNLs bundles a tag handler's four separator-constraint callbacks
// (spec.md §4.4).
type SepNLs struct {
	Before     ConstraintFunc
	After      ConstraintFunc
	FirstChild ConstraintFunc
	LastChild  ConstraintFunc
}

// mergeConstraints merges two candidate {min,max} pairs per spec.md
// §4.5: min = max(minA,minB); max = min(maxA ?? 2, maxB ?? 2). When the
// merge would be inconsistent (min > max), the newer (second) operand's
// max wins, and the conflict is reported through report.
func mergeConstraints(older, newer Constraint, report func(older, newer Constraint)) Constraint {
	min := older.Min
	if newer.Min > min {
		min = newer.Min
	}
	max := older.Max
	if max == 0 {
		max = defaultMax
	}
	nmax := newer.Max
	if nmax == 0 {
		nmax = defaultMax
	}
	if nmax < max {
		max = nmax
	}
	if min > max {
		if report != nil {
			report(older, newer)
		}
		max = nmax
	}
	return Constraint{Min: min, Max: max}
}

// separatorGrammar is the grammar spec.md §4.5/§6 gives verbatim for a
// valid separator: runs of whitespace and/or HTML comments.
var separatorGrammar = regexp.MustCompile(`^(?:\s|<!--(?:[^-]|-(?:[^-]|$))*-->)*$`)

// IsValidSeparator reports whether s matches the separator grammar.
func IsValidSeparator(s string) bool {
	return separatorGrammar.MatchString(s)
}

// commentSpan finds the next HTML comment span `<!--...-->` in s
// starting at or after from, returning its [start,end) byte range, or
// ok=false if there is none.
func commentSpan(s string, from int) (start, end int, ok bool) {
	i := strings.Index(s[from:], "<!--")
	if i < 0 {
		return 0, 0, false
	}
	start = from + i
	j := strings.Index(s[start+4:], "-->")
	if j < 0 {
		return start, len(s), true
	}
	end = start + 4 + j + 3
	return start, end, true
}

// countSepNewlines counts newlines in s outside of comment bodies
// (spec.md §4.5 step 1). A newline that ends a comment-only line is
// counted like any other; comment-only lines get no special treatment.
func countSepNewlines(s string) int {
	count := 0
	pos := 0
	for pos < len(s) {
		cs, ce, ok := commentSpan(s, pos)
		if !ok {
			count += strings.Count(s[pos:], "\n")
			break
		}
		count += strings.Count(s[pos:cs], "\n")
		pos = ce
	}
	return count
}

// preSafeNodes is the set of tag names for which stripping trailing
// whitespace to avoid triggering indent-pre (spec.md §4.5 step 4) is
// unnecessary, because the tag itself can never start an indent-pre.
var preSafeNodes = map[string]bool{
	"br": true, "table": true, "tbody": true, "caption": true,
	"tr": true, "td": true, "th": true,
}

// materializeSeparator builds the separator string to emit between two
// nodes, given the merged constraint and a candidate source string
// (spec.md §4.5 "Separator materialization"). rhsName is the tag name
// of the upcoming node (empty for text), used for the pre-safe check.
func materializeSeparator(c Constraint, candidate string, atStartOfOutput bool, rhsName string) string {
	min := c.Min
	if atStartOfOutput && min > 0 {
		min--
	}
	nlCount := countSepNewlines(candidate)
	out := candidate
	if nlCount < min {
		out += strings.Repeat("\n", min-nlCount)
		nlCount = min
	}
	max := c.Max
	if max == 0 {
		max = defaultMax
	}
	if nlCount > max {
		out = trimExcessNewlines(out, nlCount-max)
	}
	if min > 0 && !preSafeNodes[rhsName] {
		out = stripTrailingIndentTrigger(out)
	}
	if !IsValidSeparator(out) {
		// Fall back to a synthesized separator of the right newline
		// count rather than emit something that would re-tokenize as
		// markup (spec.md invariant: separator validity).
		want := min
		if want == 0 {
			want = 1
		}
		out = strings.Repeat("\n", want)
	}
	return out
}

// trimExcessNewlines removes `n` newlines from the non-comment
// portions of s, scanning right to left (spec.md §4.5 step 3).
func trimExcessNewlines(s string, n int) string {
	runes := []rune(s)
	removed := 0
	// Build a mask of rune positions inside comments so we skip them.
	inComment := make([]bool, len(runes))
	pos := 0
	str := string(runes)
	for pos < len(str) {
		cs, ce, ok := commentSpan(str, pos)
		if !ok {
			break
		}
		csR, ceR := len([]rune(str[:cs])), len([]rune(str[:ce]))
		for i := csR; i < ceR && i < len(inComment); i++ {
			inComment[i] = true
		}
		pos = ce
	}
	for i := len(runes) - 1; i >= 0 && removed < n; i-- {
		if runes[i] == '\n' && !inComment[i] {
			runes = append(runes[:i], runes[i+1:]...)
			inComment = append(inComment[:i], inComment[i+1:]...)
			removed++
		}
	}
	return string(runes)
}

// stripTrailingIndentTrigger removes trailing non-newline whitespace
// after the final newline, so a synthesized separator never leaves the
// next line starting with a space or tab (which would be parsed as
// indent-pre). spec.md §4.5 step 4.
func stripTrailingIndentTrigger(s string) string {
	idx := strings.LastIndexByte(s, '\n')
	if idx < 0 {
		return s
	}
	return s[:idx+1] + strings.TrimRight(s[idx+1:], " \t")
}

// wtListEOL computes the between-lists end-of-line constraint (spec.md
// §4.4 wtListEOL): two adjacent lists of the same kind get exactly two
// newlines; a list item followed by a list/li gets exactly one; an
// `stx=html` or literal-source neighbour relaxes to {0,2}; otherwise
// {1,2}.
func wtListEOL(self, other *NodeCtx) Constraint {
	if other == nil {
		return Constraint{Min: 1, Max: 2}
	}
	if isListName(self.Name) && isListName(other.Name) && sameListKind(self, other) {
		return Constraint{Min: 2, Max: 2}
	}
	if isListItemName(self.Name) && (isListName(other.Name) || isListItemName(other.Name)) {
		return Constraint{Min: 1, Max: 1}
	}
	if other.Parsoid.Stx == "html" || other.Parsoid.Src != "" {
		return Constraint{Min: 0, Max: 2}
	}
	return Constraint{Min: 1, Max: 2}
}

func isListName(name string) bool {
	switch name {
	case "ul", "ol", "dl":
		return true
	}
	return false
}

func isListItemName(name string) bool {
	switch name {
	case "li", "dt", "dd":
		return true
	}
	return false
}

func sameListKind(a, b *NodeCtx) bool {
	return a.Name == b.Name
}
