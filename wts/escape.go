package wts

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// magicWordTrigger matches the three magic-link keywords that, if
// present, force the escape oracle past its fast-accept path (spec.md
// §4.3 step 1).
var magicWordTrigger = regexp.MustCompile(`\b(?:RFC|ISBN|PMID)\b`)

// solSensitiveLeader matches a line-leading space/tab followed by a
// non-space character (triggers indent-pre if left unescaped).
var solSensitiveLeader = regexp.MustCompile(`(^|\n)[ \t][^\s]`)

const fastAcceptSpecialChars = `<>[]-+|'!=#*:;~{}`

// containsAny reports whether s contains any rune from chars.
func containsAny(s, chars string) bool {
	return strings.ContainsAny(s, chars)
}

var tildeRunRe = regexp.MustCompile(`~{3,5}`)
var templateBraceRe = regexp.MustCompile(`\{\{\{|\{\{|\}\}\}|\}\}`)
var headingAmbiguityRe = regexp.MustCompile(`^=+[^=]+=+$`)
var trailingEqualsAtLineEnd = regexp.MustCompile(`=\s*$`)
var leadingSOLTrigger = regexp.MustCompile(`^[ #*:;=]`)
var fourDashes = regexp.MustCompile(`----`)

// wteContextEscapeRequired implements the per-context predicates a
// handler pushes onto wteHandlerStack (spec.md §4.3 step 2): heading,
// list-item, table-cell/header, link, and quote content each have their
// own notion of "must escape".
func wteContextEscapeRequired(h WteHandler, text string, sol bool) bool {
	switch h {
	case WteHeading:
		return headingAmbiguityRe.MatchString(strings.TrimSpace(text))
	case WteListItem:
		return sol && leadingSOLTrigger.MatchString(text)
	case WteTableCell, WteTableHeader:
		return sol && (strings.HasPrefix(text, "|") || strings.HasPrefix(text, "!"))
	case WteLink:
		return strings.HasPrefix(text, "|") || unmatchedBrackets(text)
	case WteQuote:
		return strings.Contains(text, "''")
	default:
		return false
	}
}

func unmatchedBrackets(text string) bool {
	open := strings.Count(text, "[[")
	close := strings.Count(text, "]]")
	return open != close
}

// tokenizesAsHTML runs golang.org/x/net/html's tokenizer to
// completion over text and reports whether it produced any
// TagToken/SelfClosingTagToken/EndTagToken/CommentToken, after ignoring
// the exceptions spec.md §4.3 step 8 lists: non-whitelisted raw HTML
// tags are still counted (the oracle wraps on any HTML-like token by
// design — the exceptions below are the narrow carve-outs spec.md
// names explicitly).
func tokenizesAsHTML(text string, atSOL bool) bool {
	input := text
	if !atSOL {
		// Prefix with '_' to suppress SOL-only tokenization quirks
		// (spec.md §4.3 step 8), then drop it from consideration.
		input = "_" + input
	}
	z := html.NewTokenizer(strings.NewReader(input))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return false
		case html.CommentToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if isEntitySpanToken(z, tag, tt) {
				continue
			}
			if isVoidEndTag(tag, tt) {
				continue
			}
			if isHeadingTag(tag) {
				continue
			}
			if tag == "urllink" {
				continue
			}
			return true
		}
	}
}

func isHeadingTag(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func isVoidEndTag(tag string, tt html.TokenType) bool {
	return tt == html.EndTagToken && voidElements[tag]
}

// isEntitySpanToken recognizes a `<span typeof=mw:Entity>` start tag,
// which spec.md says to exempt from forcing a wrap.
func isEntitySpanToken(z *html.Tokenizer, tag string, tt html.TokenType) bool {
	if tag != "span" || tt != html.StartTagToken {
		return false
	}
	for {
		key, val, more := z.TagAttr()
		if string(key) == "typeof" && strings.Contains(string(val), "mw:Entity") {
			return true
		}
		if !more {
			break
		}
	}
	return false
}

// EscapeWikiText decides whether text, emitted in the given context,
// must be wrapped in <nowiki>...</nowiki> to round-trip, per the
// ordered short-circuit procedure in spec.md §4.3.
func (s *State) EscapeWikiText(text string) string {
	if text == "" {
		return text
	}
	sol := s.onSOL && !s.inIndentPre && !s.inPHPBlock

	// Step 1: fast accept.
	if !magicWordTrigger.MatchString(text) &&
		!solSensitiveLeader.MatchString(text) &&
		!containsAny(text, fastAcceptSpecialChars) {
		return text
	}

	// Step 2: context handler.
	if h := s.TopWte(); h != WteNone && wteContextEscapeRequired(h, text, sol) {
		return wrapNowiki(text)
	}

	// Step 3: template braces.
	if templateBraceRe.MatchString(text) {
		return wrapNowiki(text)
	}

	hasNewlines := regexp.MustCompile(`\n.`).MatchString(text)
	hasTildes := tildeRunRe.MatchString(text)

	// Step 5: refined fast paths.
	if !magicWordTrigger.MatchString(text) && !hasNewlines && !hasTildes {
		if !sol {
			if !strings.Contains(text, "''") && !containsAny(text, "<>") &&
				!unmatchedBrackets(text) && !strings.Contains(text, "[[") &&
				!strings.Contains(text, "]]") && !trailingEqualsAtLineEnd.MatchString(text) {
				return text
			}
		} else {
			if !leadingSOLTrigger.MatchString(text) && !containsAny(text, "<[]>|'!") &&
				!fourDashes.MatchString(text) {
				return text
			}
		}
	}

	// Step 6: leading-space pre.
	if sol && solSensitiveLeader.MatchString("\n"+text) {
		return wrapNowiki(text)
	}

	// Step 7: neutralize literal nowiki tags before tokenizing.
	escaped := strings.ReplaceAll(text, "<nowiki>", "&lt;nowiki&gt;")
	escaped = strings.ReplaceAll(escaped, "</nowiki>", "&lt;/nowiki&gt;")

	// Step 8: tokenize.
	if tokenizesAsHTML(escaped, sol) {
		return wrapNowiki(text)
	}
	if hasTildes {
		return wrapNowiki(text)
	}

	// Step 9: heading ambiguity at SOL.
	if sol && headingAmbiguityRe.MatchString(text) {
		return wrapNowiki(text)
	}

	// Step 10: cross-chunk line scans.
	if s.crossChunkEscapeNeeded(text) {
		return wrapNowiki(text)
	}

	return text
}

// crossChunkEscapeNeeded lazily inspects currLine for an open,
// unbalanced `=` (heading) or `[` (link) run, and decides whether the
// new fragment would close it in a way that needs escaping (spec.md
// §4.3 step 10).
func (s *State) crossChunkEscapeNeeded(text string) bool {
	line := s.currLine.Text
	if line == "" {
		return false
	}
	openHeading := strings.HasPrefix(strings.TrimLeft(line, " "), "=") && !strings.HasSuffix(line, "=")
	openBracket := strings.Count(line, "[[") > strings.Count(line, "]]")
	if openHeading && strings.HasSuffix(text, "=") {
		return true
	}
	if openBracket {
		combined := line + text
		if strings.Count(combined, "[[") == strings.Count(combined, "]]") && looksLikeLink(combined) {
			return true
		}
	}
	return false
}

func looksLikeLink(s string) bool {
	return strings.Contains(s, "[[") && strings.Contains(s, "]]")
}

// wrap is the §4.3 `wrap(text)` helper: trailing newline runs are split
// off and reattached outside the <nowiki> wrapper.
func wrapNowiki(text string) string {
	i := len(text)
	for i > 0 && text[i-1] == '\n' {
		i--
	}
	head, tail := text[:i], text[i:]
	return "<nowiki>" + head + "</nowiki>" + tail
}
