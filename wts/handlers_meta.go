package wts

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

func registerMetaHandler(t *HandlerTable) {
	t.ByTag["meta"] = &Handler{Handle: handleMeta}
}

func handleMeta(s *State, n *html.Node) {
	typeof := dom.Typeof(n)
	pd := s.meta.Parsoid(n)

	if typeof.Has("mw:tag") {
		content, _ := dom.GetAttribute(n, "content")
		s.inNoWiki = !s.inNoWiki
		s.Emit(content, n)
		return
	}
	if kind, ok := typeof.HasPrefix(dom.TypeofIncludesPfx); ok {
		if pd.Src != "" {
			s.Emit(pd.Src, n)
			return
		}
		s.Emit(canonicalIncludesMarkup(kind), n)
		return
	}
	if typeof.Has(dom.TypeofDiffMarker) || typeof.Has("mw:Separator") {
		return
	}
	if name, ok := dom.PageProp(n); ok {
		emitPageProp(s, n, name, pd)
		return
	}
	s.warnMalformed(n, "unrecognized meta; emitting nothing")
}

func canonicalIncludesMarkup(kind string) string {
	base := strings.TrimSuffix(kind, "/End")
	tag := strings.ToLower(base)
	if strings.HasSuffix(kind, "/End") {
		return "</" + tag + ">"
	}
	return "<" + tag + ">"
}

func emitPageProp(s *State, n *html.Node, name string, pd *dom.ParsoidData) {
	if pd.Src != "" {
		s.Emit(pd.Src, n)
		return
	}
	magicWord := name
	if name == "categorydefaultsort" {
		magicWord = s.env.ReplaceMagicWord("DEFAULTSORT")
	} else {
		magicWord = s.env.ReplaceMagicWord(strings.ToUpper(name))
	}
	content, _ := dom.GetAttribute(n, "content")
	if content != "" {
		s.Emit("{{"+magicWord+":"+content+"}}", n)
	} else {
		s.Emit("{{"+magicWord+"}}", n)
	}
}

func registerSpanHandler(t *HandlerTable) {
	t.ByTag["span"] = &Handler{Handle: handleSpan}
}

func handleSpan(s *State, n *html.Node) {
	typeof := dom.Typeof(n)
	if typeof.Has(dom.TypeofImage) {
		s.handleImageSpan(n)
		return
	}
	if typeof.Has(dom.TypeofNowiki) {
		s.Emit("<nowiki>", n)
		prev := s.inNoWiki
		s.inNoWiki = true
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && dom.Typeof(c).Has(dom.TypeofEntity) {
				s.visitElement(c, n, c.PrevSibling)
				continue
			}
			text := dom.TextContent(c)
			text = strings.ReplaceAll(text, "<nowiki>", "&lt;nowiki&gt;")
			text = strings.ReplaceAll(text, "</nowiki>", "&lt;/nowiki&gt;")
			s.Emit(text, c)
		}
		s.inNoWiki = prev
		s.Emit("</nowiki>", n)
		return
	}
	handleGenericHTML(s, n)
}

// handleTemplateOrExtension reconstructs `{{ target | k=v | ... }}`
// from a node's data-mw record (spec.md §4.6 step 2), or emits the
// recorded literal source verbatim for extensions / in RT-testing
// mode, and marks the node's `about` group active so sibling nodes
// sharing it are suppressed by dispatchHandler step 1.
func (s *State) handleTemplateOrExtension(n *html.Node) {
	pd := s.meta.Parsoid(n)
	if about, ok := dom.About(n); ok {
		s.activeTemplateID = about
	}

	isExtension := dom.IsExtension(n)
	if s.rtTesting || isExtension {
		if pd.Src != "" {
			s.Emit(pd.Src, n)
			return
		}
	}

	mw := s.meta.MW(n)
	if mw == nil || len(mw.Parts) == 0 {
		s.warnMalformed(n, "transclusion root missing data-mw")
		if pd.Src != "" {
			s.Emit(pd.Src, n)
		}
		return
	}

	var sb strings.Builder
	for _, part := range mw.Parts {
		if part.Literal != nil {
			sb.WriteString(*part.Literal)
			continue
		}
		if part.Template == nil {
			continue
		}
		sb.WriteString("{{")
		sb.WriteString(part.Template.Target.Wt)
		sb.WriteString(renderTemplateArgs(part.Template))
		sb.WriteString("}}")
	}
	s.Emit(sb.String(), n)
}

func renderTemplateArgs(tpl *dom.MWTemplate) string {
	if len(tpl.Params) == 0 {
		return ""
	}
	keys := tpl.ParamOrder
	if len(keys) == 0 {
		for k := range tpl.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	var sb strings.Builder
	pos := 1
	for _, k := range keys {
		param, ok := tpl.Params[k]
		if !ok {
			continue
		}
		sb.WriteString("|")
		if k == strconv.Itoa(pos) {
			sb.WriteString(param.Wt)
			pos++
		} else {
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(param.Wt)
		}
	}
	return sb.String()
}

func handlePlaceholder(s *State, n *html.Node) {
	pd := s.meta.Parsoid(n)
	if strings.TrimLeft(pd.Src, "\n") == "" && pd.Src != "" {
		s.AccumulateSeparatorSource(pd.Src)
		return
	}
	s.Emit(pd.Src, n)
}

func handleEntity(s *State, n *html.Node) {
	pd := s.meta.Parsoid(n)
	if dom.TextContent(n) == pd.SrcContent {
		s.Emit(pd.Src, n)
		return
	}
	s.Emit(dom.TextContent(n), n)
}
