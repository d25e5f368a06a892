package wts

import (
	"strings"

	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// linkSepNLs is shared by `a` and `link` elements: links carry no
// paragraph-level newline requirement of their own (spec.md §4.8 is
// silent on link separators; they inherit whatever their block
// ancestor demands).
var linkSepNLs = SepNLs{
	Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 0, Max: 2} },
	After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 0, Max: 2} },
}

func registerLinkHandlers(t *HandlerTable) {
	t.ByTag["a"] = &Handler{Handle: handleAnchor, Sep: linkSepNLs}
	t.ByTag["link"] = &Handler{Handle: handleAnchor, Sep: linkSepNLs}
	t.ByTag["figure"] = &Handler{
		Handle: handleFigure,
		Sep: SepNLs{
			Before: func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
			After:  func(*NodeCtx, *NodeCtx) Constraint { return Constraint{Min: 1, Max: 2} },
		},
	}
}

// handleImageSpan is reached when dispatchHandler finds a
// span[typeof=mw:Image] (spec.md §4.6 step 5); no rel attribute is
// added to the span, which goes straight to the image branch of the
// anchor handler.
func (s *State) handleImageSpan(n *html.Node) {
	s.emitImageLink(n)
}

func handleAnchor(s *State, n *html.Node) {
	rel := dom.Rel(n)
	switch {
	case rel.Has(dom.RelImage):
		s.emitImageLink(n)
	case rel.Has(dom.RelWikiLink), rel.Has(dom.RelWikiLinkCat), rel.Has(dom.RelWikiLinkLang), rel.Has(dom.RelWikiLinkInterw):
		s.emitWikiLink(n)
	case rel.Has(dom.RelExtLinkURL), rel.Has(dom.RelExtLinkNumbered), rel.Has(dom.RelExtLinkISBN),
		rel.Has(dom.RelExtLinkRFC), rel.Has(dom.RelExtLinkPMID), rel.Has(dom.RelExtLink):
		s.emitExtLink(n, rel)
	default:
		s.emitFallbackLink(n)
	}
}

// linkContentSource reports whether n's children are pure text (the
// common case) and, if so, their concatenated value; otherwise the
// content must be serialized recursively as its own node (spec.md
// §4.8's "content-source (string if all-text children, else a content
// node to be recursively serialized)").
func linkContentSource(n *html.Node) (text string, allText bool) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			return "", false
		}
		sb.WriteString(c.Data)
	}
	return sb.String(), true
}

func normalizeForCompare(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

func (s *State) templateShadowFor(n *html.Node, attr string) (string, bool) {
	about, ok := dom.About(n)
	if !ok {
		return "", false
	}
	shadow := s.TplAttrsLookup(about)
	if shadow == nil {
		return "", false
	}
	v, ok := shadow.Vs[attr]
	return v, ok
}

// emitWikiLink implements spec.md §4.8's wikilink emission.
func (s *State) emitWikiLink(n *html.Node) {
	pd := s.meta.Parsoid(n)
	href, _ := dom.GetAttribute(n, "href")
	target := strings.TrimPrefix(href, "./")

	rel := dom.Rel(n)
	isCategory := rel.Has(dom.RelWikiLinkCat)
	var sortKey string
	if isCategory {
		if idx := strings.IndexByte(target, '#'); idx >= 0 {
			sortKey = target[idx+1:]
			target = target[:idx]
		}
		if shadowKey, ok := s.templateShadowFor(n, "sortkey"); ok {
			sortKey = shadowKey
		}
	}

	contentText, allText := linkContentSource(n)
	// The tail (e.g. the "s" of "[[Foo]]s") is rendered as part of the
	// anchor's visible text but belongs outside the brackets; strip it
	// before comparing content against target (spec.md §8 scenario 4).
	if pd.Tail != "" && strings.HasSuffix(contentText, pd.Tail) {
		contentText = strings.TrimSuffix(contentText, pd.Tail)
	}
	simple := false
	if allText && !isCategory {
		simple = normalizeForCompare(s.env.Normalize(contentText)) == normalizeForCompare(s.env.Normalize(target)) && !pd.Pipetrick
	}

	var sb strings.Builder
	sb.WriteString(pd.Prefix)
	sb.WriteString("[[")
	sb.WriteString(target)
	if isCategory {
		if sortKey != "" {
			sb.WriteString("|")
			sb.WriteString(sortKey)
		}
	} else if simple {
		// nothing more to emit; target alone round-trips.
	} else if allText && contentText == "" {
		s.warnMalformed(n, "empty non-category wikilink content")
		sb.WriteString("|<nowiki/>")
	} else if allText {
		sb.WriteString("|")
		s.PushWte(WteLink)
		sb.WriteString(s.EscapeWikiText(contentText))
		s.PopWte()
	} else {
		sb.WriteString("|")
		sb.WriteString(s.captureChildren(n, WteLink))
	}
	sb.WriteString("]]")
	sb.WriteString(pd.Tail)
	s.Emit(sb.String(), n)
}

func (s *State) emitExtLink(n *html.Node, rel dom.TokenSet) {
	pd := s.meta.Parsoid(n)
	href, _ := dom.GetAttribute(n, "href")
	target := href
	if pd.Src == "" {
		// Freshly authored or edited: target.value is re-encoded, per
		// spec.md §4.8 ("target.value is re-URL-encoded iff modified").
		target = string(util.URLEscape([]byte(target), true))
	}
	contentText, allText := linkContentSource(n)

	switch {
	case rel.Has(dom.RelExtLinkISBN), rel.Has(dom.RelExtLinkRFC), rel.Has(dom.RelExtLinkPMID):
		// Magic link: the wikitext IS the visible text (no brackets).
		if allText {
			s.Emit(contentText, n)
		} else {
			s.serializeChildren(n, WteNone)
		}
		return
	case rel.Has(dom.RelExtLinkNumbered):
		s.Emit("["+target+"]", n)
		return
	case rel.Has(dom.RelExtLinkURL):
		if allText && normalizeForCompare(contentText) == normalizeForCompare(target) {
			s.Emit(target, n)
			return
		}
		s.Emit("["+target+"]", n)
		return
	default:
		if !allText {
			s.Emit("["+target+" ", n)
			s.serializeChildren(n, WteNone)
			s.Emit("]", n)
			return
		}
		if contentText == "" {
			s.Emit("["+target+"]", n)
			return
		}
		s.Emit("["+target+" "+s.EscapeWikiText(contentText)+"]", n)
	}
}

// emitFallbackLink handles an anchor whose rel the serializer does not
// recognize, falling back to bracketed-external-link form using the
// live href (spec.md §4.8: "Unknown rel falls back to bracketed
// external form").
func (s *State) emitFallbackLink(n *html.Node) {
	href, _ := dom.GetAttribute(n, "href")
	contentText, allText := linkContentSource(n)
	if allText {
		s.Emit("["+href+" "+s.EscapeWikiText(contentText)+"]", n)
		return
	}
	s.Emit("["+href+" ", n)
	s.serializeChildren(n, WteNone)
	s.Emit("]", n)
}

// emitImageLink implements spec.md §4.8's figure/image serialization
// for a (possibly forged) `rel=mw:Image` anchor whose children are the
// thumbnail `img`/`a` pair the paired parser produces.
func (s *State) emitImageLink(n *html.Node) {
	pd := s.meta.Parsoid(n)
	href, _ := dom.GetAttribute(n, "href")
	resource := strings.TrimPrefix(href, "./")

	img := findDescendant(n, "img")
	if img == nil {
		s.warnMalformed(n, "image link missing <img>")
		return
	}

	var sb strings.Builder
	sb.WriteString("[[")
	sb.WriteString(resource)

	width, _ := dom.GetAttribute(img, "width")
	height, _ := dom.GetAttribute(img, "height")
	if width != "" || height != "" {
		sb.WriteString("|")
		sb.WriteString(width)
		sb.WriteString("x")
		sb.WriteString(height)
		sb.WriteString("px")
	}

	for _, opt := range pd.OptionList {
		ck := opt.Ck
		if ck == "" {
			s.warnMalformed(n, "unrecognized image option: "+opt.Name)
			continue
		}
		localized := s.env.ReplaceMagicWord(ck)
		sb.WriteString("|")
		if opt.Value != "" {
			sb.WriteString(localized)
			sb.WriteString("=")
			sb.WriteString(opt.Value)
		} else {
			sb.WriteString(localized)
		}
	}

	if figcap := findDescendant(n, "figcaption"); figcap != nil {
		sb.WriteString("|")
		s.Emit(sb.String(), n)
		sb.Reset()
		s.PushWte(WteLink)
		s.serializeChildren(figcap, WteNone)
		s.PopWte()
		s.Emit("]]", n)
		return
	}

	sb.WriteString("]]")
	s.Emit(sb.String(), n)
}

func findDescendant(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, tag) {
			return c
		}
		if found := findDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func handleFigure(s *State, n *html.Node) {
	anchor := findDescendant(n, "a")
	if anchor == nil {
		s.warnMalformed(n, "figure missing image anchor")
		return
	}
	s.emitImageLink(anchor)
}
