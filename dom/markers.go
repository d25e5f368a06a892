package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Well-known typeof/rel marker prefixes (spec.md §3).
const (
	TypeofTransclusion = "mw:Transclusion"
	TypeofNowiki        = "mw:Nowiki"
	TypeofEntity        = "mw:Entity"
	TypeofDiffMarker    = "mw:DiffMarker"
	TypeofPlaceholder   = "mw:Placeholder"
	TypeofImage         = "mw:Image"
	TypeofExtensionPfx  = "mw:Extension/"
	TypeofIncludesPfx   = "mw:Includes/"
	TypeofPagePropPfx   = "mw:PageProp/"
	TypeofExpandedAttrsPfx = "mw:ExpandedAttrs/"
	TypeofObjectPfx     = "mw:Object"

	RelWikiLink       = "mw:WikiLink"
	RelWikiLinkCat    = "mw:WikiLink/Category"
	RelWikiLinkLang   = "mw:WikiLink/Language"
	RelWikiLinkInterw = "mw:WikiLink/Interwiki"
	RelExtLink        = "mw:ExtLink"
	RelExtLinkURL     = "mw:ExtLink/URL"
	RelExtLinkNumbered = "mw:ExtLink/Numbered"
	RelExtLinkISBN    = "mw:ExtLink/ISBN"
	RelExtLinkRFC     = "mw:ExtLink/RFC"
	RelExtLinkPMID    = "mw:ExtLink/PMID"
	RelImage          = "mw:Image"
)

// TokenSet is a parsed, whitespace-separated attribute value such as
// typeof or rel, supporting membership and prefix queries.
type TokenSet []string

// Typeof returns n's `typeof` attribute as a TokenSet.
func Typeof(n *html.Node) TokenSet {
	v, _ := GetAttribute(n, "typeof")
	return splitTokens(v)
}

// Rel returns n's `rel` attribute as a TokenSet.
func Rel(n *html.Node) TokenSet {
	v, _ := GetAttribute(n, "rel")
	return splitTokens(v)
}

// About returns n's `about` attribute, and whether it was present.
func About(n *html.Node) (string, bool) {
	return GetAttribute(n, "about")
}

func splitTokens(v string) TokenSet {
	if v == "" {
		return nil
	}
	return strings.Fields(v)
}

// Has reports whether ts contains the exact token tok.
func (ts TokenSet) Has(tok string) bool {
	for _, t := range ts {
		if t == tok {
			return true
		}
	}
	return false
}

// HasPrefix reports whether any token in ts starts with prefix, and
// returns the matching token's suffix.
func (ts TokenSet) HasPrefix(prefix string) (suffix string, ok bool) {
	for _, t := range ts {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimPrefix(t, prefix), true
		}
	}
	return "", false
}

// IsTransclusion reports whether n's typeof marks it (or its group, via
// about+first node) as a template expansion root.
func IsTransclusion(n *html.Node) bool {
	return Typeof(n).Has(TypeofTransclusion)
}

// ExtensionName returns the extension name from a `mw:Extension/<name>`
// typeof token, if present.
func ExtensionName(n *html.Node) (string, bool) {
	return Typeof(n).HasPrefix(TypeofExtensionPfx)
}

// IsExtension reports whether n's typeof names an extension tag.
func IsExtension(n *html.Node) bool {
	_, ok := ExtensionName(n)
	return ok
}

// IsEncapsulated reports whether n is the root of a template or
// extension expansion (the node that carries the about-group's
// canonical typeof marker, per spec.md §3).
func IsEncapsulated(n *html.Node) bool {
	return IsTransclusion(n) || IsExtension(n)
}

// IsDiffMarker reports whether n's typeof includes mw:DiffMarker.
func IsDiffMarker(n *html.Node) bool {
	return Typeof(n).Has(TypeofDiffMarker)
}

// PageProp returns the `<name>` from a `property="mw:PageProp/<name>"`
// attribute, if present.
func PageProp(n *html.Node) (string, bool) {
	v, ok := GetAttribute(n, "property")
	if !ok {
		return "", false
	}
	return strings.CutPrefix(v, TypeofPagePropPfx)
}

// ObjectAttrKind classifies a <meta property="mw:objectAttr...">
// marker used by templated-attribute collection (spec.md §4.1).
type ObjectAttrKind int

const (
	ObjectAttrNone ObjectAttrKind = iota
	ObjectAttrKV
	ObjectAttrKey
	ObjectAttrVal
)

// ParseObjectAttrMarker classifies a meta's `property` attribute and
// extracts the group index `K`, if it is one of mw:objectAttr[Key|Val]#K.
func ParseObjectAttrMarker(n *html.Node) (kind ObjectAttrKind, group string) {
	v, ok := GetAttribute(n, "property")
	if !ok {
		return ObjectAttrNone, ""
	}
	switch {
	case strings.HasPrefix(v, "mw:objectAttrKey#"):
		return ObjectAttrKey, strings.TrimPrefix(v, "mw:objectAttrKey#")
	case strings.HasPrefix(v, "mw:objectAttrVal#"):
		return ObjectAttrVal, strings.TrimPrefix(v, "mw:objectAttrVal#")
	case strings.HasPrefix(v, "mw:objectAttr#"):
		return ObjectAttrKV, strings.TrimPrefix(v, "mw:objectAttr#")
	default:
		return ObjectAttrNone, ""
	}
}

// IsMarkerMeta reports whether n is a <meta> the cleanup pre-pass
// strips outright: mw:StartTag|mw:EndTag|mw:Extension/ref/Marker|
// mw:TSRMarker[...] without a property attribute, or
// mw:Placeholder/StrippedTag. A meta that also carries mw:Transclusion
// is never stripped (spec.md §4.1: "the transclusion property
// dominates").
func IsMarkerMeta(n *html.Node) bool {
	if !IsElement(n, "meta") {
		return false
	}
	typeof := Typeof(n)
	if typeof.Has(TypeofTransclusion) {
		return false
	}
	if typeof.Has("mw:Placeholder/StrippedTag") {
		return true
	}
	if HasAttribute(n, "property") {
		return false
	}
	for _, t := range typeof {
		switch {
		case t == "mw:StartTag", t == "mw:EndTag":
			return true
		case t == "mw:Extension/ref/Marker":
			return true
		case strings.HasPrefix(t, "mw:TSRMarker"):
			return true
		}
	}
	return false
}
