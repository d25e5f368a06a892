package wts

import (
	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// Cleanup runs both halves of spec.md §4.1's pre-pass unconditionally:
// marker-meta stripping followed by data-parsoid finalization. Callers
// that need to honor the "edit mode only" qualifier on marker-meta
// stripping (as Serialize does) should call StripMarkerMetas and
// FinalizeParsoidData separately instead.
func Cleanup(body *html.Node, meta *dom.Table) {
	StripMarkerMetas(body, meta)
	FinalizeParsoidData(body, meta)
}

// StripMarkerMetas removes the marker metas spec.md §4.1 names,
// edit-mode only. It mutates body in place and drops the corresponding
// side-table entries.
func StripMarkerMetas(n *html.Node, meta *dom.Table) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		StripMarkerMetas(c, meta)
		if dom.IsMarkerMeta(c) {
			meta.Delete(c)
			n.RemoveChild(c)
		}
	}
}

// FinalizeParsoidData runs the second half of spec.md §4.1's pre-pass,
// post-order so that an element left empty once its own children are
// pruned is itself removed: empty elements with both
// autoInsertedStart and autoInsertedEnd are dropped outright; tagId
// and tsr are discarded (tsr is an internal parser marker only,
// consulted here once for the src-dropping decision below and then
// cleared); a transclusion/extension root's src is dropped when it is
// reconstructable (complete dsr plus a data-mw, or no tsr ever
// recorded); and a fostered node's dsr is collapsed to a zero-width
// range pinned at its end, unless it is itself an encapsulation root,
// so later selser source-slicing can never duplicate content that HTML
// parsing relocated out of a table.
func FinalizeParsoidData(n *html.Node, meta *dom.Table) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		FinalizeParsoidData(c, meta)
	}
	if n.Type != html.ElementNode {
		return
	}

	pd := meta.Parsoid(n)
	if pd.AutoInsertedStart && pd.AutoInsertedEnd && n.FirstChild == nil {
		meta.Delete(n)
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	hadTSR := pd.HasTSR
	pd.TagID = 0
	pd.HasTSR = false

	if dom.IsEncapsulated(n) {
		if (pd.Dsr.Valid() && meta.MW(n) != nil) || !hadTSR {
			pd.Src = ""
		}
	} else if pd.Fostered {
		pd.Dsr = pd.Dsr.Collapsed()
	}
}

// CollectTemplatedAttrs implements spec.md §4.1's templated-attribute
// collection sweep: it walks the tree for
// `<meta property="mw:objectAttr[Key|Val]?#K">` markers and records,
// under the owning element's `about` group, the original wiki source
// for the key-value pair, key alone, or value alone. The markers
// themselves are left in place; the Attribute Emitter (wts/attrs.go)
// consults the returned map and never re-walks for them itself.
//
// The attribute each marker names is read from its own `data-key`
// attribute; a wiki implementation that instead derives it positionally
// from sibling order would replace only this lookup.
func CollectTemplatedAttrs(body *html.Node, meta *dom.Table) map[string]*TplAttrShadow {
	out := map[string]*TplAttrShadow{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && dom.IsElement(n, "meta") {
			if kind, group := dom.ParseObjectAttrMarker(n); kind != dom.ObjectAttrNone {
				recordTemplatedAttr(out, n, kind, group)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return out
}

func recordTemplatedAttr(out map[string]*TplAttrShadow, n *html.Node, kind dom.ObjectAttrKind, group string) {
	about, ok := dom.About(n)
	if !ok {
		return
	}
	attrName, _ := dom.GetAttribute(n, "data-key")
	if attrName == "" {
		attrName = group
	}
	content, _ := dom.GetAttribute(n, "content")

	shadow, ok := out[about]
	if !ok {
		shadow = newTplAttrShadow()
		out[about] = shadow
	}
	switch kind {
	case dom.ObjectAttrKV:
		shadow.KVs[attrName] = content
	case dom.ObjectAttrKey:
		shadow.Ks[attrName] = content
	case dom.ObjectAttrVal:
		shadow.Vs[attrName] = content
	}
}
