package wts

import (
	"html"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// skippedAttrs are never re-emitted by the attribute emitter: they are
// round-trip/semantic bookkeeping, not wiki-source attributes (spec.md
// §4.9).
var skippedAttrs = map[string]bool{
	"about": true, "typeof": true,
}

func isSkippedAttr(key string) bool {
	if skippedAttrs[key] {
		return true
	}
	if strings.HasPrefix(key, "data-parsoid") {
		return true
	}
	if key == "ve-changed" || strings.HasPrefix(key, "data-ve-") {
		return true
	}
	return false
}

// SerializeAttributes emits n's attributes in wiki-attribute syntax:
// `k="v"` with embedded quotes escaped, consulting the templated-
// attribute shadow map and the sanitizer-reinstatement fields before
// falling back to HTML-entity-escaping the live value (spec.md §4.9).
func (s *State) SerializeAttributes(n *nethtml.Node) string {
	pd := s.meta.Parsoid(n)
	about, _ := dom.About(n)
	expanded, _ := dom.Typeof(n).HasPrefix(dom.TypeofExpandedAttrsPfx)

	var sb strings.Builder
	if expanded && about != "" {
		if shadow := s.TplAttrsLookup(about); shadow != nil {
			for _, kv := range shadow.KVs {
				sb.WriteString(" ")
				sb.WriteString(kv)
			}
			return sb.String()
		}
	}

	seen := map[string]bool{}
	for _, a := range n.Attr {
		if isSkippedAttr(a.Key) {
			continue
		}
		seen[a.Key] = true
		sb.WriteString(" ")
		sb.WriteString(s.serializeOneAttribute(about, a.Key, a.Val, true))
	}

	// Reinstate sanitizer-stripped attributes recorded in dp.a/dp.sa:
	// any key present in dp.a but absent from the live attribute list
	// is re-emitted from dp.sa[key].
	for key := range pd.A {
		if seen[key] {
			continue
		}
		if val, ok := pd.SA[key]; ok {
			sb.WriteString(" ")
			sb.WriteString(s.serializeOneAttribute(about, key, val, false))
		}
	}
	return sb.String()
}

func (s *State) serializeOneAttribute(about, key, val string, fromLive bool) string {
	if about != "" {
		if shadow := s.TplAttrsLookup(about); shadow != nil {
			if kv, ok := shadow.KVs[key]; ok {
				return kv
			}
			k := key
			v := val
			fromSrc := false
			if sk, ok := shadow.Ks[key]; ok {
				k = sk
				fromSrc = true
			}
			if sv, ok := shadow.Vs[key]; ok {
				v = sv
				fromSrc = true
			}
			if fromSrc {
				return formatAttr(k, v, false)
			}
		}
	}
	return formatAttr(key, val, true)
}

// formatAttr renders one `k="v"` pair, HTML-entity-escaping the value
// when it did not come verbatim from source (escapeVal true), and
// emitting key-only for attributes with an empty value that are
// conventionally boolean/void.
func formatAttr(key, val string, escapeVal bool) string {
	if val == "" && voidAttrs[key] {
		return key
	}
	v := val
	if escapeVal {
		v = html.EscapeString(v)
	}
	v = strings.ReplaceAll(v, `"`, "&quot;")
	return key + `="` + v + `"`
}

var voidAttrs = map[string]bool{
	"disabled": true, "checked": true, "selected": true, "readonly": true,
}
