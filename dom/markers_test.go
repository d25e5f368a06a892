package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

func elWithAttrs(tag string, attrs map[string]string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for k, v := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
	}
	return n
}

func TestTypeofAndRelTokenSets(t *testing.T) {
	n := elWithAttrs("span", map[string]string{"typeof": "mw:Transclusion mw:Nowiki"})
	typeof := dom.Typeof(n)
	assert.True(t, typeof.Has("mw:Transclusion"))
	assert.True(t, typeof.Has("mw:Nowiki"))
	assert.False(t, typeof.Has("mw:Entity"))

	anchor := elWithAttrs("a", map[string]string{"rel": "mw:WikiLink/Category"})
	assert.True(t, dom.Rel(anchor).Has(dom.RelWikiLinkCat))
}

func TestIsMarkerMetaTransclusionDominates(t *testing.T) {
	// a bare mw:StartTag meta is stripped...
	plain := elWithAttrs("meta", map[string]string{"typeof": "mw:StartTag"})
	assert.True(t, dom.IsMarkerMeta(plain))

	// ...but not when it also carries mw:Transclusion
	withTransclusion := elWithAttrs("meta", map[string]string{"typeof": "mw:StartTag mw:Transclusion"})
	assert.False(t, dom.IsMarkerMeta(withTransclusion))

	// a meta with a property attribute is never a marker meta
	withProperty := elWithAttrs("meta", map[string]string{"typeof": "mw:StartTag", "property": "mw:PageProp/x"})
	assert.False(t, dom.IsMarkerMeta(withProperty))

	// non-meta elements are never marker metas
	notMeta := elWithAttrs("span", map[string]string{"typeof": "mw:StartTag"})
	assert.False(t, dom.IsMarkerMeta(notMeta))
}

func TestPageProp(t *testing.T) {
	n := elWithAttrs("meta", map[string]string{"property": "mw:PageProp/noindex"})
	name, ok := dom.PageProp(n)
	assert.True(t, ok)
	assert.Equal(t, "noindex", name)

	_, ok = dom.PageProp(elWithAttrs("meta", nil))
	assert.False(t, ok)
}
