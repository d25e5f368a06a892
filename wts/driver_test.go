package wts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-wikitext/serializer/domtest"
	"github.com/go-wikitext/serializer/wts"
)

// Scenario 1: <p>hello</p> -> hello.
func TestSerializeScenario1Paragraph(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("p", nil, domtest.Text("hello")))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

// Scenario 2: <p>foo</p><p>bar</p> -> foo\n\nbar.
func TestSerializeScenario2AdjacentParagraphs(t *testing.T) {
	tree := domtest.New()
	tree.Append(
		domtest.El("p", nil, domtest.Text("foo")),
		domtest.El("p", nil, domtest.Text("bar")),
	)
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "foo\n\nbar", out)
}

// Scenario 3: nested lists -> *a\n*b\n**c.
func TestSerializeScenario3NestedLists(t *testing.T) {
	tree := domtest.New()
	tree.Append(
		domtest.El("ul", nil,
			domtest.El("li", nil, domtest.Text("a")),
			domtest.El("li", nil,
				domtest.Text("b"),
				domtest.El("ul", nil,
					domtest.El("li", nil, domtest.Text("c")),
				),
			),
		),
	)
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "*a\n*b\n**c", out)
}

// Scenario 4: simple wikilink, and one with a tail.
func TestSerializeScenario4WikiLink(t *testing.T) {
	tree := domtest.New()
	link := domtest.El("a", domtest.Attr("rel", "mw:WikiLink", "href", "./Foo"), domtest.Text("Foo"))
	tree.Append(link)
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[Foo]]", out)

	tree2 := domtest.New()
	link2 := domtest.El("a", domtest.Attr("rel", "mw:WikiLink", "href", "./Foo", "data-parsoid", `{"tail":"s"}`), domtest.Text("Foos"))
	tree2.Append(link2)
	out2, err := wts.Serialize(tree2.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[Foo]]s", out2)
}

// Scenario 5: heading-like text inside a heading is wrapped; the
// heading's own markers stay outside the nowiki.
func TestSerializeScenario5HeadingAmbiguity(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("h2", nil, domtest.Text("=x=")))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "==<nowiki>=x=</nowiki>==", out)
}

// Scenario 6: single-template paragraph reconstructed from data-mw.
func TestSerializeScenario6Template(t *testing.T) {
	tree := domtest.New()
	tpl := domtest.El("span", domtest.Attr(
		"typeof", "mw:Transclusion",
		"about", "#mwt1",
		"data-mw", `{"parts":[{"template":{"target":{"wt":"tpl"},"params":{"a":{"wt":"1"}},"paramOrder":["a"]}}]}`,
	))
	tree.Append(domtest.El("p", nil, tpl))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "{{tpl|a=1}}", out)
}

// Boundary case: empty heading emits a nowiki placeholder so re-parsing
// doesn't collapse the markers.
func TestSerializeEmptyHeading(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("h1", nil))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "=<nowiki/>=", out)
}

// Boundary case: empty link content in a category vs. a plain link.
func TestSerializeEmptyLinkContent(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("a", domtest.Attr("rel", "mw:WikiLink/Category", "href", "./Category:Foo")))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[Category:Foo]]", out)

	tree2 := domtest.New()
	tree2.Append(domtest.El("a", domtest.Attr("rel", "mw:WikiLink", "href", "./T")))
	out2, err := wts.Serialize(tree2.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[[T|<nowiki/>]]", out2)
}

// Boundary case: br inside a paragraph with text on both sides forces a
// paragraph break rather than literal markup.
func TestSerializeBrInsideParagraphForcesBreak(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("p", nil,
		domtest.Text("left"),
		domtest.El("br", nil),
		domtest.Text("right"),
	))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "left\n\nright", out)
}

// Boundary case: two adjacent lists of the same kind get exactly two
// newlines between them.
func TestSerializeAdjacentSameKindLists(t *testing.T) {
	tree := domtest.New()
	tree.Append(
		domtest.El("ul", nil, domtest.El("li", nil, domtest.Text("a"))),
		domtest.El("ul", nil, domtest.El("li", nil, domtest.Text("b"))),
	)
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "*a\n\n*b", out)
}

// `~~~~` anywhere is wrapped to prevent signature expansion on reparse.
func TestSerializeTildeRunWrapped(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("p", nil, domtest.Text("signed ~~~~ here")))
	out, err := wts.Serialize(tree.Body, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "<nowiki>")
	assert.Contains(t, out, "~~~~")
}
