package wts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-wikitext/serializer/domtest"
	"github.com/go-wikitext/serializer/wts"
)

// EscapeWikiText's decisions depend on the start-of-line and
// escape-handler state a real document walk sets up, so these tests
// drive it through a minimal <p> wrapper the same way driver_test.go
// does, rather than reimplementing escaping logic in the test itself.
func escapeViaParagraph(t *testing.T, text string) string {
	t.Helper()
	tree := domtest.New()
	tree.Append(domtest.El("p", nil, domtest.Text(text)))
	out, err := wts.Serialize(tree.Body, nil, nil)
	assert.NoError(t, err)
	return out
}

func TestEscapePlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "just some words", escapeViaParagraph(t, "just some words"))
}

func TestEscapeTemplateBracesWrapped(t *testing.T) {
	out := escapeViaParagraph(t, "{{not a template}}")
	assert.Contains(t, out, "<nowiki>")
}

func TestEscapeTildeRunWrapped(t *testing.T) {
	out := escapeViaParagraph(t, "sign here ~~~~")
	assert.Contains(t, out, "<nowiki>")
	assert.Contains(t, out, "~~~~")
}

func TestEscapeLeadingStarAtSOLInListItem(t *testing.T) {
	tree := domtest.New()
	tree.Append(domtest.El("ul", nil, domtest.El("li", nil, domtest.Text("*not a sub-bullet"))))
	out, err := wts.Serialize(tree.Body, nil, nil)
	assert.NoError(t, err)
	assert.Contains(t, out, "<nowiki>")
}

func TestEscapeUnmatchedBracketsInWikilinkContent(t *testing.T) {
	link := domtest.El("a", domtest.Attr("rel", "mw:WikiLink", "href", "./Foo"), domtest.Text("weird [[ bracket"))
	tree := domtest.New()
	tree.Append(link)
	out, err := wts.Serialize(tree.Body, nil, nil)
	assert.NoError(t, err)
	assert.Contains(t, out, "<nowiki>")
}
