package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-wikitext/serializer/dom"
)

func TestDSRValid(t *testing.T) {
	// both endpoints known and non-backwards
	assert.True(t, dom.DSR{Start: dom.Int(1), End: dom.Int(5)}.Valid())

	// backwards range is invalid
	assert.False(t, dom.DSR{Start: dom.Int(5), End: dom.Int(1)}.Valid())

	// unknown end makes the range invalid for slicing purposes
	assert.False(t, dom.DSR{Start: dom.Int(1), End: dom.Unknown}.Valid())
}

func TestDSRSlice(t *testing.T) {
	src := "Hello, [[World]]!"
	d := dom.DSR{Start: dom.Int(7), End: dom.Int(16)}
	assert.Equal(t, "[[World]]", d.Slice(src))

	// an invalid DSR slices to empty rather than panicking
	assert.Equal(t, "", dom.DSR{Start: dom.Unknown, End: dom.Int(3)}.Slice(src))
}

func TestDSRHasTagWidths(t *testing.T) {
	withWidths := dom.DSR{Start: dom.Int(0), End: dom.Int(4), OpenWidth: dom.Int(2), CloseWidth: dom.Int(2)}
	assert.True(t, withWidths.HasTagWidths())

	withoutWidths := dom.DSR{Start: dom.Int(0), End: dom.Int(4)}
	assert.False(t, withoutWidths.HasTagWidths())
}

func TestParseParsoidDataRoundTrip(t *testing.T) {
	raw := `{"dsr":[0,10,2,3],"stx":"html","autoInsertedEnd":true,"tail":"s"}`
	pd, err := dom.ParseParsoidData(raw)
	assert.NoError(t, err)
	assert.Equal(t, dom.StxHTML, pd.Stx)
	assert.True(t, pd.AutoInsertedEnd)
	assert.Equal(t, "s", pd.Tail)
	assert.Equal(t, 0, pd.Dsr.Start.Value)
	assert.Equal(t, 10, pd.Dsr.End.Value)
	assert.True(t, pd.Dsr.HasTagWidths())
}
