package dom

import (
	"encoding/json"

	"golang.org/x/net/html"
)

// Stx is the syntactic form an element originally had in source.
type Stx string

const (
	StxNone Stx = ""
	StxHTML Stx = "html"
	StxPiped Stx = "piped"
	StxRow  Stx = "row"
)

// ImageOption is one parsed option of an image/figure wikilink
// (width/height, alignment, caption, ...).
type ImageOption struct {
	Name  string
	Value string
	// Ck is the canonical option key ("img_" + value form) once
	// resolved against the wiki's localized magic words.
	Ck string
}

// ParsoidData is the typed equivalent of a "data-parsoid" JSON record.
// Held in the side table, not re-parsed from the attribute string on
// every access (see DESIGN NOTES §9 of spec.md).
type ParsoidData struct {
	Dsr DSR
	Stx Stx

	AutoInsertedStart bool
	AutoInsertedEnd   bool

	Src         string
	StartTagSrc string
	EndTagSrc   string
	AttrSepSrc  string
	MagicSrc    string
	StrippedNL  string
	SrcContent  string // expected textual content for mw:Entity round-trip

	Fostered bool

	// TSR/TagID are internal parser markers, always discarded by
	// cleanup; kept here only so the cleanup pass has somewhere to
	// read them from before dropping them.
	HasTSR bool
	TagID  int

	OptionList []ImageOption
	OptNames   []string

	Tail      string
	Prefix    string
	Pipetrick bool

	// A/SA reinstate attributes the HTML sanitizer stripped: any key
	// present in A but absent from the live attribute list is
	// re-emitted from SA[key] (spec.md §4.9).
	A  map[string]bool
	SA map[string]string

	ExtraDashes int // <hr> extra-dash count
}

// rawParsoid mirrors the on-the-wire JSON shape of a data-parsoid
// attribute closely enough to unmarshal the fields this module reads.
type rawParsoid struct {
	Dsr               []*int `json:"dsr"`
	Stx               string `json:"stx"`
	AutoInsertedStart bool   `json:"autoInsertedStart"`
	AutoInsertedEnd   bool   `json:"autoInsertedEnd"`
	Src               string `json:"src"`
	StartTagSrc       string `json:"startTagSrc"`
	EndTagSrc         string `json:"endTagSrc"`
	AttrSepSrc        string `json:"attrSepSrc"`
	MagicSrc          string `json:"magicSrc"`
	StrippedNL        string `json:"strippedNL"`
	SrcContent        string `json:"srcContent"`
	Fostered          bool   `json:"fostered"`
	Tsr               []*int `json:"tsr"`
	TagID             int    `json:"tagId"`
	Tail              string `json:"tail"`
	Prefix            string `json:"prefix"`
	Pipetrick         bool   `json:"pipetrick"`
	A                 map[string]string `json:"a"`
	SA                map[string]string `json:"sa"`
	ExtraDashes       int    `json:"extra_dashes"`
}

func optOf(p *int) OptionalInt {
	if p == nil {
		return Unknown
	}
	return Int(*p)
}

// ParseParsoidData decodes a literal data-parsoid JSON attribute value
// into a ParsoidData record.
func ParseParsoidData(raw string) (*ParsoidData, error) {
	if raw == "" {
		return &ParsoidData{}, nil
	}
	var rp rawParsoid
	if err := json.Unmarshal([]byte(raw), &rp); err != nil {
		return nil, err
	}
	pd := &ParsoidData{
		Stx:               Stx(rp.Stx),
		AutoInsertedStart: rp.AutoInsertedStart,
		AutoInsertedEnd:   rp.AutoInsertedEnd,
		Src:               rp.Src,
		StartTagSrc:       rp.StartTagSrc,
		EndTagSrc:         rp.EndTagSrc,
		AttrSepSrc:        rp.AttrSepSrc,
		MagicSrc:          rp.MagicSrc,
		StrippedNL:        rp.StrippedNL,
		SrcContent:        rp.SrcContent,
		Fostered:          rp.Fostered,
		HasTSR:            len(rp.Tsr) > 0,
		TagID:             rp.TagID,
		Tail:              rp.Tail,
		Prefix:            rp.Prefix,
		Pipetrick:         rp.Pipetrick,
		ExtraDashes:       rp.ExtraDashes,
	}
	if len(rp.Dsr) >= 2 {
		pd.Dsr.Start = optOf(rp.Dsr[0])
		pd.Dsr.End = optOf(rp.Dsr[1])
	}
	if len(rp.Dsr) >= 4 {
		pd.Dsr.OpenWidth = optOf(rp.Dsr[2])
		pd.Dsr.CloseWidth = optOf(rp.Dsr[3])
	}
	if len(rp.A) > 0 {
		pd.A = make(map[string]bool, len(rp.A))
		for k := range rp.A {
			pd.A[k] = true
		}
	}
	pd.SA = rp.SA
	return pd, nil
}

// MWTarget is a template/extension invocation's target.
type MWTarget struct {
	Wt   string `json:"wt,omitempty"`
	Href string `json:"href,omitempty"`
}

// MWParam is one parameter value of a template invocation.
type MWParam struct {
	Wt string `json:"wt"`
}

// MWTemplate describes one `{{target|...}}` invocation.
type MWTemplate struct {
	Target MWTarget           `json:"target"`
	Params map[string]MWParam `json:"params"`
	// ParamOrder preserves the original positional/named ordering,
	// when the source recorded one explicitly.
	ParamOrder []string `json:"paramOrder,omitempty"`
}

// MWPart is one element of a data-mw "parts" array: either a template
// invocation or a literal wikitext string between transclusions.
type MWPart struct {
	Template *MWTemplate `json:"template,omitempty"`
	Literal  *string     `json:"-"`
}

// UnmarshalJSON lets a MWPart be either {"template": {...}} or a bare
// JSON string (literal wikitext spliced between template parts).
func (p *MWPart) UnmarshalJSON(data []byte) error {
	var asStr string
	if err := json.Unmarshal(data, &asStr); err == nil {
		p.Literal = &asStr
		return nil
	}
	var wrapper struct {
		Template *MWTemplate `json:"template"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	p.Template = wrapper.Template
	return nil
}

// MWData is the typed equivalent of a "data-mw" JSON record.
type MWData struct {
	Parts []MWPart `json:"parts"`
}

// ParseMWData decodes a literal data-mw JSON attribute value.
func ParseMWData(raw string) (*MWData, error) {
	if raw == "" {
		return nil, nil
	}
	var mw MWData
	if err := json.Unmarshal([]byte(raw), &mw); err != nil {
		return nil, err
	}
	return &mw, nil
}

// DiffMark classifies a node's modification status relative to the
// original source, as attached by the (out-of-scope) diffing pre-pass.
type DiffMark int

const (
	DiffUnknown DiffMark = iota
	DiffUnmodified
	DiffModified
	DiffInserted
)

// meta is the per-node side-table record: round-trip data plus
// whatever the diffing pre-pass recorded.
type meta struct {
	Parsoid *ParsoidData
	MW      *MWData
	Diff    DiffMark
}

// Table is a node-identity-keyed side table of round-trip metadata. A
// single Table is created per document/run; nothing is shared across
// runs per the concurrency model in spec.md §5.
type Table struct {
	m map[*html.Node]*meta
}

// NewTable creates an empty metadata table.
func NewTable() *Table {
	return &Table{m: make(map[*html.Node]*meta)}
}

func (t *Table) entry(n *html.Node) *meta {
	e, ok := t.m[n]
	if !ok {
		e = &meta{}
		t.m[n] = e
	}
	return e
}

// SetParsoid attaches a ParsoidData record to n.
func (t *Table) SetParsoid(n *html.Node, pd *ParsoidData) { t.entry(n).Parsoid = pd }

// Parsoid returns n's ParsoidData record, or a zero-value one if none
// was attached (so callers never need a nil check to read fields).
func (t *Table) Parsoid(n *html.Node) *ParsoidData {
	if e, ok := t.m[n]; ok && e.Parsoid != nil {
		return e.Parsoid
	}
	return &ParsoidData{}
}

// SetMW attaches a data-mw record to n.
func (t *Table) SetMW(n *html.Node, mw *MWData) { t.entry(n).MW = mw }

// MW returns n's data-mw record, or nil.
func (t *Table) MW(n *html.Node) *MWData {
	if e, ok := t.m[n]; ok {
		return e.MW
	}
	return nil
}

// SetDiff records a node's modification status.
func (t *Table) SetDiff(n *html.Node, d DiffMark) { t.entry(n).Diff = d }

// Diff returns a node's modification status (DiffUnknown if unset).
func (t *Table) Diff(n *html.Node) DiffMark {
	if e, ok := t.m[n]; ok {
		return e.Diff
	}
	return DiffUnknown
}

// Delete removes n's side-table entry, e.g. once a node has been
// pruned from the tree by cleanup.
func (t *Table) Delete(n *html.Node) { delete(t.m, n) }

// LoadFromAttributes parses n's literal data-parsoid/data-mw attribute
// strings (if present) into the side table. Called once per element
// while the document is being attached to a Table, not on every
// serializer decision.
func (t *Table) LoadFromAttributes(n *html.Node) error {
	if n.Type != html.ElementNode {
		return nil
	}
	if raw, ok := GetAttribute(n, "data-parsoid"); ok {
		pd, err := ParseParsoidData(raw)
		if err != nil {
			return err
		}
		t.SetParsoid(n, pd)
	}
	if raw, ok := GetAttribute(n, "data-mw"); ok && raw != "" {
		mw, err := ParseMWData(raw)
		if err != nil {
			return err
		}
		t.SetMW(n, mw)
	}
	return nil
}

// Load walks the subtree rooted at n, calling LoadFromAttributes on
// every element.
func (t *Table) Load(n *html.Node) error {
	if err := t.LoadFromAttributes(n); err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := t.Load(c); err != nil {
			return err
		}
	}
	return nil
}
