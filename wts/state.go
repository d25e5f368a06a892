package wts

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
	"github.com/go-wikitext/serializer/wikiconf"
)

// WteHandler is the finite enum of context-specific escape predicates a
// handler may push while recursing into children (spec.md DESIGN NOTES
// §9: "choose the enum when the set is finite to keep the oracle pure
// and testable").
type WteHandler int

const (
	WteNone WteHandler = iota
	WteHeading
	WteListItem
	WteTableCell
	WteTableHeader
	WteLink
	WteQuote
)

// CurrLine tracks the text already emitted on the current output line
// (markup and escaped text alike, exactly as written to the sink), so the escape oracle can detect cross-chunk
// heading/link patterns split across adjacent text chunks (spec.md §3,
// "currLine").
type CurrLine struct {
	Text              string
	FirstNode         *html.Node
	Processed         bool
	HasOpenHeadingChar bool
	HasOpenBrackets    bool
}

func (c *CurrLine) reset() {
	*c = CurrLine{}
}

// pendingSep is the not-yet-emitted separator between the last emitted
// node and the next (spec.md §3, "sep").
type pendingSep struct {
	constraints    *Constraint
	src            string
	haveSrc        bool
	lastSourceNode *html.Node
	lastSourceSep  string
}

func (p *pendingSep) mergeConstraint(c Constraint, report func(older, newer Constraint)) {
	if p.constraints == nil {
		cc := c
		p.constraints = &cc
		return
	}
	merged := mergeConstraints(*p.constraints, c, report)
	p.constraints = &merged
}

func (p *pendingSep) appendSrc(s string) {
	p.src += s
	p.haveSrc = true
}

func (p *pendingSep) reset() {
	*p = pendingSep{}
}

// TplAttrShadow records the original wiki source for a templated
// attribute's key, value, or key=value pair, collected by the
// templated-attribute pre-pass (spec.md §4.1).
type TplAttrShadow struct {
	KVs map[string]string // "k=v" source keyed by attribute name
	Ks  map[string]string // key-only source keyed by attribute name
	Vs  map[string]string // value-only source keyed by attribute name
}

func newTplAttrShadow() *TplAttrShadow {
	return &TplAttrShadow{Ks: map[string]string{}, Vs: map[string]string{}, KVs: map[string]string{}}
}

// ChunkSink receives each emitted chunk of wikitext along with the
// DOM node (if any) responsible for it, per spec.md §5's push-based
// emission model.
type ChunkSink func(text string, node *html.Node)

// State is the serializer's run-scoped mutable state, corresponding to
// spec.md §3's "Serializer state" record. One State is created per
// call to Serialize; nothing is shared across runs.
type State struct {
	handlers *HandlerTable
	env      *wikiconf.Env
	meta     *dom.Table
	logger   *slog.Logger
	sink     ChunkSink
	buf      *strings.Builder // used when the caller provided no sink

	onSOL           bool
	atStartOfOutput bool
	escapeText      bool
	inIndentPre     bool
	inPHPBlock      bool
	inHTMLPre       bool
	inNoWiki        bool
	inWideTD        bool
	rtTesting       bool
	selserMode      bool

	wteHandlerStack []WteHandler

	currLine CurrLine

	tplAttrs map[string]*TplAttrShadow

	prevNode           *html.Node
	prevNodeUnmodified bool
	currNodeUnmodified bool
	inModifiedContent  bool
	activeTemplateID   string

	sep pendingSep

	// inAutoLink mirrors to_markdown.go's InAutoLink field; no handler
	// in this package sets or reads it.
	inAutoLink bool

	// pendingTrailingSelserSep stashes a trailing separator run sliced
	// off a selser'd node's source, pending re-accumulation as the
	// pending separator source (spec.md §4.7 step 2).
	pendingTrailingSelserSep string

	lastErr error
}

// NewState constructs run-scoped serializer state.
func NewState(handlers *HandlerTable, env *wikiconf.Env, meta *dom.Table, logger *slog.Logger, sink ChunkSink) *State {
	if env == nil {
		env = &wikiconf.Env{}
	}
	if meta == nil {
		meta = dom.NewTable()
	}
	if logger == nil {
		logger = newDefaultLogger()
	}
	s := &State{
		handlers:        handlers,
		env:             env,
		meta:            meta,
		logger:          logger,
		onSOL:           true,
		atStartOfOutput: true,
		escapeText:      true,
		tplAttrs:        map[string]*TplAttrShadow{},
		selserMode:      env.PageSrc != "",
	}
	if sink == nil {
		s.buf = &strings.Builder{}
		s.sink = func(text string, _ *html.Node) { s.buf.WriteString(text) }
	} else {
		s.sink = sink
	}
	return s
}

// Output returns everything emitted so far, when the caller did not
// supply its own ChunkSink.
func (s *State) Output() string {
	if s.buf == nil {
		return ""
	}
	return s.buf.String()
}

// PushWte pushes a context-specific escape predicate (spec.md
// invariant: "wteHandlerStack is returned to its pre-recursion depth
// after serializing children").
func (s *State) PushWte(h WteHandler) {
	s.wteHandlerStack = append(s.wteHandlerStack, h)
}

// PopWte pops the most recently pushed escape predicate.
func (s *State) PopWte() {
	if len(s.wteHandlerStack) == 0 {
		return
	}
	s.wteHandlerStack = s.wteHandlerStack[:len(s.wteHandlerStack)-1]
}

// TopWte returns the active escape predicate, or WteNone.
func (s *State) TopWte() WteHandler {
	if len(s.wteHandlerStack) == 0 {
		return WteNone
	}
	return s.wteHandlerStack[len(s.wteHandlerStack)-1]
}

// wteDepth reports the current stack depth, so callers can assert
// balance around serializeChildren (spec.md invariant 4).
func (s *State) wteDepth() int { return len(s.wteHandlerStack) }

// MergeSeparatorConstraint folds a newly computed constraint into the
// pending separator, reporting (and resolving, per spec.md §4.5) any
// min>max conflict.
func (s *State) MergeSeparatorConstraint(c Constraint) {
	s.sep.mergeConstraint(c, func(older, newer Constraint) {
		s.warnConstraintConflict(newer, older, "min>max after merge; newer max wins")
	})
}

// AccumulateSeparatorSource appends a verbatim whitespace/comment
// fragment to the pending separator's candidate source (spec.md §4.2:
// pure-whitespace text and separator-only comments are "handled as
// separator" rather than emitted as content).
func (s *State) AccumulateSeparatorSource(text string) {
	s.sep.appendSrc(text)
}

// emitRaw appends already-decided text straight to the sink/buffer and
// updates onSOL/currLine bookkeeping. It does not touch the pending
// separator; callers are expected to have flushed it first via Emit.
func (s *State) emitRaw(text string, node *html.Node) {
	if text == "" {
		return
	}
	s.sink(text, node)
	s.atStartOfOutput = false
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		s.onSOL = true
		tail := text[idx+1:]
		s.currLine.reset()
		s.currLine.Text = tail
	} else {
		s.onSOL = false
		s.currLine.Text += text
	}
}

// flushSeparator materializes and emits the pending separator ahead of
// the next real content, if any is pending (spec.md invariant 1).
// rhsName is the upcoming node's tag name, used by the pre-safe check.
// rhsNode is attached to the emitted chunk for chunkSink bookkeeping.
func (s *State) flushSeparator(rhsName string, rhsNode *html.Node) {
	if s.sep.constraints == nil && !s.sep.haveSrc {
		return
	}
	c := Constraint{Min: 0, Max: defaultMax}
	if s.sep.constraints != nil {
		c = *s.sep.constraints
	}
	out := materializeSeparator(c, s.sep.src, s.atStartOfOutput, rhsName)
	s.sep.reset()
	if out == "" {
		return
	}
	s.emitRaw(out, rhsNode)
}

// Emit flushes any pending separator (so it lands before text) and
// then writes already-escaped/decided wikitext for node.
func (s *State) Emit(text string, node *html.Node) {
	var name string
	if node != nil && node.Type == html.ElementNode {
		name = strings.ToLower(node.Data)
	}
	s.flushSeparator(name, node)
	s.emitRaw(text, node)
}

// EmitRawNoFlush writes text without consulting the pending separator
// at all; it is an exported wrapper over emitRaw (the separator engine
// itself calls emitRaw directly).
func (s *State) EmitRawNoFlush(text string, node *html.Node) {
	s.emitRaw(text, node)
}

// AtBlank reports whether the output so far ends in a newline (or is
// empty), the DOM-serializer equivalent of to_markdown.go's atBlank.
func (s *State) AtBlank() bool {
	return s.onSOL || s.atStartOfOutput
}

// EnsureNewLine flushes any pending separator and, if the output does
// not already end on a fresh line, forces one. Handlers use this
// before emitting block-level closing markup.
func (s *State) EnsureNewLine(node *html.Node) {
	s.flushSeparator("", node)
	if !s.AtBlank() {
		s.emitRaw("\n", node)
	}
}

// TplAttrsFor returns the templated-attribute shadow record for the
// given `about` group, creating one on first use.
func (s *State) TplAttrsFor(about string) *TplAttrShadow {
	t, ok := s.tplAttrs[about]
	if !ok {
		t = newTplAttrShadow()
		s.tplAttrs[about] = t
	}
	return t
}

// TplAttrsLookup returns the templated-attribute shadow record for the
// given `about` group, or nil if none was collected.
func (s *State) TplAttrsLookup(about string) *TplAttrShadow {
	return s.tplAttrs[about]
}
