package wts

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
)

// The four error kinds from spec.md §7. Malformed metadata and
// constraint conflicts are recoverable (logged, best-effort fallback,
// serialization continues); invariant violations drop the offending
// node's output and continue; handler exceptions propagate to the
// caller.
var (
	ErrMalformedMetadata   = errors.New("wts: malformed metadata")
	ErrConstraintConflict  = errors.New("wts: separator constraint conflict")
	ErrInvariantViolation  = errors.New("wts: invariant violation")
)

// nodeError wraps one of the sentinel kinds with the offending node's
// identity, so logging and %w-unwrapping both work.
type nodeError struct {
	kind error
	node *html.Node
	msg  string
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("%s: %s (node=%s)", e.kind, e.msg, dom.NodeName(e.node))
}

func (e *nodeError) Unwrap() error { return e.kind }

func malformedMetadataErr(n *html.Node, msg string) error {
	return &nodeError{kind: ErrMalformedMetadata, node: n, msg: msg}
}

func invariantViolationErr(n *html.Node, msg string) error {
	return &nodeError{kind: ErrInvariantViolation, node: n, msg: msg}
}

// HandlerPanic wraps a recovered handler panic with the node that was
// being serialized when it occurred (spec.md §7: "Handler exceptions
// — propagated to the caller after logging node identity").
type HandlerPanic struct {
	Node  *html.Node
	Cause any
}

func (e *HandlerPanic) Error() string {
	return fmt.Sprintf("wts: handler panic on node %s: %v", dom.NodeName(e.Node), e.Cause)
}
