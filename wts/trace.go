package wts

import (
	"io"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/go-wikitext/serializer/dom"
	"github.com/go-wikitext/serializer/wikiconf"
)

// newDefaultLogger matches the default-to-io.Discard pattern
// dpotapov-go-pages/pages.go uses for its own *slog.Logger field.
func newDefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// trace emits a debug-level log line gated by a run-scoped trace flag,
// replacing the "global prototype mutation" tracing spec.md's DESIGN
// NOTES flags for redesign.
func (s *State) trace(flag wikiconf.TraceFlags, msg string, args ...any) {
	if s.env == nil || !s.env.Trace.Has(flag) {
		return
	}
	s.logger.Debug(msg, args...)
}

func (s *State) warnMalformed(n *html.Node, msg string) {
	s.logger.Warn("malformed metadata", slog.String("node", dom.NodeName(n)), slog.String("detail", msg))
}

func (s *State) warnConstraintConflict(newer, older Constraint, msg string) {
	s.logger.Warn("separator constraint conflict",
		slog.String("detail", msg),
		slog.Int("newer_min", newer.Min), slog.Int("newer_max", newer.Max),
		slog.Int("older_min", older.Min), slog.Int("older_max", older.Max))
}

func (s *State) errInvariant(n *html.Node, msg string) {
	s.logger.Error("invariant violation", slog.String("node", dom.NodeName(n)), slog.String("detail", msg))
}
