// Package rules implements the preservation predicate: the pure decision
// of whether one comment survives a run.
package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Goldziher/uncomment/internal/config"
)

// KeepMarker preserves a comment unconditionally. Case-sensitive.
const KeepMarker = "~keep"

var (
	todoRe  = regexp.MustCompile(`(?i)\btodo\b`)
	fixmeRe = regexp.MustCompile(`(?i)\bfixme\b`)

	// Advisory signals reported when a removed comment looks important.
	advisoryRe = regexp.MustCompile(`\b(NOTE|HACK|XXX|WARNING)\b`)
)

// Comment is the predicate's view of one comment node. It carries no
// tree references: the decision is a pure function of the text, the
// classification, and the rule set.
type Comment struct {
	Text     string
	Kind     string
	Language string

	// IsDoc is set when the node kind is in the doc set, the language's
	// doc predicate matched, or the text carries a doc prefix.
	IsDoc bool

	// IsShebang marks the `#!` line at file start (or the first comment
	// of a script-type file).
	IsShebang bool

	// TrailingDirective marks a comment sharing a line with a
	// preprocessor-style directive whose semantics depend on trailing
	// context, e.g. the marker after `#endif`.
	TrailingDirective bool
}

// Decision is the predicate outcome with the reason that produced it,
// used in verbose diagnostics.
type Decision struct {
	Keep   bool
	Reason string
}

// Evaluate decides keep-or-remove for one comment under a rule set. Text
// with invalid UTF-8 never matches patterns; the comment is then only
// kept by the structural rules (shebang, trailing directive).
func Evaluate(c Comment, rs config.RuleSet) Decision {
	if c.IsShebang {
		return Decision{Keep: true, Reason: "shebang"}
	}
	if c.TrailingDirective {
		return Decision{Keep: true, Reason: "trailing-directive"}
	}

	if !utf8.ValidString(c.Text) {
		return Decision{Keep: false, Reason: "removed"}
	}

	if strings.Contains(c.Text, KeepMarker) {
		return Decision{Keep: true, Reason: "keep-marker"}
	}
	if !rs.RemoveTodos && todoRe.MatchString(c.Text) {
		return Decision{Keep: true, Reason: "todo"}
	}
	if !rs.RemoveFixmes && fixmeRe.MatchString(c.Text) {
		return Decision{Keep: true, Reason: "fixme"}
	}
	if rs.UseDefaultIgnores && matchesDirective(c.Language, c.Text) {
		return Decision{Keep: true, Reason: "directive"}
	}
	if c.IsDoc && !rs.RemoveDocs {
		return Decision{Keep: true, Reason: "doc"}
	}
	for _, p := range rs.PreservePatterns {
		if config.MatchPattern(p, c.Text) {
			return Decision{Keep: true, Reason: "pattern:" + p.Text}
		}
	}
	return Decision{Keep: false, Reason: "removed"}
}

// Advisory returns a non-empty signal name when a removed comment
// matches a "looks important" heuristic that was not in the active
// preservation set.
func Advisory(c Comment) string {
	if m := advisoryRe.FindString(c.Text); m != "" {
		return m
	}
	return ""
}
