// Package rewrite applies a planned edit list to source bytes. It
// operates on bytes, never characters, so non-UTF-8 input passes through
// untouched outside the edited ranges.
package rewrite

import (
	"bytes"

	"github.com/Goldziher/uncomment/internal/planner"
)

// Apply deletes each edit range from src in a single left-to-right sweep
// and reports whether the output differs from the input. Inline removals
// substitute a single space when deleting the range would join two
// identifier-like or two operator-like tokens.
func Apply(src []byte, edits []planner.Edit) ([]byte, bool) {
	if len(edits) == 0 {
		return src, false
	}
	out := make([]byte, 0, len(src))
	pos := 0
	for _, e := range edits {
		if e.Lo < pos || e.Hi > len(src) {
			// Defensive: the planner validates ordering before apply.
			continue
		}
		out = append(out, src[pos:e.Lo]...)
		if e.Mode == planner.ModeInline && needsJoinSpace(src, e.Lo, e.Hi) {
			out = append(out, ' ')
		}
		pos = e.Hi
	}
	out = append(out, src[pos:]...)
	return out, !bytes.Equal(out, src)
}

// needsJoinSpace reports whether deleting src[lo:hi) outright would fuse
// the surrounding tokens.
func needsJoinSpace(src []byte, lo, hi int) bool {
	if lo == 0 || hi >= len(src) {
		return false
	}
	prev, next := src[lo-1], src[hi]
	if isIdentByte(prev) && isIdentByte(next) {
		return true
	}
	if isOperatorByte(prev) && isOperatorByte(next) {
		return true
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isOperatorByte(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '%', '=', '<', '>', '&', '|', '^', '!', '~', '.', '?', ':':
		return true
	}
	return false
}
