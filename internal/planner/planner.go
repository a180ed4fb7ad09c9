// Package planner walks a parse tree and turns every removable comment
// into a byte-range edit with a whitespace-handling mode. The edits it
// returns are sorted, non-overlapping, and never cross a non-comment
// token boundary.
package planner

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/language"
	"github.com/Goldziher/uncomment/internal/rules"
)

// Mode governs how whitespace around a removed comment is handled.
type Mode int

const (
	// ModeWholeLine removes the comment's entire line, indentation and
	// line terminator included.
	ModeWholeLine Mode = iota
	// ModeTrailing removes a comment that follows code on its line,
	// along with the separating spaces, keeping the terminator.
	ModeTrailing
	// ModeInline removes just the comment bytes; the rewriter inserts a
	// space if the removal would join two tokens.
	ModeInline
)

func (m Mode) String() string {
	switch m {
	case ModeWholeLine:
		return "whole-line"
	case ModeTrailing:
		return "trailing"
	case ModeInline:
		return "inline"
	}
	return "unknown"
}

// Edit is a half-open byte range to delete.
type Edit struct {
	Lo, Hi int
	Mode   Mode

	// spans are the comment byte ranges inside this edit, kept for the
	// pre-apply boundary assertion.
	spans []span
}

type span struct{ lo, hi int }

// Warning flags a removed comment that matched a "looks important"
// heuristic outside the active preservation set.
type Warning struct {
	Row    uint32
	Signal string
	Text   string
}

// Result is the plan for one file.
type Result struct {
	Edits    []Edit
	Warnings []Warning
	// Kept counts comments examined and preserved; Removed counts edits
	// emitted before coalescing.
	Kept, Removed int
}

// Plan inspects every comment node under root and emits the edit list
// for the rule set. It returns an error when a computed edit is empty,
// overlaps its predecessor, or would cross a non-comment token boundary;
// the last indicates a grammar the descriptor mis-describes.
func Plan(root *sitter.Node, src []byte, desc *language.Descriptor, rs config.RuleSet) (*Result, error) {
	p := &planState{src: src, desc: desc, rs: rs, firstComment: true}
	p.walk(root)

	edits := coalesce(p.edits, src)
	edits = collapseBlankLines(edits, src)
	trimFinalNewline(edits, src)

	if err := validate(edits, src); err != nil {
		return nil, err
	}
	return &Result{Edits: edits, Warnings: p.warnings, Kept: p.kept, Removed: p.removed}, nil
}

type planState struct {
	src  []byte
	desc *language.Descriptor
	rs   config.RuleSet

	edits        []Edit
	warnings     []Warning
	kept         int
	removed      int
	firstComment bool
}

func (p *planState) walk(n *sitter.Node) {
	if p.classify(n) {
		// Comment nodes are handled whole; nested nodes (doc tags,
		// docstring contents) never produce their own edits.
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		p.walk(n.Child(i))
	}
}

// classify reports whether n is a comment candidate, and if so decides
// and records its fate.
func (p *planState) classify(n *sitter.Node) bool {
	kind := n.Type()
	isComment := p.desc.IsCommentKind(kind)
	isDoc := p.desc.IsDocKind(kind)
	if !isComment && !isDoc {
		if p.desc.DocPredicate != nil && p.desc.DocPredicate(n, p.src) {
			isDoc = true
		} else {
			return false
		}
	}

	lo, hi := int(n.StartByte()), int(n.EndByte())
	if lo >= len(p.src) || hi > len(p.src) || lo >= hi {
		return true
	}
	text := string(p.src[lo:hi])

	if !isDoc {
		for _, prefix := range p.desc.DocPrefixes {
			if strings.HasPrefix(text, prefix) {
				isDoc = true
				break
			}
		}
	}

	c := rules.Comment{
		Text:              text,
		Kind:              kind,
		Language:          p.desc.Name,
		IsDoc:             isDoc,
		IsShebang:         p.isShebang(lo, text),
		TrailingDirective: p.trailingDirective(n, lo),
	}
	p.firstComment = false

	d := rules.Evaluate(c, p.rs)
	if d.Keep {
		p.kept++
		return true
	}
	p.removed++
	if sig := rules.Advisory(c); sig != "" {
		p.warnings = append(p.warnings, Warning{Row: n.StartPoint().Row + 1, Signal: sig, Text: firstLine(text)})
	}
	p.edits = append(p.edits, p.edit(lo, hi))
	return true
}

// isShebang reports a `#!` line at byte zero, or as the first comment of
// a script-type file with only whitespace before it.
func (p *planState) isShebang(lo int, text string) bool {
	if !strings.HasPrefix(text, "#!") {
		return false
	}
	if lo == 0 {
		return true
	}
	return p.desc.Script && p.firstComment && len(bytes.TrimSpace(p.src[:lo])) == 0
}

// trailingDirective reports a comment on the same line as a
// preprocessor-style directive, e.g. the annotation after `#endif`.
func (p *planState) trailingDirective(n *sitter.Node, lo int) bool {
	switch p.desc.Name {
	case "c", "cpp":
	default:
		return false
	}
	lineStart := lineStartAt(p.src, lo)
	code := bytes.TrimSpace(p.src[lineStart:lo])
	return len(code) > 0 && code[0] == '#'
}

// edit computes the byte range and mode for removing src[lo:hi).
func (p *planState) edit(lo, hi int) Edit {
	lineStart := lineStartAt(p.src, lo)
	termStart, nextLine := lineEndAt(p.src, hi)

	leading := p.src[lineStart:lo]
	trailing := p.src[hi:termStart]

	switch {
	case onlyWhitespace(leading) && onlyWhitespace(trailing):
		return Edit{Lo: lineStart, Hi: nextLine, Mode: ModeWholeLine, spans: []span{{lo, hi}}}
	case onlyWhitespace(trailing):
		start := lo
		for start > lineStart && isSpaceByte(p.src[start-1]) {
			start--
		}
		return Edit{Lo: start, Hi: termStart, Mode: ModeTrailing, spans: []span{{lo, hi}}}
	default:
		return Edit{Lo: lo, Hi: hi, Mode: ModeInline, spans: []span{{lo, hi}}}
	}
}

// coalesce sorts edits, drops ranges nested inside an earlier edit, and
// merges touching whole-line removals into single ranges.
func coalesce(edits []Edit, src []byte) []Edit {
	if len(edits) == 0 {
		return nil
	}
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Lo != edits[j].Lo {
			return edits[i].Lo < edits[j].Lo
		}
		return edits[i].Hi > edits[j].Hi
	})
	out := edits[:1]
	for _, e := range edits[1:] {
		last := &out[len(out)-1]
		if e.Lo < last.Hi {
			// Nested or overlapping candidate: the outermost edit wins.
			if e.Hi > last.Hi {
				last.Hi = e.Hi
				last.spans = append(last.spans, e.spans...)
			}
			continue
		}
		if e.Lo == last.Hi && e.Mode == ModeWholeLine && last.Mode == ModeWholeLine {
			last.Hi = e.Hi
			last.spans = append(last.spans, e.spans...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// collapseBlankLines keeps at most one blank line between surviving code
// blocks: when a whole-line removal has at least one blank line directly
// above and below, the run below is consumed so a single blank remains.
func collapseBlankLines(edits []Edit, src []byte) []Edit {
	for i := range edits {
		e := &edits[i]
		if e.Mode != ModeWholeLine {
			continue
		}
		above := blankRunBefore(src, e.Lo)
		below := blankRunAfter(src, e.Hi)
		if above > 0 && below > 0 {
			hi := e.Hi
			for n := 0; n < below; n++ {
				_, next := lineEndAt(src, hi)
				hi = next
			}
			// Never swallow a following edit's range.
			if i+1 < len(edits) && hi > edits[i+1].Lo {
				hi = edits[i+1].Lo
			}
			e.Hi = hi
		}
	}
	return edits
}

// trimFinalNewline keeps one trailing newline when the edits would
// otherwise delete the entire file and the input ended with one.
func trimFinalNewline(edits []Edit, src []byte) {
	if len(edits) == 0 || len(src) == 0 || src[len(src)-1] != '\n' {
		return
	}
	covered := 0
	for _, e := range edits {
		if e.Lo > covered {
			return
		}
		if e.Hi > covered {
			covered = e.Hi
		}
	}
	if covered < len(src) {
		return
	}
	last := &edits[len(edits)-1]
	hi := len(src) - 1
	if hi > 0 && src[hi-1] == '\r' {
		hi--
	}
	if hi > last.Lo {
		last.Hi = hi
	}
}

// validate asserts that every edited byte is either inside a removed
// comment or whitespace: an edit never crosses a non-comment token.
func validate(edits []Edit, src []byte) error {
	prevHi := -1
	for _, e := range edits {
		if e.Lo >= e.Hi {
			return fmt.Errorf("planner: empty edit range [%d,%d)", e.Lo, e.Hi)
		}
		if e.Lo < prevHi {
			return fmt.Errorf("planner: overlapping edits at byte %d", e.Lo)
		}
		prevHi = e.Hi
		spans := e.spans
		sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
		for i := e.Lo; i < e.Hi; i++ {
			inSpan := false
			for _, s := range spans {
				if i >= s.lo && i < s.hi {
					inSpan = true
					break
				}
			}
			if !inSpan && !isWhitespaceByte(src[i]) {
				return fmt.Errorf("planner: edit [%d,%d) crosses non-comment byte %d", e.Lo, e.Hi, i)
			}
		}
	}
	return nil
}

// ---- byte/line helpers ----

func lineStartAt(src []byte, i int) int {
	for i > 0 && src[i-1] != '\n' && src[i-1] != '\r' {
		i--
	}
	return i
}

// lineEndAt scans forward from i to the line terminator. It returns the
// index where the terminator starts and the index of the next line's
// first byte; CRLF counts as a single terminator, and a file without a
// final newline returns (len, len).
func lineEndAt(src []byte, i int) (termStart, nextLine int) {
	for i < len(src) && src[i] != '\n' && src[i] != '\r' {
		i++
	}
	if i >= len(src) {
		return i, i
	}
	if src[i] == '\r' && i+1 < len(src) && src[i+1] == '\n' {
		return i, i + 2
	}
	return i, i + 1
}

func blankRunBefore(src []byte, i int) int {
	count := 0
	for i > 0 {
		// Step back over the previous line's terminator.
		j := i
		if src[j-1] == '\n' {
			j--
			if j > 0 && src[j-1] == '\r' {
				j--
			}
		} else if src[j-1] == '\r' {
			j--
		} else {
			break
		}
		start := lineStartAt(src, j)
		if !onlyWhitespace(src[start:j]) {
			break
		}
		count++
		i = start
	}
	return count
}

func blankRunAfter(src []byte, i int) int {
	count := 0
	for i < len(src) {
		termStart, next := lineEndAt(src, i)
		if !onlyWhitespace(src[i:termStart]) {
			break
		}
		if termStart == next {
			// Blank content with no terminator is end-of-file padding.
			break
		}
		count++
		i = next
	}
	return count
}

func onlyWhitespace(b []byte) bool {
	for _, c := range b {
		if !isSpaceByte(c) {
			return false
		}
	}
	return true
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' }

func isWhitespaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
