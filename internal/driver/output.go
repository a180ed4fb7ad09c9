package driver

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// printer serializes all stdout writes. A closed pipe flips broken and
// every later write becomes a no-op; the run then finishes normally.
type printer struct {
	w      io.Writer
	broken bool
}

func (p *printer) Printf(format string, args ...any) {
	if p.broken {
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
			p.broken = true
		}
	}
}

// diffOp is one line of a computed diff.
type diffOp struct {
	op   diffmatchpatch.Operation
	line string
}

// renderUnified produces a unified diff of one file's rewrite, whole
// file at a time so concurrent results never interleave.
func renderUnified(path string, oldSrc, newSrc []byte) string {
	const context = 3
	ops := lineDiff(string(oldSrc), string(newSrc))

	// Group changed lines whose equal gaps are short enough to share a
	// hunk.
	var changed []int
	for i, op := range ops {
		if op.op != diffmatchpatch.DiffEqual {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)

	// Precompute the old/new line number at every op index.
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	oldAt[0], newAt[0] = 1, 1
	for i, op := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if op.op != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if op.op != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	for g := 0; g < len(changed); {
		end := g
		for end+1 < len(changed) && changed[end+1]-changed[end] <= 2*context {
			end++
		}
		lo := changed[g] - context
		if lo < 0 {
			lo = 0
		}
		hi := changed[end] + 1 + context
		if hi > len(ops) {
			hi = len(ops)
		}

		oldCount, newCount := 0, 0
		var body strings.Builder
		for k := lo; k < hi; k++ {
			switch ops[k].op {
			case diffmatchpatch.DiffEqual:
				body.WriteString(" " + ops[k].line + "\n")
				oldCount++
				newCount++
			case diffmatchpatch.DiffDelete:
				body.WriteString("-" + ops[k].line + "\n")
				oldCount++
			case diffmatchpatch.DiffInsert:
				body.WriteString("+" + ops[k].line + "\n")
				newCount++
			}
		}
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldAt[lo], oldCount, newAt[lo], newCount)
		b.WriteString(body.String())
		g = end + 1
	}
	return b.String()
}

// lineDiff computes a line-based diff using the rune-mapping trick from
// diffmatchpatch, then decodes back to the original lines.
func lineDiff(oldText, newText string) []diffOp {
	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	var ops []diffOp
	for _, d := range diffs {
		for _, r := range d.Text {
			idx := int(r)
			if idx < 0 || idx >= len(lineArray) {
				continue
			}
			line := strings.TrimSuffix(lineArray[idx], "\n")
			line = strings.TrimSuffix(line, "\r")
			ops = append(ops, diffOp{op: d.Type, line: line})
		}
	}
	return ops
}
