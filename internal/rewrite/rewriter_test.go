package rewrite

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Goldziher/uncomment/internal/planner"
)

func TestApply_NoEdits(t *testing.T) {
	src := []byte("unchanged\n")
	out, changed := Apply(src, nil)
	if changed {
		t.Fatal("no edits must report unchanged")
	}
	if diff := cmp.Diff(string(src), string(out)); diff != "" {
		t.Fatalf("buffer differs (-want +got):\n%s", diff)
	}
}

func TestApply_DeletesRanges(t *testing.T) {
	src := []byte("keep DELETE keep\n")
	out, changed := Apply(src, []planner.Edit{{Lo: 4, Hi: 11, Mode: planner.ModeTrailing}})
	if !changed {
		t.Fatal("expected change")
	}
	if got := string(out); got != "keep keep\n" {
		t.Fatalf("got %q", got)
	}
}

func TestApply_InlineJoinSpace(t *testing.T) {
	// Removing the comment outright would fuse `a` and `b`.
	src := []byte("a/*x*/b")
	out, _ := Apply(src, []planner.Edit{{Lo: 1, Hi: 6, Mode: planner.ModeInline}})
	if got := string(out); got != "a b" {
		t.Fatalf("identifier join: got %q", got)
	}

	// Existing spacing means no substitution.
	src = []byte("a /*x*/ b")
	out, _ = Apply(src, []planner.Edit{{Lo: 2, Hi: 7, Mode: planner.ModeInline}})
	if got := string(out); got != "a  b" {
		t.Fatalf("spaced join: got %q", got)
	}

	// Operators fuse too: `-` and `-` must not become `--`.
	src = []byte("x -/*c*/- y")
	out, _ = Apply(src, []planner.Edit{{Lo: 3, Hi: 8, Mode: planner.ModeInline}})
	if got := string(out); got != "x - - y" {
		t.Fatalf("operator join: got %q", got)
	}
}

func TestApply_MultipleEditsSingleSweep(t *testing.T) {
	src := []byte("aa XX bb YY cc\n")
	out, changed := Apply(src, []planner.Edit{
		{Lo: 2, Hi: 5, Mode: planner.ModeInline},
		{Lo: 8, Hi: 11, Mode: planner.ModeInline},
	})
	if !changed {
		t.Fatal("expected change")
	}
	if got := string(out); got != "aa bb cc\n" {
		t.Fatalf("got %q", got)
	}
}

func TestApply_BinarySafe(t *testing.T) {
	// Bytes outside the edits pass through untouched, valid UTF-8 or not.
	src := []byte{0xff, 0xfe, ' ', 'D', 'E', 'L', ' ', 0x80}
	out, _ := Apply(src, []planner.Edit{{Lo: 3, Hi: 6, Mode: planner.ModeTrailing}})
	want := []byte{0xff, 0xfe, ' ', ' ', 0x80}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("byte mismatch (-want +got):\n%s", diff)
	}
}
