package planner_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/stretchr/testify/require"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/language"
	"github.com/Goldziher/uncomment/internal/planner"
	"github.com/Goldziher/uncomment/internal/rewrite"
)

// rewriteSource runs the full plan-and-apply pipeline for one source
// buffer.
func rewriteSource(t *testing.T, langName string, lang *sitter.Language, src string, rs config.RuleSet) string {
	t.Helper()
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	defer tree.Close()
	require.False(t, tree.RootNode().HasError(), "test input must parse cleanly:\n%s", src)

	reg := language.NewRegistry()
	desc := reg.LookupByName(langName)
	require.NotNil(t, desc)

	res, err := planner.Plan(tree.RootNode(), []byte(src), desc, rs)
	require.NoError(t, err)
	out, _ := rewrite.Apply([]byte(src), res.Edits)
	return string(out)
}

func TestPlan_InlineBlockComment(t *testing.T) {
	src := "int x = 1; /* note */ int y = 2;\n"
	got := rewriteSource(t, "c", c.GetLanguage(), src, config.Defaults())
	require.Equal(t, "int x = 1;  int y = 2;\n", got)
}

func TestPlan_StringLiteralImmunity(t *testing.T) {
	src := "code = \"# this is not a comment\"  # this is a comment\n"
	got := rewriteSource(t, "python", python.GetLanguage(), src, config.Defaults())
	require.Equal(t, "code = \"# this is not a comment\"\n", got)
}

func TestPlan_KeepMarkerWholeLine(t *testing.T) {
	src := "package main\n\n// ordinary\n// ~keep this one\nvar a = 0\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, "package main\n\n// ~keep this one\nvar a = 0\n", got)
}

func TestPlan_BuildTagPreserved(t *testing.T) {
	src := "//go:build linux\n// ordinary\npackage main\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, "//go:build linux\npackage main\n", got)
}

func TestPlan_ShebangInvariant(t *testing.T) {
	src := "#!/usr/bin/env bash\n# removable\necho hi\n"
	got := rewriteSource(t, "bash", bash.GetLanguage(), src, config.Defaults())
	require.Equal(t, "#!/usr/bin/env bash\necho hi\n", got)
}

func TestPlan_DocPrefixDefaultKept(t *testing.T) {
	src := "/// Adds one.\n/// Always.\nfn inc(x: i32) -> i32 { x + 1 }\n// scratch\n"
	rs := config.Defaults()
	got := rewriteSource(t, "rust", rust.GetLanguage(), src, rs)
	require.Equal(t, "/// Adds one.\n/// Always.\nfn inc(x: i32) -> i32 { x + 1 }\n", got)

	rs.RemoveDocs = true
	got = rewriteSource(t, "rust", rust.GetLanguage(), src, rs)
	require.Equal(t, "fn inc(x: i32) -> i32 { x + 1 }\n", got)
}

func TestPlan_PythonDocstring(t *testing.T) {
	src := "def f():\n    \"\"\"Docstring.\"\"\"\n    return 1\n"
	rs := config.Defaults()
	got := rewriteSource(t, "python", python.GetLanguage(), src, rs)
	require.Equal(t, src, got, "docstrings survive default rules")

	rs.RemoveDocs = true
	got = rewriteSource(t, "python", python.GetLanguage(), src, rs)
	require.Equal(t, "def f():\n    return 1\n", got)
}

func TestPlan_TrailingCommentKeepsNewline(t *testing.T) {
	src := "x = 1  # gone\ny = 2\n"
	got := rewriteSource(t, "python", python.GetLanguage(), src, config.Defaults())
	require.Equal(t, "x = 1\ny = 2\n", got)
}

func TestPlan_TrailingCommentNoFinalNewline(t *testing.T) {
	src := "x=1 # gone"
	got := rewriteSource(t, "bash", bash.GetLanguage(), src, config.Defaults())
	require.Equal(t, "x=1", got, "no newline is invented at EOF")
}

func TestPlan_AllCommentFile(t *testing.T) {
	src := "# one\n# two\n"
	got := rewriteSource(t, "python", python.GetLanguage(), src, config.Defaults())
	require.Equal(t, "\n", got, "a fully removable file keeps its final newline")

	src = "# one\n# two"
	got = rewriteSource(t, "python", python.GetLanguage(), src, config.Defaults())
	require.Equal(t, "", got)
}

func TestPlan_BlankLineCollapse(t *testing.T) {
	src := "package main\n\nvar a = 1\n\n// gone\n\nvar b = 2\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, "package main\n\nvar a = 1\n\nvar b = 2\n", got,
		"one surrounding blank line survives a bridged removal")
}

func TestPlan_AdjacentWholeLineCollapse(t *testing.T) {
	src := "package main\n\n// one\n// two\n// three\nvar a = 1\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, "package main\n\nvar a = 1\n", got)
}

func TestPlan_IndentedWholeLine(t *testing.T) {
	src := "def f():\n    # setup\n    return 1\n"
	got := rewriteSource(t, "python", python.GetLanguage(), src, config.Defaults())
	require.Equal(t, "def f():\n    return 1\n", got)
}

func TestPlan_Idempotent(t *testing.T) {
	srcs := []struct {
		lang string
		l    *sitter.Language
		src  string
	}{
		{"go", golang.GetLanguage(), "package main\n\n// a\nvar x = 1 // b\n"},
		{"python", python.GetLanguage(), "x = 1  # t\n\n# block\ny = 2\n"},
		{"c", c.GetLanguage(), "int a; /* m */ int b;\n// tail\n"},
	}
	for _, tc := range srcs {
		once := rewriteSource(t, tc.lang, tc.l, tc.src, config.Defaults())
		twice := rewriteSource(t, tc.lang, tc.l, once, config.Defaults())
		require.Equal(t, once, twice, "rewrite must be idempotent for %s", tc.lang)
	}
}

func TestPlan_CRLFWholeLine(t *testing.T) {
	src := "package main\r\n// gone\r\nvar a = 1\r\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, "package main\r\nvar a = 1\r\n", got,
		"a whole-line removal consumes exactly its own CRLF")
}

func TestPlan_TodoKeptByDefault(t *testing.T) {
	src := "package main\n\n// TODO: revisit\nvar a = 1\n"
	got := rewriteSource(t, "go", golang.GetLanguage(), src, config.Defaults())
	require.Equal(t, src, got)

	rs := config.Defaults()
	rs.RemoveTodos = true
	got = rewriteSource(t, "go", golang.GetLanguage(), src, rs)
	require.Equal(t, "package main\n\nvar a = 1\n", got)
}

func TestPlan_WarningsForAdvisorySignals(t *testing.T) {
	src := "package main\n\n// HACK: fragile workaround\nvar a = 1\n"

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	defer tree.Close()

	reg := language.NewRegistry()
	res, err := planner.Plan(tree.RootNode(), []byte(src), reg.LookupByName("go"), config.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, "HACK", res.Warnings[0].Signal)
	require.Equal(t, uint32(3), res.Warnings[0].Row)
}

func TestPlan_EditsSortedNonOverlapping(t *testing.T) {
	src := "int a; /* x */ int b; // y\n// z\nint c;\n"

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	defer tree.Close()

	reg := language.NewRegistry()
	res, err := planner.Plan(tree.RootNode(), []byte(src), reg.LookupByName("c"), config.Defaults())
	require.NoError(t, err)
	require.NotEmpty(t, res.Edits)
	for i := 1; i < len(res.Edits); i++ {
		require.Greater(t, res.Edits[i].Lo, res.Edits[i-1].Lo)
		require.GreaterOrEqual(t, res.Edits[i].Lo, res.Edits[i-1].Hi)
	}
}
