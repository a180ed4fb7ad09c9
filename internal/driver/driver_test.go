package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testRun(t *testing.T, opts Options) (*Report, string) {
	t.Helper()
	t.Setenv("UNCOMMENT_CACHE_DIR", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	report, err := Run(context.Background(), opts, zap.NewNop(), &out)
	require.NoError(t, err)
	return report, out.String()
}

func TestRun_WritesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "package main\n\n// scratch\nvar a = 1\n")

	report, _ := testRun(t, Options{Paths: []string{path}, Mode: ModeWrite, Threads: 2})

	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, 1, report.ExitCode())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nvar a = 1\n", string(data))
}

func TestRun_DryRunLeavesFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	original := "x = 1  # trailing\n"
	writeFile(t, path, original)

	report, out := testRun(t, Options{Paths: []string{path}, Mode: ModeDryRun, Threads: 1})

	assert.Equal(t, 1, report.Changed)
	assert.Contains(t, out, "would change: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "dry run must not write")
}

func TestRun_DiffOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	writeFile(t, path, "x = 1  # trailing\ny = 2\n")

	_, out := testRun(t, Options{Paths: []string{path}, Mode: ModeDiff, Threads: 1})

	assert.Contains(t, out, "--- a/"+path)
	assert.Contains(t, out, "-x = 1  # trailing")
	assert.Contains(t, out, "+x = 1")
}

func TestRun_UnchangedFileExitsZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "package main\n\nvar a = 1\n")

	report, _ := testRun(t, Options{Paths: []string{path}, Mode: ModeWrite, Threads: 1})
	assert.Equal(t, 0, report.Changed)
	assert.Equal(t, 0, report.ExitCode())
}

func TestRun_UnsupportedLanguageSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.xyz")
	writeFile(t, path, "whatever\n")

	report, out := testRun(t, Options{Paths: []string{path}, Mode: ModeWrite, Threads: 1})
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Errored)
	assert.Equal(t, 0, report.ExitCode())
	assert.Contains(t, out, "1 skipped")
}

func TestRun_DirectoryRecursionAndGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "vendor/\nskipme.py\n")
	writeFile(t, filepath.Join(dir, "a.py"), "x = 1  # gone\n")
	writeFile(t, filepath.Join(dir, "skipme.py"), "y = 1  # stays\n")
	writeFile(t, filepath.Join(dir, "vendor", "v.py"), "z = 1  # stays\n")
	writeFile(t, filepath.Join(dir, "sub", "b.py"), "w = 1  # gone\n")

	report, _ := testRun(t, Options{Paths: []string{dir}, Mode: ModeWrite, Threads: 2})
	assert.Equal(t, 2, report.Changed)

	data, _ := os.ReadFile(filepath.Join(dir, "skipme.py"))
	assert.Equal(t, "y = 1  # stays\n", string(data))
	data, _ = os.ReadFile(filepath.Join(dir, "vendor", "v.py"))
	assert.Equal(t, "z = 1  # stays\n", string(data))
}

func TestRun_NestedRepoNotDescended(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "x = 1  # gone\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "third_party", ".git"), 0o755))
	writeFile(t, filepath.Join(dir, "third_party", "b.py"), "y = 1  # stays\n")

	report, _ := testRun(t, Options{Paths: []string{dir}, Mode: ModeWrite, Threads: 1})
	assert.Equal(t, 1, report.Changed)

	data, _ := os.ReadFile(filepath.Join(dir, "third_party", "b.py"))
	assert.Equal(t, "y = 1  # stays\n", string(data))
}

func TestRun_MalformedInputPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.go")
	original := "package main\n\nfunc { // nope\n"
	writeFile(t, path, original)

	report, _ := testRun(t, Options{Paths: []string{path}, Mode: ModeWrite, Threads: 1})
	assert.Equal(t, 0, report.Changed)
	assert.Equal(t, 1, report.Skipped)

	data, _ := os.ReadFile(path)
	assert.Equal(t, original, string(data))
}

func TestRun_ExplicitConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "custom.yaml")
	writeFile(t, cfg, "preserve_patterns:\n  - \"scratch\"\n")
	path := filepath.Join(dir, "main.go")
	original := "package main\n\n// scratch pad\nvar a = 1\n"
	writeFile(t, path, original)

	report, _ := testRun(t, Options{
		Paths:      []string{path},
		Mode:       ModeWrite,
		Threads:    1,
		ConfigPath: cfg,
	})
	assert.Equal(t, 0, report.Changed)

	data, _ := os.ReadFile(path)
	assert.Equal(t, original, string(data))
}

func TestIgnoreMatcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "*.log\nbuild/\n!keep.log\ndocs/*.md\n")

	m := (&ignoreMatcher{}).withDir(dir)

	assert.True(t, m.Ignored(filepath.Join(dir, "x.log"), false))
	assert.True(t, m.Ignored(filepath.Join(dir, "deep", "y.log"), false), "unanchored patterns match at depth")
	assert.False(t, m.Ignored(filepath.Join(dir, "keep.log"), false), "negation wins as the last match")
	assert.True(t, m.Ignored(filepath.Join(dir, "build"), true))
	assert.True(t, m.Ignored(filepath.Join(dir, "docs", "a.md"), false))
	assert.False(t, m.Ignored(filepath.Join(dir, "other", "a.md"), false), "anchored pattern stays at its level")
	assert.False(t, m.Ignored(filepath.Join(dir, "main.go"), false))
}

func TestRenderUnified(t *testing.T) {
	oldSrc := []byte("a\nb\nc\nd\ne\nf\ng\nh\n")
	newSrc := []byte("a\nb\nc\nd2\ne\nf\ng\nh\n")
	diff := renderUnified("f.txt", oldSrc, newSrc)

	assert.Contains(t, diff, "--- a/f.txt")
	assert.Contains(t, diff, "+++ b/f.txt")
	assert.Contains(t, diff, "@@ -1,7 +1,7 @@")
	assert.Contains(t, diff, "-d\n")
	assert.Contains(t, diff, "+d2\n")
}

func TestReport_ExitCode(t *testing.T) {
	assert.Equal(t, 0, (&Report{}).ExitCode())
	assert.Equal(t, 1, (&Report{Changed: 2}).ExitCode())
	assert.Equal(t, 2, (&Report{Changed: 2, Errored: 1}).ExitCode())
}
