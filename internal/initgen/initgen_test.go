package initgen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/language"
)

func TestScan_TalliesByLanguage(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.go":          "package main\n",
		"util.go":          "package main\n",
		"scripts/run.sh":   "echo hi\n",
		"README.md":        "readme\n",
		"node_modules/x.js": "ignored\n",
	}
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	tallies, err := Scan(dir, language.NewRegistry())
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	assert.Equal(t, Tally{Language: "go", Files: 2}, tallies[0], "sorted by count")
	assert.Equal(t, Tally{Language: "bash", Files: 1}, tallies[1])
}

func TestGenerate_SmartConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	var out bytes.Buffer
	err := Generate(Options{Root: dir}, language.NewRegistry(), &out, strings.NewReader(""))
	require.NoError(t, err)

	path := filepath.Join(dir, config.FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "go:")
	assert.NotContains(t, string(data), "kotlin:", "smart scaffold covers only observed languages")

	// The scaffold must itself be a loadable configuration.
	_, err = config.Load(path)
	require.NoError(t, err)
}

func TestGenerate_Comprehensive(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := Generate(Options{Root: dir, Comprehensive: true}, language.NewRegistry(), &out, strings.NewReader(""))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	for _, lang := range []string{"go:", "python:", "rust:", "kotlin:"} {
		assert.Contains(t, string(data), lang)
	}
}

func TestGenerate_RefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("remove_todos: true\n"), 0o644))

	var out bytes.Buffer
	err := Generate(Options{Root: dir}, language.NewRegistry(), &out, strings.NewReader(""))
	require.Error(t, err)

	err = Generate(Options{Root: dir, Force: true}, language.NewRegistry(), &out, strings.NewReader(""))
	require.NoError(t, err)
}
