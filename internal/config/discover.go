package config

import (
	"os"
	"path/filepath"
)

// Discover walks from a file's directory up to the filesystem root,
// stopping after the first directory that looks like a repository
// boundary, and returns every project configuration document found, in
// root-to-leaf order (lowest precedence first).
//
// Discovery results are cached per directory by the caller; this
// function itself just walks and loads.
func Discover(dir string) ([]*File, error) {
	var paths []string
	cur, err := filepath.Abs(dir)
	if err != nil {
		cur = dir
	}
	for {
		candidate := filepath.Join(cur, FileName)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			paths = append(paths, candidate)
		}
		if isRepoBoundary(cur) {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	// Reverse: collected leaf-to-root, merge order is root-to-leaf.
	files := make([]*File, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		f, err := Load(paths[i])
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// isRepoBoundary reports whether dir is a configuration-traversal
// boundary, typically a repository root.
func isRepoBoundary(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	return false
}
