package driver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// expand interprets each input argument as a literal file, a directory
// to recurse under, or a glob pattern, and streams candidate paths into
// out. The channel is bounded, so traversal blocks when the workers fall
// behind.
func (r *run) expand(ctx context.Context, out chan<- string) error {
	defer close(out)
	for _, arg := range r.opts.Paths {
		fi, err := os.Stat(arg)
		switch {
		case err == nil && fi.IsDir():
			if err := r.walkDir(ctx, arg, out); err != nil {
				return err
			}
		case err == nil:
			if !emit(ctx, out, arg) {
				return ctx.Err()
			}
		default:
			matches, globErr := doublestar.FilepathGlob(arg)
			if globErr != nil || len(matches) == 0 {
				r.report.addError(arg, "unreadable path")
				continue
			}
			for _, m := range matches {
				if mi, err := os.Stat(m); err == nil && mi.IsDir() {
					if err := r.walkDir(ctx, m, out); err != nil {
						return err
					}
					continue
				}
				if !emit(ctx, out, m) {
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

func (r *run) walkDir(ctx context.Context, root string, out chan<- string) error {
	global := globalIgnoreRules()
	// Global rules are relative to the walk root, not to the directory
	// holding the global ignore file.
	for i := range global {
		global[i].base = root
	}
	matcher := &ignoreMatcher{rules: global}
	seen := map[string]bool{}
	return r.walk(ctx, root, matcher, seen, out)
}

func (r *run) walk(ctx context.Context, dir string, matcher *ignoreMatcher, seen map[string]bool, out chan<- string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Guard against symlink cycles: never revisit a resolved directory.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if seen[resolved] {
		return nil
	}
	seen[resolved] = true

	if r.respectIgnores {
		matcher = matcher.withDir(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		r.report.addError(dir, "unreadable path")
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if entry.Name() == ".git" {
				continue
			}
			if !r.traverseNested && isNestedRepo(path) {
				r.log.Debug("skipping nested repository", zap.String("path", path))
				continue
			}
			if r.respectIgnores && matcher.Ignored(path, true) {
				continue
			}
			if err := r.walk(ctx, path, matcher, seen, out); err != nil {
				return err
			}
			continue
		}
		if r.respectIgnores && matcher.Ignored(path, false) {
			continue
		}
		if !emit(ctx, out, path) {
			return ctx.Err()
		}
	}
	return nil
}

func emit(ctx context.Context, out chan<- string, path string) bool {
	select {
	case out <- path:
		return true
	case <-ctx.Done():
		return false
	}
}

func isNestedRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
