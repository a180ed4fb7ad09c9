package driver

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreRule is one parsed gitignore line.
type ignoreRule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool
	base     string // directory the pattern is relative to
}

// ignoreMatcher evaluates gitignore-style rules. Rules are ordered; the
// last matching rule wins, matching git's semantics.
type ignoreMatcher struct {
	rules []ignoreRule
}

// loadIgnoreFile parses one ignore file; missing files yield no rules.
func loadIgnoreFile(path string) []ignoreRule {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	base := filepath.Dir(path)
	var rules []ignoreRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasSuffix(line, "\r") {
			line = strings.TrimSuffix(line, "\r")
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		r := ignoreRule{base: base}
		if strings.HasPrefix(trimmed, "!") {
			r.negate = true
			trimmed = trimmed[1:]
		}
		if strings.HasSuffix(trimmed, "/") {
			r.dirOnly = true
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		// A slash anywhere but the end anchors the pattern to the
		// ignore file's directory.
		if strings.Contains(trimmed, "/") {
			r.anchored = true
			trimmed = strings.TrimPrefix(trimmed, "/")
		}
		r.pattern = trimmed
		rules = append(rules, r)
	}
	return rules
}

// globalIgnoreRules loads the user's global git ignore file.
func globalIgnoreRules() []ignoreRule {
	var path string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		path = filepath.Join(dir, "git", "ignore")
	} else if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".config", "git", "ignore")
	}
	if path == "" {
		return nil
	}
	return loadIgnoreFile(path)
}

// withDir returns a matcher extended with the rules of dir's .gitignore,
// if present. The receiver is unchanged, so matchers stack naturally as
// the walk descends.
func (m *ignoreMatcher) withDir(dir string) *ignoreMatcher {
	rules := loadIgnoreFile(filepath.Join(dir, ".gitignore"))
	if len(rules) == 0 {
		return m
	}
	next := &ignoreMatcher{rules: make([]ignoreRule, 0, len(m.rules)+len(rules))}
	next.rules = append(next.rules, m.rules...)
	next.rules = append(next.rules, rules...)
	return next
}

// Ignored reports whether path is excluded. isDir distinguishes
// directory-only rules.
func (m *ignoreMatcher) Ignored(path string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.matches(path, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r *ignoreRule) matches(path string, isDir bool) bool {
	rel, err := filepath.Rel(r.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if r.dirOnly && !isDir {
		// A directory rule still covers files beneath the directory;
		// those are handled when the walk prunes the directory itself.
		return false
	}

	pattern := r.pattern
	if !r.anchored {
		// Unanchored patterns match at any depth.
		if ok, _ := doublestar.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
		pattern = "**/" + pattern
	}
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	// A directory pattern covers everything beneath it.
	if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
		return true
	}
	return false
}
