package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is one preservation pattern plus where it came from, for
// diagnostics. Matching is substring by default; a trailing `*` makes it
// a prefix match.
type Pattern struct {
	Text  string
	Scope string // "default", "user", "project:<dir>", "pattern:<glob>", "cli", "language:<name>"
}

// RuleSet is the fully merged effective settings for one file. It is
// constructed per file and disposable.
type RuleSet struct {
	RemoveTodos         bool
	RemoveFixmes        bool
	RemoveDocs          bool
	UseDefaultIgnores   bool
	RespectIgnoreFiles  bool
	TraverseNestedRepos bool

	PreservePatterns []Pattern
}

// Defaults returns the built-in rule set: keep TODOs, FIXMEs and docs,
// honor ignore files and the per-language directive tables, stay out of
// nested repositories.
func Defaults() RuleSet {
	return RuleSet{
		RemoveTodos:         false,
		RemoveFixmes:        false,
		RemoveDocs:          false,
		UseDefaultIgnores:   true,
		RespectIgnoreFiles:  true,
		TraverseNestedRepos: false,
	}
}

// Overrides carries command-line settings, applied last.
type Overrides struct {
	RemoveTodos      bool
	RemoveFixmes     bool
	RemoveDocs       bool
	NoDefaultIgnores bool
	IgnorePatterns   []string
}

// Resolve merges, lowest precedence first: built-in defaults, the user
// global document, the project chain in root-to-leaf order, pattern
// blocks matching the file, and command-line overrides. Scalars replace;
// preservation patterns union. Pure: performs no I/O.
func Resolve(path string, user *File, chain []*File, cli Overrides) RuleSet {
	rs := Defaults()

	if user != nil {
		applyFile(&rs, user, "user")
	}
	for _, f := range chain {
		applyFile(&rs, f, "project:"+f.Dir)
	}

	// Pattern blocks, in chain order. Within one document, blocks apply
	// in glob-string order so the merge is deterministic.
	docs := chain
	if user != nil {
		docs = append([]*File{user}, chain...)
	}
	for _, f := range docs {
		for _, glob := range sortedPatternKeys(f.Patterns) {
			block := f.Patterns[glob]
			if !blockMatches(glob, f.Dir, path) {
				continue
			}
			applyBlock(&rs, glob, block)
		}
	}

	if cli.RemoveTodos {
		rs.RemoveTodos = true
	}
	if cli.RemoveFixmes {
		rs.RemoveFixmes = true
	}
	if cli.RemoveDocs {
		rs.RemoveDocs = true
	}
	if cli.NoDefaultIgnores {
		rs.UseDefaultIgnores = false
	}
	for _, p := range cli.IgnorePatterns {
		rs.PreservePatterns = append(rs.PreservePatterns, Pattern{Text: p, Scope: "cli"})
	}
	return rs
}

// AddLanguagePatterns appends a descriptor's default preservation
// patterns, after Resolve has merged the config chain.
func (rs *RuleSet) AddLanguagePatterns(lang string, patterns []string) {
	for _, p := range patterns {
		rs.PreservePatterns = append(rs.PreservePatterns, Pattern{Text: p, Scope: "language:" + lang})
	}
}

func applyFile(rs *RuleSet, f *File, scope string) {
	if f.RemoveTodos != nil {
		rs.RemoveTodos = *f.RemoveTodos
	}
	if f.RemoveFixme != nil {
		rs.RemoveFixmes = *f.RemoveFixme
	}
	if f.RemoveDocs != nil {
		rs.RemoveDocs = *f.RemoveDocs
	}
	if f.UseDefaultIgnores != nil {
		rs.UseDefaultIgnores = *f.UseDefaultIgnores
	}
	if f.RespectGitignore != nil {
		rs.RespectIgnoreFiles = *f.RespectGitignore
	}
	if f.TraverseGitRepos != nil {
		rs.TraverseNestedRepos = *f.TraverseGitRepos
	}
	for _, p := range f.PreservePatterns {
		rs.PreservePatterns = append(rs.PreservePatterns, Pattern{Text: p, Scope: scope})
	}
}

func applyBlock(rs *RuleSet, glob string, b PatternBlock) {
	if b.RemoveTodos != nil {
		rs.RemoveTodos = *b.RemoveTodos
	}
	if b.RemoveFixme != nil {
		rs.RemoveFixmes = *b.RemoveFixme
	}
	if b.RemoveDocs != nil {
		rs.RemoveDocs = *b.RemoveDocs
	}
	if b.UseDefaultIgnores != nil {
		rs.UseDefaultIgnores = *b.UseDefaultIgnores
	}
	for _, p := range b.PreservePatterns {
		rs.PreservePatterns = append(rs.PreservePatterns, Pattern{Text: p, Scope: "pattern:" + glob})
	}
}

// blockMatches evaluates a pattern-block glob against a file path. The
// path is made relative to the defining document's directory; a leading
// `/` anchors the glob there; an unanchored glob without any slash is
// also tried against the file's basename.
func blockMatches(glob, dir, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(glob, "/") {
		ok, _ := doublestar.Match(strings.TrimPrefix(glob, "/"), rel)
		return ok
	}
	if ok, _ := doublestar.Match(glob, rel); ok {
		return true
	}
	// Unanchored globs with no slash also match the basename.
	if !strings.Contains(glob, "/") {
		if ok, _ := doublestar.Match(glob, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}

func sortedPatternKeys(m map[string]PatternBlock) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MatchPattern applies one preservation pattern to a comment's text.
func MatchPattern(p Pattern, text string) bool {
	if strings.HasSuffix(p.Text, "*") && len(p.Text) > 1 {
		prefix := strings.TrimSuffix(p.Text, "*")
		if strings.HasPrefix(text, prefix) {
			return true
		}
		return strings.HasPrefix(strings.TrimSpace(trimCommentLeader(text)), prefix)
	}
	return strings.Contains(text, p.Text)
}

// trimCommentLeader strips the leading comment punctuation so prefix
// patterns can target the comment's content rather than its syntax.
func trimCommentLeader(text string) string {
	t := strings.TrimSpace(text)
	for _, lead := range []string{"///", "//!", "//", "/*", "#", "--", ";", "<!--"} {
		if strings.HasPrefix(t, lead) {
			return strings.TrimSpace(strings.TrimPrefix(t, lead))
		}
	}
	return t
}
