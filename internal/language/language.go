// Package language holds the descriptor registry: the canonical table of
// languages the tool understands, how files map onto them, and which parse
// tree node kinds count as comments or documentation.
package language

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// GrammarSourceType selects how a language's grammar is materialized.
type GrammarSourceType int

const (
	// GrammarStatic resolves to a parser linked into the binary.
	GrammarStatic GrammarSourceType = iota
	// GrammarGit clones and compiles a grammar repository on first use.
	GrammarGit
	// GrammarLocal compiles a grammar from a local checkout.
	GrammarLocal
	// GrammarLibrary loads a pre-built shared object.
	GrammarLibrary
)

// GrammarSource locates the grammar for a language. The zero value means
// static. Revision is resolved to an exact commit on first fetch and
// recorded in the cache index.
type GrammarSource struct {
	Type     GrammarSourceType
	URL      string // git clone URL (GrammarGit)
	Revision string // branch, tag, or commit; empty means upstream default
	Subpath  string // grammar root inside the repository
	Path     string // local grammar dir (GrammarLocal) or shared object (GrammarLibrary)
}

// DocPredicate reports whether a node is a documentation comment for
// languages where docs are not a distinct node kind (e.g. Python
// docstrings). It may inspect the node's ancestry but not mutate anything.
type DocPredicate func(n *sitter.Node, src []byte) bool

// Descriptor is the immutable identity of one language.
type Descriptor struct {
	Name        string
	DisplayName string

	// Extensions include the leading dot (".go"). Basenames match whole
	// file names with no extension handling (e.g. "Dockerfile").
	Extensions []string
	Basenames  []string

	// CommentKinds and DocCommentKinds are tree-sitter node type names.
	CommentKinds    []string
	DocCommentKinds []string

	// DocPredicate supplements DocCommentKinds; nil when node kinds are
	// sufficient.
	DocPredicate DocPredicate

	// DocPrefixes mark doc comments that share a node kind with ordinary
	// comments and are distinguished by their leading text ("///", "//!").
	DocPrefixes []string

	// PreservePatterns are language-default preservation substrings merged
	// into every rule set for files of this language.
	PreservePatterns []string

	// Script languages get shebang detection on the first comment of the
	// file, not just at byte zero.
	Script bool

	Grammar GrammarSource
}

// IsCommentKind reports whether kind is an ordinary comment node type.
func (d *Descriptor) IsCommentKind(kind string) bool {
	for _, k := range d.CommentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsDocKind reports whether kind is a documentation comment node type.
func (d *Descriptor) IsDocKind(kind string) bool {
	for _, k := range d.DocCommentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Conflict records a registration that displaced an earlier mapping.
type Conflict struct {
	Key      string // extension or basename
	Previous string // language that held the key
	Winner   string // language that now holds it
}

// Registry maps paths and names to descriptors. It is built once at
// startup and read-only afterwards; lookups take no locks.
type Registry struct {
	byName map[string]*Descriptor
	byExt  map[string]*Descriptor
	byBase map[string]*Descriptor
}

// NewRegistry returns a registry seeded with the built-in descriptors.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Descriptor),
		byExt:  make(map[string]*Descriptor),
		byBase: make(map[string]*Descriptor),
	}
	for _, d := range builtins() {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a descriptor. Later registrations win on
// extension conflicts; every displaced mapping is returned so the caller
// can report it.
func (r *Registry) Register(d *Descriptor) []Conflict {
	var conflicts []Conflict
	if prev, ok := r.byName[d.Name]; ok && prev != d {
		// Re-registering a name drops the old descriptor's mappings.
		for _, ext := range prev.Extensions {
			if r.byExt[ext] == prev {
				delete(r.byExt, ext)
			}
		}
		for _, base := range prev.Basenames {
			if r.byBase[base] == prev {
				delete(r.byBase, base)
			}
		}
	}
	r.byName[d.Name] = d
	for _, ext := range d.Extensions {
		if prev, ok := r.byExt[ext]; ok && prev.Name != d.Name {
			conflicts = append(conflicts, Conflict{Key: ext, Previous: prev.Name, Winner: d.Name})
		}
		r.byExt[ext] = d
	}
	for _, base := range d.Basenames {
		if prev, ok := r.byBase[base]; ok && prev.Name != d.Name {
			conflicts = append(conflicts, Conflict{Key: base, Previous: prev.Name, Winner: d.Name})
		}
		r.byBase[base] = d
	}
	return conflicts
}

// LookupByPath resolves a file path to a descriptor, or nil when the file
// is not a recognized language. Exact basename matches precede extension
// matches; the longest matching extension wins, so ".d.ts" beats ".ts".
func (r *Registry) LookupByPath(path string) *Descriptor {
	base := filepath.Base(path)
	if d, ok := r.byBase[base]; ok {
		return d
	}
	lower := strings.ToLower(base)
	var best *Descriptor
	bestLen := 0
	for ext, d := range r.byExt {
		if strings.HasSuffix(lower, ext) && len(ext) > bestLen {
			best = d
			bestLen = len(ext)
		}
	}
	return best
}

// LookupByName resolves a language identity, or nil.
func (r *Registry) LookupByName(name string) *Descriptor {
	return r.byName[strings.ToLower(name)]
}

// All returns every registered descriptor sorted by name.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
