// Package config defines the uncomment configuration documents and the
// pure merge that turns a chain of them into the effective rule set for
// one file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file discovered walking up from
// each source file.
const FileName = "uncomment.yaml"

// ErrInvalid marks configuration documents that fail to parse or
// validate. The run aborts before any file is processed.
var ErrInvalid = errors.New("invalid configuration")

// File is one parsed configuration document. Scalar fields are pointers
// so "unset" and "explicitly false" merge differently.
type File struct {
	RemoveTodos       *bool    `yaml:"remove_todos"`
	RemoveFixme       *bool    `yaml:"remove_fixme"`
	RemoveDocs        *bool    `yaml:"remove_docs"`
	PreservePatterns  []string `yaml:"preserve_patterns"`
	UseDefaultIgnores *bool    `yaml:"use_default_ignores"`
	RespectGitignore  *bool    `yaml:"respect_gitignore"`
	TraverseGitRepos  *bool    `yaml:"traverse_git_repos"`

	Languages map[string]LanguageConfig `yaml:"languages"`
	Patterns  map[string]PatternBlock   `yaml:"patterns"`

	// Dir is the directory holding the document; pattern blocks match
	// paths relative to it. Set by Load, not by yaml.
	Dir string `yaml:"-"`
}

// LanguageConfig declares or extends a language descriptor.
type LanguageConfig struct {
	Name             string         `yaml:"name"`
	Extensions       []string       `yaml:"extensions"`
	CommentNodes     []string       `yaml:"comment_nodes"`
	DocCommentNodes  []string       `yaml:"doc_comment_nodes"`
	PreservePatterns []string       `yaml:"preserve_patterns"`
	RemoveDocs       *bool          `yaml:"remove_docs"`
	Grammar          *GrammarConfig `yaml:"grammar"`
}

// GrammarConfig locates a grammar for a configured language.
type GrammarConfig struct {
	Type   string `yaml:"type"` // "git", "local", or "library"
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

// PatternBlock scopes overrides to files matching a glob. Matching uses
// doublestar semantics: `**` crosses directory boundaries, the path is
// taken relative to the defining document's directory, and a leading `/`
// anchors the pattern to that directory.
type PatternBlock struct {
	RemoveTodos       *bool    `yaml:"remove_todos"`
	RemoveFixme       *bool    `yaml:"remove_fixme"`
	RemoveDocs        *bool    `yaml:"remove_docs"`
	PreservePatterns  []string `yaml:"preserve_patterns"`
	UseDefaultIgnores *bool    `yaml:"use_default_ignores"`
}

// Load reads and parses one configuration document.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f.Dir = filepath.Dir(abs)
	return &f, nil
}

func (f *File) validate() error {
	for name, lang := range f.Languages {
		if lang.Grammar == nil {
			continue
		}
		switch lang.Grammar.Type {
		case "git":
			if lang.Grammar.URL == "" {
				return fmt.Errorf("language %q: git grammar requires url", name)
			}
		case "local", "library":
			if lang.Grammar.Path == "" {
				return fmt.Errorf("language %q: %s grammar requires path", name, lang.Grammar.Type)
			}
		case "":
			return fmt.Errorf("language %q: grammar requires a type", name)
		default:
			return fmt.Errorf("language %q: unknown grammar type %q", name, lang.Grammar.Type)
		}
	}
	return nil
}

// UserConfigPath returns the global configuration location, following
// XDG conventions.
func UserConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "uncomment", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "uncomment", "config.yaml")
}

// LoadUser loads the user-global configuration, or nil when absent.
func LoadUser() (*File, error) {
	path := UserConfigPath()
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return Load(path)
}
