// Package grammar resolves language descriptors to usable parsers. Four
// backends feed one uniform handle type: parsers linked into the binary,
// grammars cloned and compiled from git, grammars compiled from a local
// checkout, and pre-built shared objects.
package grammar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/Goldziher/uncomment/internal/language"
)

// CacheDirEnv overrides the grammar cache root.
const CacheDirEnv = "UNCOMMENT_CACHE_DIR"

var (
	// ErrUnavailable means no backend could produce a parser.
	ErrUnavailable = errors.New("grammar unavailable")
	// ErrIncompatible means a compiled grammar's ABI does not match the
	// linked tree-sitter runtime.
	ErrIncompatible = errors.New("grammar ABI incompatible")
	// ErrNetwork means a remote grammar could not be fetched.
	ErrNetwork = errors.New("network unavailable")
	// ErrCompile means the C toolchain failed on the grammar sources.
	ErrCompile = errors.New("grammar compile failed")
)

// Handle is an opaque reference to a loaded grammar. It is immutable and
// shared across workers; parsers derived from it are not.
type Handle struct {
	Name string
	lang *sitter.Language
}

// NewParser returns a parser bound to this grammar. Each worker obtains
// its own; parsers are not safe for concurrent use.
func (h *Handle) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(h.lang)
	return p
}

// Language exposes the underlying grammar for tree inspection helpers.
func (h *Handle) Language() *sitter.Language { return h.lang }

type loadResult struct {
	handle *Handle
	err    error
}

// Loader materializes grammars on demand and caches both the compiled
// artifacts (on disk, per user) and the loaded handles (in process).
// First-touch materialization of one key is serialized; distinct keys
// proceed in parallel.
type Loader struct {
	cacheDir string
	log      *zap.Logger

	mu      sync.Mutex
	keyMu   map[string]*sync.Mutex
	results map[string]*loadResult
}

// NewLoader builds a loader rooted at the per-user cache directory.
func NewLoader(log *zap.Logger) (*Loader, error) {
	dir, err := cacheRoot()
	if err != nil {
		return nil, err
	}
	return &Loader{
		cacheDir: dir,
		log:      log,
		keyMu:    make(map[string]*sync.Mutex),
		results:  make(map[string]*loadResult),
	}, nil
}

func cacheRoot() (string, error) {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: no cache directory: %v", ErrUnavailable, err)
	}
	return filepath.Join(base, "uncomment"), nil
}

// Load resolves a descriptor to a handle. Results, including failures,
// are memoized for the life of the process: one broken grammar disables
// its language for the rest of the run.
func (l *Loader) Load(d *language.Descriptor) (*Handle, error) {
	l.mu.Lock()
	if r, ok := l.results[d.Name]; ok {
		l.mu.Unlock()
		return r.handle, r.err
	}
	km, ok := l.keyMu[d.Name]
	if !ok {
		km = &sync.Mutex{}
		l.keyMu[d.Name] = km
	}
	l.mu.Unlock()

	km.Lock()
	defer km.Unlock()

	l.mu.Lock()
	if r, ok := l.results[d.Name]; ok {
		l.mu.Unlock()
		return r.handle, r.err
	}
	l.mu.Unlock()

	h, err := l.materialize(d)
	l.mu.Lock()
	l.results[d.Name] = &loadResult{handle: h, err: err}
	l.mu.Unlock()
	return h, err
}

func (l *Loader) materialize(d *language.Descriptor) (*Handle, error) {
	switch d.Grammar.Type {
	case language.GrammarStatic:
		lang := staticLanguage(d.Name)
		if lang == nil {
			return nil, fmt.Errorf("%w: no static grammar for %q", ErrUnavailable, d.Name)
		}
		return &Handle{Name: d.Name, lang: lang}, nil
	case language.GrammarGit:
		return l.loadGit(d)
	case language.GrammarLocal:
		return l.loadLocal(d)
	case language.GrammarLibrary:
		return l.openLibrary(d.Name, d.Grammar.Path)
	default:
		return nil, fmt.Errorf("%w: unknown grammar source for %q", ErrUnavailable, d.Name)
	}
}
