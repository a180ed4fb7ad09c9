package grammar

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

static void *grammar_dlopen(const char *path) { return dlopen(path, RTLD_NOW | RTLD_LOCAL); }
static void *grammar_dlsym(void *h, const char *name) { return dlsym(h, name); }
static const char *grammar_dlerror(void) { return dlerror(); }

typedef const void *(*grammar_lang_fn)(void);
static const void *grammar_call(void *sym) { return ((grammar_lang_fn)sym)(); }

// Provided by the tree-sitter runtime compiled into the binary via
// github.com/smacker/go-tree-sitter.
extern uint32_t ts_language_version(const void *);
static uint32_t grammar_abi(const void *lang) { return ts_language_version(lang); }
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	sitter "github.com/smacker/go-tree-sitter"
)

// ABI versions the linked tree-sitter runtime can load.
const (
	minCompatibleABI = 13
	maxCompatibleABI = 14
)

// symbolName derives the exported grammar symbol from a language name by
// convention: tree_sitter_<name> with dashes folded to underscores.
func symbolName(lang string) string {
	return "tree_sitter_" + strings.ReplaceAll(lang, "-", "_")
}

// openObject loads a compiled grammar object and wraps it in a handle.
// Objects stay mapped for the life of the process; handles are released
// on exit, never individually.
func (l *Loader) openObject(name, object string) (*Handle, error) {
	ptr, abi, err := dlopenLanguage(object, symbolName(name))
	if err != nil {
		return nil, err
	}
	if abi < minCompatibleABI || abi > maxCompatibleABI {
		return nil, fmt.Errorf("%w: %s has ABI %d, loader supports %d-%d",
			ErrIncompatible, object, abi, minCompatibleABI, maxCompatibleABI)
	}
	return &Handle{Name: name, lang: sitter.NewLanguage(ptr)}, nil
}

// openLibrary serves the library backend: a user-supplied pre-built
// shared object.
func (l *Loader) openLibrary(name, path string) (*Handle, error) {
	return l.openObject(name, path)
}

// objectABI reports the ABI tag of a freshly compiled object for the
// cache index.
func objectABI(object, symbol string) (uint32, error) {
	_, abi, err := dlopenLanguage(object, symbol)
	return abi, err
}

func dlopenLanguage(path, symbol string) (unsafe.Pointer, uint32, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	h := C.grammar_dlopen(cPath)
	if h == nil {
		return nil, 0, fmt.Errorf("%w: dlopen %s: %s", ErrUnavailable, path, dlerror())
	}
	cSym := C.CString(symbol)
	defer C.free(unsafe.Pointer(cSym))

	sym := C.grammar_dlsym(h, cSym)
	if sym == nil {
		return nil, 0, fmt.Errorf("%w: %s: no symbol %s: %s", ErrUnavailable, path, symbol, dlerror())
	}
	lang := C.grammar_call(sym)
	if lang == nil {
		return nil, 0, fmt.Errorf("%w: %s: %s returned nil", ErrUnavailable, path, symbol)
	}
	abi := uint32(C.grammar_abi(lang))
	return unsafe.Pointer(lang), abi, nil
}

func dlerror() string {
	if msg := C.grammar_dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return "unknown error"
}
