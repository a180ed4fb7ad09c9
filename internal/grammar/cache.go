package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// indexEntry maps one cache key to its compiled shared object and the
// loader ABI it was built against.
type indexEntry struct {
	Key        string `json:"key"`
	Object     string `json:"object"`
	ABI        uint32 `json:"abi"`
	URL        string `json:"url,omitempty"`
	Revision   string `json:"revision,omitempty"`
	Commit     string `json:"commit,omitempty"`
	SourceHash string `json:"source_hash,omitempty"`
}

type cacheIndex struct {
	Entries map[string]indexEntry `json:"entries"`
}

func (l *Loader) indexPath() string { return filepath.Join(l.cacheDir, "index.json") }
func (l *Loader) libDir() string    { return filepath.Join(l.cacheDir, "lib") }
func (l *Loader) repoDir() string   { return filepath.Join(l.cacheDir, "repos") }

func (l *Loader) readIndex() cacheIndex {
	idx := cacheIndex{Entries: map[string]indexEntry{}}
	data, err := os.ReadFile(l.indexPath())
	if err != nil {
		return idx
	}
	if err := json.Unmarshal(data, &idx); err != nil || idx.Entries == nil {
		// A corrupt index is equivalent to an empty cache.
		return cacheIndex{Entries: map[string]indexEntry{}}
	}
	return idx
}

func (l *Loader) writeIndexEntry(e indexEntry) error {
	idx := l.readIndex()
	idx.Entries[e.Key] = e
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return err
	}
	tmp := l.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, l.indexPath())
}

// ensureObject returns the shared-object path for a key, compiling from
// srcRoot on a cache miss. Cross-process races are settled with a file
// lock and a double check, quick check before the lock and a safe one
// after it.
func (l *Loader) ensureObject(key, srcRoot, symbol string, meta indexEntry) (string, error) {
	object := filepath.Join(l.libDir(), key+".so")

	check := func() (string, bool) {
		idx := l.readIndex()
		e, ok := idx.Entries[key]
		if !ok {
			return "", false
		}
		if e.ABI < minCompatibleABI || e.ABI > maxCompatibleABI {
			return "", false
		}
		if _, err := os.Stat(e.Object); err != nil {
			return "", false
		}
		return e.Object, true
	}

	if obj, ok := check(); ok {
		return obj, nil
	}

	if err := os.MkdirAll(l.libDir(), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	lock := flock.New(object + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer lock.Unlock()

	if obj, ok := check(); ok {
		return obj, nil
	}

	l.log.Info("compiling grammar",
		zap.String("key", key),
		zap.String("source", srcRoot))
	if err := compileObject(srcRoot, object); err != nil {
		return "", err
	}

	abi, err := objectABI(object, symbol)
	if err != nil {
		return "", err
	}
	meta.Object = object
	meta.ABI = abi
	if err := l.writeIndexEntry(meta); err != nil {
		return "", fmt.Errorf("%w: recording cache entry: %v", ErrUnavailable, err)
	}
	return object, nil
}

// hashDirSources fingerprints the grammar sources under dir so local
// grammars are recompiled when they change.
func hashDirSources(dir string) (string, error) {
	h := sha256.New()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".c", ".cc", ".h", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			return "", err
		}
		io.WriteString(h, f)
		io.Copy(h, fh)
		fh.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
