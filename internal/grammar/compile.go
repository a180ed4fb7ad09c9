package grammar

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Goldziher/uncomment/internal/language"
)

// loadGit clones the grammar repository on first request, pins the
// resolved commit, and compiles the grammar into the shared cache.
func (l *Loader) loadGit(d *language.Descriptor) (*Handle, error) {
	src := d.Grammar
	repo := filepath.Join(l.repoDir(), shortHash(src.URL))

	if _, err := os.Stat(filepath.Join(repo, ".git")); err != nil {
		if err := os.MkdirAll(l.repoDir(), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if out, err := git("clone", src.URL, repo); err != nil {
			return nil, fmt.Errorf("%w: clone %s: %v: %s", ErrNetwork, src.URL, err, out)
		}
	}
	if src.Revision != "" {
		if out, err := git("-C", repo, "checkout", "--quiet", src.Revision); err != nil {
			// The revision may postdate the cached clone.
			if out2, err2 := git("-C", repo, "fetch", "--quiet", "origin"); err2 != nil {
				return nil, fmt.Errorf("%w: fetch %s: %v: %s", ErrNetwork, src.URL, err2, out2)
			}
			if out, err = git("-C", repo, "checkout", "--quiet", src.Revision); err != nil {
				return nil, fmt.Errorf("%w: revision %q: %v: %s", ErrUnavailable, src.Revision, err, out)
			}
		}
	}
	commit, err := git("-C", repo, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("%w: rev-parse: %v", ErrUnavailable, err)
	}
	commit = strings.TrimSpace(commit)

	root := repo
	if src.Subpath != "" {
		root = filepath.Join(repo, filepath.FromSlash(src.Subpath))
	}

	key := "git-" + shortHash(src.URL) + "-" + commit[:12]
	object, err := l.ensureObject(key, root, symbolName(d.Name), indexEntry{
		Key:      key,
		URL:      src.URL,
		Revision: src.Revision,
		Commit:   commit,
	})
	if err != nil {
		return nil, err
	}
	return l.openObject(d.Name, object)
}

// loadLocal compiles a grammar from a local path, keyed by a content
// hash of its sources.
func (l *Loader) loadLocal(d *language.Descriptor) (*Handle, error) {
	root := d.Grammar.Path
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: grammar path %q", ErrUnavailable, root)
	}
	hash, err := hashDirSources(root)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing %q: %v", ErrUnavailable, root, err)
	}
	key := "local-" + shortHash(root) + "-" + hash[:12]
	object, err := l.ensureObject(key, root, symbolName(d.Name), indexEntry{
		Key:        key,
		SourceHash: hash,
	})
	if err != nil {
		return nil, err
	}
	return l.openObject(d.Name, object)
}

// compileObject invokes the C toolchain on a grammar checkout. Grammar
// repositories keep generated sources under src/.
func compileObject(root, out string) error {
	srcDir := root
	if fi, err := os.Stat(filepath.Join(root, "src")); err == nil && fi.IsDir() {
		srcDir = filepath.Join(root, "src")
	}

	var sources []string
	needCXX := false
	for _, name := range []string{"parser.c", "scanner.c", "scanner.cc"} {
		path := filepath.Join(srcDir, name)
		if _, err := os.Stat(path); err == nil {
			sources = append(sources, path)
			if strings.HasSuffix(name, ".cc") {
				needCXX = true
			}
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: no parser.c under %s", ErrCompile, srcDir)
	}

	compiler := "cc"
	if needCXX {
		compiler = "c++"
	}
	args := []string{"-shared", "-fPIC", "-O2", "-I", srcDir, "-o", out}
	args = append(args, sources...)

	cmd := exec.Command(compiler, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s %s: %v\n%s", ErrCompile, compiler, strings.Join(args, " "), err, b)
	}
	return nil
}

func git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
