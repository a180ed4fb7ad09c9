// Package initgen scaffolds a project configuration by scanning the
// tree for language signatures.
package initgen

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/Goldziher/uncomment/internal/language"
)

// skipDirs are never descended during the scan.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
}

// Tally is the per-language file count observed under a root.
type Tally struct {
	Language string
	Files    int
}

// Scan walks root and counts files per registered language. Hidden
// directories beyond the well-known build outputs are still scanned;
// unknown files are ignored.
func Scan(root string, reg *language.Registry) ([]Tally, error) {
	counts := map[string]int{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if desc := reg.LookupByPath(path); desc != nil {
			counts[desc.Name]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tallies := make([]Tally, 0, len(counts))
	for lang, n := range counts {
		tallies = append(tallies, Tally{Language: lang, Files: n})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Files != tallies[j].Files {
			return tallies[i].Files > tallies[j].Files
		}
		return tallies[i].Language < tallies[j].Language
	})
	return tallies, nil
}
