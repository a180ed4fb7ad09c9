// Package driver discovers candidate files, fans them out to a worker
// pool, and wires the registry, grammar loader, config resolver,
// planner, and rewriter into the per-file pipeline.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/grammar"
	"github.com/Goldziher/uncomment/internal/language"
	"github.com/Goldziher/uncomment/internal/planner"
	"github.com/Goldziher/uncomment/internal/rewrite"
)

// Mode selects what Run does with a changed file.
type Mode int

const (
	// ModeWrite rewrites changed files in place.
	ModeWrite Mode = iota
	// ModeDryRun reports what would change without writing.
	ModeDryRun
	// ModeDiff reports changes as per-file unified diffs.
	ModeDiff
)

// Options configures one run.
type Options struct {
	Paths      []string
	Mode       Mode
	Threads    int
	Verbose    bool
	ConfigPath string // bypasses discovery when set
	CLI        config.Overrides
}

// Report aggregates the outcome of a run.
type Report struct {
	mu sync.Mutex

	Scanned int
	Changed int
	Skipped int
	Errored int

	skippedExamples []string
	errorExamples   []string
	grammarFailed   map[string][]string
	advisories      []string
}

// maxExamples bounds the paths echoed on grammar-failure summary lines,
// and on the error line outside verbose.
const maxExamples = 3

func (r *Report) addScanned() {
	r.mu.Lock()
	r.Scanned++
	r.mu.Unlock()
}

func (r *Report) addChanged() {
	r.mu.Lock()
	r.Changed++
	r.mu.Unlock()
}

func (r *Report) addSkipped(path string) {
	r.mu.Lock()
	r.Skipped++
	r.skippedExamples = append(r.skippedExamples, path)
	r.mu.Unlock()
}

func (r *Report) addError(path, kind string) {
	r.mu.Lock()
	r.Errored++
	r.errorExamples = append(r.errorExamples, fmt.Sprintf("%s (%s)", path, kind))
	r.mu.Unlock()
}

func (r *Report) addGrammarFailure(lang, path string) {
	r.mu.Lock()
	if r.grammarFailed == nil {
		r.grammarFailed = map[string][]string{}
	}
	r.grammarFailed[lang] = append(r.grammarFailed[lang], path)
	r.mu.Unlock()
}

func (r *Report) addAdvisory(msg string) {
	r.mu.Lock()
	r.advisories = append(r.advisories, msg)
	r.mu.Unlock()
}

// ExitCode maps the report onto the process exit status: 2 on errors,
// 1 when anything changed (or would change), 0 otherwise.
func (r *Report) ExitCode() int {
	switch {
	case r.Errored > 0:
		return 2
	case r.Changed > 0:
		return 1
	default:
		return 0
	}
}

type run struct {
	opts   Options
	log    *zap.Logger
	report *Report

	reg    *language.Registry
	loader *grammar.Loader

	user     *config.File
	explicit *config.File

	// langDocOverride carries per-language remove_docs settings from
	// config language sections; it sits between the config chain and
	// the command line in precedence.
	langDocOverride map[string]bool

	respectIgnores bool
	traverseNested bool

	cfgCache sync.Map // dir -> []*config.File

	outMu sync.Mutex
	out   *printer
}

// Run executes the full pipeline and returns the aggregated report.
// Configuration errors abort before any file is touched.
func Run(ctx context.Context, opts Options, log *zap.Logger, stdout io.Writer) (*Report, error) {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}

	r := &run{
		opts:            opts,
		log:             log,
		report:          &Report{},
		out:             &printer{w: stdout},
		langDocOverride: map[string]bool{},
	}

	if err := r.loadConfigs(); err != nil {
		return nil, err
	}
	r.buildRegistry()

	loader, err := grammar.NewLoader(log)
	if err != nil {
		return nil, err
	}
	r.loader = loader

	// Traversal-wide settings come from the rule set at the working
	// directory.
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	base := config.Resolve(cwd, r.user, r.chainFor(cwd), opts.CLI)
	r.respectIgnores = base.RespectIgnoreFiles
	r.traverseNested = base.TraverseNestedRepos

	paths := make(chan string, 2*opts.Threads)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.expand(gctx, paths) })
	for i := 0; i < opts.Threads; i++ {
		g.Go(func() error { return r.worker(gctx, paths) })
	}
	err = g.Wait()

	r.printSummary()
	if err != nil && err != context.Canceled {
		return r.report, err
	}
	return r.report, nil
}

func (r *run) loadConfigs() error {
	if r.opts.ConfigPath != "" {
		f, err := config.Load(r.opts.ConfigPath)
		if err != nil {
			return err
		}
		r.explicit = f
		return nil
	}
	user, err := config.LoadUser()
	if err != nil {
		return err
	}
	r.user = user
	if cwd, err := os.Getwd(); err == nil {
		chain, err := config.Discover(cwd)
		if err != nil {
			return err
		}
		r.cfgCache.Store(cwd, chain)
	}
	return nil
}

// buildRegistry merges language sections from the user and project
// configuration into the built-in table. The registry is immutable once
// workers start.
func (r *run) buildRegistry() {
	r.reg = language.NewRegistry()

	docs := []*config.File{}
	if r.user != nil {
		docs = append(docs, r.user)
	}
	if r.explicit != nil {
		docs = append(docs, r.explicit)
	} else if cwd, err := os.Getwd(); err == nil {
		docs = append(docs, r.chainFor(cwd)...)
	}

	for _, f := range docs {
		for key, lc := range f.Languages {
			d := r.descriptorFrom(key, lc)
			for _, c := range r.reg.Register(d) {
				r.log.Warn("extension remapped",
					zap.String("key", c.Key),
					zap.String("from", c.Previous),
					zap.String("to", c.Winner))
			}
			if lc.RemoveDocs != nil {
				r.langDocOverride[d.Name] = *lc.RemoveDocs
			}
		}
	}
}

// descriptorFrom turns a config language section into a descriptor,
// layering over the built-in of the same name when one exists.
func (r *run) descriptorFrom(key string, lc config.LanguageConfig) *language.Descriptor {
	name := lc.Name
	if name == "" {
		name = key
	}
	d := &language.Descriptor{Name: name, DisplayName: name}
	if builtin := r.reg.LookupByName(name); builtin != nil {
		dup := *builtin
		d = &dup
	}
	if len(lc.Extensions) > 0 {
		d.Extensions = nil
		for _, ext := range lc.Extensions {
			if ext != "" && ext[0] != '.' {
				ext = "." + ext
			}
			d.Extensions = append(d.Extensions, ext)
		}
	}
	if len(lc.CommentNodes) > 0 {
		d.CommentKinds = lc.CommentNodes
	}
	if len(lc.DocCommentNodes) > 0 {
		d.DocCommentKinds = lc.DocCommentNodes
	}
	if len(lc.PreservePatterns) > 0 {
		d.PreservePatterns = append(d.PreservePatterns, lc.PreservePatterns...)
	}
	if lc.Grammar != nil {
		switch lc.Grammar.Type {
		case "git":
			d.Grammar = language.GrammarSource{
				Type:     language.GrammarGit,
				URL:      lc.Grammar.URL,
				Revision: lc.Grammar.Branch,
				Subpath:  lc.Grammar.Path,
			}
		case "local":
			d.Grammar = language.GrammarSource{Type: language.GrammarLocal, Path: lc.Grammar.Path}
		case "library":
			d.Grammar = language.GrammarSource{Type: language.GrammarLibrary, Path: lc.Grammar.Path}
		}
	}
	return d
}

// chainFor returns the project configuration chain for a directory,
// cached per directory. With --config the chain is just that document.
func (r *run) chainFor(dir string) []*config.File {
	if r.explicit != nil {
		return []*config.File{r.explicit}
	}
	if v, ok := r.cfgCache.Load(dir); ok {
		return v.([]*config.File)
	}
	chain, err := config.Discover(dir)
	if err != nil {
		// Invalid project config is fatal at startup; past that point a
		// broken document found mid-walk degrades to defaults.
		r.log.Warn("config discovery failed", zap.String("dir", dir), zap.Error(err))
		chain = nil
	}
	r.cfgCache.Store(dir, chain)
	return chain
}

// worker drains the path queue, owning one parser per language it
// touches.
func (r *run) worker(ctx context.Context, paths <-chan string) error {
	parsers := map[string]*sitter.Parser{}
	defer func() {
		for _, p := range parsers {
			p.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-paths:
			if !ok {
				return nil
			}
			r.processFile(ctx, path, parsers)
		}
	}
}

func (r *run) processFile(ctx context.Context, path string, parsers map[string]*sitter.Parser) {
	// Dry runs abort between files on cancellation; writes in flight
	// always complete.
	if r.opts.Mode != ModeWrite && ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.report.addError(path, "unreadable path")
		return
	}

	desc := r.reg.LookupByPath(path)
	if desc == nil {
		r.report.addSkipped(path)
		return
	}

	rs := config.Resolve(path, r.user, r.chainFor(dirOf(path)), r.opts.CLI)
	if v, ok := r.langDocOverride[desc.Name]; ok && !r.opts.CLI.RemoveDocs {
		rs.RemoveDocs = v
	}
	rs.AddLanguagePatterns(desc.Name, desc.PreservePatterns)

	handle, err := r.loader.Load(desc)
	if err != nil {
		r.report.addGrammarFailure(desc.Name, path)
		return
	}

	parser, ok := parsers[desc.Name]
	if !ok {
		parser = handle.NewParser()
		parsers[desc.Name] = parser
	}

	parseCtx := ctx
	if r.opts.Mode == ModeWrite {
		parseCtx = context.Background()
	}
	tree, err := parser.ParseCtx(parseCtx, nil, data)
	if err != nil || tree == nil {
		r.report.addSkipped(path)
		r.log.Warn("parse failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		// Malformed input passes through unchanged.
		r.report.addSkipped(path)
		r.log.Warn("syntax errors, passing through unchanged", zap.String("path", path))
		return
	}

	res, err := planner.Plan(root, data, desc, rs)
	if err != nil {
		r.report.addError(path, "plan failed")
		r.log.Error("edit plan rejected", zap.String("path", path), zap.Error(err))
		return
	}
	for _, w := range res.Warnings {
		r.report.addAdvisory(fmt.Sprintf("%s:%d: removed %s comment: %s", path, w.Row, w.Signal, w.Text))
	}

	out, changed := rewrite.Apply(data, res.Edits)
	r.report.addScanned()
	if !changed {
		return
	}
	r.report.addChanged()

	switch r.opts.Mode {
	case ModeWrite:
		mode := os.FileMode(0o644)
		if fi, statErr := os.Stat(path); statErr == nil {
			mode = fi.Mode()
		}
		if err := os.WriteFile(path, out, mode); err != nil {
			r.report.addError(path, "write failed")
			return
		}
		if r.opts.Verbose {
			r.print("changed: %s\n", path)
		}
	case ModeDryRun:
		r.print("would change: %s\n", path)
	case ModeDiff:
		r.print("%s", renderUnified(path, data, out))
	}
}

func (r *run) print(format string, args ...any) {
	r.outMu.Lock()
	r.out.Printf(format, args...)
	r.outMu.Unlock()
}

// printSummary emits the final counts after all workers drain; it is
// always the last output.
func (r *run) printSummary() {
	rep := r.report
	r.outMu.Lock()
	defer r.outMu.Unlock()

	verb := "changed"
	if r.opts.Mode != ModeWrite {
		verb = "would change"
	}
	r.out.Printf("%d files scanned, %d %s, %d skipped, %d errors\n",
		rep.Scanned, rep.Changed, verb, rep.Skipped, rep.Errored)

	var langs []string
	for lang := range rep.grammarFailed {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		paths := rep.grammarFailed[lang]
		r.out.Printf("grammar unavailable for %s: %d files skipped (e.g. %s)\n",
			lang, len(paths), joinExamples(paths, maxExamples))
	}

	if r.opts.Verbose {
		if len(rep.skippedExamples) > 0 {
			r.out.Printf("skipped (no language or unparsable): %s\n", joinExamples(rep.skippedExamples, len(rep.skippedExamples)))
		}
		for _, a := range rep.advisories {
			r.out.Printf("warning: %s\n", a)
		}
		for _, e := range rep.errorExamples {
			r.out.Printf("error: %s\n", e)
		}
	} else if len(rep.errorExamples) > 0 {
		r.out.Printf("errors: %s\n", joinExamples(rep.errorExamples, maxExamples))
	}
}

func joinExamples(paths []string, n int) string {
	if len(paths) < n {
		n = len(paths)
	}
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += paths[i]
	}
	return out
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
