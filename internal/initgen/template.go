package initgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/language"
)

// Options controls scaffold generation.
type Options struct {
	Root          string
	Output        string // defaults to <root>/uncomment.yaml
	Comprehensive bool   // cover every registered language, not just observed ones
	Interactive   bool
	Force         bool // overwrite an existing file
}

// Generate scans the project and writes a scaffold configuration. It
// never mutates source files.
func Generate(opts Options, reg *language.Registry, stdout io.Writer, stdin io.Reader) error {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Output == "" {
		opts.Output = fmt.Sprintf("%s/%s", opts.Root, config.FileName)
	}

	if opts.Interactive {
		if err := prompt(&opts, stdout, stdin); err != nil {
			return err
		}
	}

	if _, err := os.Stat(opts.Output); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", opts.Output)
	}

	var langs []string
	if opts.Comprehensive {
		for _, d := range reg.All() {
			langs = append(langs, d.Name)
		}
	} else {
		tallies, err := Scan(opts.Root, reg)
		if err != nil {
			return err
		}
		for _, t := range tallies {
			langs = append(langs, t.Language)
		}
		sort.Strings(langs)
	}

	doc := render(langs, reg)
	if err := os.WriteFile(opts.Output, []byte(doc), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d languages)\n", opts.Output, len(langs))
	return nil
}

// render emits the scaffold yaml by hand so each section carries its
// explanatory comment, which a marshaler would drop.
func render(langs []string, reg *language.Registry) string {
	var b strings.Builder
	b.WriteString("# uncomment configuration\n")
	b.WriteString("# Defaults shown; uncomment a line to change it.\n\n")
	b.WriteString("# remove_todos: false\n")
	b.WriteString("# remove_fixme: false\n")
	b.WriteString("# remove_docs: false\n")
	b.WriteString("# use_default_ignores: true\n")
	b.WriteString("# respect_gitignore: true\n")
	b.WriteString("# traverse_git_repos: false\n\n")
	b.WriteString("preserve_patterns: []\n")

	if len(langs) > 0 {
		b.WriteString("\nlanguages:\n")
		for _, name := range langs {
			d := reg.LookupByName(name)
			if d == nil {
				continue
			}
			fmt.Fprintf(&b, "  %s:\n", name)
			fmt.Fprintf(&b, "    extensions: [%s]\n", joinQuoted(d.Extensions))
			fmt.Fprintf(&b, "    comment_nodes: [%s]\n", joinQuoted(d.CommentKinds))
			if len(d.DocCommentKinds) > 0 {
				fmt.Fprintf(&b, "    doc_comment_nodes: [%s]\n", joinQuoted(d.DocCommentKinds))
			}
		}
	}

	b.WriteString("\n# Example pattern-scoped override:\n")
	b.WriteString("# patterns:\n")
	b.WriteString("#   \"tests/**\":\n")
	b.WriteString("#     remove_todos: true\n")
	return b.String()
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

// prompt walks the interactive choices on a plain line reader.
func prompt(opts *Options, stdout io.Writer, stdin io.Reader) error {
	reader := bufio.NewReader(stdin)
	ask := func(q, def string) string {
		fmt.Fprintf(stdout, "%s [%s]: ", q, def)
		line, err := reader.ReadString('\n')
		if err != nil {
			return def
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return def
		}
		return line
	}

	if strings.EqualFold(ask("Cover every supported language (comprehensive)?", "no"), "yes") {
		opts.Comprehensive = true
	}
	opts.Output = ask("Output path", opts.Output)
	if _, err := os.Stat(opts.Output); err == nil && !opts.Force {
		if strings.EqualFold(ask("File exists, overwrite?", "no"), "yes") {
			opts.Force = true
		}
	}
	return nil
}
