package language

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// builtins returns the descriptor table for every statically linked
// grammar. Node kind names follow each grammar's node-types.json.
func builtins() []*Descriptor {
	return []*Descriptor{
		{
			Name:         "go",
			DisplayName:  "Go",
			Extensions:   []string{".go"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "python",
			DisplayName:  "Python",
			Extensions:   []string{".py", ".pyi", ".pyw"},
			CommentKinds: []string{"comment"},
			DocPredicate: pythonDocstring,
			Script:       true,
		},
		{
			Name:         "rust",
			DisplayName:  "Rust",
			Extensions:   []string{".rs"},
			CommentKinds: []string{"line_comment", "block_comment"},
			DocPrefixes:  []string{"///", "//!", "/**", "/*!"},
		},
		{
			Name:         "javascript",
			DisplayName:  "JavaScript",
			Extensions:   []string{".js", ".mjs", ".cjs", ".jsx"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**"},
			Script:       true,
		},
		{
			Name:         "typescript",
			DisplayName:  "TypeScript",
			Extensions:   []string{".ts", ".mts", ".cts"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**"},
		},
		{
			Name:         "tsx",
			DisplayName:  "TSX",
			Extensions:   []string{".tsx"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**"},
		},
		{
			Name:         "java",
			DisplayName:  "Java",
			Extensions:   []string{".java"},
			CommentKinds: []string{"line_comment", "block_comment"},
			DocPrefixes:  []string{"/**"},
		},
		{
			Name:         "c",
			DisplayName:  "C",
			Extensions:   []string{".c", ".h"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**", "/*!"},
		},
		{
			Name:         "cpp",
			DisplayName:  "C++",
			Extensions:   []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**", "/*!", "///"},
		},
		{
			Name:         "csharp",
			DisplayName:  "C#",
			Extensions:   []string{".cs"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"///", "/**"},
		},
		{
			Name:         "ruby",
			DisplayName:  "Ruby",
			Extensions:   []string{".rb", ".rake", ".gemspec"},
			Basenames:    []string{"Rakefile", "Gemfile"},
			CommentKinds: []string{"comment"},
			Script:       true,
		},
		{
			Name:         "bash",
			DisplayName:  "Shell",
			Extensions:   []string{".sh", ".bash", ".zsh"},
			CommentKinds: []string{"comment"},
			Script:       true,
		},
		{
			Name:         "css",
			DisplayName:  "CSS",
			Extensions:   []string{".css"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "html",
			DisplayName:  "HTML",
			Extensions:   []string{".html", ".htm"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "php",
			DisplayName:  "PHP",
			Extensions:   []string{".php"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"/**"},
			Script:       true,
		},
		{
			Name:         "kotlin",
			DisplayName:  "Kotlin",
			Extensions:   []string{".kt", ".kts"},
			CommentKinds: []string{"comment", "line_comment", "multiline_comment"},
			DocPrefixes:  []string{"/**"},
		},
		{
			Name:         "sql",
			DisplayName:  "SQL",
			Extensions:   []string{".sql"},
			CommentKinds: []string{"comment", "marginalia"},
		},
		{
			Name:         "lua",
			DisplayName:  "Lua",
			Extensions:   []string{".lua"},
			CommentKinds: []string{"comment"},
			DocPrefixes:  []string{"---"},
			Script:       true,
		},
		{
			Name:         "hcl",
			DisplayName:  "HCL",
			Extensions:   []string{".hcl", ".tf", ".tfvars"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "toml",
			DisplayName:  "TOML",
			Extensions:   []string{".toml"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "yaml",
			DisplayName:  "YAML",
			Extensions:   []string{".yaml", ".yml"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "dockerfile",
			DisplayName:  "Dockerfile",
			Extensions:   []string{".dockerfile"},
			Basenames:    []string{"Dockerfile", "Containerfile"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "elixir",
			DisplayName:  "Elixir",
			Extensions:   []string{".ex", ".exs"},
			CommentKinds: []string{"comment"},
			Script:       true,
		},
		{
			Name:         "scala",
			DisplayName:  "Scala",
			Extensions:   []string{".scala", ".sbt"},
			CommentKinds: []string{"comment", "block_comment"},
			DocPrefixes:  []string{"/**"},
		},
		{
			Name:         "swift",
			DisplayName:  "Swift",
			Extensions:   []string{".swift"},
			CommentKinds: []string{"comment", "multiline_comment"},
			DocPrefixes:  []string{"///", "/**"},
		},
		{
			Name:         "protobuf",
			DisplayName:  "Protocol Buffers",
			Extensions:   []string{".proto"},
			CommentKinds: []string{"comment"},
		},
		{
			Name:         "svelte",
			DisplayName:  "Svelte",
			Extensions:   []string{".svelte"},
			CommentKinds: []string{"comment"},
		},
	}
}

// pythonDocstring matches a free-standing string expression that is the
// first significant statement of a module, class, or function body.
func pythonDocstring(n *sitter.Node, src []byte) bool {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return false
	}
	if n.NamedChild(0).Type() != "string" {
		return false
	}
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "module":
		return sameSpan(parent.NamedChild(0), n)
	case "block":
		gp := parent.Parent()
		if gp == nil {
			return false
		}
		switch gp.Type() {
		case "function_definition", "class_definition":
			return sameSpan(parent.NamedChild(0), n)
		}
	}
	return false
}

// sameSpan compares nodes by byte span; tree-sitter hands out distinct
// *Node values for the same underlying node.
func sameSpan(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}
