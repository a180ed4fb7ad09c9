package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/dockerfile"
	"github.com/smacker/go-tree-sitter/elixir"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/protobuf"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/svelte"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// staticLanguage resolves the statically linked grammar for a built-in
// language name; zero I/O.
func staticLanguage(name string) *sitter.Language {
	switch name {
	case "bash":
		return bash.GetLanguage()
	case "c":
		return c.GetLanguage()
	case "cpp":
		return cpp.GetLanguage()
	case "csharp":
		return csharp.GetLanguage()
	case "css":
		return css.GetLanguage()
	case "dockerfile":
		return dockerfile.GetLanguage()
	case "elixir":
		return elixir.GetLanguage()
	case "go":
		return golang.GetLanguage()
	case "hcl":
		return hcl.GetLanguage()
	case "html":
		return html.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "kotlin":
		return kotlin.GetLanguage()
	case "lua":
		return lua.GetLanguage()
	case "php":
		return php.GetLanguage()
	case "protobuf":
		return protobuf.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "ruby":
		return ruby.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	case "scala":
		return scala.GetLanguage()
	case "sql":
		return sql.GetLanguage()
	case "svelte":
		return svelte.GetLanguage()
	case "swift":
		return swift.GetLanguage()
	case "toml":
		return toml.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "yaml":
		return yaml.GetLanguage()
	}
	return nil
}
