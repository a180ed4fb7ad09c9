package rules

import "regexp"

// directivePatterns are the built-in per-language markers preserved when
// use_default_ignores is on. Patterns run against the comment text with
// the comment leader still attached.
var directivePatterns = map[string][]*regexp.Regexp{
	"go": {
		regexp.MustCompile(`^//go:`),                // build tags, generate, embed, linkname
		regexp.MustCompile(`^//\s*\+build\b`),       // legacy build tags
		regexp.MustCompile(`^//nolint\b`),           // golangci-lint
		regexp.MustCompile(`^//lint:`),              // staticcheck
		regexp.MustCompile(`^//export\s`),           // cgo exports
		regexp.MustCompile(`^//line \S`),            // line directives
		regexp.MustCompile(`^//sys\b`),              // x/sys mksyscall
		regexp.MustCompile(`^/\*line \S`),           // block line directives
	},
	"python": {
		regexp.MustCompile(`#\s*type:`),    // type comments (PEP 484)
		regexp.MustCompile(`#\s*noqa\b`),   // flake8
		regexp.MustCompile(`#\s*pylint:`),  // pylint
		regexp.MustCompile(`#\s*mypy:`),    // mypy
		regexp.MustCompile(`#\s*ruff:`),    // ruff
		regexp.MustCompile(`#\s*fmt:\s*(on|off|skip)`),
		regexp.MustCompile(`#\s*isort:`),
		regexp.MustCompile(`#\s*pragma:`),  // coverage.py
		regexp.MustCompile(`#\s*nosec\b`),  // bandit
		regexp.MustCompile(`#\s*pyright:`), // pyright
	},
	"rust": {
		regexp.MustCompile(`^//\s*rustfmt::`),
		regexp.MustCompile(`^//\s*clippy::`),
		regexp.MustCompile(`^//\s*SAFETY:`),
	},
	"javascript": jsDirectives,
	"typescript": jsDirectives,
	"tsx":        jsDirectives,
	"java": {
		regexp.MustCompile(`\bCHECKSTYLE[:.]`),
		regexp.MustCompile(`\bNOPMD\b`),
		regexp.MustCompile(`^//\s*@formatter:(on|off)`),
		regexp.MustCompile(`\$NON-NLS-\d+\$`),
	},
	"c":   cDirectives,
	"cpp": cDirectives,
	"csharp": {
		regexp.MustCompile(`^//\s*#pragma\b`),
		regexp.MustCompile(`\bReSharper (disable|restore)\b`),
		regexp.MustCompile(`^//\s*<auto-generated`),
	},
	"ruby": {
		regexp.MustCompile(`#\s*rubocop:(disable|enable|todo)`),
		regexp.MustCompile(`#\s*frozen_string_literal:`),
		regexp.MustCompile(`#\s*encoding:`),
		regexp.MustCompile(`#\s*sorbet:`),
		regexp.MustCompile(`#\s*typed:`),
	},
	"bash": {
		regexp.MustCompile(`#\s*shellcheck\s`),
	},
	"css": {
		regexp.MustCompile(`stylelint-(disable|enable)`),
		regexp.MustCompile(`!\s*rtl:`),
	},
	"sql": {
		regexp.MustCompile(`(?i)^--\s*sqlfluff:`),
		regexp.MustCompile(`(?i)noqa:`),
	},
	"kotlin": {
		regexp.MustCompile(`^//\s*ktlint-(disable|enable)`),
		regexp.MustCompile(`^//\s*@formatter:(on|off)`),
	},
	"swift": {
		regexp.MustCompile(`^//\s*swiftlint:(disable|enable)`),
		regexp.MustCompile(`^//\s*MARK:`),
		regexp.MustCompile(`^//\s*sourcery:`),
	},
	"php": {
		regexp.MustCompile(`@phpstan-`),
		regexp.MustCompile(`@psalm-`),
		regexp.MustCompile(`phpcs:(disable|enable|ignore)`),
	},
	"hcl": {
		regexp.MustCompile(`tflint-ignore:`),
		regexp.MustCompile(`checkov:skip=`),
	},
	"yaml": {
		regexp.MustCompile(`#\s*yamllint\s`),
		regexp.MustCompile(`#\s*ansible-lint\s`),
		regexp.MustCompile(`#\s*noqa\b`),
	},
	"dockerfile": {
		regexp.MustCompile(`#\s*syntax=`),
		regexp.MustCompile(`#\s*escape=`),
		regexp.MustCompile(`#\s*check=`),
		regexp.MustCompile(`#\s*hadolint\s`),
	},
	"elixir": {
		regexp.MustCompile(`#\s*credo:`),
	},
	"scala": {
		regexp.MustCompile(`^//\s*scalastyle:(on|off)`),
		regexp.MustCompile(`^//\s*scalafmt:\s*\{`),
		regexp.MustCompile(`^//\s*format:\s*(on|off)`),
	},
	"lua": {
		regexp.MustCompile(`--\s*luacheck:`),
		regexp.MustCompile(`--\s*stylua:`),
	},
	"protobuf": {
		regexp.MustCompile(`buf:lint:`),
	},
	"svelte": {
		regexp.MustCompile(`svelte-ignore\s`),
	},
	"html": {
		regexp.MustCompile(`htmlhint\s`),
		regexp.MustCompile(`\[if\s`), // conditional comments
	},
}

var jsDirectives = []*regexp.Regexp{
	regexp.MustCompile(`eslint-(disable|enable)`),
	regexp.MustCompile(`eslint\s`),
	regexp.MustCompile(`biome-ignore\s`),
	regexp.MustCompile(`prettier-ignore`),
	regexp.MustCompile(`tslint:(disable|enable)`),
	regexp.MustCompile(`@ts-(ignore|expect-error|nocheck|check)\b`),
	regexp.MustCompile(`@jsx\s`),
	regexp.MustCompile(`istanbul ignore`),
	regexp.MustCompile(`c8 ignore`),
	regexp.MustCompile(`v8 ignore`),
	regexp.MustCompile(`webpackChunkName:`),
	regexp.MustCompile(`@vite-ignore`),
	regexp.MustCompile(`sourceMappingURL=`),
	regexp.MustCompile(`@flow\b`),
	regexp.MustCompile(`^///\s*<reference\s`), // triple-slash references
}

var cDirectives = []*regexp.Regexp{
	regexp.MustCompile(`\bNOLINT(NEXTLINE|BEGIN|END)?\b`),
	regexp.MustCompile(`clang-format (on|off)`),
	regexp.MustCompile(`\bIWYU pragma:`),
	regexp.MustCompile(`cppcheck-suppress\b`),
	regexp.MustCompile(`\bLCOV_EXCL_(LINE|START|STOP)\b`),
	regexp.MustCompile(`\bGCOVR_EXCL_`),
	regexp.MustCompile(`\bFALLTHROUGH\b`),
	regexp.MustCompile(`\bfall\s?through\b`),
}

// generatedHeaderPatterns preserve "auto-generated / do not edit" markers
// in every language.
var generatedHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`),
	regexp.MustCompile(`(?i)\bdo not edit\b`),
	regexp.MustCompile(`(?i)\bauto-?generated\b`),
	regexp.MustCompile(`@generated\b`),
}

// matchesDirective reports whether text matches a built-in directive for
// the language or a generic generated-file marker.
func matchesDirective(lang, text string) bool {
	for _, re := range directivePatterns[lang] {
		if re.MatchString(text) {
			return true
		}
	}
	for _, re := range generatedHeaderPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
