// Package diagnostic translates raw parser.ParserError values into
// human-readable, documented messages for editor surfaces.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/ompugao/patto/internal/parser"
)

// FriendlyDiagnostic is the user-facing rendering of a ParserError.
type FriendlyDiagnostic struct {
	Message string
	Code    string
	DocsURI string
}

// Translator converts ParserErrors into FriendlyDiagnostics, stable across
// calls (holds no mutable state beyond its configured docs base URL).
type Translator struct {
	docsBaseURL string
}

// NewTranslator builds a Translator that appends each diagnostic's code to
// docsBaseURL to form its documentation link.
func NewTranslator(docsBaseURL string) Translator {
	return Translator{docsBaseURL: strings.TrimSuffix(docsBaseURL, "/")}
}

type categoryContent struct {
	code     string
	primary  string
	help     string
	examples []string
}

var categoryTable = map[parser.Category]categoryContent{
	parser.CategoryLink: {
		code:    "invalid-link",
		primary: "This looks like a link, but its contents don't match any recognized link form.",
		help:    "A link is either a bare note name, a note name with #anchor, a bare URL, or a title followed by a URL.",
		examples: []string{
			"[MyNote]",
			"[MyNote#section]",
			"[https://example.com]",
			"[Example Site https://example.com]",
		},
	},
	parser.CategoryCommand: {
		code:    "invalid-command",
		primary: "This block or inline command isn't one Patto recognizes.",
		help:    "Commands take the form [@name ...]; recognized names are code, math, quote, table, and img.",
		examples: []string{
			"[@code go]",
			"[@quote]",
			"[@img diagram.png \"caption\"]",
		},
	},
	parser.CategoryProperty: {
		code:    "invalid-property",
		primary: "This property isn't one Patto recognizes.",
		help:    "Properties take the form {@name ...}; recognized names are task and anchor.",
		examples: []string{
			"{@task status=todo due=2025-12-31}",
			"{@anchor section-name}",
		},
	},
	parser.CategoryTask: {
		code:    "invalid-task",
		primary: "This task property has a status Patto doesn't recognize.",
		help:    "Task status must be one of todo, doing, or done (case-insensitive).",
		examples: []string{
			"{@task status=todo due=2025-12-31}",
			"{@task status=doing}",
			"{@task status=done}",
		},
	},
	parser.CategoryAnchor: {
		code:    "invalid-anchor",
		primary: "This anchor is missing the name it's supposed to mark.",
		help:    "An anchor needs a name: either {@anchor name} or a bare #name.",
		examples: []string{
			"{@anchor section-name}",
			"#section-name",
		},
	},
	parser.CategoryInlineCode: {
		code:    "invalid-inline-code",
		primary: "This inline code span is missing its closing backtick.",
		help:    "Inline code is written [` code `], with a backtick immediately after the opening bracket.",
		examples: []string{"[` 1 + 1 `]"},
	},
	parser.CategoryInlineMath: {
		code:    "invalid-inline-math",
		primary: "This inline math span is missing its closing dollar sign.",
		help:    "Inline math is written [$ math $], with a dollar sign immediately after the opening bracket.",
		examples: []string{"[$ e = mc^2 $]"},
	},
	parser.CategoryDecoration: {
		code:    "invalid-decoration",
		primary: "This decoration marker isn't followed by a space and text.",
		help:    "Decorations combine *, /, _, and - markers, then a space, then the decorated text: [* bold], [/ italic], [*/ bold italic].",
		examples: []string{"[* bold]", "[/ italic]", "[*/ bold italic]"},
	},
	parser.CategoryStatement: {
		code:    "invalid-indentation",
		primary: "This line is indented more than one level deeper than its parent.",
		help:    "Each line may be indented at most one tab deeper than the nearest preceding line that is one level shallower.",
		examples: []string{"parent\n\tchild"},
	},
}

var genericContent = categoryContent{
	code:    "parse-error",
	primary: "This line could not be parsed.",
	help:    "Check the line against the Patto syntax reference.",
}

// Translate produces the human-readable diagnostic for a raw parse error.
func (t Translator) Translate(err parser.ParserError) FriendlyDiagnostic {
	content, ok := categoryTable[err.Category]
	if !ok {
		content = genericContent
	}
	message := composeMessage(content.primary, content.help, content.examples)
	docsURI := ""
	if t.docsBaseURL != "" {
		docsURI = fmt.Sprintf("%s/%s", t.docsBaseURL, content.code)
	}
	return FriendlyDiagnostic{Message: message, Code: content.code, DocsURI: docsURI}
}

func composeMessage(primary, help string, examples []string) string {
	var sections []string
	if primary != "" {
		sections = append(sections, primary)
	}
	if help != "" {
		sections = append(sections, help)
	}
	if len(examples) > 0 {
		lines := make([]string, len(examples))
		for i, ex := range examples {
			lines[i] = "  " + ex
		}
		sections = append(sections, "Examples:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}
