package parser

import "strings"

type blockCommand struct {
	name string
	arg  string
}

var blockCommandNames = map[string]bool{"code": true, "math": true, "quote": true, "table": true}

// matchBlockCommand recognizes a line whose first non-tab content is one of
// the four block openers. Inline-only commands (e.g. "@img") never match.
func matchBlockCommand(content string) (blockCommand, bool) {
	if !strings.HasPrefix(content, "[@") {
		return blockCommand{}, false
	}
	closeIdx := strings.IndexByte(content, ']')
	if closeIdx < 0 {
		return blockCommand{}, false
	}
	inner := content[2:closeIdx]
	name, arg, _ := strings.Cut(inner, " ")
	if !blockCommandNames[name] {
		return blockCommand{}, false
	}
	return blockCommand{name: name, arg: strings.TrimSpace(arg)}, true
}
