package parser

import "strings"

// rawLine is one physical source line: its zero-based row, its leading-tab
// indent depth, and its full original text (indent tabs included).
type rawLine struct {
	row    uint32
	indent int
	raw    string
}

func splitRawLines(source string) []rawLine {
	if source == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(source, "\n")
	pieces := strings.Split(trimmed, "\n")
	lines := make([]rawLine, len(pieces))
	for i, p := range pieces {
		indent := 0
		for indent < len(p) && p[indent] == '\t' {
			indent++
		}
		lines[i] = rawLine{row: uint32(i), indent: indent, raw: p}
	}
	return lines
}

// stripLeadingTabs removes up to n leading tab bytes from s.
func stripLeadingTabs(s string, n int) string {
	i := 0
	for i < n && i < len(s) && s[i] == '\t' {
		i++
	}
	return s[i:]
}

func isHorizontalLine(content string) bool {
	t := strings.TrimSpace(content)
	if len(t) < 3 {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != '-' {
			return false
		}
	}
	return true
}
