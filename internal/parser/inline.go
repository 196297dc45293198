package parser

import (
	"fmt"
	"strings"

	"github.com/ompugao/patto/internal/ast"
)

var urlSchemes = []string{"http://", "https://", "ftp://", "mailto:", "file://"}

func looksLikeURL(s string) bool {
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}

func isDecorationMarkerChar(b byte) bool {
	return b == '*' || b == '/' || b == '_' || b == '-'
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_' || b == '-'
}

// parseInline scans raw[start:end] left to right, producing the inline
// content nodes and any Task/Anchor properties found, in document order.
func parseInline(row uint32, raw string, start, end int) ([]*ast.Node, []ast.Property, []ParserError) {
	var contents []*ast.Node
	var props []ast.Property
	var errs []ParserError

	textStart := start
	flush := func(to int) {
		if to > textStart {
			loc := ast.Location{Row: row, SpanStart: textStart, SpanEnd: to, SourceLine: raw}
			contents = append(contents, ast.NewNode(ast.KindText, loc))
		}
	}

	pos := start
	for pos < end {
		switch raw[pos] {
		case '[':
			closeIdx, ok := findBracketEnd(raw, pos, end)
			if !ok {
				if cat, unterminated := unterminatedDelimiterCategory(raw, pos, end); unterminated {
					flush(pos)
					loc := ast.Location{Row: row, SpanStart: pos, SpanEnd: end, SourceLine: raw}
					errs = append(errs, ParserError{
						Kind:     ErrParseError,
						Location: loc,
						Detail:   fmt.Sprintf("%s is missing its closing delimiter", categoryLabel(cat)),
						Category: cat,
					})
					contents = append(contents, ast.NewNode(ast.KindText, loc))
					pos = end
					textStart = pos
					continue
				}
				pos++
				continue
			}
			flush(pos)
			node, perr := parseBracket(row, raw, pos, closeIdx+1)
			if node != nil {
				contents = append(contents, node)
			}
			if perr != nil {
				errs = append(errs, *perr)
			}
			pos = closeIdx + 1
			textStart = pos
		case '{':
			closeIdx := strings.IndexByte(raw[pos:end], '}')
			if closeIdx < 0 {
				pos++
				continue
			}
			closeIdx += pos
			flush(pos)
			prop, perr := parseBraceProperty(row, raw, pos, closeIdx+1)
			if prop != nil {
				props = append(props, prop)
			}
			if perr != nil {
				errs = append(errs, *perr)
			}
			pos = closeIdx + 1
			textStart = pos
		case '#':
			if isAnchorBoundary(raw, start, pos) {
				j := pos + 1
				for j < end && isIdentByte(raw[j]) {
					j++
				}
				if j > pos+1 {
					flush(pos)
					loc := ast.Location{Row: row, SpanStart: pos, SpanEnd: j, SourceLine: raw}
					props = append(props, ast.AnchorProperty{Name: raw[pos+1 : j], Location: loc})
					contents = append(contents, ast.NewNode(ast.KindText, loc))
					pos = j
					textStart = pos
					continue
				}
			}
			pos++
		default:
			pos++
		}
	}
	flush(end)
	return contents, props, errs
}

func unterminatedDelimiterCategory(raw string, openIdx, end int) (Category, bool) {
	if openIdx+1 < end && raw[openIdx+1] == '`' {
		return CategoryInlineCode, true
	}
	if openIdx+1 < end && raw[openIdx+1] == '$' {
		return CategoryInlineMath, true
	}
	return "", false
}

func categoryLabel(c Category) string {
	switch c {
	case CategoryInlineCode:
		return "an inline code span"
	case CategoryInlineMath:
		return "an inline math span"
	default:
		return "this expression"
	}
}

func isAnchorBoundary(raw string, start, pos int) bool {
	if pos == start {
		return true
	}
	prev := raw[pos-1]
	return prev == ' ' || prev == '\t'
}

// findBracketEnd locates the byte index of the ']' closing the bracket
// expression opened at openIdx. Inline code (backtick-delimited) and inline
// math (dollar-delimited) terminate on their own closing marker rather than
// the first ']'.
func findBracketEnd(raw string, openIdx, end int) (int, bool) {
	if openIdx+1 < end && raw[openIdx+1] == '`' {
		if idx := strings.Index(raw[openIdx+2:end], "`]"); idx >= 0 {
			return openIdx + 2 + idx + 1, true
		}
		return -1, false
	}
	if openIdx+1 < end && raw[openIdx+1] == '$' {
		if idx := strings.Index(raw[openIdx+2:end], "$]"); idx >= 0 {
			return openIdx + 2 + idx + 1, true
		}
		return -1, false
	}
	if rel := strings.IndexByte(raw[openIdx+1:end], ']'); rel >= 0 {
		return openIdx + 1 + rel, true
	}
	return -1, false
}

func parseBracket(row uint32, raw string, openIdx, endExclusive int) (*ast.Node, *ParserError) {
	inner := raw[openIdx+1 : endExclusive-1]
	loc := ast.Location{Row: row, SpanStart: openIdx, SpanEnd: endExclusive, SourceLine: raw}

	switch {
	case len(inner) >= 2 && inner[0] == '`' && inner[len(inner)-1] == '`':
		node := ast.NewNode(ast.KindCode, loc)
		node.Inline = true
		return node, nil

	case len(inner) >= 2 && inner[0] == '$' && inner[len(inner)-1] == '$':
		node := ast.NewNode(ast.KindMath, loc)
		node.Inline = true
		return node, nil
	}

	if m := decorationMarkerLen(inner); m > 0 && m < len(inner) && inner[m] == ' ' {
		node := ast.NewNode(ast.KindDecoration, loc)
		stars := 0
		for _, ch := range inner[:m] {
			switch ch {
			case '*':
				stars++
			case '/':
				node.Italic = true
			case '_':
				node.Underline = true
			case '-':
				node.Deleted = true
			}
		}
		if stars > 3 {
			stars = 3
		}
		node.FontSize = stars
		return node, nil
	}

	if strings.HasPrefix(inner, "#") {
		node := ast.NewNode(ast.KindWikiLink, loc)
		node.Anchor = inner[1:]
		return node, nil
	}

	if strings.HasPrefix(inner, "@img") {
		rest := strings.TrimSpace(inner[len("@img"):])
		src, alt := parseImgArgs(rest)
		node := ast.NewNode(ast.KindImage, loc)
		node.Src = src
		node.Alt = alt
		return node, nil
	}

	if strings.HasPrefix(inner, "@") {
		return ast.NewNode(ast.KindText, loc), &ParserError{
			Kind:     ErrParseError,
			Location: loc,
			Detail:   fmt.Sprintf("unrecognized inline command %q", inner),
			Category: CategoryCommand,
		}
	}

	if sp := strings.LastIndexByte(inner, ' '); sp >= 0 {
		url := inner[sp+1:]
		if looksLikeURL(url) {
			node := ast.NewNode(ast.KindLink, loc)
			node.URL = url
			node.Title = inner[:sp]
			return node, nil
		}
		return ast.NewNode(ast.KindText, loc), &ParserError{
			Kind:     ErrParseError,
			Location: loc,
			Detail:   fmt.Sprintf("%q is neither a bare link name nor a %q url", inner, "title url"),
			Category: CategoryLink,
		}
	}

	if looksLikeURL(inner) {
		node := ast.NewNode(ast.KindLink, loc)
		node.URL = inner
		return node, nil
	}

	if hashIdx := strings.IndexByte(inner, '#'); hashIdx >= 0 {
		node := ast.NewNode(ast.KindWikiLink, loc)
		node.Link = inner[:hashIdx]
		node.Anchor = inner[hashIdx+1:]
		return node, nil
	}

	node := ast.NewNode(ast.KindWikiLink, loc)
	node.Link = inner
	return node, nil
}

func decorationMarkerLen(inner string) int {
	m := 0
	for m < len(inner) && isDecorationMarkerChar(inner[m]) {
		m++
	}
	return m
}

func parseImgArgs(rest string) (src, alt string) {
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return rest, ""
	}
	src = rest[:sp]
	alt = strings.TrimSpace(rest[sp+1:])
	alt = strings.Trim(alt, `"`)
	return src, alt
}

func parseBraceProperty(row uint32, raw string, openIdx, endExclusive int) (ast.Property, *ParserError) {
	inner := raw[openIdx+1 : endExclusive-1]
	loc := ast.Location{Row: row, SpanStart: openIdx, SpanEnd: endExclusive, SourceLine: raw}

	switch {
	case strings.HasPrefix(inner, "@task"):
		kv := parseKeyValues(strings.TrimSpace(inner[len("@task"):]))
		status, ok := ast.ParseTaskStatus(kv["status"])
		var err *ParserError
		if !ok {
			status = ast.TaskTodo
			err = &ParserError{
				Kind:     ErrParseError,
				Location: loc,
				Detail:   fmt.Sprintf("unrecognized task status %q, expected todo, doing, or done", kv["status"]),
				Category: CategoryTask,
			}
		}
		return ast.TaskProperty{Status: status, Due: ast.ParseDeadline(kv["due"]), Location: loc}, err

	case strings.HasPrefix(inner, "@anchor"):
		name := strings.TrimSpace(inner[len("@anchor"):])
		var err *ParserError
		if name == "" {
			err = &ParserError{
				Kind:     ErrParseError,
				Location: loc,
				Detail:   "anchor property is missing a name",
				Category: CategoryAnchor,
			}
		}
		return ast.AnchorProperty{Name: name, Location: loc}, err

	default:
		return nil, &ParserError{
			Kind:     ErrParseError,
			Location: loc,
			Detail:   fmt.Sprintf("unrecognized property %q, expected @task or @anchor", inner),
			Category: CategoryProperty,
		}
	}
}

func parseKeyValues(s string) map[string]string {
	out := make(map[string]string)
	for _, tok := range strings.Fields(s) {
		if eq := strings.IndexByte(tok, '='); eq >= 0 {
			out[tok[:eq]] = tok[eq+1:]
		}
	}
	return out
}
