// Package parser turns Patto source text into a typed ast.Node tree. It is
// a hand-rolled, indentation-driven recursive-descent parser: there is no
// reusable grammar library for this outline format's mix of tab-indentation
// blocks and bracket/brace inline expressions, so the tree is built the way
// other hand-rolled Go markup parsers build theirs — a line-oriented pass
// establishing structure, followed by a left-to-right inline scan per line.
package parser

import (
	"fmt"

	"github.com/ompugao/patto/internal/ast"
)

// ParseText parses a complete document. It never panics or returns a nil
// root; malformed constructs degrade to a Text leaf plus a collected
// ParserError instead of aborting the parse.
func ParseText(source string) (*ast.Node, []ParserError) {
	lines := splitRawLines(source)
	root := ast.NewNode(ast.KindDummy, ast.Location{})
	var errs []ParserError
	children, _ := parseLines(lines, 0, -1, &errs)
	root.SetChildren(children)
	return root, errs
}

// parseLines consumes every line at depth parentIndent+1 (and, for lines
// that open a block, everything that block swallows) until a line at or
// below parentIndent ends this level. Returns the new sibling nodes and the
// index of the first unconsumed line.
func parseLines(lines []rawLine, i int, parentIndent int, errs *[]ParserError) ([]*ast.Node, int) {
	childIndent := parentIndent + 1
	var nodes []*ast.Node

	for i < len(lines) {
		line := lines[i]
		if line.indent < childIndent {
			break
		}
		if line.indent > childIndent {
			loc := ast.Location{Row: line.row, SpanStart: 0, SpanEnd: len(line.raw), SourceLine: line.raw}
			*errs = append(*errs, ParserError{
				Kind:     ErrInvalidIndentation,
				Location: loc,
				Detail:   fmt.Sprintf("line %d is indented %d level(s) deeper than its nearest valid parent", line.row+1, line.indent-childIndent),
				Category: CategoryStatement,
			})
		}

		headerIndent := line.indent
		lineNode, opensBlock, next := parseLineHeader(lines, i, errs)
		i = next

		if !opensBlock {
			children, next2 := parseLines(lines, i, headerIndent, errs)
			lineNode.SetChildren(children)
			i = next2
		}
		nodes = append(nodes, lineNode)
	}
	return nodes, i
}

// parseLineHeader parses a single physical line into a Line node. If the
// line opens a block command, it also consumes every subsequent line the
// block claims and returns the index just past the whole block; opensBlock
// is true in that case, signalling the caller must not also try to parse
// the consumed lines as this Line's ordinary children.
func parseLineHeader(lines []rawLine, i int, errs *[]ParserError) (lineNode *ast.Node, opensBlock bool, next int) {
	line := lines[i]
	content := line.raw[line.indent:]
	lineLoc := ast.Location{Row: line.row, SpanStart: line.indent, SpanEnd: len(line.raw), SourceLine: line.raw}
	lineNode = ast.NewNode(ast.KindLine, lineLoc)

	if isHorizontalLine(content) {
		lineNode.AddContent(ast.NewNode(ast.KindHorizontalLine, lineLoc))
		return lineNode, false, i + 1
	}

	if cmd, ok := matchBlockCommand(content); ok {
		switch cmd.name {
		case "code":
			codeNode := ast.NewNode(ast.KindCode, lineLoc)
			codeNode.Lang = cmd.arg
			lineNode.AddContent(codeNode)
			return lineNode, true, consumeRawBlock(lines, i+1, line.indent, ast.KindCodeContent, codeNode)
		case "math":
			mathNode := ast.NewNode(ast.KindMath, lineLoc)
			lineNode.AddContent(mathNode)
			return lineNode, true, consumeRawBlock(lines, i+1, line.indent, ast.KindMathContent, mathNode)
		case "quote":
			quoteNode := ast.NewNode(ast.KindQuote, lineLoc)
			lineNode.AddContent(quoteNode)
			return lineNode, true, consumeQuoteBlock(lines, i+1, line.indent, quoteNode, errs)
		case "table":
			tableNode := ast.NewNode(ast.KindTable, lineLoc)
			tableNode.Caption = cmd.arg
			lineNode.AddContent(tableNode)
			return lineNode, true, consumeTableBlock(lines, i+1, line.indent, tableNode, errs)
		}
	}

	contents, props, ierrs := parseInline(line.row, line.raw, line.indent, len(line.raw))
	for _, c := range contents {
		lineNode.AddContent(c)
	}
	for _, p := range props {
		lineNode.AddProperty(p)
	}
	*errs = append(*errs, ierrs...)
	return lineNode, false, i + 1
}

// consumeRawBlock swallows every line indented deeper than headerIndent as
// a verbatim content child (Code/Math), never sub-parsing it.
func consumeRawBlock(lines []rawLine, i int, headerIndent int, kind ast.Kind, parent *ast.Node) int {
	for i < len(lines) && lines[i].indent > headerIndent {
		raw := lines[i].raw
		stripped := stripLeadingTabs(raw, headerIndent+1)
		offset := len(raw) - len(stripped)
		loc := ast.Location{Row: lines[i].row, SpanStart: offset, SpanEnd: len(raw), SourceLine: raw}
		parent.AddChild(ast.NewNode(kind, loc))
		i++
	}
	return i
}

// consumeQuoteBlock swallows every line indented deeper than headerIndent
// as a QuoteContent, each inline-parsed like an ordinary line.
func consumeQuoteBlock(lines []rawLine, i int, headerIndent int, quote *ast.Node, errs *[]ParserError) int {
	for i < len(lines) && lines[i].indent > headerIndent {
		raw := lines[i].raw
		stripped := stripLeadingTabs(raw, headerIndent+1)
		offset := len(raw) - len(stripped)
		loc := ast.Location{Row: lines[i].row, SpanStart: offset, SpanEnd: len(raw), SourceLine: raw}
		qc := ast.NewNode(ast.KindQuoteContent, loc)

		contents, props, ierrs := parseInline(lines[i].row, raw, offset, len(raw))
		for _, c := range contents {
			qc.AddContent(c)
		}
		for _, p := range props {
			qc.AddProperty(p)
		}
		*errs = append(*errs, ierrs...)

		quote.AddChild(qc)
		i++
	}
	return i
}

// consumeTableBlock swallows every line indented deeper than headerIndent
// as a TableRow; remaining tabs within that line separate TableColumns.
func consumeTableBlock(lines []rawLine, i int, headerIndent int, table *ast.Node, errs *[]ParserError) int {
	for i < len(lines) && lines[i].indent > headerIndent {
		raw := lines[i].raw
		stripped := stripLeadingTabs(raw, headerIndent+1)
		offset := len(raw) - len(stripped)
		rowLoc := ast.Location{Row: lines[i].row, SpanStart: offset, SpanEnd: len(raw), SourceLine: raw}
		row := ast.NewNode(ast.KindTableRow, rowLoc)

		cellOffset := offset
		for _, cell := range splitKeepingOffsets(stripped) {
			colLoc := ast.Location{Row: lines[i].row, SpanStart: cellOffset, SpanEnd: cellOffset + len(cell), SourceLine: raw}
			col := ast.NewNode(ast.KindTableColumn, colLoc)
			contents, _, ierrs := parseInline(lines[i].row, raw, cellOffset, cellOffset+len(cell))
			for _, c := range contents {
				col.AddContent(c)
			}
			*errs = append(*errs, ierrs...)
			row.AddContent(col)
			cellOffset += len(cell) + 1 // +1 for the consumed tab separator
		}

		table.AddChild(row)
		i++
	}
	return i
}

func splitKeepingOffsets(s string) []string {
	var cells []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' {
			cells = append(cells, s[start:i])
			start = i + 1
		}
	}
	cells = append(cells, s[start:])
	return cells
}
