// Package semtoken walks a parsed document to produce LSP-style semantic
// tokens, delta-encoded against a cached previous result.
package semtoken

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ompugao/patto/internal/ast"
)

// TokenType mirrors the LSP semantic token legend, in the order callers
// must register it.
type TokenType uint32

const (
	TypeFunction TokenType = iota
	TypeVariable
	TypeString
	TypeComment
	TypeKeyword
	TypeOperator
	TypeParameter
	TypeProperty
)

// Legend is the ordered type-name list editors register against TokenType
// values.
var Legend = []string{"function", "variable", "string", "comment", "keyword", "operator", "parameter", "property"}

// Token is one semantic token before delta-encoding.
type Token struct {
	Row       uint32
	StartUTF16 uint32
	Length    uint32
	Type      TokenType
	Modifiers uint32
}

// Delta is one LSP delta-encoded token: (delta_line, delta_start, length,
// type, modifiers).
type Delta struct {
	DeltaLine  uint32
	DeltaStart uint32
	Length     uint32
	Type       TokenType
	Modifiers  uint32
}

// byteToUTF16 converts a byte offset within line into a UTF-16 code-unit
// count, since editor protocols standardize columns on UTF-16 units.
func byteToUTF16(line string, byteOffset int) uint32 {
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	count := uint32(0)
	for _, r := range line[:byteOffset] {
		if r > 0xFFFF {
			count += 2 // surrogate pair
		} else {
			count++
		}
	}
	return count
}

// Collect walks the AST and produces the full, sorted token list for a
// document given its source lines (indexed by row).
func Collect(root *ast.Node, lines []string) []Token {
	var tokens []Token
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		if n.Kind == ast.KindLine {
			for _, p := range n.Properties() {
				tokens = appendPropertyToken(tokens, p, lines)
			}
		}
		if t, ok := tokenForKind(n); ok {
			if tok, emit := makeToken(n.Location, t, lines); emit {
				tokens = append(tokens, tok)
			}
		}
		for _, c := range n.Contents() {
			walk(c)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Row != tokens[j].Row {
			return tokens[i].Row < tokens[j].Row
		}
		return tokens[i].StartUTF16 < tokens[j].StartUTF16
	})
	return tokens
}

func appendPropertyToken(tokens []Token, p ast.Property, lines []string) []Token {
	switch v := p.(type) {
	case ast.TaskProperty:
		if tok, ok := makeToken(v.Location, TypeComment, lines); ok {
			tokens = append(tokens, tok)
		}
	case ast.AnchorProperty:
		if tok, ok := makeToken(v.Location, TypeKeyword, lines); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func tokenForKind(n *ast.Node) (TokenType, bool) {
	switch n.Kind {
	case ast.KindWikiLink:
		return TypeParameter, true
	case ast.KindLink:
		return TypeString, true
	case ast.KindCode, ast.KindMath:
		if n.Inline {
			return 0, false
		}
		return TypeProperty, true
	case ast.KindTable, ast.KindImage:
		return TypeProperty, true
	case ast.KindQuote:
		return TypeComment, true
	case ast.KindDecoration:
		if n.Deleted {
			return TypeComment, true
		}
		return TypeOperator, true
	case ast.KindHorizontalLine:
		return TypeComment, true
	default:
		return 0, false
	}
}

func makeToken(loc ast.Location, t TokenType, lines []string) (Token, bool) {
	if int(loc.Row) >= len(lines) {
		return Token{}, false
	}
	line := lines[loc.Row]
	startCol := byteToUTF16(line, loc.SpanStart)
	endCol := byteToUTF16(line, loc.SpanEnd)
	if endCol <= startCol {
		return Token{}, false
	}
	return Token{Row: loc.Row, StartUTF16: startCol, Length: endCol - startCol, Type: t}, true
}

// Range filters an already-collected full token list down to the rows
// [startRow, endRow] inclusive; it never re-walks the AST.
func Range(tokens []Token, startRow, endRow uint32) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Row >= startRow && tok.Row <= endRow {
			out = append(out, tok)
		}
	}
	return out
}

// Encode converts a sorted token list to LSP delta form.
func Encode(tokens []Token) []Delta {
	deltas := make([]Delta, 0, len(tokens))
	var prevRow, prevStart uint32
	for i, tok := range tokens {
		var deltaLine, deltaStart uint32
		if i == 0 {
			deltaLine, deltaStart = tok.Row, tok.StartUTF16
		} else if tok.Row == prevRow {
			deltaLine, deltaStart = 0, tok.StartUTF16-prevStart
		} else {
			deltaLine, deltaStart = tok.Row-prevRow, tok.StartUTF16
		}
		deltas = append(deltas, Delta{DeltaLine: deltaLine, DeltaStart: deltaStart, Length: tok.Length, Type: tok.Type, Modifiers: tok.Modifiers})
		prevRow, prevStart = tok.Row, tok.StartUTF16
	}
	return deltas
}

// EditScript is an edit against a previously-returned delta-encoded token
// array, applied in order.
type EditScript struct {
	Start       int
	DeleteCount int
	Data        []Delta
}

// Cache holds the previous full result for a document keyed by its
// result_id, so a delta request can respond with an edit-script instead of
// a full re-send. Invalidated wholesale on reparse by calling Invalidate.
type Cache struct {
	resultID string
	tokens   []Token
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{} }

// Full computes the full token list, mints a fresh result_id, stores it as
// the new previous snapshot, and returns both.
func (c *Cache) Full(root *ast.Node, text string) ([]Delta, string) {
	lines := strings.Split(text, "\n")
	tokens := Collect(root, lines)
	c.resultID = uuid.NewString()
	c.tokens = tokens
	return Encode(tokens), c.resultID
}

// Delta computes the edit-script transforming the cached previousResultID's
// token array into the current document's token array. On a cache miss
// (unknown or stale ID) it falls back to a full response.
func (c *Cache) Delta(root *ast.Node, text, previousResultID string) ([]EditScript, []Delta, string, bool) {
	if previousResultID == "" || previousResultID != c.resultID {
		full, id := c.Full(root, text)
		return nil, full, id, false
	}
	lines := strings.Split(text, "\n")
	newTokens := Collect(root, lines)
	newEncoded := Encode(newTokens)
	edits := []EditScript{{Start: 0, DeleteCount: len(Encode(c.tokens)), Data: newEncoded}}
	c.tokens = newTokens
	c.resultID = uuid.NewString()
	return edits, nil, c.resultID, true
}

// Invalidate drops the cached snapshot, forcing the next request to be a
// full response. Callers invoke this on every reparse.
func (c *Cache) Invalidate() {
	c.resultID = ""
	c.tokens = nil
}
