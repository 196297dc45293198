package repository

import "strings"

// Rope is a minimal line-indexed text buffer. It is not a balanced-tree
// rope; the document sizes this engine targets (note files, not books)
// don't warrant one, and nothing in the public contract needs sub-line
// splice performance — only whole-document replacement (Ingest) and
// per-line reads (back-link context).
type Rope struct {
	text  string
	lines []string
}

// NewRope splits text into its line-indexed representation.
func NewRope(text string) *Rope {
	trimmed := strings.TrimSuffix(text, "\n")
	var lines []string
	if trimmed != "" || text != "" {
		lines = strings.Split(trimmed, "\n")
	}
	return &Rope{text: text, lines: lines}
}

// Text returns the whole document text, exactly as ingested.
func (r *Rope) Text() string {
	if r == nil {
		return ""
	}
	return r.text
}

// Line returns the zero-indexed line's text, or ("", false) if row is out
// of range.
func (r *Rope) Line(row int) (string, bool) {
	if r == nil || row < 0 || row >= len(r.lines) {
		return "", false
	}
	return r.lines[row], true
}

// LineCount reports how many lines the document has.
func (r *Rope) LineCount() int {
	if r == nil {
		return 0
	}
	return len(r.lines)
}
