// Package ast defines Patto's typed abstract syntax tree: a single Node
// type carrying a Kind discriminant, a source Location, and two
// mutex-guarded child slots (inline contents and block-nested children) so
// a reparse can swap one document's tree while readers walk another.
package ast

import "sync"

// Kind discriminates the attributes a Node carries.
type Kind int

const (
	KindDummy Kind = iota
	KindLine
	KindText
	KindWikiLink
	KindLink
	KindImage
	KindCode
	KindCodeContent
	KindMath
	KindMathContent
	KindQuote
	KindQuoteContent
	KindTable
	KindTableRow
	KindTableColumn
	KindDecoration
	KindHorizontalLine
	KindEmbed
)

func (k Kind) String() string {
	switch k {
	case KindDummy:
		return "Dummy"
	case KindLine:
		return "Line"
	case KindText:
		return "Text"
	case KindWikiLink:
		return "WikiLink"
	case KindLink:
		return "Link"
	case KindImage:
		return "Image"
	case KindCode:
		return "Code"
	case KindCodeContent:
		return "CodeContent"
	case KindMath:
		return "Math"
	case KindMathContent:
		return "MathContent"
	case KindQuote:
		return "Quote"
	case KindQuoteContent:
		return "QuoteContent"
	case KindTable:
		return "Table"
	case KindTableRow:
		return "TableRow"
	case KindTableColumn:
		return "TableColumn"
	case KindDecoration:
		return "Decoration"
	case KindHorizontalLine:
		return "HorizontalLine"
	case KindEmbed:
		return "Embed"
	default:
		return "Unknown"
	}
}

// Location pins a node to a byte span within one row's source line. Spans
// are byte offsets within that line, not absolute file offsets; rows are
// zero-based.
type Location struct {
	Row        uint32
	SpanStart  int
	SpanEnd    int
	SourceLine string
}

// Contains reports whether other lies entirely within l on the same row.
func (l Location) Contains(other Location) bool {
	return l.Row == other.Row && other.SpanStart >= l.SpanStart && other.SpanEnd <= l.SpanEnd
}

// Text returns the source slice the location points to.
func (l Location) Text() string {
	if l.SpanStart < 0 || l.SpanEnd > len(l.SourceLine) || l.SpanStart > l.SpanEnd {
		return ""
	}
	return l.SourceLine[l.SpanStart:l.SpanEnd]
}

// TaskStatus is the status of a Task property.
type TaskStatus int

const (
	TaskTodo TaskStatus = iota
	TaskDoing
	TaskDone
)

func (s TaskStatus) String() string {
	switch s {
	case TaskTodo:
		return "todo"
	case TaskDoing:
		return "doing"
	case TaskDone:
		return "done"
	default:
		return "unknown"
	}
}

// ParseTaskStatus parses a task status keyword case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch lower(s) {
	case "todo":
		return TaskTodo, true
	case "doing":
		return TaskDoing, true
	case "done":
		return TaskDone, true
	default:
		return TaskTodo, false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// DeadlineKind distinguishes how precisely a Deadline was parsed.
type DeadlineKind int

const (
	DeadlineDate DeadlineKind = iota
	DeadlineDateTime
	DeadlineUninterpretable
)

// Property is attached to Line and QuoteContent nodes.
type Property interface {
	isProperty()
	Loc() Location
}

// TaskProperty records a task's status and due date.
type TaskProperty struct {
	Status   TaskStatus
	Due      Deadline
	Location Location
}

func (TaskProperty) isProperty()         {}
func (p TaskProperty) Loc() Location     { return p.Location }

// AnchorProperty names a jump target usable as a wikilink's #fragment.
type AnchorProperty struct {
	Name     string
	Location Location
}

func (AnchorProperty) isProperty()       {}
func (p AnchorProperty) Loc() Location   { return p.Location }

// Node is the single recursive AST node type. Which fields are meaningful
// is determined by Kind; see the node-kind table in the specification.
type Node struct {
	Kind     Kind
	Location Location

	// WikiLink, Embed
	Link   string
	Anchor string

	// Link
	URL   string
	Title string

	// Image
	Src string
	Alt string

	// Code, Math
	Lang   string
	Inline bool

	// Decoration
	FontSize  int
	Italic    bool
	Underline bool
	Deleted   bool

	// Table
	Caption string

	mu         sync.Mutex
	properties []Property
	contents   []*Node
	children   []*Node
}

// NewNode constructs a bare node of the given kind and location.
func NewNode(kind Kind, loc Location) *Node {
	return &Node{Kind: kind, Location: loc}
}

// Contents returns a snapshot of the node's inline children.
func (n *Node) Contents() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.contents))
	copy(out, n.contents)
	return out
}

// AddContent appends an inline child.
func (n *Node) AddContent(c *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contents = append(n.contents, c)
}

// SetContents replaces the inline-children slice wholesale.
func (n *Node) SetContents(cs []*Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contents = cs
}

// Children returns a snapshot of the node's block-nested children.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// AddChild appends a block-nested child.
func (n *Node) AddChild(c *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = append(n.children, c)
}

// SetChildren replaces the block-children slice wholesale.
func (n *Node) SetChildren(cs []*Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = cs
}

// Properties returns a snapshot of the node's attached properties.
func (n *Node) Properties() []Property {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Property, len(n.properties))
	copy(out, n.properties)
	return out
}

// AddProperty attaches a property (Line and QuoteContent nodes only).
func (n *Node) AddProperty(p Property) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.properties = append(n.properties, p)
}

// Walk visits n and every descendant (contents first, then children) in
// document order, depth-first. Stops early if visit returns false.
func Walk(n *Node, visit func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, c := range n.Contents() {
		if !Walk(c, visit) {
			return false
		}
	}
	for _, c := range n.Children() {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}
