// Package semantic implements the document-level queries that sit above a
// single parsed AST: finding an anchor's definition, gathering a document's
// open tasks, and planning a rename of a note's link name across every
// document that references it.
package semantic

import (
	"sort"
	"strings"

	"github.com/ompugao/patto/internal/ast"
)

// Task is one task property found while walking a document, alongside the
// line it annotates.
type Task struct {
	Status   ast.TaskStatus
	Due      ast.Deadline
	Location ast.Location
	Text     string
}

// GatherTasks collects every not-done task property in root, sorted by
// deadline ascending.
func GatherTasks(root *ast.Node) []Task {
	var tasks []Task
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind != ast.KindLine {
			return true
		}
		for _, p := range n.Properties() {
			if tp, ok := p.(ast.TaskProperty); ok && tp.Status != ast.TaskDone {
				tasks = append(tasks, Task{
					Status:   tp.Status,
					Due:      tp.Due,
					Location: tp.Location,
					Text:     lineText(n),
				})
			}
		}
		return true
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Due.Compare(tasks[j].Due) < 0 })
	return tasks
}

func lineText(n *ast.Node) string {
	return strings.TrimSpace(n.Location.SourceLine)
}

// AnchorMatch is where an anchor is defined within a document.
type AnchorMatch struct {
	Name     string
	Location ast.Location
	Line     *ast.Node
}

// FindAnchor searches root for a Line or QuoteContent carrying an anchor
// property named name — either an explicit {@anchor name} or a bare #name
// prefix — and returns its definition site.
func FindAnchor(root *ast.Node, name string) (AnchorMatch, bool) {
	var found AnchorMatch
	var ok bool
	ast.Walk(root, func(n *ast.Node) bool {
		if ok {
			return false
		}
		if n.Kind != ast.KindLine && n.Kind != ast.KindQuoteContent {
			return true
		}
		for _, p := range n.Properties() {
			ap, isAnchor := p.(ast.AnchorProperty)
			if isAnchor && ap.Name == name {
				found = AnchorMatch{Name: name, Location: ap.Location, Line: n}
				ok = true
				return false
			}
		}
		return true
	})
	return found, ok
}
