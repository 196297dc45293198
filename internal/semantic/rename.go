package semantic

import (
	"fmt"

	"github.com/ompugao/patto/internal/ast"
	"github.com/ompugao/patto/internal/repository"
)

// TextEdit replaces the byte range [ColStart, ColEnd) on Line of Path with
// NewText. Ranges follow the same span convention as ast.Location: ColEnd
// is exclusive and, for a wikilink, spans the full bracketed expression
// including its delimiters.
type TextEdit struct {
	Path     string
	Line     int
	ColStart int
	ColEnd   int
	NewText  string
}

// RenamePlan is the set of edits needed to repoint every existing reference
// to a document at its new link name. It does not modify anything on disk;
// callers apply (or preview) the edits themselves.
type RenamePlan struct {
	OldLink string
	NewLink string
	Edits   []TextEdit
}

// PlanRename computes the edits required to rename a document so that every
// wikilink currently pointing at it under its old name instead resolves
// under newLink. Anchors on existing links are preserved verbatim.
//
// path is the document open under the cursor, and row/col locate the
// cursor within it. If the cursor sits inside a WikiLink, that wikilink's
// link names the document being renamed (the common case: renaming a note
// from a reference to it elsewhere). Otherwise path's own document is
// renamed (the cursor is anywhere else in the note being renamed itself).
func PlanRename(repo *repository.Repository, path string, row, col int, newLink string) (RenamePlan, error) {
	targetPath := path
	oldLink := ""
	if root, err := repo.AST(path); err == nil {
		if link := findWikiLinkAt(root, row, col); link != nil {
			oldLink = link.Link
			targetPath = repo.LinkToURI(oldLink).Path()
		}
	}
	if oldLink == "" {
		resolved, err := repo.LinkFor(path)
		if err != nil {
			return RenamePlan{}, fmt.Errorf("semantic: resolve link name for rename target: %w", err)
		}
		oldLink = resolved
	}

	back, err := repo.BackLinks(targetPath)
	if err != nil {
		return RenamePlan{}, fmt.Errorf("semantic: gather back-links for rename target: %w", err)
	}

	plan := RenamePlan{OldLink: oldLink, NewLink: newLink}
	for _, group := range back {
		sourcePath := repo.LinkToURI(group.SourceFile).Path()
		for _, loc := range group.Locations {
			newText := "[" + newLink
			if loc.TargetAnchor != "" {
				newText += "#" + loc.TargetAnchor
			}
			newText += "]"
			plan.Edits = append(plan.Edits, TextEdit{
				Path:     sourcePath,
				Line:     loc.Line,
				ColStart: loc.ColStart,
				ColEnd:   loc.ColEnd,
				NewText:  newText,
			})
		}
	}
	return plan, nil
}

// findWikiLinkAt returns the WikiLink node whose span contains (row, col),
// or nil if the cursor isn't inside one. A self-anchor reference (an empty
// Link field) never matches, since it names no document to rename.
func findWikiLinkAt(root *ast.Node, row, col int) *ast.Node {
	var found *ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == ast.KindWikiLink && n.Link != "" &&
			int(n.Location.Row) == row && col >= n.Location.SpanStart && col < n.Location.SpanEnd {
			found = n
			return false
		}
		return true
	})
	return found
}
