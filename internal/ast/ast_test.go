package ast_test

import (
	"sync"
	"testing"

	"github.com/ompugao/patto/internal/ast"
)

func TestNodeAccessorsSnapshotOnRead(t *testing.T) {
	t.Parallel()

	n := ast.NewNode(ast.KindLine, ast.Location{})
	child := ast.NewNode(ast.KindText, ast.Location{})
	n.AddChild(child)

	snapshot := n.Children()
	n.AddChild(ast.NewNode(ast.KindText, ast.Location{}))

	if len(snapshot) != 1 {
		t.Fatalf("expected the earlier snapshot to stay at 1 child, got %d", len(snapshot))
	}
	if len(n.Children()) != 2 {
		t.Fatalf("expected the live node to have 2 children, got %d", len(n.Children()))
	}
}

func TestNodeConcurrentMutationIsSafe(t *testing.T) {
	t.Parallel()

	n := ast.NewNode(ast.KindLine, ast.Location{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.AddChild(ast.NewNode(ast.KindText, ast.Location{}))
		}()
	}
	wg.Wait()

	if len(n.Children()) != 50 {
		t.Fatalf("got %d children, want 50", len(n.Children()))
	}
}

func TestLocationContainsAndText(t *testing.T) {
	t.Parallel()

	loc := ast.Location{Row: 0, SpanStart: 4, SpanEnd: 7, SourceLine: "See [b] today"}
	inner := ast.Location{Row: 0, SpanStart: 5, SpanEnd: 6, SourceLine: loc.SourceLine}
	if !loc.Contains(loc) {
		t.Errorf("expected a location to contain itself")
	}
	if !loc.Contains(inner) {
		t.Errorf("expected loc to contain a sub-span of itself")
	}
	outer := ast.Location{Row: 0, SpanStart: 0, SpanEnd: len(loc.SourceLine), SourceLine: loc.SourceLine}
	if loc.Contains(outer) {
		t.Errorf("a location should not contain a wider span")
	}
	if got := loc.Text(); got != "[b]" {
		t.Errorf("Text() = %q, want %q", got, "[b]")
	}
}

func TestParseTaskStatusCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"todo", "TODO", "ToDo"} {
		status, ok := ast.ParseTaskStatus(raw)
		if !ok || status != ast.TaskTodo {
			t.Errorf("ParseTaskStatus(%q) = %v, %v; want TaskTodo, true", raw, status, ok)
		}
	}
	if _, ok := ast.ParseTaskStatus("bogus"); ok {
		t.Errorf("expected an unrecognized status to fail")
	}
}
