package semantic_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ompugao/patto/internal/repository"
	"github.com/ompugao/patto/internal/semantic"
)

func TestPlanRenameCoversEveryBackLinkAndPreservesAnchors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("target.pn", "Leaf\n")
	write("a.pn", "See [target]\n")
	write("b.pn", "See [target#intro]\n")

	repo, err := repository.New(context.Background(), dir, nil, repository.DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ch, unsub := repo.Subscribe()
	t.Cleanup(unsub)
	deadline := time.After(5 * time.Second)
waitScan:
	for {
		select {
		case msg := <-ch:
			if _, ok := msg.(repository.ScanCompleted); ok {
				break waitScan
			}
		case <-deadline:
			t.Fatalf("timed out waiting for initial scan")
		}
	}

	assertPlan := func(t *testing.T, plan semantic.RenamePlan, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("PlanRename: %v", err)
		}
		if plan.OldLink != "target" || plan.NewLink != "renamed" {
			t.Fatalf("got OldLink=%q NewLink=%q", plan.OldLink, plan.NewLink)
		}
		if len(plan.Edits) != 2 {
			t.Fatalf("got %d edits, want 2: %+v", len(plan.Edits), plan.Edits)
		}

		var sawPlain, sawAnchored bool
		for _, e := range plan.Edits {
			switch e.NewText {
			case "[renamed]":
				sawPlain = true
			case "[renamed#intro]":
				sawAnchored = true
			}
		}
		if !sawPlain || !sawAnchored {
			t.Fatalf("expected both a plain and an anchored rewrite, got %+v", plan.Edits)
		}
	}

	t.Run("self rename", func(t *testing.T) {
		// Cursor at row 0, col 0 of target.pn itself ("Leaf") sits on no
		// wikilink, so the document at path is the one being renamed.
		plan, err := semantic.PlanRename(repo, filepath.Join(dir, "target.pn"), 0, 0, "renamed")
		assertPlan(t, plan, err)
	})

	t.Run("anchored rename from cursor inside a wikilink", func(t *testing.T) {
		// b.pn's content is "See [target#intro]\n"; the cursor sits inside
		// the wikilink's brackets, so PlanRename must resolve "target" (the
		// wikilink's link, not b.pn itself) as the rename target.
		const col = len("See [target#intro") // anywhere inside the brackets
		plan, err := semantic.PlanRename(repo, filepath.Join(dir, "b.pn"), 0, col, "renamed")
		assertPlan(t, plan, err)
	})
}
