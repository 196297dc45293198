package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ompugao/patto/internal/repository"
)

func waitForScanCompleted(t *testing.T, ch <-chan repository.Message) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-ch:
			if _, ok := msg.(repository.ScanCompleted); ok {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for ScanCompleted")
		}
	}
}

func newTestRepository(t *testing.T, dir string) (*repository.Repository, <-chan repository.Message) {
	t.Helper()
	opts := repository.DefaultOptions()
	opts.DebounceWindow = 20 * time.Millisecond
	repo, err := repository.New(context.Background(), dir, nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	ch, unsub := repo.Subscribe()
	t.Cleanup(unsub)
	return repo, ch
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestInitialScanIngestsExistingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.pn", "Hello [b]\n")
	writeFile(t, dir, "b.pn", "World\n")

	_, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)
}

func TestLinkToURIAndURIToLinkRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)

	u := repo.LinkToURI("my note")
	name, ok := repo.URIToLink(u)
	if !ok || name != "my note" {
		t.Fatalf("got name=%q ok=%v, want %q true", name, ok, "my note")
	}
}

func TestBackLinksAndTwoHopLinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.pn", "See [b]\n")
	writeFile(t, dir, "b.pn", "See [c]\n")
	writeFile(t, dir, "c.pn", "Leaf\n")
	writeFile(t, dir, "d.pn", "Also [c]\n")

	repo, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)

	back, err := repo.BackLinks(filepath.Join(dir, "c.pn"))
	if err != nil {
		t.Fatalf("BackLinks: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("got %d back-link sources for c.pn, want 2: %+v", len(back), back)
	}

	two, err := repo.TwoHopLinks(filepath.Join(dir, "a.pn"))
	if err != nil {
		t.Fatalf("TwoHopLinks: %v", err)
	}
	if len(two) != 0 {
		t.Fatalf("a should see no other document also linking to b, so no group: got %+v", two)
	}

	twoFromB, err := repo.TwoHopLinks(filepath.Join(dir, "b.pn"))
	if err != nil {
		t.Fatalf("TwoHopLinks: %v", err)
	}
	if len(twoFromB) != 1 || twoFromB[0].Bridge != "c" || len(twoFromB[0].Connected) != 1 || twoFromB[0].Connected[0] != "d" {
		t.Fatalf("got %+v, want one group bridging through c to d", twoFromB)
	}
}

func TestHandleLiveFileChangeBroadcastsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.pn", "Hello\n")

	repo, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)

	if err := repo.HandleLiveFileChange(path, "Hello [b]\n"); err != nil {
		t.Fatalf("HandleLiveFileChange: %v", err)
	}

	var sawChanged, sawBackLinks, sawTwoHop bool
	deadline := time.After(5 * time.Second)
	for !(sawChanged && sawBackLinks && sawTwoHop) {
		select {
		case msg := <-ch:
			switch msg.(type) {
			case repository.FileChanged:
				if sawBackLinks || sawTwoHop {
					t.Fatalf("FileChanged must arrive before BackLinksChanged/TwoHopLinksChanged")
				}
				sawChanged = true
			case repository.BackLinksChanged:
				if !sawChanged {
					t.Fatalf("BackLinksChanged arrived before FileChanged")
				}
				sawBackLinks = true
			case repository.TwoHopLinksChanged:
				if !sawChanged {
					t.Fatalf("TwoHopLinksChanged arrived before FileChanged")
				}
				sawTwoHop = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change broadcasts")
		}
	}
}

func TestRemoveDeletesDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.pn", "Hello\n")

	repo, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)

	if _, err := repo.AST(path); err != nil {
		t.Fatalf("AST before remove: %v", err)
	}
	if err := repo.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.AST(path); err == nil {
		t.Fatalf("expected AST to error after Remove")
	}
}

func TestResolveAbsPathRejectsEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, ch := newTestRepository(t, dir)
	waitForScanCompleted(t, ch)

	if err := repo.Remove("../../etc/passwd"); err == nil {
		t.Fatalf("expected an error removing a path that escapes root")
	}
}
