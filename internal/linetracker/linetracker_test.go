package linetracker_test

import (
	"testing"

	"github.com/ompugao/patto/internal/linetracker"
)

func TestBasicAssignment(t *testing.T) {
	t.Parallel()

	tr := linetracker.New()
	ids := tr.ProcessFileContent("Line 1\nLine 2\nLine 3\n")
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}

	for i, want := range ids {
		got, ok := tr.GetLineID(i + 1)
		if !ok || got != want {
			t.Fatalf("GetLineID(%d) = (%d, %v), want (%d, true)", i+1, got, ok, want)
		}
	}

	if _, ok := tr.GetLineID(4); ok {
		t.Fatalf("GetLineID(4) should be out of range")
	}
	if _, ok := tr.GetLineID(0); ok {
		t.Fatalf("GetLineID(0) should be out of range")
	}
}

func TestReorderingPreservesIDs(t *testing.T) {
	t.Parallel()

	tr := linetracker.New()
	ids1 := tr.ProcessFileContent("Hello\nWorld\n")
	ids2 := tr.ProcessFileContent("World\nHello\n")

	if ids2[0] != ids1[1] {
		t.Errorf("World should keep its id: got %d, want %d", ids2[0], ids1[1])
	}
	if ids2[1] != ids1[0] {
		t.Errorf("Hello should keep its id: got %d, want %d", ids2[1], ids1[0])
	}
}

func TestEditingOneLineOnlyChangesThatID(t *testing.T) {
	t.Parallel()

	tr := linetracker.New()
	ids1 := tr.ProcessFileContent("alpha\nbeta\ngamma\n")
	ids2 := tr.ProcessFileContent("alpha\nBETA-EDITED\ngamma\n")

	if ids2[0] != ids1[0] {
		t.Errorf("line 1 unchanged: id changed from %d to %d", ids1[0], ids2[0])
	}
	if ids2[2] != ids1[2] {
		t.Errorf("line 3 unchanged: id changed from %d to %d", ids1[2], ids2[2])
	}
	if ids2[1] == ids1[1] {
		t.Errorf("edited line should receive a fresh id, both are %d", ids1[1])
	}
}

func TestDuplicateContentRoundRobin(t *testing.T) {
	t.Parallel()

	tr := linetracker.New()
	ids1 := tr.ProcessFileContent("same\nsame\n")
	if ids1[0] == ids1[1] {
		t.Fatalf("two distinct lines with identical content must still get distinct ids within one version")
	}

	ids2 := tr.ProcessFileContent("same\nsame\n")
	got := map[int64]bool{ids2[0]: true, ids2[1]: true}
	want := map[int64]bool{ids1[0]: true, ids1[1]: true}
	for id := range want {
		if !got[id] {
			t.Errorf("expected id %d to be reused across versions, got %v", id, ids2)
		}
	}
}

func TestWhitespaceInsensitiveHash(t *testing.T) {
	t.Parallel()

	tr := linetracker.New()
	ids1 := tr.ProcessFileContent("  indented  \n")
	ids2 := tr.ProcessFileContent("indented\n")

	if ids1[0] != ids2[0] {
		t.Errorf("trimmed content hash should be stable across whitespace changes")
	}
}
