package uri_test

import (
	"testing"

	"github.com/ompugao/patto/internal/uri"
)

func TestFromPathAndPathRoundTrip(t *testing.T) {
	t.Parallel()

	u := uri.FromPath("/notes/my note.pn")
	if got := u.Path(); got != "/notes/my note.pn" {
		t.Errorf("Path() = %q, want %q", got, "/notes/my note.pn")
	}
}

func TestNormalizeUppercasesEscapesIdempotently(t *testing.T) {
	t.Parallel()

	raw := uri.DocURI("file:///notes/my%2anote.pn")
	normalized := uri.Normalize(raw)
	if normalized != "file:///notes/my%2Anote.pn" {
		t.Errorf("Normalize = %q", normalized)
	}
	if uri.Normalize(normalized) != normalized {
		t.Errorf("Normalize is not idempotent")
	}
}

func TestJoinPercentEncodesSegments(t *testing.T) {
	t.Parallel()

	root := uri.FromPath("/notes")
	joined := uri.Join(root, "sub dir/my note")
	if joined != "file:///notes/sub%20dir/my%20note" {
		t.Errorf("Join = %q", joined)
	}
}

func TestJoinIsNormalizedAndCaseInsensitiveComparable(t *testing.T) {
	t.Parallel()

	root := uri.FromPath("/notes")
	a := uri.Normalize(uri.Join(root, "a b"))
	b := uri.Normalize(uri.DocURI("file:///notes/a%20b"))
	if a != b {
		t.Errorf("expected differently-cased percent escapes to normalize equal: %q != %q", a, b)
	}
}
