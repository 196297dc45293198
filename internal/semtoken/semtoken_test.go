package semtoken_test

import (
	"testing"

	"github.com/ompugao/patto/internal/parser"
	"github.com/ompugao/patto/internal/semtoken"
)

func TestCollectAndEncode(t *testing.T) {
	t.Parallel()

	src := "See [b] and [https://example.com]\n"
	root, _ := parser.ParseText(src)
	tokens := semtoken.Collect(root, []string{src[:len(src)-1]})
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Type != semtoken.TypeParameter {
		t.Errorf("first token type = %v, want Parameter", tokens[0].Type)
	}
	if tokens[1].Type != semtoken.TypeString {
		t.Errorf("second token type = %v, want String", tokens[1].Type)
	}

	deltas := semtoken.Encode(tokens)
	if len(deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(deltas))
	}
	if deltas[0].DeltaLine != 0 || deltas[0].DeltaStart != tokens[0].StartUTF16 {
		t.Errorf("first delta = %+v", deltas[0])
	}
	if deltas[1].DeltaLine != 0 || deltas[1].DeltaStart != tokens[1].StartUTF16-tokens[0].StartUTF16 {
		t.Errorf("second delta = %+v", deltas[1])
	}
}

func TestCacheFullThenDeltaMiss(t *testing.T) {
	t.Parallel()

	src := "See [b]\n"
	root, _ := parser.ParseText(src)
	cache := semtoken.NewCache()
	_, id := cache.Full(root, src)
	if id == "" {
		t.Fatalf("expected a non-empty result id")
	}

	edits, full, newID, wasDelta := cache.Delta(root, src, "not-the-right-id")
	if wasDelta {
		t.Fatalf("stale previous_result_id should fall back to a full response")
	}
	if edits != nil || full == nil || newID == "" {
		t.Fatalf("got edits=%v full=%v newID=%v", edits, full, newID)
	}
}

func TestCacheDeltaHit(t *testing.T) {
	t.Parallel()

	src := "See [b]\n"
	root, _ := parser.ParseText(src)
	cache := semtoken.NewCache()
	_, id := cache.Full(root, src)

	edits, full, newID, wasDelta := cache.Delta(root, "See [b] again\n", id)
	if !wasDelta {
		t.Fatalf("matching previous_result_id should produce a delta response")
	}
	if full != nil || len(edits) == 0 || newID == id {
		t.Fatalf("got edits=%v full=%v newID=%v oldID=%v", edits, full, newID, id)
	}
}

func TestRangeFiltersWithoutRewalking(t *testing.T) {
	t.Parallel()

	src := "[a]\n[b]\n[c]\n"
	root, _ := parser.ParseText(src)
	tokens := semtoken.Collect(root, []string{"[a]", "[b]", "[c]"})
	ranged := semtoken.Range(tokens, 1, 1)
	if len(ranged) != 1 || ranged[0].Row != 1 {
		t.Fatalf("got %+v", ranged)
	}
}
