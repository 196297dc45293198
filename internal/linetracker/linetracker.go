// Package linetracker assigns stable numeric identities to source lines
// across successive edits of a document, so an incremental reparse can
// recognize "this is still the same logical line" even after reordering.
package linetracker

import (
	"hash/fnv"
	"strings"
	"sync"
)

// Tracker holds one document's line-identity state. Zero value is ready to
// use. Safe for concurrent use: a Repository owns one Tracker per document,
// reachable from both the initial scan and the filesystem watcher, which
// can race to reprocess the same document.
type Tracker struct {
	mu sync.Mutex

	contentToID  map[uint64][]int64
	positionToID map[int]int64
	nextID       int64
	lineIDs      []int64
	lineHashes   []uint64
}

// New returns a Tracker ready to process a document's first version.
func New() *Tracker {
	return &Tracker{
		contentToID:  make(map[uint64][]int64),
		positionToID: make(map[int]int64),
		nextID:       1,
	}
}

func hashTrimmed(line string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.TrimSpace(line)))
	return h.Sum64()
}

// ProcessFileContent computes the line IDs for a new version of the
// document's text, reusing IDs from the prior version per the tracker
// algorithm, and returns one ID per line in document order.
func (t *Tracker) ProcessFileContent(content string) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := splitLines(content)
	hashes := make([]uint64, len(lines))
	for i, line := range lines {
		hashes[i] = hashTrimmed(line)
	}

	newContentToID := make(map[uint64][]int64, len(lines))
	newPositionToID := make(map[int]int64, len(lines))
	usedIDs := make(map[int64]bool, len(lines))
	result := make([]int64, len(lines))

	for idx, hash := range hashes {
		lineNum := idx + 1 // 1-indexed, matches GetLineID
		var id int64
		if existingID, ok := t.positionToID[lineNum]; ok && idx < len(t.lineHashes) && t.lineHashes[idx] == hash {
			id = existingID
			usedIDs[id] = true
		} else {
			id = t.findOrCreateID(hash, usedIDs)
		}
		newContentToID[hash] = append(newContentToID[hash], id)
		newPositionToID[lineNum] = id
		result[idx] = id
	}

	t.contentToID = newContentToID
	t.positionToID = newPositionToID
	t.lineIDs = result
	t.lineHashes = hashes

	out := make([]int64, len(result))
	copy(out, result)
	return out
}

func (t *Tracker) findOrCreateID(hash uint64, used map[int64]bool) int64 {
	for _, id := range t.contentToID[hash] {
		if !used[id] {
			used[id] = true
			return id
		}
	}
	id := t.nextID
	t.nextID++
	used[id] = true
	return id
}

// GetLineID returns the stable ID for a 1-indexed line number, or (0,
// false) if out of range.
func (t *Tracker) GetLineID(lineNumber int) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lineNumber <= 0 || lineNumber > len(t.lineIDs) {
		return 0, false
	}
	return t.lineIDs[lineNumber-1], true
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	return strings.Split(trimmed, "\n")
}
