package repository

import (
	"hash/fnv"
	"sync"

	"github.com/ompugao/patto/internal/uri"
)

// shardedMap is a fixed-width sharded map keyed by document URI. Documents
// are ingested and queried concurrently (the watcher, the initial scan, and
// LSP-style query handlers all touch it), so one coarse mutex would
// serialize unrelated documents; sharding by URI hash spreads that
// contention the way graph.Graph's single RWMutex deliberately does not
// need to, since the graph's mutations are cross-document edge diffs while
// these maps only ever touch one document at a time.
type shardedMap[V any] struct {
	shards []*mapShard[V]
}

type mapShard[V any] struct {
	mu sync.RWMutex
	m  map[uri.DocURI]V
}

const shardCount = 16

func newShardedMap[V any]() *shardedMap[V] {
	shards := make([]*mapShard[V], shardCount)
	for i := range shards {
		shards[i] = &mapShard[V]{m: make(map[uri.DocURI]V)}
	}
	return &shardedMap[V]{shards: shards}
}

func (s *shardedMap[V]) shardFor(key uri.DocURI) *mapShard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *shardedMap[V]) Get(key uri.DocURI) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok
}

func (s *shardedMap[V]) Set(key uri.DocURI, val V) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.m[key] = val
}

func (s *shardedMap[V]) Delete(key uri.DocURI) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.m, key)
}

func (s *shardedMap[V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}
