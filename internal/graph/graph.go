// Package graph implements the repository's document graph: a directed
// multigraph of documents, keyed by URI, whose edges carry every wikilink
// occurrence between two notes.
//
// The whole graph sits behind one coarse mutex, per the concurrency
// model this engine follows: structural mutations are infrequent relative
// to reads, and per-node locking would invite deadlocks during multi-edge
// diffs (see ReplaceOutEdges). In-edges are mirrored alongside out-edges so
// a back-links query costs O(in-degree), not a scan of every node.
package graph

import (
	"sync"

	"github.com/ompugao/patto/internal/ast"
	"github.com/ompugao/patto/internal/uri"
)

// LinkLocation records one occurrence of a wikilink within its source
// document.
type LinkLocation struct {
	SourceRow      uint32
	SourceColStart int
	SourceColEnd   int
	TargetAnchor   string
}

// LinkEdge carries every occurrence of a link from one document to
// another; multiple wikilinks between the same pair collapse into one
// edge whose Locations enumerates them all.
type LinkEdge struct {
	Locations []LinkLocation
}

type node struct {
	ast *ast.Node
	out map[uri.DocURI]LinkEdge
	in  map[uri.DocURI]LinkEdge
}

func newNode() *node {
	return &node{out: make(map[uri.DocURI]LinkEdge), in: make(map[uri.DocURI]LinkEdge)}
}

// Graph is the document graph. Zero value is not usable; construct with
// New.
type Graph struct {
	mu    sync.RWMutex
	nodes map[uri.DocURI]*node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[uri.DocURI]*node)}
}

func (g *Graph) ensureNodeLocked(u uri.DocURI) *node {
	n, ok := g.nodes[u]
	if !ok {
		n = newNode()
		g.nodes[u] = n
	}
	return n
}

// SetAST creates the node for u if absent (a placeholder materializing)
// and stores astRoot as its parsed document.
func (g *Graph) SetAST(u uri.DocURI, astRoot *ast.Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureNodeLocked(u).ast = astRoot
}

// AST returns the stored AST for u, or (nil, false) if u has no node.
func (g *Graph) AST(u uri.DocURI) (*ast.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[u]
	if !ok {
		return nil, false
	}
	return n.ast, true
}

// HasNode reports whether u has an entry in the graph, placeholder or not.
func (g *Graph) HasNode(u uri.DocURI) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[u]
	return ok
}

func (g *Graph) connectLocked(source, target uri.DocURI, edge LinkEdge) {
	g.ensureNodeLocked(source).out[target] = edge
	g.ensureNodeLocked(target).in[source] = edge
}

func (g *Graph) disconnectLocked(source, target uri.DocURI) {
	if sn, ok := g.nodes[source]; ok {
		delete(sn.out, target)
	}
	if tn, ok := g.nodes[target]; ok {
		delete(tn.in, source)
	}
}

// ReplaceOutEdges implements the edge-diff algorithm: the source node is
// created if absent (with a nil AST until SetAST). For every target in groups, any
// prior edge is disconnected and a fresh one carrying the new location
// list connected. Any existing out-edge whose target is absent from groups
// is then disconnected. Targets not yet known to the graph materialize as
// placeholder nodes (nil AST).
func (g *Graph) ReplaceOutEdges(source uri.DocURI, groups map[uri.DocURI]LinkEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNodeLocked(source)
	for target, edge := range groups {
		g.ensureNodeLocked(target)
		g.disconnectLocked(source, target)
		g.connectLocked(source, target, edge)
	}

	srcNode := g.nodes[source]
	var stale []uri.DocURI
	for target := range srcNode.out {
		if _, want := groups[target]; !want {
			stale = append(stale, target)
		}
	}
	for _, target := range stale {
		g.disconnectLocked(source, target)
	}
}

// Remove disconnects every edge touching u (in and out) and deletes its
// node entirely.
func (g *Graph) Remove(u uri.DocURI) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[u]
	if !ok {
		return
	}
	for target := range n.out {
		g.disconnectLocked(u, target)
	}
	for source := range n.in {
		g.disconnectLocked(source, u)
	}
	delete(g.nodes, u)
}

// InEdges returns a snapshot of every incoming edge to target, keyed by
// source URI.
func (g *Graph) InEdges(target uri.DocURI) map[uri.DocURI]LinkEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[target]
	if !ok {
		return nil
	}
	out := make(map[uri.DocURI]LinkEdge, len(n.in))
	for k, v := range n.in {
		out[k] = v
	}
	return out
}

// OutEdges returns a snapshot of every outgoing edge from source, keyed by
// target URI.
func (g *Graph) OutEdges(source uri.DocURI) map[uri.DocURI]LinkEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[source]
	if !ok {
		return nil
	}
	out := make(map[uri.DocURI]LinkEdge, len(n.out))
	for k, v := range n.out {
		out[k] = v
	}
	return out
}
