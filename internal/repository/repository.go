// Package repository owns the on-disk document set: watching a root
// directory of .pn files, keeping each one's parsed AST and line tracker up
// to date, maintaining the cross-document link graph, and broadcasting
// change notifications to subscribers (an LSP server, a live-preview web
// UI, or a CLI smoke test).
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ompugao/patto/internal/ast"
	"github.com/ompugao/patto/internal/graph"
	"github.com/ompugao/patto/internal/linetracker"
	"github.com/ompugao/patto/internal/parser"
	"github.com/ompugao/patto/internal/uri"

	"github.com/fsnotify/fsnotify"
)

// ErrPathEscapesRoot is returned when a caller-supplied path would resolve
// outside the repository root.
var ErrPathEscapesRoot = errors.New("repository: path escapes root")

// ErrNotFound is returned by queries against a document the repository has
// no record of.
var ErrNotFound = errors.New("repository: document not found")

// Options configures a Repository. The zero value is usable: New replaces
// each zero (or negative) numeric field with its DefaultOptions value.
type Options struct {
	DebounceWindow  time.Duration
	BroadcastBuffer int
	IncludeHidden   bool
	ScanConcurrency int
}

// DefaultOptions returns the option set this engine runs with absent
// explicit configuration.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  10 * time.Millisecond,
		BroadcastBuffer: 100,
		IncludeHidden:   false,
		ScanConcurrency: 8,
	}
}

type subscriber struct {
	ch chan Message
}

// Repository is the engine's document store. Construct with New; a
// Repository owns a background filesystem watcher and initial-scan
// goroutine for its lifetime, stopped by Close.
type Repository struct {
	logger *slog.Logger
	opts   Options

	root    string
	rootURI uri.DocURI

	ctx    context.Context
	cancel context.CancelFunc

	watcher *fsnotify.Watcher

	texts    *shardedMap[*Rope]
	asts     *shardedMap[*ast.Node]
	trackers *shardedMap[*linetracker.Tracker]

	g *graph.Graph

	subMu   sync.RWMutex
	subs    map[uint64]*subscriber
	subNext atomic.Uint64

	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	wg sync.WaitGroup
}

// New constructs a Repository rooted at root, starts its filesystem
// watcher, and kicks off an asynchronous initial scan. The scan broadcasts
// ScanStarted, ScanProgress, and ScanCompleted; a subscription receives only
// those broadcast after it is made.
func New(ctx context.Context, root string, logger *slog.Logger, opts Options) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultOptions()
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaults.DebounceWindow
	}
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = defaults.BroadcastBuffer
	}
	if opts.ScanConcurrency <= 0 {
		opts.ScanConcurrency = defaults.ScanConcurrency
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("repository: resolve root: %w", err)
	}
	absRoot = filepath.Clean(absRoot)

	rctx, cancel := context.WithCancel(ctx)
	repo := &Repository{
		logger:   logger.With("component", "repository"),
		opts:     opts,
		root:     absRoot,
		rootURI:  uri.FromPath(absRoot),
		ctx:      rctx,
		cancel:   cancel,
		texts:    newShardedMap[*Rope](),
		asts:     newShardedMap[*ast.Node](),
		trackers: newShardedMap[*linetracker.Tracker](),
		g:        graph.New(),
		subs:     make(map[uint64]*subscriber),
		pending:  make(map[string]*time.Timer),
	}

	if err := repo.startWatcher(); err != nil {
		cancel()
		return nil, err
	}

	repo.wg.Add(1)
	go func() {
		defer repo.wg.Done()
		repo.runInitialScan()
	}()

	return repo, nil
}

// Close stops the filesystem watcher and background goroutines, and waits
// for them to exit.
func (r *Repository) Close() error {
	r.cancel()
	err := r.watcher.Close()
	r.wg.Wait()

	r.subMu.Lock()
	for id, sub := range r.subs {
		close(sub.ch)
		delete(r.subs, id)
	}
	r.subMu.Unlock()

	return err
}

// Subscribe returns a channel of broadcast messages and an unsubscribe
// function. The channel is closed by unsubscribe or by Close, whichever
// happens first; callers must drain it promptly since it is a bounded,
// lossy queue under backpressure.
func (r *Repository) Subscribe() (<-chan Message, func()) {
	id := r.subNext.Add(1)
	sub := &subscriber{ch: make(chan Message, r.opts.BroadcastBuffer)}

	r.subMu.Lock()
	r.subs[id] = sub
	r.subMu.Unlock()

	once := sync.Once{}
	unsubscribe := func() {
		once.Do(func() {
			r.subMu.Lock()
			if s, ok := r.subs[id]; ok {
				close(s.ch)
				delete(r.subs, id)
			}
			r.subMu.Unlock()
		})
	}
	return sub.ch, unsubscribe
}

func (r *Repository) broadcast(msg Message) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, sub := range r.subs {
		select {
		case sub.ch <- msg:
		default:
			r.logger.Warn("dropping message for slow subscriber")
		}
	}
}

// resolveAbsPath cleans path (joining it onto root first if relative) and
// rejects any result that escapes root.
func (r *Repository) resolveAbsPath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.root, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}
	return abs, nil
}

func (r *Repository) uriForPath(absPath string) uri.DocURI {
	return uri.FromPath(absPath)
}

// LinkToURI resolves a bare wikilink name (as it appears inside [brackets],
// without any anchor suffix) to the document URI it names, relative to this
// repository's root.
func (r *Repository) LinkToURI(link string) uri.DocURI {
	joined := uri.Join(r.rootURI, link)
	return uri.Normalize(uri.DocURI(string(joined) + ".pn"))
}

// URIToLink is the inverse of LinkToURI: given a document URI under this
// repository's root, it returns the bare link name that resolves back to
// it. The second return is false for URIs outside root.
func (r *Repository) URIToLink(u uri.DocURI) (string, bool) {
	prefix := string(r.rootURI)
	s := string(u)
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(s, prefix)
	rest = strings.TrimPrefix(rest, "/")
	rest = strings.TrimSuffix(rest, ".pn")
	decoded, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return decoded, true
}

// LinkFor returns the bare link name that other documents would use to
// reference path.
func (r *Repository) LinkFor(path string) (string, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return "", err
	}
	name, ok := r.URIToLink(r.uriForPath(abs))
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

func (r *Repository) linkName(u uri.DocURI) string {
	if name, ok := r.URIToLink(u); ok {
		return name
	}
	if p := u.Path(); p != "" {
		return strings.TrimSuffix(filepath.Base(p), ".pn")
	}
	return string(u)
}

// NormalizePercentEncoding canonicalizes percent-escape casing in a
// document URI so two differently-escaped spellings of the same path
// compare equal.
func (r *Repository) NormalizePercentEncoding(u uri.DocURI) uri.DocURI {
	return uri.Normalize(u)
}

// Ingest parses content as the document at path, replacing any previously
// stored text, AST, line-tracker state, and outgoing graph edges for it.
// It does not broadcast; callers decide whether and which messages to
// publish (initial scan ingests silently aside from its own progress
// messages; live changes publish FileAdded/FileChanged plus the back-link
// messages it invalidates).
func (r *Repository) Ingest(path, content string) (uri.DocURI, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return "", err
	}
	source := r.uriForPath(abs)

	root, parseErrs := parser.ParseText(content)
	if len(parseErrs) > 0 {
		r.logger.Debug("parse completed with diagnostics", "uri", source, "count", len(parseErrs))
	}

	rope := NewRope(content)
	r.texts.Set(source, rope)
	r.asts.Set(source, root)

	tracker, ok := r.trackers.Get(source)
	if !ok {
		tracker = linetracker.New()
		r.trackers.Set(source, tracker)
	}
	tracker.ProcessFileContent(content)

	r.g.SetAST(source, root)

	groups := make(map[uri.DocURI]graph.LinkEdge)
	for _, link := range gatherWikiLinks(root) {
		if link.Link == "" {
			// Self-anchor reference; resolved against this document's own
			// AST, not a cross-document edge.
			continue
		}
		target := r.LinkToURI(link.Link)
		edge := groups[target]
		edge.Locations = append(edge.Locations, graph.LinkLocation{
			SourceRow:      link.Location.Row,
			SourceColStart: link.Location.SpanStart,
			SourceColEnd:   link.Location.SpanEnd,
			TargetAnchor:   link.Anchor,
		})
		groups[target] = edge
	}
	r.g.ReplaceOutEdges(source, groups)

	return source, nil
}

// HandleLiveFileChange re-ingests path with content as its authoritative,
// possibly-unsaved text (an editor buffer, not necessarily what's on disk),
// then broadcasts FileChanged plus refreshed back-link and two-hop
// notifications for it.
func (r *Repository) HandleLiveFileChange(path, content string) error {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return err
	}
	if _, err := r.Ingest(path, content); err != nil {
		return err
	}

	meta := r.metadataFor(abs)
	r.broadcast(FileChanged{Path: path, Content: content, Metadata: meta})
	r.broadcastBackLinksAndTwoHop(path)
	return nil
}

func (r *Repository) metadataFor(absPath string) FileMetadata {
	meta := FileMetadata{Modified: time.Now()}
	if info, err := os.Stat(absPath); err == nil {
		meta.Modified = info.ModTime()
	}
	meta.LinkCount = len(r.g.InEdges(r.uriForPath(absPath)))
	return meta
}

func (r *Repository) broadcastBackLinksAndTwoHop(path string) {
	if back, err := r.BackLinks(path); err == nil {
		r.broadcast(BackLinksChanged{Path: path, Data: back})
	}
	if two, err := r.TwoHopLinks(path); err == nil {
		r.broadcast(TwoHopLinksChanged{Path: path, Data: two})
	}
}

// Remove deletes path's document from the repository entirely: its text,
// AST, line tracker, and every graph edge touching it.
func (r *Repository) Remove(path string) error {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return err
	}
	source := r.uriForPath(abs)
	r.texts.Delete(source)
	r.asts.Delete(source)
	r.trackers.Delete(source)
	r.g.Remove(source)
	return nil
}

// AST returns the parsed document at path.
func (r *Repository) AST(path string) (*ast.Node, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return nil, err
	}
	root, ok := r.asts.Get(r.uriForPath(abs))
	if !ok {
		return nil, ErrNotFound
	}
	return root, nil
}

// Text returns the stored text buffer for path.
func (r *Repository) Text(path string) (*Rope, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return nil, err
	}
	rope, ok := r.texts.Get(r.uriForPath(abs))
	if !ok {
		return nil, ErrNotFound
	}
	return rope, nil
}

func gatherWikiLinks(root *ast.Node) []*ast.Node {
	var links []*ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if n.Kind == ast.KindWikiLink {
			links = append(links, n)
		}
		return true
	})
	return links
}

// BackLinks reports every document linking into path, with every linking
// location's source line rendered as a short context snippet.
func (r *Repository) BackLinks(path string) ([]BackLinkData, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return nil, err
	}
	target := r.uriForPath(abs)

	edges := r.g.InEdges(target)
	results := make([]BackLinkData, 0, len(edges))
	for source, edge := range edges {
		text, _ := r.texts.Get(source)
		locs := make([]BackLinkLocation, 0, len(edge.Locations))
		for _, loc := range edge.Locations {
			locs = append(locs, BackLinkLocation{
				Line:         int(loc.SourceRow),
				ColStart:     loc.SourceColStart,
				ColEnd:       loc.SourceColEnd,
				Context:      contextSnippet(text, loc.SourceRow),
				TargetAnchor: loc.TargetAnchor,
			})
		}
		sort.Slice(locs, func(i, j int) bool { return locs[i].Line < locs[j].Line })
		results = append(results, BackLinkData{SourceFile: r.linkName(source), Locations: locs})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SourceFile < results[j].SourceFile })
	return results, nil
}

func contextSnippet(text *Rope, row uint32) string {
	line, ok := text.Line(int(row))
	if !ok {
		return ""
	}
	return truncateRunes(strings.TrimSpace(line), 80)
}

func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TwoHopLinks groups, for each document path links to directly, every other
// document that also links to it — the "what else touches the things I
// touch" view.
func (r *Repository) TwoHopLinks(path string) ([]TwoHopGroup, error) {
	abs, err := r.resolveAbsPath(path)
	if err != nil {
		return nil, err
	}
	source := r.uriForPath(abs)

	out := r.g.OutEdges(source)
	groups := make([]TwoHopGroup, 0, len(out))
	for target := range out {
		ins := r.g.InEdges(target)
		var connected []string
		for s := range ins {
			if s == source {
				continue
			}
			connected = append(connected, r.linkName(s))
		}
		if len(connected) == 0 {
			continue
		}
		sort.Strings(connected)
		groups = append(groups, TwoHopGroup{Bridge: r.linkName(target), Connected: connected})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Connected) != len(groups[j].Connected) {
			return len(groups[i].Connected) > len(groups[j].Connected)
		}
		return groups[i].Bridge < groups[j].Bridge
	})
	return groups, nil
}
