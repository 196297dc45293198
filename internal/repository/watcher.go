package repository

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

func (r *Repository) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = w

	if err := r.watchTreeLocked(r.root); err != nil {
		_ = w.Close()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runWatchLoop()
	}()
	return nil
}

func (r *Repository) watchTreeLocked(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("walk error while registering watches", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if !r.opts.IncludeHidden && isHiddenDir(r.root, path) {
			return filepath.SkipDir
		}
		if err := r.watcher.Add(path); err != nil {
			r.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func isHiddenDir(root, path string) bool {
	if path == root {
		return false
	}
	return strings.HasPrefix(filepath.Base(path), ".")
}

func (r *Repository) runWatchLoop() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			r.handleWatchEvent(ev)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

func (r *Repository) handleWatchEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := r.watchTreeLocked(ev.Name); err != nil {
				r.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(ev.Name, ".pn") {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		content, err := os.ReadFile(ev.Name)
		if err != nil {
			r.logger.Warn("failed to read newly created file", "path", ev.Name, "error", err)
			return
		}
		if _, err := r.Ingest(ev.Name, string(content)); err != nil {
			r.logger.Warn("failed to ingest newly created file", "path", ev.Name, "error", err)
			return
		}
		r.broadcast(FileAdded{Path: ev.Name, Content: string(content), Metadata: r.metadataFor(ev.Name)})

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		r.cancelPending(ev.Name)
		if err := r.Remove(ev.Name); err != nil {
			r.logger.Warn("failed to remove file", "path", ev.Name, "error", err)
			return
		}
		r.broadcast(FileRemoved{Path: ev.Name})

	case ev.Op&fsnotify.Write != 0:
		r.scheduleDebouncedIngest(ev.Name)
	}
}

func (r *Repository) cancelPending(path string) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if t, ok := r.pending[path]; ok {
		t.Stop()
		delete(r.pending, path)
	}
}

// scheduleDebouncedIngest coalesces a burst of writes to path into one
// ingest, firing DebounceWindow after the last observed write. Each path
// debounces independently of every other.
func (r *Repository) scheduleDebouncedIngest(path string) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if t, ok := r.pending[path]; ok {
		t.Stop()
	}
	r.pending[path] = time.AfterFunc(r.opts.DebounceWindow, func() {
		r.pendingMu.Lock()
		delete(r.pending, path)
		r.pendingMu.Unlock()
		r.flushWrite(path)
	})
}

func (r *Repository) flushWrite(path string) {
	select {
	case <-r.ctx.Done():
		return
	default:
	}

	content, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("failed to read changed file", "path", path, "error", err)
		return
	}
	if _, err := r.Ingest(path, string(content)); err != nil {
		r.logger.Warn("failed to ingest changed file", "path", path, "error", err)
		return
	}

	// FileChanged is broadcast before the back-link/two-hop refresh it
	// invalidates, so subscribers never see a back-links update for content
	// they have not yet received.
	r.broadcast(FileChanged{Path: path, Content: string(content), Metadata: r.metadataFor(path)})
	r.broadcastBackLinksAndTwoHop(path)
}
