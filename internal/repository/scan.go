package repository

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// runInitialScan walks the repository root for .pn files and ingests each
// one, reporting progress to subscribers as it goes. It runs once, in the
// background, from New.
func (r *Repository) runInitialScan() {
	var paths []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Warn("walk error during initial scan", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if !r.opts.IncludeHidden && isHiddenDir(r.root, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".pn") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("initial scan walk failed", "error", err)
	}

	total := len(paths)
	r.broadcast(ScanStarted{Total: total})
	r.logger.Info("initial scan started", "total", total)

	var scanned atomic.Int64

	eg, ctx := errgroup.WithContext(r.ctx)
	eg.SetLimit(r.opts.ScanConcurrency)

	for _, path := range paths {
		path := path
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			content, err := os.ReadFile(path)
			if err != nil {
				r.logger.Warn("failed to read file during initial scan", "path", path, "error", err)
			} else if _, err := r.Ingest(path, string(content)); err != nil {
				r.logger.Warn("failed to ingest file during initial scan", "path", path, "error", err)
			}

			n := scanned.Add(1)
			r.broadcast(ScanProgress{Scanned: int(n), Total: total})
			return nil
		})
	}
	_ = eg.Wait()

	r.broadcast(ScanCompleted{Total: total})
	r.logger.Info("initial scan completed", "total", total)
}
