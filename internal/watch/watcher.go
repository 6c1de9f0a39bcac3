// Package watch re-scores documents as they change on disk, recording the
// results into a rolling history run and publishing score events.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dreamfactorysoftware/df-wiki/internal/batch"
	"github.com/dreamfactorysoftware/df-wiki/internal/checksum"
	"github.com/dreamfactorysoftware/df-wiki/internal/history"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// EventCallback is called after a watcher-driven score change.
// kind is "updated" or "removed"; overall is zero for removals.
type EventCallback func(kind, path string, overall float64)

// aiReferenceName is the per-directory AI companion file, never scored.
const aiReferenceName = "_ai-reference.md"

// Watch starts an fsnotify watcher on the docs root and re-scores changed
// documents until ctx is cancelled. Scores land in a rolling run opened at
// startup; cb (if non-nil) fires after each recorded change.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes recorded
// scores whose files no longer exist on disk.
func Watch(ctx context.Context, db history.Store, store *storage.FS, scorer *score.Scorer, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	docsRoot := store.Root()
	if err := addDirsRecursive(w, docsRoot); err != nil {
		return err
	}

	runID, err := db.StartRun(docsRoot)
	if err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", docsRoot), slog.Int64("run_id", runID))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileAfterRename(db, store, scorer, runID, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Score any docs already in the new directory.
					scoreNewDir(db, store, scorer, runID, docsRoot, absPath, logger, cb)
					continue
				}
			}

			// Only process pipeline documents from here on.
			if !storage.IsDocFile(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(docsRoot, absPath)
			if relErr != nil {
				continue
			}
			if skipPath(rel) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				fs, scoreErr := scoreFile(db, store, scorer, runID, rel)
				if scoreErr != nil {
					logger.Warn("watcher: score failed", slog.String("path", rel), slog.String("error", scoreErr.Error()))
					continue
				}
				if fs == nil {
					continue // content unchanged
				}
				logger.Debug("watcher: rescored", slog.String("path", rel), slog.Float64("overall", fs.OverallScore))
				if cb != nil {
					cb("updated", rel, fs.OverallScore)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeletePageScore(runID, rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
				if cb != nil {
					cb("removed", rel, 0)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We drop the old score
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if delErr := db.DeletePageScore(runID, rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old removed", slog.String("path", rel))
					if cb != nil {
						cb("removed", rel, 0)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// scoreFile scores one document and records it in the rolling run. A nil
// result with nil error means the recorded checksum already matched.
func scoreFile(db history.Store, store *storage.FS, scorer *score.Scorer, runID int64, rel string) (*batch.FileScore, error) {
	data, err := store.Read(rel)
	if err != nil {
		return nil, err
	}
	sum := checksum.Sum(data)
	prev, err := db.PageChecksum(runID, rel)
	if err != nil {
		return nil, err
	}
	if prev == sum {
		return nil, nil
	}

	fs := batch.FileScore{
		ContentScore: scorer.Score(models.NewDocument(rel, string(data))),
		Checksum:     sum,
	}
	if err := db.UpsertPageScore(runID, fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// reconcileAfterRename does a lightweight sync using batch lookups:
// finds recorded scores without a corresponding file on disk and removes
// them, and re-scores on-disk files whose checksum drifted.
func reconcileAfterRename(db history.Store, store *storage.FS, scorer *score.Scorer, runID int64, logger *slog.Logger, cb EventCallback) {
	recorded, err := db.RunScores(runID)
	if err != nil {
		logger.Warn("reconcile: run scores failed", slog.String("error", err.Error()))
		return
	}
	checksums := make(map[string]string, len(recorded))
	for _, ps := range recorded {
		checksums[ps.Path] = ps.Checksum
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		rel := filepath.ToSlash(m.Path)
		if skipPath(rel) {
			continue
		}
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeletePageScore(runID, p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("removed", p, 0)
				}
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		// scoreFile re-reads and re-checks the checksum itself.
		if fs, scoreErr := scoreFile(db, store, scorer, runID, p); scoreErr == nil && fs != nil {
			logger.Debug("reconcile: rescored", slog.String("path", p))
			if cb != nil {
				cb("updated", p, fs.OverallScore)
			}
		}
	}
}

// scoreNewDir scores any documents found in a newly created directory.
func scoreNewDir(db history.Store, store *storage.FS, scorer *score.Scorer, runID int64, docsRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsDocFile(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(docsRoot, p)
		if relErr != nil || skipPath(rel) {
			return nil
		}
		if fs, scoreErr := scoreFile(db, store, scorer, runID, rel); scoreErr == nil && fs != nil {
			logger.Debug("watcher: scored from new dir", slog.String("path", rel))
			if cb != nil {
				cb("updated", rel, fs.OverallScore)
			}
		}
		return nil
	})
}

// skipPath filters hidden path segments and AI companion files, mirroring
// the batch walk rules.
func skipPath(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return path.Base(rel) == aiReferenceName
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
