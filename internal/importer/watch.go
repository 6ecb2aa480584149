package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/deco-run/deco-core/internal/appconfig"
	"github.com/deco-run/deco-core/internal/apperr"
)

// watchDebounce coalesces a burst of filesystem events (a Finder drag-drop
// of many files fires one event per file, often more than one per file) into
// a single reconcile pass.
const watchDebounce = 500 * time.Millisecond

// WatchFolder watches projectPath/images for files that appear or disappear
// by some route other than Import* — a Finder/Explorer drag, a sync client,
// a user editing the folder directly — and reconciles the index to match.
// It runs in the background until ctx is cancelled.
func (im *Importer) WatchFolder(ctx context.Context, projectPath string) error {
	imagesDir := filepath.Join(projectPath, "images")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("create folder watcher: %w", err))
	}
	if err := watcher.Add(imagesDir); err != nil {
		watcher.Close()
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("watch %s: %w", imagesDir, err))
	}

	go im.watchFolderLoop(ctx, watcher, projectPath)
	return nil
}

func (im *Importer) watchFolderLoop(ctx context.Context, watcher *fsnotify.Watcher, projectPath string) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	pending := make(map[string]struct{})
	var mu sync.Mutex

	flush := func() {
		mu.Lock()
		changed := pending
		pending = make(map[string]struct{})
		mu.Unlock()
		if len(changed) == 0 {
			return
		}
		im.reconcileFolder(context.Background(), projectPath, changed)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !IsAllowedExtension(strings.ToLower(filepath.Ext(event.Name))) {
				continue
			}

			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			im.log.Warn("folder watcher error", "project", projectPath, "error", err)
		}
	}
}

// reconcileFolder indexes files that newly exist on disk and removes index
// rows for files that no longer do, for every path touched since the last
// debounce flush.
func (im *Importer) reconcileFolder(ctx context.Context, projectPath string, changed map[string]struct{}) {
	var appeared []ImageInfo
	for path := range changed {
		fi, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				if err := im.storage.DeleteImageData(ctx, projectPath, path); err != nil {
					im.log.Warn("remove index entry for vanished file failed", "path", path, "error", err)
				}
			}
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		appeared = append(appeared, ImageInfo{ID: uuid.NewString(), Filename: filepath.Base(path), Path: path})
	}

	if len(appeared) == 0 {
		return
	}

	im.indexAndEmbedAsync(projectPath, appeared)
	if im.emit != nil {
		im.emit.Emit("project:externalChange", map[string]any{"projectPath": projectPath, "count": len(appeared)})
	}
}

// WatchRecentProjects watches the shared recent-projects file for edits made
// by another deco process (the GUI and a concurrent CLI invocation, for
// instance) and emits the refreshed list so this process's subscribers stay
// in sync without polling.
func (im *Importer) WatchRecentProjects(ctx context.Context) error {
	path, err := appconfig.RecentPath()
	if err != nil {
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("resolve recent projects path: %w", err))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("create config directory: %w", err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("create recent-projects watcher: %w", err))
	}
	// Watch the containing directory rather than the file itself: editors and
	// atomic writers (natefinch/atomic, used to save this same file) replace
	// it rather than writing in place, which a file-level watch would miss.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return apperr.New(apperr.CategoryStorage, fmt.Errorf("watch %s: %w", dir, err))
	}

	go im.watchRecentLoop(ctx, watcher, path)
	return nil
}

func (im *Importer) watchRecentLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer watcher.Close()

	var debounceTimer *time.Timer
	refresh := func() {
		recents, err := appconfig.LoadRecent()
		if err != nil {
			im.log.Warn("reload recent projects failed", "error", err)
			return
		}
		if im.emit != nil {
			im.emit.Emit("recentProjects:changed", recents)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, refresh)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			im.log.Warn("recent-projects watcher error", "error", err)
		}
	}
}
