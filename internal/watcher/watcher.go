// Package watcher monitors the source tree and turns bursts of file events
// into single rebuild requests. Events are debounced over a quiet window so a
// branch switch or IDE save-all causes one run, not fifty. Build output and
// dot directories are ignored to keep the pipeline's own writes from
// retriggering it.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/releasekit/internal/logfields"
)

// Watcher monitors a source root for changes.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	ignore   map[string]bool
	watcher  *fsnotify.Watcher
}

// New builds a watcher over root. onChange fires once per settled burst of
// events; ignoreDirs are directory names skipped entirely (build output).
func New(root string, debounce time.Duration, onChange func(), ignoreDirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	ignore := map[string]bool{"bin": true, "obj": true}
	for _, d := range ignoreDirs {
		ignore[d] = true
	}

	w := &Watcher{
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
		ignore:   ignore,
		watcher:  fsw,
	}
	if err := w.addTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks processing events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	slog.Info("Watching source tree", logfields.Path(w.root), slog.Duration("debounce", w.debounce))

	// The timer stays stopped until the first relevant event.
	quiet := time.NewTimer(time.Hour)
	if !quiet.Stop() {
		<-quiet.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			slog.Info("Watcher stopping")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			// New directories join the watch so nested changes keep arriving.
			if event.Has(fsnotify.Create) {
				if err := w.addTree(event.Name); err != nil {
					slog.Debug("Could not watch new path", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			slog.Debug("Source change", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if armed && !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(w.debounce)
			armed = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))

		case <-quiet.C:
			armed = false
			slog.Info("Source settled, requesting run")
			w.onChange()
		}
	}
}

// addTree watches path and every non-ignored directory below it. Non-directory
// paths are ignored (their parent directory already covers them).
func (w *Watcher) addTree(path string) error {
	return filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			// The path may be gone already (editor temp files).
			return nil //nolint:nilerr
		}
		if !entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if w.ignore[name] || (strings.HasPrefix(name, ".") && p != path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// ignored reports whether a path lies under an ignored or dot directory.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.ignore[part] || (strings.HasPrefix(part, ".") && part != ".") {
			return true
		}
	}
	return false
}
