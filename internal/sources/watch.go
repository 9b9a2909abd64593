package sources

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// dirWatcher wraps fsnotify to wake the driver on a write to any file
// under the watched roots, so a source can tail on-change instead of
// polling on every tick regardless of activity.
type dirWatcher struct {
	watcher *fsnotify.Watcher
	changed chan struct{}
	done    chan struct{}
}

// newDirWatcher watches roots (and any subdirectories, so newly created
// per-session files are picked up) best-effort: a failure to start the
// watcher is not fatal, callers simply fall back to tick-driven polling.
func newDirWatcher(roots []string) *dirWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}

	for _, root := range roots {
		addWatchTree(w, root)
	}

	dw := &dirWatcher{
		watcher: w,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go dw.run()
	return dw
}

func addWatchTree(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = w.Add(path)
		}
		return nil
	})
}

func (dw *dirWatcher) run() {
	for {
		select {
		case _, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			select {
			case dw.changed <- struct{}{}:
			default:
			}
		case _, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
		case <-dw.done:
			return
		}
	}
}

func (dw *dirWatcher) Changed() <-chan struct{} {
	if dw == nil {
		return nil
	}
	return dw.changed
}

func (dw *dirWatcher) Close() error {
	if dw == nil {
		return nil
	}
	close(dw.done)
	return dw.watcher.Close()
}
