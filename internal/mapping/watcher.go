package mapping

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a mapping file on change and publishes the new table to a
// store. A reload that fails validation or compilation is logged and the
// previous snapshot stays in effect.
type Watcher struct {
	path    string
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchFile starts watching the given mapping file. The parent directory is
// watched rather than the file itself, so atomic rename-replace writes (the
// way SaveFile and most editors write) are observed too.
func WatchFile(path string, store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch mapping directory: %w", err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		store:   store,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Mapping file watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	table, err := LoadFile(w.path)
	if err != nil {
		slog.Error("Ignoring mapping file change", "path", w.path, "error", err)
		return
	}
	w.store.Replace(table)
	slog.Info("Mapping table reloaded", "path", w.path, "rules", table.Len())
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
