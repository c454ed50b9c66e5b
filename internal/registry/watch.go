package registry

import (
	"context"
	"fmt"
	log "log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever the data file is changed by someone
// else (an editor, a sync tool). It blocks until ctx is done.
//
// The parent directory is watched rather than the file: atomic saves
// replace the file by rename, which would drop a watch on the file itself.
func (r *Registry) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(r.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			// our own saves reload to the same content and notify nobody
			if err := r.Load(); err != nil {
				log.Warn("Apps file changed but could not be loaded", "path", r.path, "err", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Apps watcher error", "err", err)
		}
	}
}
