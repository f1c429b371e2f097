package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyBackend watches the parent directory and keeps events for the
// target file only. Watching the directory survives editors that save by
// renaming a temp file over the original.
type fsnotifyBackend struct {
	path string
}

func (b *fsnotifyBackend) run(ctx context.Context, changed func(), failed func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherInit, err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(b.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherInit, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != b.path || event.Op == fsnotify.Chmod {
				continue
			}
			// Remove and Rename also count: the re-read reports the missing
			// file, and a following Create brings it back.
			changed()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			failed(fmt.Errorf("%w: %v", ErrWatch, err))
		}
	}
}
