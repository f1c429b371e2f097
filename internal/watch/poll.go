package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/radovskyb/watcher"
)

// pollBackend stats the parent directory every interval. The directory is
// watched rather than the file so a deleted file can come back.
type pollBackend struct {
	path     string
	interval time.Duration
}

func (b *pollBackend) run(ctx context.Context, changed func(), failed func(error)) error {
	w := watcher.New()
	w.FilterOps(watcher.Write, watcher.Create, watcher.Remove, watcher.Rename, watcher.Move)
	if err := w.Add(filepath.Dir(b.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherInit, err)
	}

	started := make(chan struct{})
	go func() {
		w.Wait()
		close(started)
	}()
	startErr := make(chan error, 1)
	go func() {
		startErr <- w.Start(b.interval)
	}()

	select {
	case <-started:
	case err := <-startErr:
		return fmt.Errorf("%w: %v", ErrWatcherInit, err)
	}

	for {
		select {
		case <-ctx.Done():
			// Event, Error and Closed are unbuffered: keep draining until
			// the polling loop acknowledges Close.
			go w.Close()
			for {
				select {
				case <-w.Event:
				case <-w.Error:
				case <-w.Closed:
					return nil
				}
			}
		case event := <-w.Event:
			if filepath.Clean(event.Path) == b.path {
				changed()
			}
		case err := <-w.Error:
			failed(fmt.Errorf("%w: %v", ErrWatch, err))
		case <-w.Closed:
			return nil
		}
	}
}
