package queryfacade

import (
	"github.com/fsnotify/fsnotify"

	"github.com/rpcpool/rill/rillerr"
)

// watcher runs a background fsnotify loop that calls Refresh on every
// create/remove/rename event in the facade's directory, so a long-lived
// facade never has to pay for a full rescan on the query path.
type watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts the background refresh loop. It is a no-op if already
// watching. Callers that never call Watch get the default behavior:
// Refresh must be called explicitly to pick up rotation's changes.
func (f *Facade) Watch() error {
	if f.watch != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return rillerr.Wrap("queryfacade.Watch", f.dir, err)
	}
	if err := fsw.Add(f.dir); err != nil {
		fsw.Close()
		return rillerr.Wrap("queryfacade.Watch", f.dir, err)
	}

	w := &watcher{fsw: fsw, done: make(chan struct{})}
	f.watch = w

	go func() {
		for {
			select {
			case _, ok := <-fsw.Events:
				if !ok {
					return
				}
				if err := f.Refresh(); err != nil {
					log.Warnw("watch refresh failed", "dir", f.dir, "err", err)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warnw("watch error", "dir", f.dir, "err", err)
			case <-w.done:
				return
			}
		}
	}()

	return nil
}

func (w *watcher) stop() {
	close(w.done)
	w.fsw.Close()
}
