// Package queryfacade fans a query out across every store file in a
// directory, concatenating and compacting the results so a caller never
// has to know how rotation has split a time range across files.
package queryfacade

import (
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/rillerr"
	"github.com/rpcpool/rill/store"
)

var log = logging.Logger("rill/queryfacade")

// Facade holds one open *store.Store per live file in a directory.
type Facade struct {
	dir string

	mu     sync.RWMutex
	stores map[string]*store.Store

	watch *watcher
}

// Open scans dir for *.rill files and opens each as a store, skipping any
// that fail to open with a warning rather than a fatal error.
func Open(dir string) (*Facade, error) {
	f := &Facade{
		dir:    dir,
		stores: make(map[string]*store.Store),
	}
	if err := f.Refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

// Refresh rescans the directory, opening any new *.rill file and closing
// any previously-open store whose file is gone (rotation merged or
// expired it).
func (f *Facade) Refresh() error {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.rill"))
	if err != nil {
		return rillerr.Wrap("queryfacade.Refresh", f.dir, err)
	}

	seen := make(map[string]bool, len(matches))

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, path := range matches {
		seen[path] = true
		if _, ok := f.stores[path]; ok {
			continue
		}
		s, err := store.Open(path)
		if err != nil {
			log.Warnw("skipping unopenable store", "path", path, "err", err)
			continue
		}
		f.stores[path] = s
	}

	for path, s := range f.stores {
		if !seen[path] {
			s.Close()
			delete(f.stores, path)
		}
	}

	return nil
}

// Query fans out a point lookup to every open store and appends matching
// rows to out, which is compacted once at the end so duplicate rows
// spanning multiple files collapse.
func (f *Facade) Query(col store.Column, key uint64, out *rowset.Set) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, s := range f.stores {
		if err := s.Query(col, key, out); err != nil {
			return rillerr.Wrap("queryfacade.Query", s.Path(), err)
		}
	}
	out.Compact()
	return nil
}

// Len returns the number of stores currently open.
func (f *Facade) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.stores)
}

// Close stops any active watch and closes every open store.
func (f *Facade) Close() error {
	if f.watch != nil {
		f.watch.stop()
		f.watch = nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for path, s := range f.stores {
		if err := s.Close(); err != nil {
			return rillerr.Wrap("queryfacade.Close", path, err)
		}
	}
	f.stores = make(map[string]*store.Store)
	return nil
}
