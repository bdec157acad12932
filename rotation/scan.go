package rotation

import (
	"path/filepath"
	"sort"

	"github.com/rpcpool/rill/rillerr"
	"github.com/rpcpool/rill/store"
)

// scan opens every *.rill file directly under dir, skipping (with a log
// line, not a failure) any file that fails to open or fails Validate. The
// result is sorted by timestamp descending, latest (biggest ts) first.
func scan(dir string) ([]*store.Store, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.rill"))
	if err != nil {
		return nil, rillerr.Wrap("rotation.scan", dir, err)
	}

	stores := make([]*store.Store, 0, len(matches))
	for _, path := range matches {
		s, err := store.Open(path)
		if err != nil {
			log.Warnw("skipping unopenable store", "path", path, "err", err)
			continue
		}
		if err := s.Validate(); err != nil {
			log.Warnw("skipping invalid store", "path", path, "err", err)
			s.Close()
			continue
		}
		stores = append(stores, s)
	}

	sort.Slice(stores, func(i, j int) bool {
		return stores[i].TS() > stores[j].TS()
	})

	return stores, nil
}
