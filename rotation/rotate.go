// Package rotation maintains a directory of store files so that, across a
// tiered ladder of quanta, at most one file represents each non-current
// bucket, and files past the retention horizon are removed.
package rotation

import (
	"os"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/rill/metrics"
	"github.com/rpcpool/rill/rillerr"
	"github.com/rpcpool/rill/store"
)

var log = logging.Logger("rill/rotation")

// Run performs one rotation pass over dir as of now. Failing to acquire the
// directory lock is a no-op success, matching concurrent rotators sharing a
// directory.
func Run(dir string, cfg Config, now uint64) error {
	lock, held, err := tryLock(dir)
	if err != nil {
		return rillerr.Wrap("rotation.Run", dir, err)
	}
	if !held {
		metrics.RotationsSkipped.Inc()
		return nil
	}
	defer lock.unlock()

	stores, err := scan(dir)
	if err != nil {
		return err
	}

	list, err := expire(now, cfg, stores)
	if err != nil {
		closeAll(stores)
		return err
	}

	for _, quant := range cfg.quanta() {
		list, err = mergeQuant(dir, cfg, now, quant, list)
		if err != nil {
			closeAll(list)
			return err
		}
	}

	closeAll(list)
	metrics.RotationsRun.Inc()
	return nil
}

func closeAll(stores []*store.Store) {
	for _, s := range stores {
		if s != nil {
			s.Close()
		}
	}
}

// expire drops every store older than now - retention, returning the
// survivors. Mirrors the original's guard against a negative horizon
// during early-timeline tests: when now hasn't reached the retention
// horizon yet, nothing is old enough to expire.
func expire(now uint64, cfg Config, list []*store.Store) ([]*store.Store, error) {
	if now < cfg.RetentionSecs {
		return list, nil
	}
	cutoff := now - cfg.RetentionSecs

	i := 0
	for ; i < len(list); i++ {
		if list[i].TS() < cutoff {
			break
		}
	}

	for _, s := range list[i:] {
		path := s.Path()
		if err := s.Close(); err != nil {
			return nil, rillerr.Wrap("rotation.expire", path, err)
		}
		if err := os.Remove(path); err != nil {
			return nil, rillerr.Wrap("rotation.expire", path, err)
		}
		metrics.FilesExpired.Inc()
		log.Infow("expired store", "path", path)
	}

	return list[:i], nil
}

// mergeQuant partitions list (sorted by ts descending) into contiguous
// runs sharing the same ts/quant bucket, merges every run except the one
// matching now's own bucket into a single file, and returns one store per
// surviving bucket. The current bucket's files are closed and left on
// disk untouched, still accumulating, and excluded from the result so
// coarser quanta never see them.
func mergeQuant(dir string, cfg Config, now, quant uint64, list []*store.Store) ([]*store.Store, error) {
	if len(list) <= 1 {
		return list, nil
	}

	out := make([]*store.Store, 0, len(list))
	start := 0
	currentBucket := list[0].TS() / quant

	for i := 0; i < len(list); i++ {
		end := i + 1

		var nextBucket uint64
		if i+1 != len(list) {
			nextBucket = list[i+1].TS() / quant
		} else {
			nextBucket = ^uint64(0)
		}
		if nextBucket == currentBucket {
			continue
		}

		runTS := list[start].TS()
		if runTS/quant != now/quant {
			merged, err := mergeRun(dir, cfg, runTS, quant, list[start:end])
			if err != nil {
				closeAll(list[start:])
				return nil, err
			}
			out = append(out, merged)
		} else {
			closeAll(list[start:end])
		}

		currentBucket = nextBucket
		start = i + 1
	}

	return out, nil
}

// mergeRun collapses a single bucket's stores into one file. A bucket with
// only one store is kept as is, with no file operations.
func mergeRun(dir string, cfg Config, ts, quant uint64, stores []*store.Store) (*store.Store, error) {
	if len(stores) == 1 {
		return stores[0], nil
	}

	path := cfg.name(dir, ts, quant)
	merged, err := store.Merge(stores, path, ts, quant)
	if err != nil {
		return nil, rillerr.Wrap("rotation.mergeRun", path, err)
	}

	for _, s := range stores {
		orig := s.Path()
		s.Close()
		if err := os.Remove(orig); err != nil {
			log.Warnw("failed to remove merged store", "path", orig, "err", err)
		}
	}
	metrics.FilesMerged.Add(float64(len(stores)))
	log.Infow("merged stores", "path", path, "count", len(stores), "quant", quant)

	return merged, nil
}
