package store

import (
	"container/heap"

	"github.com/rpcpool/rill/internal/blockcodec"
	"github.com/rpcpool/rill/internal/dictionary"
	"github.com/rpcpool/rill/metrics"
)

// Merge combines the given stores, all covering the same logical quantum,
// into a new store file at path. Per-column dictionaries are folded
// pairwise through dictionary.Merge, which reports how many of each
// store's values were already present in the running dictionary; rows are
// produced by a k-way merge over each input's decoded column, dropping
// duplicates.
func Merge(stores []*Store, path string, ts, quant uint64) (*Store, error) {
	mergedDictA, err := mergeDictionaries(stores, ColumnA)
	if err != nil {
		return nil, err
	}
	mergedDictB, err := mergeDictionaries(stores, ColumnB)
	if err != nil {
		return nil, err
	}

	pairsA, err := kwayMergeColumn(stores, ColumnA)
	if err != nil {
		return nil, err
	}
	pairsB, err := kwayMergeColumn(stores, ColumnB)
	if err != nil {
		return nil, err
	}

	return create(path, ts, quant, uint64(len(pairsA)), pairsA, pairsB, mergedDictA, mergedDictB)
}

// mergeDictionaries folds every store's col dictionary into a running
// union one pair at a time via dictionary.Merge, reporting each step's
// common-value count into the merge dictionary metric.
func mergeDictionaries(stores []*Store, col Column) (*dictionary.Dictionary, error) {
	if len(stores) == 0 {
		return dictionary.Build(nil)
	}

	merged, err := dictionary.Build(indexViewFromEntries(stores[0].index(col).Entries()))
	if err != nil {
		return nil, err
	}
	for _, s := range stores[1:] {
		next, err := dictionary.Build(indexViewFromEntries(s.index(col).Entries()))
		if err != nil {
			return nil, err
		}
		var common int
		merged, common, err = dictionary.Merge(merged, next)
		if err != nil {
			return nil, err
		}
		metrics.DictionaryMergeCommon.Add(float64(common))
	}
	return merged, nil
}

// kwayMergeColumn decodes col from every store back into actual (key,
// value) pairs and merges the streams, picking the smallest current row
// across all inputs at each step and dropping exact duplicates.
func kwayMergeColumn(stores []*Store, col Column) ([]blockcodec.Pair, error) {
	cursors := make([]*mergeCursor, 0, len(stores))
	for _, s := range stores {
		dict := dictionary.View(indexViewFromEntries(s.otherIndex(col).Entries()))
		dec := blockcodec.NewDecoder(s.dataRegion(col), s.index(col), dict)
		c := &mergeCursor{dec: dec}
		if err := c.advance(); err != nil {
			return nil, err
		}
		if !c.done {
			cursors = append(cursors, c)
		}
	}

	h := make(cursorHeap, len(cursors))
	copy(h, cursors)
	heap.Init(&h)

	var out []blockcodec.Pair
	var prev blockcodec.Pair
	hasPrev := false

	for h.Len() > 0 {
		c := h[0]
		p := c.cur

		if !hasPrev || p != prev {
			out = append(out, p)
			prev = p
			hasPrev = true
		}

		if err := c.advance(); err != nil {
			return nil, err
		}
		if c.done {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}

	return out, nil
}

type mergeCursor struct {
	dec  *blockcodec.Decoder
	cur  blockcodec.Pair
	done bool
}

func (c *mergeCursor) advance() error {
	p, ok, err := c.dec.Next()
	if err != nil {
		return err
	}
	if !ok {
		c.done = true
		return nil
	}
	c.cur = p
	return nil
}

// cursorHeap orders live cursors by their current row under the row set's
// total order: key first, then value.
type cursorHeap []*mergeCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	a, b := h[i].cur, h[j].cur
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	return a.Value < b.Value
}
func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)   { *h = append(*h, x.(*mergeCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
