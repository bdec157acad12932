package store

import (
	"io"

	"github.com/rpcpool/rill/internal/blockcodec"
	"github.com/rpcpool/rill/internal/dictionary"
	"github.com/rpcpool/rill/internal/rowset"
)

// Iterator walks every row of one column of a store in sorted order. A
// store's file identity never changes after it is stamped, so an iterator
// stays valid for the store's whole lifetime.
type Iterator struct {
	col Column
	dec *blockcodec.Decoder
}

// Iterate returns an Iterator positioned at the start of col's data.
func (s *Store) Iterate(col Column) *Iterator {
	dict := dictionary.View(indexViewFromEntries(s.otherIndex(col).Entries()))
	dec := blockcodec.NewDecoder(s.dataRegion(col), s.index(col), dict)
	return &Iterator{col: col, dec: dec}
}

// Next returns the next row in col's own key orientation: (a, b) for
// ColumnA, (b, a) for ColumnB. Returns io.EOF when done.
func (it *Iterator) Next() (rowset.Row, error) {
	p, ok, err := it.dec.Next()
	if err != nil {
		return rowset.Row{}, err
	}
	if !ok {
		return rowset.Row{}, io.EOF
	}
	return rowset.Row{A: p.Key, B: p.Value}, nil
}
