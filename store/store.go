// Package store implements the immutable, mmap'd, doubly-indexed on-disk
// file format that holds one time-quantum's worth of (a, b) rows.
package store

import (
	"os"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/rill/internal/colindex"
)

var log = logging.Logger("rill/store")

// Store is one open, stamped store file.
type Store struct {
	path string
	file *os.File
	m    *mapping
	hdr  header

	indexA *colindex.Index
	indexB *colindex.Index
}

// Path returns the file this store was opened from.
func (s *Store) Path() string { return s.path }

// Rows returns the number of rows encoded in the store.
func (s *Store) Rows() uint64 { return s.hdr.Rows }

// TS returns the store's logical timestamp.
func (s *Store) TS() uint64 { return s.hdr.TS }

// Quant returns the store's logical quantum, in seconds.
func (s *Store) Quant() uint64 { return s.hdr.Quant }

// FileVersion returns the on-disk format version this file was written with.
func (s *Store) FileVersion() uint32 { return s.hdr.Version }

// Close unmaps and closes the store's file.
func (s *Store) Close() error {
	if s.m != nil {
		if err := s.m.unmap(); err != nil {
			return err
		}
		s.m = nil
	}
	return s.file.Close()
}

// ValueCount returns the number of distinct values in the given column.
func (s *Store) ValueCount(col Column) int {
	if col == ColumnA {
		return s.indexA.Len()
	}
	return s.indexB.Len()
}

// Values copies up to len(out) distinct values of the given column into
// out, in ascending order, returning the number copied.
func (s *Store) Values(col Column, out []uint64) int {
	idx := s.indexA
	if col == ColumnB {
		idx = s.indexB
	}
	n := idx.Len()
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = idx.Get(i)
	}
	return n
}

// Nearest returns the smallest col value >= key, the diagnostic backing
// `dump -nearest`. ok is false if key is past every value in the column.
func (s *Store) Nearest(col Column, key uint64) (value uint64, exact bool, ok bool) {
	idx := s.index(col)
	pos, _, exact := idx.Seek(key)
	if pos >= idx.Len() {
		return 0, false, false
	}
	return idx.Get(pos), exact, true
}

func (s *Store) dataRegion(col Column) []byte {
	if col == ColumnA {
		return s.m.data[s.hdr.DataAOff:s.hdr.DataBOff]
	}
	return s.m.data[s.hdr.DataBOff:len(s.m.data)]
}

func (s *Store) index(col Column) *colindex.Index {
	if col == ColumnA {
		return s.indexA
	}
	return s.indexB
}

// otherIndex returns the companion index whose key column doubles as the
// dictionary col's data region decodes ordinals against.
func (s *Store) otherIndex(col Column) *colindex.Index {
	if col == ColumnA {
		return s.indexB
	}
	return s.indexA
}

// Column selects which side of a row a store operation addresses.
type Column int

const (
	// ColumnA addresses the a side of every row.
	ColumnA Column = iota
	// ColumnB addresses the b side of every row.
	ColumnB
)
