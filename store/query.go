package store

import (
	"fmt"
	"io"

	"github.com/rpcpool/rill/internal/blockcodec"
	"github.com/rpcpool/rill/internal/dictionary"
	"github.com/rpcpool/rill/internal/rowset"
)

// Query looks up every row whose col-side value equals key and appends
// them to out. A missing key appends nothing and returns a nil error.
func (s *Store) Query(col Column, key uint64, out *rowset.Set) error {
	idx := s.index(col)
	pos, offset, ok := idx.Find(key)
	if !ok {
		return nil
	}

	dict := dictionary.View(indexViewFromEntries(s.otherIndex(col).Entries()))
	dec := blockcodec.NewDecoderAt(s.dataRegion(col), offset, idx, dict, pos)

	for {
		p, ok, err := dec.Next()
		if err != nil {
			return err
		}
		if !ok || p.Key != key {
			return nil
		}
		if col == ColumnA {
			out.Append(rowset.Row{A: p.Key, B: p.Value})
		} else {
			out.Append(rowset.Row{A: p.Value, B: p.Key})
		}
	}
}

// Prefetch advises the kernel that this store's whole mapping will be
// accessed soon, ahead of a full-column iterate.
func (s *Store) Prefetch() error { return s.m.willNeed() }

// Release advises the kernel that this store's mapping is cold for now.
func (s *Store) Release() error { return s.m.dontNeed() }

// Validate walks both column indices checking that their keys are
// strictly increasing, checks the data offsets against the mapping size,
// and decodes both data regions in full, checking that each yields the
// header's row count. Rotation runs this before trusting a file it did not
// just write itself.
func (s *Store) Validate() error {
	if !s.indexA.Monotonic() {
		return fmt.Errorf("column a index is not monotonic")
	}
	if !s.indexB.Monotonic() {
		return fmt.Errorf("column b index is not monotonic")
	}
	if int(s.hdr.DataAOff) > len(s.m.data) || int(s.hdr.DataBOff) > len(s.m.data) {
		return fmt.Errorf("data offsets exceed file size")
	}
	if s.hdr.DataAOff > s.hdr.DataBOff {
		return fmt.Errorf("column a data region overlaps column b")
	}

	for _, col := range []Column{ColumnA, ColumnB} {
		it := s.Iterate(col)
		count := uint64(0)
		for {
			_, err := it.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			count++
		}
		if count != s.hdr.Rows {
			return fmt.Errorf("column %d: decoded %d rows, header declares %d", col, count, s.hdr.Rows)
		}
	}
	return nil
}

// Dump writes a human-readable header and per-column summary to w.
func (s *Store) Dump(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"%s: version=%d ts=%d quant=%d rows=%d values_a=%d values_b=%d\n",
		s.path, s.hdr.Version, s.hdr.TS, s.hdr.Quant, s.hdr.Rows,
		s.indexA.Len(), s.indexB.Len(),
	)
	return err
}
