// Package blockcodec implements the encoding of a sorted column of a row
// set into key runs of LEB128 ordinals, and the decoder that reconstructs
// rows from an encoded block driven by its column index.
package blockcodec

import (
	"github.com/rpcpool/rill/internal/colindex"
	"github.com/rpcpool/rill/internal/dictionary"
	"github.com/rpcpool/rill/internal/varint"
	"github.com/rpcpool/rill/rillerr"
)

// Pair is a (key, value) row in the orientation the codec operates on: for
// column A, Key is a and Value is b; for column B (the inverted, re-sorted
// row set), Key is b and Value is a.
type Pair struct {
	Key, Value uint64
}

// BytesPerOrdinal returns the maximum LEB128 length of an ordinal into a
// dictionary of dictLen distinct values: ceil(log128(dictLen)) + 1.
func BytesPerOrdinal(dictLen int) int {
	n := uint64(dictLen)
	digits := 0
	for v := uint64(1); v < n; v *= 128 {
		digits++
	}
	return digits + 1
}

// Capacity returns a pessimistic upper bound, in bytes, on the encoded size
// of rows rows translated through a dictionary of dictLen distinct values:
// (bytes_per_ordinal + 1) * (rows + 1).
func Capacity(rows, dictLen int) int {
	return (BytesPerOrdinal(dictLen) + 1) * (rows + 1)
}

// Encode writes pairs (already sorted by (Key, Value)) into dst as a
// concatenation of key runs, each run holding the LEB128 ordinals of that
// key's values (translated through dict) terminated by a zero byte, with
// the whole stream terminated by an additional zero byte. It returns the
// number of bytes written and the column index built alongside the
// encoding.
func Encode(dst []byte, pairs []Pair, dict *dictionary.Dictionary) (int, *colindex.Index, error) {
	idx := colindex.New(0)
	pos := 0
	hasKey := false
	var lastKey uint64

	writeByte := func(b byte) error {
		if pos >= len(dst) {
			return rillerr.Wrap("blockcodec.Encode", "", rillerr.ErrOverflow)
		}
		dst[pos] = b
		pos++
		return nil
	}

	for _, p := range pairs {
		if !hasKey || p.Key != lastKey {
			if hasKey {
				if err := writeByte(0); err != nil {
					return 0, nil, err
				}
			}
			idx.Put(p.Key, uint64(pos))
			lastKey = p.Key
			hasKey = true
		}

		ord, err := dict.Ordinal(p.Value)
		if err != nil {
			return 0, nil, rillerr.Wrap("blockcodec.Encode", "", err)
		}

		if pos+varint.Sizeof(ord) > len(dst) {
			return 0, nil, rillerr.Wrap("blockcodec.Encode", "", rillerr.ErrOverflow)
		}
		pos += varint.Put(dst[pos:], ord)
	}

	if hasKey {
		if err := writeByte(0); err != nil {
			return 0, nil, err
		}
	}
	if err := writeByte(0); err != nil {
		return 0, nil, err
	}

	return pos, idx, nil
}

// Decoder reconstructs (key, value) pairs from an encoded block, advancing
// through the column index as key runs end.
type Decoder struct {
	data   []byte
	pos    int
	idx    *colindex.Index
	dict   *dictionary.Dictionary
	keyPos int
	curKey uint64
	done   bool
}

// NewDecoder returns a Decoder positioned at the start of data, the first
// key in idx, translating ordinals through dict.
func NewDecoder(data []byte, idx *colindex.Index, dict *dictionary.Dictionary) *Decoder {
	return NewDecoderAt(data, 0, idx, dict, 0)
}

// NewDecoderAt returns a Decoder positioned at a specific byte offset and
// index position, used by point queries that have already resolved a key
// via colindex.Index.Find.
func NewDecoderAt(data []byte, offset uint64, idx *colindex.Index, dict *dictionary.Dictionary, keyPos int) *Decoder {
	d := &Decoder{data: data, pos: int(offset), idx: idx, dict: dict, keyPos: keyPos}
	if keyPos >= idx.Len() {
		d.done = true
		return d
	}
	d.curKey = idx.Get(keyPos)
	return d
}

// Key returns the key run the decoder is currently positioned on. Only
// valid when the decoder is not Done.
func (d *Decoder) Key() uint64 { return d.curKey }

// Done reports whether the decoder has exhausted the index.
func (d *Decoder) Done() bool { return d.done }

// Next returns the next (key, value) pair, advancing to the following key
// whenever the current run's separator is read. ok is false once the index
// is exhausted.
func (d *Decoder) Next() (Pair, bool, error) {
	for {
		if d.done {
			return Pair{}, false, nil
		}

		ord, n, err := varint.Get(d.data[d.pos:])
		if err != nil {
			return Pair{}, false, rillerr.Wrap("blockcodec.Decode", "", err)
		}
		d.pos += n

		if ord == 0 {
			d.keyPos++
			if d.keyPos >= d.idx.Len() {
				d.done = true
				return Pair{}, false, nil
			}
			d.curKey = d.idx.Get(d.keyPos)
			continue
		}

		return Pair{Key: d.curKey, Value: d.dict.Value(ord)}, true, nil
	}
}
