// Package dictionary implements the per-column value dictionary: a sorted,
// deduplicated array of the distinct values seen in one column of a row
// set, each addressable by a 1-based ordinal (0 is reserved), with an
// open-addressed hash table for the reverse value-to-ordinal lookup.
package dictionary

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/rpcpool/rill/rillerr"
)

const probeWindow = 8

// fnv1a64 is the FNV-1a hash over the key's eight little-endian bytes that
// the in-memory reverse-lookup table probes with. The table is never
// persisted and ordinals come from sorted position, not from the hash.
func fnv1a64(key uint64) uint64 {
	const (
		offset = 0xcbf29ce484222325
		prime  = 0x100000001b3
	)
	hash := uint64(offset)
	for i := 0; i < 8; i++ {
		hash = (hash ^ (key>>(8*i))&0xff) * prime
	}
	return hash
}

type bucket struct {
	key   uint64
	value uint64
	used  bool
}

// revTable is the open-addressed value-to-ordinal hash table: FNV-1a hash
// of the 64-bit key, linear probe window of 8, capacity doubled whenever
// the window fills on insert or resize.
type revTable struct {
	buckets []bucket
}

func newRevTable(items int) *revTable {
	t := &revTable{}
	t.reserve(items)
	return t
}

// reserve grows the table so it can hold items entries without the probe
// window filling, mirroring htable_reserve's cap = items*4.
func (t *revTable) reserve(items int) {
	t.resize(items * 4)
}

func (t *revTable) resize(want int) {
	if want <= len(t.buckets) {
		return
	}
	newCap := len(t.buckets)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < want {
		newCap *= 2
	}

	old := t.buckets
rehash:
	t.buckets = make([]bucket, newCap)
	for _, b := range old {
		if !b.used {
			continue
		}
		if !t.tryPut(b.key, b.value) {
			newCap *= 2
			goto rehash
		}
	}
}

func (t *revTable) tryPut(key, value uint64) bool {
	hash := fnv1a64(key)
	cap := uint64(len(t.buckets))
	for i := uint64(0); i < probeWindow; i++ {
		b := &t.buckets[(hash+i)%cap]
		if b.used {
			continue
		}
		b.key, b.value, b.used = key, value, true
		return true
	}
	return false
}

func (t *revTable) put(key, value uint64) {
	t.resize(probeWindow)
	for {
		if t.tryPut(key, value) {
			return
		}
		t.resize(len(t.buckets) * 2)
	}
}

func (t *revTable) get(key uint64) (uint64, bool) {
	if len(t.buckets) == 0 {
		return 0, false
	}
	hash := fnv1a64(key)
	cap := uint64(len(t.buckets))
	for i := uint64(0); i < probeWindow; i++ {
		b := &t.buckets[(hash+i)%cap]
		if !b.used {
			continue
		}
		if b.key == key {
			return b.value, true
		}
	}
	return 0, false
}

// Dictionary is a sorted, deduplicated sequence of distinct 64-bit values.
// Position i (0-based) in the array corresponds to ordinal i+1; ordinal 0
// is reserved as the codec sentinel and is never a valid lookup key.
type Dictionary struct {
	values []uint64
	rev    *revTable
}

// Build constructs a Dictionary from an arbitrary (possibly unsorted,
// possibly duplicate-laden) slice of nonzero values.
func Build(values []uint64) (*Dictionary, error) {
	cp := append([]uint64(nil), values...)
	for _, v := range cp {
		if v == 0 {
			return nil, rillerr.Wrap("dictionary.Build", "", rillerr.ErrReservedOrdinal)
		}
	}
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	if len(cp) > 1 {
		cp = dedupSorted(cp)
	}

	d := &Dictionary{values: cp}
	d.buildRev()
	return d, nil
}

// View wraps an already-sorted, already-deduplicated array of values as a
// Dictionary without building the reverse lookup table, for the read path:
// a store never persists a dictionary directly, since a column's dictionary
// is exactly the other column's index key list (already sorted ascending
// by construction). The reverse table is built lazily on first Ordinal
// call; decode-only callers never trigger it.
func View(sortedUniqueValues []uint64) *Dictionary {
	return &Dictionary{values: sortedUniqueValues}
}

func dedupSorted(sorted []uint64) []uint64 {
	j := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[j] {
			continue
		}
		j++
		sorted[j] = sorted[i]
	}
	return sorted[:j+1]
}

func (d *Dictionary) buildRev() {
	d.rev = newRevTable(len(d.values))
	for i, v := range d.values {
		d.rev.put(v, uint64(i+1))
	}
}

// Len returns the number of distinct values in the dictionary.
func (d *Dictionary) Len() int { return len(d.values) }

// Value returns the value at the given 1-based ordinal. Ordinal 0 is
// invalid and panics, matching the codec's sentinel invariant.
func (d *Dictionary) Value(ordinal uint64) uint64 {
	if ordinal == 0 {
		panic("dictionary: ordinal 0 is reserved")
	}
	return d.values[ordinal-1]
}

// Ordinal returns the 1-based ordinal for value v. It returns an error
// wrapping ErrReservedOrdinal for v == 0, and one wrapping ErrTruncated if
// v isn't in the dictionary.
func (d *Dictionary) Ordinal(v uint64) (uint64, error) {
	if v == 0 {
		return 0, rillerr.Wrap("dictionary.Ordinal", "", rillerr.ErrReservedOrdinal)
	}
	if d.rev == nil {
		d.buildRev()
	}
	ord, ok := d.rev.get(v)
	if !ok {
		return 0, rillerr.Wrap("dictionary.Ordinal", "", rillerr.ErrTruncated)
	}
	return ord, nil
}

// Values returns the dictionary's backing array, ordered ordinal 1..len.
func (d *Dictionary) Values() []uint64 { return d.values }

// quickDupCheck hashes v with xxhash to short-circuit an obvious miss
// before falling back to the FNV-1a probe table; it is a merge-time
// optimization only, never the table's authority on membership.
func quickDupCheck(seen map[uint64]struct{}, v uint64) bool {
	h := xxhash.Sum64(encodeUint64(v))
	_, ok := seen[h]
	return ok
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}

// Merge combines d and other into a new Dictionary containing the union of
// their values, and reports how many of other's values were already
// present in d (used by store.Merge to report a merge dictionary metric).
// A small xxhash-keyed set
// short-circuits the common case before falling back to the FNV-1a probe
// table that defines real membership.
func Merge(d, other *Dictionary) (*Dictionary, int, error) {
	seen := make(map[uint64]struct{}, d.Len())
	for _, v := range d.values {
		seen[xxhash.Sum64(encodeUint64(v))] = struct{}{}
	}

	common := 0
	merged := make([]uint64, 0, d.Len()+other.Len())
	merged = append(merged, d.values...)
	for _, v := range other.values {
		if quickDupCheck(seen, v) {
			if _, err := d.Ordinal(v); err == nil {
				common++
				continue
			}
		}
		merged = append(merged, v)
	}

	out, err := Build(merged)
	if err != nil {
		return nil, 0, err
	}
	return out, common, nil
}

// Stats reports the dictionary's size for CLI/metrics consumers.
type Stats struct {
	Count    int
	ByteSize int
}

// Stats returns the dictionary's value count and the byte size of its
// backing array.
func (d *Dictionary) Stats() Stats {
	return Stats{Count: len(d.values), ByteSize: len(d.values) * 8}
}
