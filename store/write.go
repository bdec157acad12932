package store

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/rpcpool/rill/internal/blockcodec"
	"github.com/rpcpool/rill/internal/colindex"
	"github.com/rpcpool/rill/internal/dictionary"
	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/metrics"
	"github.com/rpcpool/rill/rillerr"
)

// Write encodes rows into a new store file at path. rows is compacted in
// place before encoding. ts and quant are the logical timestamp and
// quantum the resulting file represents.
func Write(path string, ts, quant uint64, rows *rowset.Set) (*Store, error) {
	rows.Compact()

	aVals := make([]uint64, rows.Len())
	bVals := make([]uint64, rows.Len())
	for i, r := range rows.Rows() {
		aVals[i] = r.A
		bVals[i] = r.B
	}

	dictA, err := dictionary.Build(aVals)
	if err != nil {
		return nil, rillerr.Wrap("store.Write", path, err)
	}
	dictB, err := dictionary.Build(bVals)
	if err != nil {
		return nil, rillerr.Wrap("store.Write", path, err)
	}

	pairsA := make([]blockcodec.Pair, rows.Len())
	for i, r := range rows.Rows() {
		pairsA[i] = blockcodec.Pair{Key: r.A, Value: r.B}
	}

	inverted := rows.Copy()
	inverted.Invert()
	inverted.Compact()
	pairsB := make([]blockcodec.Pair, inverted.Len())
	for i, r := range inverted.Rows() {
		pairsB[i] = blockcodec.Pair{Key: r.A, Value: r.B}
	}

	return create(path, ts, quant, uint64(rows.Len()), pairsA, pairsB, dictA, dictB)
}

// create builds a store file from already-sorted per-column pair streams:
// pairsA holds (a, b) sorted by (a, b) and translated through dictB;
// pairsB holds (b, a) sorted by (b, a) and translated through dictA. It
// implements the write-path steps common to a fresh write and a merge.
func create(
	path string,
	ts, quant, rowCount uint64,
	pairsA, pairsB []blockcodec.Pair,
	dictA, dictB *dictionary.Dictionary,
) (*Store, error) {
	indexASize := indexRegionSize(dictA.Len())
	indexBSize := indexRegionSize(dictB.Len())
	capA := blockcodec.Capacity(len(pairsA), dictB.Len())
	capB := blockcodec.Capacity(len(pairsB), dictA.Len())
	bound := headerSize + indexASize + indexBSize + capA + capB

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		return nil, rillerr.Wrap("store.create", path, err)
	}

	fail := func(err error) (*Store, error) {
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}

	if err := f.Truncate(int64(bound)); err != nil {
		return fail(err)
	}

	m, err := mmapReadWrite(f, bound)
	if err != nil {
		return fail(err)
	}

	indexAOff := headerSize
	indexBOff := indexAOff + indexASize
	dataAOff := indexBOff + indexBSize

	nA, idxA, err := blockcodec.Encode(m.data[dataAOff:dataAOff+capA], pairsA, dictB)
	if err != nil {
		m.unmap()
		return fail(err)
	}

	dataBOff := dataAOff + nA
	nB, idxB, err := blockcodec.Encode(m.data[dataBOff:dataBOff+capB], pairsB, dictA)
	if err != nil {
		m.unmap()
		return fail(err)
	}

	encodeIndexInto(m.data[indexAOff:], idxA)
	encodeIndexInto(m.data[indexBOff:], idxB)

	h := header{
		Magic:     Magic,
		Version:   Version,
		TS:        ts,
		Quant:     quant,
		Rows:      rowCount,
		DataAOff:  uint64(dataAOff),
		DataBOff:  uint64(dataBOff),
		IndexAOff: uint64(indexAOff),
		IndexBOff: uint64(indexBOff),
		Stamp:     0,
	}
	h.encode(m.data[:headerSize])

	finalSize := dataBOff + nB
	if err := f.Truncate(int64(finalSize)); err != nil {
		m.unmap()
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		m.unmap()
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}

	// Stamp last: every byte of payload is durable (prior fdatasync) before
	// the file becomes observably valid to a reader.
	for i := 0; i < 8; i++ {
		m.data[headerStampOff+i] = byte(Stamp >> (8 * i))
	}
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		m.unmap()
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}

	h.Stamp = Stamp
	log.Infow("wrote store", "path", path, "rows", rowCount, "bytes", finalSize)
	metrics.RowsWritten.Add(float64(rowCount))
	metrics.BytesMapped.Set(float64(finalSize))

	if err := m.unmap(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}
	m2, err := mmapReadWrite(f, finalSize)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, rillerr.Wrap("store.create", path, err)
	}

	return &Store{
		path:   path,
		file:   f,
		m:      m2,
		hdr:    h,
		indexA: idxA,
		indexB: idxB,
	}, nil
}

// indexViewFromEntries returns the keys of an index's entries, in index
// order. Applied to one column's index it yields that column's distinct
// values, the ordinal space the other column's data region decodes against.
func indexViewFromEntries(entries []colindex.Entry) []uint64 {
	keys := make([]uint64, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
