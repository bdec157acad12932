package store

import (
	"encoding/binary"

	"github.com/rpcpool/rill/internal/colindex"
)

// Magic identifies a store file. Version is bumped whenever the on-disk
// layout changes incompatibly.
const (
	Magic   uint32 = 0x4C4C4952
	Version uint32 = 6
)

// Stamp is written last, after every data region is durable, and marks the
// file as safe to read. A file without this value in its header was never
// finished by its writer and must be rejected.
const Stamp uint64 = 0xFFFFFFFFFFFFFFFF

// supportedVersions is the set of versions this build can open.
var supportedVersions = map[uint32]bool{6: true}

const (
	headerMagicOff    = 0
	headerVersionOff  = 4
	headerTSOff       = 8
	headerQuantOff    = 16
	headerRowsOff     = 24
	headerDataAOff    = 32
	headerDataBOff    = 40
	headerIndexAOff   = 48
	headerIndexBOff   = 56
	headerReservedOff = 64
	headerStampOff    = 80
	headerSize        = 88
)

// header mirrors the fixed-offset, little-endian layout of a store file's
// first 88 bytes.
type header struct {
	Magic      uint32
	Version    uint32
	TS         uint64
	Quant      uint64
	Rows       uint64
	DataAOff   uint64
	DataBOff   uint64
	IndexAOff  uint64
	IndexBOff  uint64
	Stamp      uint64
}

func (h *header) encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[headerMagicOff:], h.Magic)
	binary.LittleEndian.PutUint32(dst[headerVersionOff:], h.Version)
	binary.LittleEndian.PutUint64(dst[headerTSOff:], h.TS)
	binary.LittleEndian.PutUint64(dst[headerQuantOff:], h.Quant)
	binary.LittleEndian.PutUint64(dst[headerRowsOff:], h.Rows)
	binary.LittleEndian.PutUint64(dst[headerDataAOff:], h.DataAOff)
	binary.LittleEndian.PutUint64(dst[headerDataBOff:], h.DataBOff)
	binary.LittleEndian.PutUint64(dst[headerIndexAOff:], h.IndexAOff)
	binary.LittleEndian.PutUint64(dst[headerIndexBOff:], h.IndexBOff)
	for i := headerReservedOff; i < headerStampOff; i++ {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint64(dst[headerStampOff:], h.Stamp)
}

func decodeHeader(src []byte) header {
	return header{
		Magic:     binary.LittleEndian.Uint32(src[headerMagicOff:]),
		Version:   binary.LittleEndian.Uint32(src[headerVersionOff:]),
		TS:        binary.LittleEndian.Uint64(src[headerTSOff:]),
		Quant:     binary.LittleEndian.Uint64(src[headerQuantOff:]),
		Rows:      binary.LittleEndian.Uint64(src[headerRowsOff:]),
		DataAOff:  binary.LittleEndian.Uint64(src[headerDataAOff:]),
		DataBOff:  binary.LittleEndian.Uint64(src[headerDataBOff:]),
		IndexAOff: binary.LittleEndian.Uint64(src[headerIndexAOff:]),
		IndexBOff: binary.LittleEndian.Uint64(src[headerIndexBOff:]),
		Stamp:     binary.LittleEndian.Uint64(src[headerStampOff:]),
	}
}

const indexEntrySize = 16 // key uint64 + off uint64
const indexPrefixSize = 16 // len uint64 + reserved uint64

func indexRegionSize(entries int) int {
	return indexPrefixSize + entries*indexEntrySize
}

func encodeIndexInto(dst []byte, idx *colindex.Index) int {
	binary.LittleEndian.PutUint64(dst[0:], uint64(idx.Len()))
	binary.LittleEndian.PutUint64(dst[8:], 0)
	pos := indexPrefixSize
	for _, e := range idx.Entries() {
		binary.LittleEndian.PutUint64(dst[pos:], e.Key)
		binary.LittleEndian.PutUint64(dst[pos+8:], e.Offset)
		pos += indexEntrySize
	}
	return pos
}

func decodeIndexFrom(src []byte) *colindex.Index {
	length := binary.LittleEndian.Uint64(src[0:])
	idx := colindex.New(int(length))
	pos := indexPrefixSize
	for i := uint64(0); i < length; i++ {
		key := binary.LittleEndian.Uint64(src[pos:])
		off := binary.LittleEndian.Uint64(src[pos+8:])
		idx.Put(key, off)
		pos += indexEntrySize
	}
	return idx
}
