// Package accumulator implements the mmap'd single-producer/single-consumer
// ring buffer that ingest traffic lands in before a drain writes it out as
// a store file.
package accumulator

import (
	"encoding/binary"
	"os"
	"sync/atomic"
	"unsafe"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sys/unix"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/metrics"
	"github.com/rpcpool/rill/rillerr"
	"github.com/rpcpool/rill/store"
)

var log = logging.Logger("rill/accumulator")

const (
	magic   uint32 = 0x43434152
	version uint32 = 1

	// MinCapacity is the smallest ring capacity Open will honor before
	// doubling it for producer/consumer slack.
	MinCapacity = 32
)

const (
	headerMagicOff   = 0
	headerVersionOff = 4
	headerLenOff     = 8
	headerReadOff    = 16
	headerWriteOff   = 24
	headerSize       = 32
	rowSize          = 16 // a uint64 + b uint64
)

// Accumulator is an open ring buffer file. Ingest and Drain are safe to
// call concurrently with each other (one producer, one consumer) but not
// with themselves.
type Accumulator struct {
	file *os.File
	data []byte

	capacity uint64
}

// Open opens or creates the ring buffer file at path. cap is the logical
// capacity requested by the caller; it is raised to MinCapacity and then
// doubled to leave slack between producer and consumer, matching the
// original accumulator's growth rule.
func Open(path string, cap int) (*Accumulator, error) {
	if cap < MinCapacity {
		cap = MinCapacity
	}
	cap *= 2

	size := headerSize + cap*rowSize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, rillerr.Wrap("accumulator.Open", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rillerr.Wrap("accumulator.Open", path, err)
	}

	create := info.Size() == 0
	if create {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, rillerr.Wrap("accumulator.Open", path, err)
		}
	} else {
		size = int(info.Size())
		if size < headerSize {
			f.Close()
			return nil, rillerr.Wrap("accumulator.Open", path, rillerr.ErrTruncated)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, rillerr.Wrap("accumulator.Open", path, err)
	}

	a := &Accumulator{
		file: f,
		data: data,
	}

	if create {
		binary.LittleEndian.PutUint32(data[headerMagicOff:], magic)
		binary.LittleEndian.PutUint32(data[headerVersionOff:], version)
		binary.LittleEndian.PutUint64(data[headerLenOff:], uint64(cap))
		a.capacity = uint64(cap)
	} else {
		gotMagic := binary.LittleEndian.Uint32(data[headerMagicOff:])
		gotVersion := binary.LittleEndian.Uint32(data[headerVersionOff:])
		if gotMagic != magic {
			unix.Munmap(data)
			f.Close()
			return nil, rillerr.Wrap("accumulator.Open", path, rillerr.ErrBadMagic)
		}
		if gotVersion != version {
			unix.Munmap(data)
			f.Close()
			return nil, rillerr.Wrap("accumulator.Open", path, rillerr.ErrBadVersion)
		}
		a.capacity = binary.LittleEndian.Uint64(data[headerLenOff:])
	}

	return a, nil
}

// Close unmaps and closes the accumulator's file.
func (a *Accumulator) Close() error {
	if a.data == nil {
		return nil
	}
	err := unix.Munmap(a.data)
	a.data = nil
	if cerr := a.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Capacity returns the ring's slot count.
func (a *Accumulator) Capacity() int { return int(a.capacity) }

// counterPtr returns a pointer to the uint64 counter at the given header
// offset inside the mapping, for use with sync/atomic: the mapping is
// shared across process boundaries the same way the original's
// atomic_size_t fields are, but within this process atomic.*Uint64 gives
// the same acquire/release semantics the ingest/drain contract requires.
func (a *Accumulator) counterPtr(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&a.data[off]))
}

func (a *Accumulator) loadRead() uint64  { return atomic.LoadUint64(a.counterPtr(headerReadOff)) }
func (a *Accumulator) loadWrite() uint64 { return atomic.LoadUint64(a.counterPtr(headerWriteOff)) }
func (a *Accumulator) storeWrite(v uint64) {
	atomic.StoreUint64(a.counterPtr(headerWriteOff), v)
}
func (a *Accumulator) storeRead(v uint64) {
	atomic.StoreUint64(a.counterPtr(headerReadOff), v)
}

// Len reports the approximate number of rows ingested but not yet drained.
func (a *Accumulator) Len() int {
	return int(a.loadWrite() - a.loadRead())
}

// Ingest appends (val_a, val_b) to the ring at slot write%capacity, then
// publishes the new write cursor with release semantics. Only one
// goroutine may call Ingest.
func (a *Accumulator) Ingest(valA, valB uint64) error {
	if valA == 0 || valB == 0 {
		return rillerr.Wrap("accumulator.Ingest", "", rillerr.ErrNilRow)
	}
	write := a.loadWrite()
	slot := write % a.capacity
	off := headerSize + int(slot)*rowSize
	binary.LittleEndian.PutUint64(a.data[off:], valA)
	binary.LittleEndian.PutUint64(a.data[off+8:], valB)
	a.storeWrite(write + 1)
	return nil
}

// DrainResult reports what a Drain call observed.
type DrainResult struct {
	Rows int
	Lost uint64
}

// Drain loads the read and write cursors (acquire), detects and reports
// any rows the producer has overwritten since the last drain, copies the
// remaining in-window rows into a row set, writes it as a store file at
// path, and on success publishes read := write with release semantics. On
// failure the read cursor is left untouched so the next drain retries the
// same window.
func (a *Accumulator) Drain(path string, ts uint64) (DrainResult, error) {
	start := a.loadRead()
	end := a.loadWrite()
	if start == end {
		return DrainResult{}, nil
	}

	var lost uint64
	if end-start > a.capacity {
		lost = (end - start) - a.capacity
		start = end - a.capacity
		log.Warnw("accumulator lost entries", "lost", lost, "read", start, "write", end)
		metrics.AccumulatorLost.Add(float64(lost))
	}

	rows := rowset.New(int(end - start))
	for i := start; i < end; i++ {
		slot := i % a.capacity
		off := headerSize + int(slot)*rowSize
		valA := binary.LittleEndian.Uint64(a.data[off:])
		valB := binary.LittleEndian.Uint64(a.data[off+8:])
		rows.Append(rowset.Row{A: valA, B: valB})
	}

	s, err := store.Write(path, ts, 0, rows)
	if err != nil {
		return DrainResult{}, rillerr.Wrap("accumulator.Drain", path, err)
	}
	s.Close()

	a.storeRead(end)
	metrics.AccumulatorDepth.Set(float64(a.Len()))

	result := DrainResult{Rows: rows.Len(), Lost: lost}
	if lost > 0 {
		return result, rillerr.Wrap("accumulator.Drain", path, rillerr.ErrLost)
	}
	return result, nil
}
