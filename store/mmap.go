package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapping owns an mmap'd region backing a store file, analogous to the
// teacher's read-only mmap.Open wrapper in bucketteer/read.go but
// read-write, since stores are written by mapping the file directly.
type mapping struct {
	data []byte
}

func mmapReadWrite(f *os.File, size int) (*mapping, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapping{data: data}, nil
}

func mmapReadOnly(f *os.File, size int) (*mapping, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapping{data: data}, nil
}

func (m *mapping) unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

// willNeed advises the kernel the whole mapping will be accessed soon.
func (m *mapping) willNeed() error {
	if len(m.data) == 0 {
		return nil
	}
	return unix.Madvise(m.data, unix.MADV_WILLNEED)
}

// dontNeed advises the kernel the mapping is cold for now.
func (m *mapping) dontNeed() error {
	if len(m.data) == 0 {
		return nil
	}
	return unix.Madvise(m.data, unix.MADV_DONTNEED)
}
