package store

import (
	"os"

	"github.com/rpcpool/rill/rillerr"
)

// Open mmaps path read-only and validates its header: magic, a supported
// version, and the durability stamp. A file whose writer never finished
// (no stamp) is rejected, not repaired.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rillerr.Wrap("store.Open", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, err)
	}
	size := int(info.Size())
	if size < headerSize {
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, rillerr.ErrTruncated)
	}

	m, err := mmapReadOnly(f, size)
	if err != nil {
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, err)
	}

	h := decodeHeader(m.data[:headerSize])
	if h.Magic != Magic {
		m.unmap()
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, rillerr.ErrBadMagic)
	}
	if !supportedVersions[h.Version] {
		m.unmap()
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, rillerr.ErrBadVersion)
	}
	if h.Stamp != Stamp {
		m.unmap()
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, rillerr.ErrNotStamped)
	}
	if int(h.IndexAOff) >= size || int(h.IndexBOff) >= size || int(h.DataAOff) > size || int(h.DataBOff) > size {
		m.unmap()
		f.Close()
		return nil, rillerr.Wrap("store.Open", path, rillerr.ErrSizeMismatch)
	}

	indexA := decodeIndexFrom(m.data[h.IndexAOff:])
	indexB := decodeIndexFrom(m.data[h.IndexBOff:])

	return &Store{
		path:   path,
		file:   f,
		m:      m,
		hdr:    h,
		indexA: indexA,
		indexB: indexB,
	}, nil
}
