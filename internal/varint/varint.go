// Package varint implements the base-128 varint (LEB128) encoding used for
// every ordinal written into a store's data regions: 7 payload bits per
// byte, continuation signaled by the high bit. Zero encodes as a single
// zero byte and doubles as the in-stream key-run separator.
package varint

import "github.com/rpcpool/rill/rillerr"

// MaxLen is the largest number of bytes a uint64 can expand to.
const MaxLen = 10

const (
	shift    = 7
	moreMask = 1 << shift
	bodyMask = moreMask - 1
)

// Sizeof returns the number of bytes Put would write for v.
func Sizeof(v uint64) int {
	n := 1
	for v >>= shift; v != 0; v >>= shift {
		n++
	}
	return n
}

// Put encodes v into dst, returning the number of bytes written. dst must
// have at least Sizeof(v) bytes (MaxLen is always sufficient).
func Put(dst []byte, v uint64) int {
	i := 0
	for {
		b := byte(v & bodyMask)
		v >>= shift
		if v != 0 {
			b |= moreMask
		}
		dst[i] = b
		i++
		if v == 0 {
			break
		}
	}
	return i
}

// Append encodes v and appends it to dst, returning the grown slice.
func Append(dst []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := Put(buf[:], v)
	return append(dst, buf[:n]...)
}

// Get decodes a uint64 from the front of src. It returns the value and the
// number of bytes consumed, or an error if src ends before a byte with the
// high bit clear is found.
func Get(src []byte) (uint64, int, error) {
	var v uint64
	var pos uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		v |= uint64(b&bodyMask) << pos
		if b&moreMask == 0 {
			return v, i + 1, nil
		}
		pos += shift
		if i+1 == MaxLen {
			break
		}
	}
	return 0, 0, rillerr.ErrTruncated
}
