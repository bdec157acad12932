package rotation

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/rpcpool/rill/rillerr"
)

// dirLock holds an advisory exclusive flock on a directory fd, released
// automatically on process exit even if the process dies uncleanly.
type dirLock struct {
	f *os.File
}

// tryLock attempts a non-blocking exclusive lock on dir. held is false,
// with no error, when another process already holds it; the caller should
// treat that as a no-op success rather than a failure.
func tryLock(dir string) (l *dirLock, held bool, err error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, false, rillerr.Wrap("rotation.tryLock", dir, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, rillerr.Wrap("rotation.tryLock", dir, err)
	}

	return &dirLock{f: f}, true, nil
}

func (l *dirLock) unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
