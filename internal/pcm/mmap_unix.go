//go:build linux || darwin

package pcm

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile maps the whole file read-only and advises the OS of sequential
// access — the source is read front-to-back by the mixer's render loop far
// more often than it is seeked around.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return data, nil
}

func munmapFile(data []byte) error {
	return unix.Munmap(data)
}
