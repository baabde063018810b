//go:build unix

package modelsource

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if size == 0 {
		return NewPayload([]byte{}, nil), nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("modelsource: %s is too large to map", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("modelsource: mmap %s: %w", path, err)
	}
	return NewPayload(data, func() error { return unix.Munmap(data) }), nil
}
