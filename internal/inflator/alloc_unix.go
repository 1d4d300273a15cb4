//go:build unix

package inflator

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapAllocator maps anonymous private pages outside the Go heap, so an
// exhausted host surfaces as ENOMEM instead of a runtime abort.
type mmapAllocator struct {
	pageSize int
}

func newPlatformAllocator() Allocator {
	return &mmapAllocator{pageSize: os.Getpagesize()}
}

func (a *mmapAllocator) Alloc(size int) ([]byte, error) {
	block, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	touchPages(block, a.pageSize)
	return block, nil
}

func (a *mmapAllocator) Free(block []byte) error {
	return unix.Munmap(block)
}
