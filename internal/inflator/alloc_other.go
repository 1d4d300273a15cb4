//go:build !unix

package inflator

import "os"

type heapAllocator struct {
	pageSize int
}

func newPlatformAllocator() Allocator {
	return &heapAllocator{pageSize: os.Getpagesize()}
}

func (a *heapAllocator) Alloc(size int) ([]byte, error) {
	block := make([]byte, size)
	touchPages(block, a.pageSize)
	return block, nil
}

// Free drops nothing itself; Release runs FreeOSMemory once all blocks are unreferenced.
func (a *heapAllocator) Free([]byte) error {
	return nil
}
