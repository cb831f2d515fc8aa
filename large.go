package fastalloc

import (
	"fmt"
	"sync"
	"unsafe"
)

const largeShards = 64

type largeShard struct {
	mu   sync.Mutex
	bufs map[uintptr][]byte
}

// sysAllocator serves requests above MaxBytes from the Go heap. A buffer
// stays referenced by its shard until Free so the GC keeps it alive.
type sysAllocator struct {
	shards [largeShards]largeShard
}

func newSysAllocator() *sysAllocator {
	s := &sysAllocator{}
	for i := range s.shards {
		s.shards[i].bufs = make(map[uintptr][]byte)
	}
	return s
}

func (s *sysAllocator) Alloc(size uintptr) (ptr unsafe.Pointer, err error) {
	defer func() {
		// make panics when the runtime cannot satisfy a huge length
		if r := recover(); r != nil {
			ptr = nil
			err = fmt.Errorf("system alloc %d bytes: %v: %w", size, r, ErrNoSpace)
		}
	}()
	buf := make([]byte, size)
	ptr = unsafe.Pointer(unsafe.SliceData(buf))
	addr := uintptr(ptr)
	sh := s.shard(addr)
	sh.mu.Lock()
	sh.bufs[addr] = buf
	sh.mu.Unlock()
	return ptr, nil
}

func (s *sysAllocator) Free(ptr unsafe.Pointer) {
	addr := uintptr(ptr)
	sh := s.shard(addr)
	sh.mu.Lock()
	delete(sh.bufs, addr)
	sh.mu.Unlock()
}

func (s *sysAllocator) shard(addr uintptr) *largeShard {
	return &s.shards[xxHashAddr(addr)%largeShards]
}

func (s *sysAllocator) live() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.bufs)
		sh.mu.Unlock()
	}
	return n
}
