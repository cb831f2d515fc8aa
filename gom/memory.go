package gom

import (
	"fmt"
	"sync"
	"unsafe"
)

// Memory based on go memory.
//
// Blocks carved from these pages are linked by absolute address, which
// checkptr rejects for Go heap memory, so pools on this backend cannot run
// under -race. Use MMAP there.
type Memory struct {
	mu       sync.Mutex
	pageSize int
	bufs     [][]byte
}

func NewMemory(pageSize int) *Memory {
	return &Memory{pageSize: pageSize}
}

// MapPages allocates from the Go heap with enough slack to align the
// result to pageSize. The backing slice is kept until Detach.
func (m *Memory) MapPages(pages int) (unsafe.Pointer, error) {
	pageSize := m.pageSize
	if pages <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid pages: %d pageSize: %d", pages, pageSize)
	}
	buf := make([]byte, pages*pageSize+pageSize)
	basep := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	aligned := (basep + uintptr(pageSize) - 1) &^ (uintptr(pageSize) - 1)

	m.mu.Lock()
	m.bufs = append(m.bufs, buf)
	m.mu.Unlock()
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(buf)), aligned-basep), nil
}

func (m *Memory) Detach() error {
	m.mu.Lock()
	m.bufs = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Mappings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bufs)
}
