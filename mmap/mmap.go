package mmap

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	mmapgo "github.com/edsrzf/mmap-go"
)

// Memory anonymous private mappings, zeroed and page aligned by the kernel
type Memory struct {
	mu       sync.Mutex
	pageSize int
	regions  []mmapgo.MMap
}

func NewMemory(pageSize int) *Memory {
	return &Memory{pageSize: pageSize}
}

func (m *Memory) MapPages(pages int) (unsafe.Pointer, error) {
	pageSize := m.pageSize
	if pages <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid pages: %d pageSize: %d", pages, pageSize)
	}
	region, err := mmapgo.MapRegion(nil, pages*pageSize, mmapgo.RDWR, mmapgo.ANON, 0)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.regions = append(m.regions, region)
	m.mu.Unlock()
	return unsafe.Pointer(unsafe.SliceData(region)), nil
}

func (m *Memory) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for i := range m.regions {
		if err := m.regions[i].Unmap(); err != nil {
			errs = append(errs, err)
		}
	}
	m.regions = nil
	return errors.Join(errs...)
}

func (m *Memory) Mappings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regions)
}
