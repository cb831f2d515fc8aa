package fastalloc

import (
	"fmt"
	"unsafe"

	"github.com/leslie-fei/fastalloc/gom"
	"github.com/leslie-fei/fastalloc/mmap"
	"github.com/leslie-fei/fastalloc/shm"
)

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

// Memory 操作系统页内存的来源, PageCache 的所有 span 都从这里申请
type Memory interface {
	// MapPages returns zeroed memory of pages*PageSize bytes aligned to PageSize
	MapPages(pages int) (unsafe.Pointer, error)
	// Detach releases every mapping, nothing handed out may be touched afterwards
	Detach() error
}

func newMemory(typ MemoryType) (Memory, error) {
	switch typ {
	case GO:
		return gom.NewMemory(PageSize), nil
	case SHM:
		return shm.NewMemory(PageSize), nil
	case MMAP:
		return mmap.NewMemory(PageSize), nil
	default:
		return nil, fmt.Errorf("MemoryType: %d %w", typ, ErrUnsupportedMemory)
	}
}
