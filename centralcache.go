package fastalloc

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type centralFreeList struct {
	lock spinLock
	head atomic.Uintptr
	_    cpu.CacheLinePad
}

// CentralCache 所有 ThreadCache 共享, 每个 size class 一把自旋锁,
// 不同 size class 之间互不竞争.
type CentralCache struct {
	pages     *PageCache
	spanPages uint64
	lists     [NumClasses]centralFreeList
}

func NewCentralCache(pages *PageCache, spanPages uint64) *CentralCache {
	if spanPages == 0 {
		spanPages = DefaultConfig().SpanPages
	}
	return &CentralCache{pages: pages, spanPages: spanPages}
}

// FetchRange detaches up to batchNum blocks of size class index. It returns
// the chain head and how many blocks the chain holds.
func (c *CentralCache) FetchRange(index int, batchNum int) (uintptr, int, error) {
	if index < 0 || index >= NumClasses {
		return 0, 0, ErrIndexOutOfRange
	}
	if batchNum <= 0 {
		return 0, 0, ErrZeroBatch
	}

	fl := &c.lists[index]
	fl.lock.Lock()
	defer fl.lock.Unlock()

	if head := fl.head.Load(); head != 0 {
		last, n := walk(head, batchNum)
		fl.head.Store(readLink(last))
		writeLink(last, 0)
		return head, n, nil
	}

	size := ClassSize(index)
	numPages := c.spanPagesFor(size, batchNum)
	base, err := c.pages.AllocateSpan(numPages)
	if err != nil {
		return 0, 0, fmt.Errorf("central cache refill class %d: %w", index, err)
	}

	total := int(uintptr(numPages) * PageSize / size)
	n := batchNum
	if n > total {
		n = total
	}
	carve(base, size, n)
	if total > n {
		rest := base + uintptr(n)*size
		carve(rest, size, total-n)
		fl.head.Store(rest)
	}
	return base, n, nil
}

// ReturnRange pushes a chain of count blocks back onto size class index.
// The tail walk stops at count nodes or at a null link, whichever comes first.
func (c *CentralCache) ReturnRange(start uintptr, count int, index int) error {
	if start == 0 {
		return ErrNilPointer
	}
	if index < 0 || index >= NumClasses {
		return ErrIndexOutOfRange
	}
	if count <= 0 {
		count = 1
	}

	fl := &c.lists[index]
	fl.lock.Lock()
	defer fl.lock.Unlock()

	tail, _ := walk(start, count)
	writeLink(tail, fl.head.Load())
	fl.head.Store(start)
	return nil
}

func (c *CentralCache) spanPagesFor(size uintptr, batchNum int) uint64 {
	bytes := uint64(size) * uint64(batchNum)
	if bytes <= c.spanPages*PageSize {
		return c.spanPages
	}
	return (bytes + PageSize - 1) / PageSize
}

// freeLen counts the shared blocks of a size class
func (c *CentralCache) freeLen(index int) int {
	fl := &c.lists[index]
	fl.lock.Lock()
	defer fl.lock.Unlock()
	return chainLen(fl.head.Load())
}
