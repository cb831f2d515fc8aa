package fastalloc

import (
	"fmt"
	"unsafe"
)

// ThreadCache 每个 worker 独占一个, 不加锁. Never share one between
// goroutines running at the same time.
type ThreadCache struct {
	central   *CentralCache
	large     *sysAllocator
	threshold uint32
	maxBatch  uint64
	closed    bool
	heads     [NumClasses]uintptr
	held      [NumClasses]uint32
}

func newThreadCache(central *CentralCache, large *sysAllocator, config *Config) *ThreadCache {
	return &ThreadCache{
		central:   central,
		large:     large,
		threshold: config.ReturnThreshold,
		maxBatch:  config.MaxBatchBytes,
	}
}

// Allocate returns size bytes. Requests above MaxBytes bypass the size
// classes and go to the system allocator.
func (t *ThreadCache) Allocate(size uintptr) (unsafe.Pointer, error) {
	if t.closed {
		return nil, ErrThreadCacheClosed
	}
	if size == 0 {
		size = Alignment
	}
	if size > MaxBytes {
		return t.large.Alloc(size)
	}

	index := IndexOf(size)
	if t.held[index] == 0 {
		if err := t.fetchFromCentralCache(index); err != nil {
			return nil, err
		}
	}

	ptr := t.heads[index]
	t.heads[index] = readLink(ptr)
	t.held[index]--
	// 清掉链接字, 调用方拿到的块不残留内部地址
	writeLink(ptr, 0)
	return unsafe.Pointer(ptr), nil
}

// Deallocate gives ptr back. size must be the size passed to Allocate.
func (t *ThreadCache) Deallocate(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	if size == 0 {
		size = Alignment
	}
	if size > MaxBytes {
		t.large.Free(ptr)
		return
	}

	index := IndexOf(size)
	addr := uintptr(ptr)
	writeLink(addr, t.heads[index])
	t.heads[index] = addr
	t.held[index]++

	if t.held[index] > t.threshold {
		t.returnToCentralCache(index)
	}
}

func (t *ThreadCache) fetchFromCentralCache(index int) error {
	batchNum := t.batchNum(ClassSize(index))
	head, n, err := t.central.FetchRange(index, batchNum)
	if err != nil {
		return err
	}
	if head == 0 || n == 0 {
		return fmt.Errorf("central cache class %d empty: %w", index, ErrNoSpace)
	}
	t.heads[index] = head
	t.held[index] = uint32(n)
	return nil
}

func (t *ThreadCache) returnToCentralCache(index int) {
	held := t.held[index]
	if held <= 1 {
		return
	}
	keep := held / 4
	if keep < 1 {
		keep = 1
	}

	split, _ := walk(t.heads[index], int(keep))
	rest := readLink(split)
	if rest == 0 {
		return
	}
	writeLink(split, 0)
	t.held[index] = keep
	// held is exact so the walk in ReturnRange ends on the null link
	_ = t.central.ReturnRange(rest, int(held-keep), index)
}

// batchNum keeps one refill around MaxBatchBytes
func (t *ThreadCache) batchNum(size uintptr) int {
	var base int
	switch {
	case size <= 64:
		base = 64
	case size <= 128:
		base = 32
	case size <= 256:
		base = 16
	case size <= 512:
		base = 8
	case size <= 1024:
		base = 4
	case size <= 2048:
		base = 2
	default:
		base = 1
	}

	maxNum := int(t.maxBatch / uint64(size))
	if maxNum < 1 {
		maxNum = 1
	}
	if base > maxNum {
		return maxNum
	}
	return base
}

// Close hands every held block back to the central cache. The cache must
// not be used afterwards.
func (t *ThreadCache) Close() {
	if t.closed {
		return
	}
	t.closed = true
	for index := range t.heads {
		if t.held[index] == 0 {
			continue
		}
		_ = t.central.ReturnRange(t.heads[index], int(t.held[index]), index)
		t.heads[index] = 0
		t.held[index] = 0
	}
}

