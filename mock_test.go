package fastalloc

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/leslie-fei/fastalloc/mmap"
	"github.com/stretchr/testify/require"
)

var errMockExhausted = errors.New("mock memory exhausted")

// mockMemory off-heap pages with an optional limit and a record of calls.
// Free-list links are raw addresses, so the pages must not live on the Go heap
// or checkptr aborts the -race runs.
type mockMemory struct {
	mu       sync.Mutex
	mem      *mmap.Memory
	limit    int // pages, 0 means unlimited
	mapped   int
	calls    []int
	detached bool
}

func newMockMemory(limit int) *mockMemory {
	return &mockMemory{mem: mmap.NewMemory(PageSize), limit: limit}
}

func (m *mockMemory) MapPages(pages int) (unsafe.Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit > 0 && m.mapped+pages > m.limit {
		return nil, errMockExhausted
	}
	m.mapped += pages
	m.calls = append(m.calls, pages)
	return m.mem.MapPages(pages)
}

func (m *mockMemory) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
	return m.mem.Detach()
}

func (m *mockMemory) mapCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// newMockPool wires the tiers over mockMemory the way NewPool does
func newMockPool(t *testing.T, limit int, c *Config) (*Pool, *mockMemory) {
	t.Helper()
	config := mergeConfig(c)
	mem := newMockMemory(limit)
	pages := NewPageCache(mem, nil)
	p := &Pool{
		config:  config,
		logger:  discardLogger,
		pages:   pages,
		central: NewCentralCache(pages, config.SpanPages),
		large:   newSysAllocator(),
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, mem
}

func newMockThreadCache(t *testing.T, p *Pool) *ThreadCache {
	t.Helper()
	tc, err := p.NewThreadCache()
	require.NoError(t, err)
	return tc
}
