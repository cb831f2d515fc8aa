package fastalloc

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/btree"
)

// PageSize 4k页
const PageSize = 4096

// span a run of contiguous pages
type span struct {
	addr  uintptr
	pages uint64
	free  bool
}

func (s *span) end() uintptr {
	return s.addr + uintptr(s.pages)*PageSize
}

// freeKey orders free spans by page count, then address
type freeKey struct {
	pages uint64
	addr  uintptr
}

func lessFreeKey(a, b freeKey) bool {
	if a.pages != b.pages {
		return a.pages < b.pages
	}
	return a.addr < b.addr
}

// PageCache owns every page obtained from Memory. Spans are split on
// allocation and coalesced forward on release, pages never go back to the OS
// while the cache is alive.
type PageCache struct {
	mu     sync.Mutex
	mem    Memory
	spans  map[uintptr]*span // every span ever produced, free or in use
	free   *btree.BTreeG[freeKey]
	logger *slog.Logger
}

func NewPageCache(mem Memory, logger *slog.Logger) *PageCache {
	return &PageCache{
		mem:    mem,
		spans:  make(map[uintptr]*span),
		free:   btree.NewG[freeKey](16, lessFreeKey),
		logger: loggerOrDiscard(logger),
	}
}

// AllocateSpan returns the base address of numPages contiguous pages.
func (p *PageCache) AllocateSpan(numPages uint64) (uintptr, error) {
	if numPages == 0 {
		return 0, ErrInvalidPageRequest
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.takeFree(numPages); s != nil {
		if s.pages > numPages {
			// 多余的页切出来放回空闲索引
			rest := &span{
				addr:  s.addr + uintptr(numPages)*PageSize,
				pages: s.pages - numPages,
			}
			p.spans[rest.addr] = rest
			p.pushFree(rest)
			s.pages = numPages
		}
		p.spans[s.addr] = s
		return s.addr, nil
	}

	if p.mem == nil {
		return 0, ErrPoolClosed
	}
	ptr, err := p.mem.MapPages(int(numPages))
	if err != nil || ptr == nil {
		p.logger.Warn("map pages failed", "pages", numPages, "error", err)
		return 0, fmt.Errorf("map %d pages: %w", numPages, ErrNoSpace)
	}
	s := &span{addr: uintptr(ptr), pages: numPages}
	p.spans[s.addr] = s
	p.logger.Debug("mapped pages", "pages", numPages, "addr", s.addr)
	return s.addr, nil
}

// DeallocateSpan puts the span at addr back to the free index, merging it
// with its successor when that one is free. The predecessor is not checked,
// so freeing a span before its upper neighbour leaves two touching free
// spans. Unknown addresses are ignored.
func (p *PageCache) DeallocateSpan(addr uintptr, numPages uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.spans[addr]
	if !ok || s.free {
		p.logger.Debug("ignore span free", "addr", addr, "pages", numPages, "known", ok)
		return
	}

	nextAddr := s.end()
	if next, ok := p.spans[nextAddr]; ok && next.free {
		p.removeFree(next)
		s.pages += next.pages
		delete(p.spans, nextAddr)
	}

	p.pushFree(s)
}

func (p *PageCache) takeFree(numPages uint64) *span {
	var found freeKey
	ok := false
	p.free.AscendGreaterOrEqual(freeKey{pages: numPages}, func(k freeKey) bool {
		found = k
		ok = true
		return false
	})
	if !ok {
		return nil
	}
	p.free.Delete(found)
	s := p.spans[found.addr]
	s.free = false
	return s
}

func (p *PageCache) pushFree(s *span) {
	s.free = true
	p.free.ReplaceOrInsert(freeKey{pages: s.pages, addr: s.addr})
}

func (p *PageCache) removeFree(s *span) {
	p.free.Delete(freeKey{pages: s.pages, addr: s.addr})
	s.free = false
}

// freeSpans snapshot of the free index in address order
func (p *PageCache) freeSpans() []span {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]span, 0, p.free.Len())
	p.free.Ascend(func(k freeKey) bool {
		out = append(out, *p.spans[k.addr])
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].addr < out[j].addr })
	return out
}

// Close detaches all memory, every address handed out becomes invalid.
func (p *PageCache) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mem == nil {
		return nil
	}
	err := p.mem.Detach()
	p.mem = nil
	p.spans = make(map[uintptr]*span)
	p.free.Clear(false)
	p.logger.Debug("page cache closed", "error", err)
	return err
}
