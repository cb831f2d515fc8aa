// Package fastalloc is a thread caching allocator for small, frequent
// allocations. Each worker owns a ThreadCache, misses go to a shared
// CentralCache sharded by size class, which refills from a PageCache of
// spans mapped from the OS.
package fastalloc

import (
	"log/slog"
	"sync/atomic"
)

type Pool struct {
	config  *Config
	logger  *slog.Logger
	pages   *PageCache
	central *CentralCache
	large   *sysAllocator
	closed  uint32
}

func NewPool(c *Config) (*Pool, error) {
	config := mergeConfig(c)
	mem, err := newMemory(config.MemoryType)
	if err != nil {
		return nil, err
	}
	logger := loggerOrDiscard(config.Logger)
	pages := NewPageCache(mem, logger)
	p := &Pool{
		config:  config,
		logger:  logger,
		pages:   pages,
		central: NewCentralCache(pages, config.SpanPages),
		large:   newSysAllocator(),
	}
	logger.Debug("pool created", "memory", config.MemoryType.String(), "spanPages", config.SpanPages)
	return p, nil
}

// NewThreadCache returns a cache for one worker goroutine.
func (p *Pool) NewThreadCache() (*ThreadCache, error) {
	if atomic.LoadUint32(&p.closed) == 1 {
		return nil, ErrPoolClosed
	}
	return newThreadCache(p.central, p.large, p.config), nil
}

// Close releases every mapped page. All memory handed out by the pool and
// its thread caches is invalid afterwards.
func (p *Pool) Close() error {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return nil
	}
	err := p.pages.Close()
	p.logger.Debug("pool closed", "error", err)
	return err
}
