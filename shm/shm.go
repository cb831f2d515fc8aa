package shm

import (
	"errors"
	"sync"
)

var ErrNotSupported = errors.New("shm not supported on this platform")

// Memory 基于操作系统共享内存实现, every MapPages call attaches a private
// segment that the kernel destroys once it is detached
type Memory struct {
	mu       sync.Mutex
	pageSize int
	segments [][]byte
}

func NewMemory(pageSize int) *Memory {
	return &Memory{pageSize: pageSize}
}

func (m *Memory) Mappings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments)
}
