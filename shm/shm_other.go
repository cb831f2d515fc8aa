//go:build !linux

package shm

import "unsafe"

func (m *Memory) MapPages(pages int) (unsafe.Pointer, error) {
	return nil, ErrNotSupported
}

func (m *Memory) Detach() error {
	return nil
}
