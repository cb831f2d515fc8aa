package shm

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const shmAccess = 00600

func (m *Memory) MapPages(pages int) (unsafe.Pointer, error) {
	pageSize := m.pageSize
	if pages <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid pages: %d pageSize: %d", pages, pageSize)
	}

	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, pages*pageSize, unix.IPC_CREAT|shmAccess)
	if err != nil {
		return nil, err
	}

	data, err := unix.SysvShmAttach(id, 0, 0)
	// 标记删除, 最后一次 detach 后由内核回收
	_, ctlErr := unix.SysvShmCtl(id, unix.IPC_RMID, nil)
	if err != nil {
		return nil, err
	}
	if ctlErr != nil {
		_ = unix.SysvShmDetach(data)
		return nil, ctlErr
	}

	m.mu.Lock()
	m.segments = append(m.segments, data)
	m.mu.Unlock()
	return unsafe.Pointer(unsafe.SliceData(data)), nil
}

func (m *Memory) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, data := range m.segments {
		if err := unix.SysvShmDetach(data); err != nil {
			errs = append(errs, err)
		}
	}
	m.segments = nil
	return errors.Join(errs...)
}
