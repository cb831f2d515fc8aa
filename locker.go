package fastalloc

import (
	"runtime"
	"sync/atomic"
)

// spinLock test-and-set lock, yields the processor while contended
type spinLock struct {
	state int32
}

func (l *spinLock) Lock() {
	for !atomic.CompareAndSwapInt32(&l.state, 0, 1) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	if !atomic.CompareAndSwapInt32(&l.state, 1, 0) {
		panic("unlock an unlocked-lock")
	}
}

func (l *spinLock) locked() bool {
	return atomic.LoadInt32(&l.state) == 1
}
