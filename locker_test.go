package fastalloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinLock(t *testing.T) {
	var l spinLock
	l.Lock()
	assert.True(t, l.locked())
	l.Unlock()
	assert.False(t, l.locked())
	assert.Panics(t, func() { l.Unlock() })
}

func TestSpinLock_MutualExclusion(t *testing.T) {
	var l spinLock
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
}
