package fastalloc

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockCentral(t *testing.T, limit int) (*CentralCache, *mockMemory) {
	t.Helper()
	mem := newMockMemory(limit)
	pc := NewPageCache(mem, nil)
	t.Cleanup(func() { _ = pc.Close() })
	return NewCentralCache(pc, 8), mem
}

func TestCentralCache_FetchRangeRejects(t *testing.T) {
	cc, _ := newMockCentral(t, 0)

	_, _, err := cc.FetchRange(-1, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, _, err = cc.FetchRange(NumClasses, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, _, err = cc.FetchRange(0, 0)
	assert.ErrorIs(t, err, ErrZeroBatch)
}

func TestCentralCache_FetchRangeCarvesSpan(t *testing.T) {
	cc, mem := newMockCentral(t, 0)
	index := IndexOf(64)

	head, n, err := cc.FetchRange(index, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, chainLen(head))
	assert.Equal(t, []int{8}, mem.mapCalls())

	// consecutive blocks, the rest of the span is parked on the shared list
	last, _ := walk(head, 10)
	assert.Equal(t, head+9*64, last)
	assert.Equal(t, 8*PageSize/64-10, cc.freeLen(index))

	head2, n2, err := cc.FetchRange(index, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n2)
	assert.Equal(t, head+10*64, head2)
	assert.Equal(t, 10, chainLen(head2))
	assert.Len(t, mem.mapCalls(), 1)
}

func TestCentralCache_FetchRangeShortList(t *testing.T) {
	cc, _ := newMockCentral(t, 0)
	index := IndexOf(4096)

	// 8 pages hold 8 blocks, one handed out and 7 parked
	_, n, err := cc.FetchRange(index, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 7, cc.freeLen(index))

	head, n, err := cc.FetchRange(index, 100)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 7, chainLen(head))
	assert.Equal(t, 0, cc.freeLen(index))
}

func TestCentralCache_FetchRangeLargeBlock(t *testing.T) {
	cc, mem := newMockCentral(t, 0)

	// blocks larger than a default span get a span of their exact page count
	index := IndexOf(MaxBytes)
	head, n, err := cc.FetchRange(index, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, chainLen(head))
	assert.Equal(t, []int{MaxBytes / PageSize}, mem.mapCalls())

	index = IndexOf(40000)
	_, n, err = cc.FetchRange(index, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, mem.mapCalls()[1])
}

func TestCentralCache_FetchRangeExhausted(t *testing.T) {
	cc, _ := newMockCentral(t, 4)
	index := IndexOf(16)

	head, n, err := cc.FetchRange(index, 4)
	assert.ErrorIs(t, err, ErrNoSpace)
	assert.Zero(t, head)
	assert.Zero(t, n)
	// the class lock was released on the failure path
	assert.False(t, cc.lists[index].lock.locked())
}

func TestCentralCache_ReturnRange(t *testing.T) {
	cc, _ := newMockCentral(t, 0)
	index := IndexOf(128)

	assert.ErrorIs(t, cc.ReturnRange(0, 1, index), ErrNilPointer)

	head, n, err := cc.FetchRange(index, 32)
	require.NoError(t, err)
	parked := cc.freeLen(index)

	assert.ErrorIs(t, cc.ReturnRange(head, n, NumClasses), ErrIndexOutOfRange)
	require.NoError(t, cc.ReturnRange(head, n, index))
	assert.Equal(t, parked+n, cc.freeLen(index))
	assert.False(t, cc.lists[index].lock.locked())

	// returned chain is served first
	again, _, err := cc.FetchRange(index, 1)
	require.NoError(t, err)
	assert.Equal(t, head, again)
}

func TestCentralCache_ReturnRangeCountLongerThanChain(t *testing.T) {
	cc, _ := newMockCentral(t, 0)
	index := IndexOf(256)

	head, n, err := cc.FetchRange(index, 4)
	require.NoError(t, err)
	parked := cc.freeLen(index)

	// the walk stops on the null link even if count overstates the chain
	require.NoError(t, cc.ReturnRange(head, n+100, index))
	assert.Equal(t, parked+n, cc.freeLen(index))
}

func TestCentralCache_ReturnRangeCountShorterThanChain(t *testing.T) {
	cc, _ := newMockCentral(t, 0)
	index := IndexOf(256)

	head, _, err := cc.FetchRange(index, 4)
	require.NoError(t, err)
	parked := cc.freeLen(index)

	// only count nodes are spliced, the node after them is cut off
	require.NoError(t, cc.ReturnRange(head, 2, index))
	assert.Equal(t, parked+2, cc.freeLen(index))
}

func TestCentralCache_ConcurrentFetchReturn(t *testing.T) {
	cc, _ := newMockCentral(t, 0)
	index := IndexOf(32)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				head, n, err := cc.FetchRange(index, 16)
				if err != nil {
					t.Error(err)
					return
				}
				if chainLen(head) != n {
					t.Errorf("chain len %d != %d", chainLen(head), n)
					return
				}
				_ = cc.ReturnRange(head, n, index)
			}
		}()
	}
	wg.Wait()

	total := cc.freeLen(index)
	assert.Zero(t, total%(8*PageSize/32))
}
