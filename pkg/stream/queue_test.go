package stream

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Ordering(t *testing.T) {
	q := NewQueue()
	for _, m := range []string{"m1", "m2", "m3"} {
		require.NoError(t, q.Push(m))
	}

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"m1", "m2", "m3"}, q.DrainAll())
	assert.Empty(t, q.DrainAll())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_MaxDepth(t *testing.T) {
	q := NewQueue(WithMaxDepth(2))
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	assert.ErrorIs(t, q.Push("c"), ErrQueueFull)

	assert.Equal(t, []string{"a", "b"}, q.DrainAll())
	require.NoError(t, q.Push("d"))
	assert.Equal(t, []string{"d"}, q.DrainAll())
}

func TestQueue_ConcurrentDrainKeepsOrder(t *testing.T) {
	const total = 5000
	q := NewQueue()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range total {
			_ = q.Push(fmt.Sprintf("m%d", i))
		}
	}()

	var got []string
	for len(got) < total {
		got = append(got, q.DrainAll()...)
	}
	wg.Wait()

	require.Len(t, got, total)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("m%d", i), m)
	}
	assert.Empty(t, q.DrainAll())
}
