package uthread

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadyQueueFIFO(t *testing.T) {
	var q readyQueue
	q.PushBack(1)
	q.PushBack(2)
	q.PushBack(3)

	id, ok := q.PopFront()
	require.True(t, ok)
	require.Equal(t, ThreadID(1), id)

	id, ok = q.PopFront()
	require.True(t, ok)
	require.Equal(t, ThreadID(2), id)

	require.Equal(t, 1, q.Len())
}

func TestReadyQueuePopFrontEmpty(t *testing.T) {
	var q readyQueue
	_, ok := q.PopFront()
	require.False(t, ok)
}

func TestReadyQueueRemoveByID(t *testing.T) {
	var q readyQueue
	n1 := q.PushBack(1)
	q.PushBack(2)
	n3 := q.PushBack(3)

	q.remove(n3)
	require.Equal(t, 2, q.Len())

	q.remove(n1)
	id, ok := q.PopFront()
	require.True(t, ok)
	require.Equal(t, ThreadID(2), id)
	require.Equal(t, 0, q.Len())
}

func TestReadyQueueRemoveHeadAndTail(t *testing.T) {
	var q readyQueue
	n1 := q.PushBack(1)
	q.PushBack(2)

	q.remove(n1)
	require.Equal(t, 1, q.Len())
	id, ok := q.PopFront()
	require.True(t, ok)
	require.Equal(t, ThreadID(2), id)
	require.Equal(t, 0, q.Len())
}
