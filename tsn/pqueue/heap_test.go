package pqueue_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tsnfabric/gatesched/tsn/pqueue"
)

func TestPushPopOrdering(t *testing.T) {
	h := pqueue.New()
	require.NoError(t, h.Push("a", 5, nil))
	require.NoError(t, h.Push("b", 1, nil))
	require.NoError(t, h.Push("c", 3, nil))

	var order []string
	for h.Len() > 0 {
		k, _, _, ok := h.Pop()
		require.True(t, ok)
		order = append(order, k)
	}
	require.Equal(t, []string{"b", "c", "a"}, order)
}

func TestPushDuplicateKey(t *testing.T) {
	h := pqueue.New()
	require.NoError(t, h.Push("a", 5, nil))
	require.ErrorIs(t, h.Push("a", 1, nil), pqueue.ErrKeyExists)
}

func TestDecreasePriority_ReordersAndTracksIndex(t *testing.T) {
	h := pqueue.New()
	require.NoError(t, h.Push("a", 10, "payloadA"))
	require.NoError(t, h.Push("b", 20, "payloadB"))
	require.NoError(t, h.Push("c", 30, "payloadC"))

	require.NoError(t, h.DecreasePriority("c", 1))

	k, p, payload, ok := h.Peek()
	require.True(t, ok)
	require.Equal(t, "c", k)
	require.EqualValues(t, 1, p)
	require.Equal(t, "payloadC", payload)
}

func TestDecreasePriority_RejectsIncrease(t *testing.T) {
	h := pqueue.New()
	require.NoError(t, h.Push("a", 10, nil))
	require.ErrorIs(t, h.DecreasePriority("a", 20), pqueue.ErrIncreasePriority)
}

func TestDecreasePriority_MissingKey(t *testing.T) {
	h := pqueue.New()
	require.ErrorIs(t, h.DecreasePriority("missing", 1), pqueue.ErrKeyNotFound)
}

func TestPopEmpty(t *testing.T) {
	h := pqueue.New()
	_, _, _, ok := h.Pop()
	require.False(t, ok)
}

func TestContainsKeyAndGet(t *testing.T) {
	h := pqueue.New()
	require.False(t, h.ContainsKey("a"))
	require.NoError(t, h.Push("a", 4, 99))
	require.True(t, h.ContainsKey("a"))

	p, payload, ok := h.Get("a")
	require.True(t, ok)
	require.EqualValues(t, 4, p)
	require.Equal(t, 99, payload)
}

// TestPushesAndDecrease_PopInNonDecreasingOrder stress-tests the index
// invariant: a sequence of pushes and decreases must still pop in
// non-decreasing order.
func TestPushesAndDecrease_PopInNonDecreasingOrder(t *testing.T) {
	h := pqueue.New()
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	priorities := map[string]int64{"a": 50, "b": 40, "c": 90, "d": 10, "e": 70, "f": 20, "g": 60, "h": 30}
	for _, k := range keys {
		require.NoError(t, h.Push(k, priorities[k], nil))
	}
	require.NoError(t, h.DecreasePriority("c", 5))
	priorities["c"] = 5

	var last int64 = -1
	for h.Len() > 0 {
		_, p, _, ok := h.Pop()
		require.True(t, ok)
		require.GreaterOrEqual(t, p, last)
		last = p
	}
}
