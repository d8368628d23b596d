package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schedmesh/core"
)

func TestQueueing_PopOrder(t *testing.T) {
	q := NewQueueing("s1")
	q.AddSubtasks([]string{"low", "high", "mid", "mid2"}, []core.Priority{{}, {5}, {1}, {1}})

	assert.Equal(t, 4, q.Len())
	assert.Equal(t, []string{"high", "mid", "mid2"}, q.Pop(3))
	assert.Equal(t, []string{"low"}, q.Pop(3))
	assert.Empty(t, q.Pop(1))
}

func TestQueueing_UpdateSubtaskPriority(t *testing.T) {
	ctx := context.Background()
	q := NewQueueing("s1")
	q.AddSubtasks([]string{"a", "b", "c"}, []core.Priority{{1}, {2}, {3}})

	res, err := q.UpdateSubtaskPriority(ctx, []core.PriorityUpdate{
		{SubtaskID: "a", Priority: core.Priority{9}},
		{SubtaskID: "missing", Priority: core.Priority{1}},
		{SubtaskID: "c", Priority: core.Priority{0}},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, res)

	p, ok := q.Priority("a")
	require.True(t, ok)
	assert.Equal(t, core.Priority{9}, p)
	assert.Equal(t, []string{"a", "b", "c"}, q.Pop(3))
}

func TestQueueing_RemoveAndReAdd(t *testing.T) {
	q := NewQueueing("s1")
	q.AddSubtasks([]string{"a", "b"}, []core.Priority{{1}, {2}})
	assert.Equal(t, 1, q.Remove([]string{"b", "nope"}))

	q.AddSubtasks([]string{"a"}, []core.Priority{{7}})
	assert.Equal(t, 1, q.Len())
	p, _ := q.Priority("a")
	assert.Equal(t, core.Priority{7}, p)
}
