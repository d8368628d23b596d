package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/schedmesh/core"
)

func TestSubtaskBuilder(t *testing.T) {
	st := NewSubtaskBuilder("s1").Task("t1").ID("fixed").Priority(2, 1).NotRetryable().ExpectedBand("w1", "numa-0").Build()

	assert.Equal(t, "fixed", st.ID)
	assert.Equal(t, "s1", st.SessionID)
	assert.Equal(t, "t1", st.TaskID)
	assert.Equal(t, core.Priority{2, 1}, st.Priority)
	assert.False(t, st.Retryable)
	assert.True(t, NewSubtaskBuilder("s1").Build().Retryable)
	assert.Equal(t, []core.Band{{Address: "w1", Resource: "numa-0"}}, st.ExpectedBands)
}

func TestSubtasks(t *testing.T) {
	sts := Subtasks("s1", "t1", 3)
	assert.Len(t, sts, 3)
	assert.NotEqual(t, sts[0].ID, sts[1].ID)
	for _, st := range sts {
		assert.Nil(t, st.Priority)
		assert.Equal(t, "t1", st.TaskID)
	}
}
