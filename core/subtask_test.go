package core

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_Less(t *testing.T) {
	cases := []struct {
		a, b Priority
		want bool
	}{
		{Priority{1}, Priority{2}, true},
		{Priority{2}, Priority{1}, false},
		{Priority{1, 0}, Priority{1, 1}, true},
		{Priority{}, Priority{0}, true},
		{Priority{1}, Priority{1, 0}, true},
		{Priority{1}, Priority{1}, false},
		{nil, Priority{}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Less(c.b), "%v.Less(%v)", c.a, c.b)
	}
}

func TestPriority_SortDescending(t *testing.T) {
	ps := []Priority{{0}, {}, {2, 1}, {2}, {1, 5}}
	sort.Slice(ps, func(i, j int) bool { return ps[j].Less(ps[i]) })
	assert.Equal(t, []Priority{{2, 1}, {2}, {1, 5}, {0}, {}}, ps)
}

func TestPriority_CloneAndString(t *testing.T) {
	var unset Priority
	c := unset.Clone()
	require.NotNil(t, c)
	assert.Empty(t, c)

	p := Priority{3, 4}
	cp := p.Clone()
	cp[0] = 9
	assert.Equal(t, 3, p[0])
	assert.Equal(t, "(3,4)", p.String())
}

func TestNewSubtask(t *testing.T) {
	s1 := NewSubtask("sess", "task")
	s2 := NewSubtask("sess", "task")
	require.NotEmpty(t, s1.ID)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Nil(t, s1.Priority)
}

func TestGenUID_Deterministic(t *testing.T) {
	assert.Equal(t, GenUID(KindSubtaskManager, "s1"), GenUID(KindSubtaskManager, "s1"))
	assert.NotEqual(t, GenUID(KindSubtaskManager, "s1"), GenUID(KindSubtaskQueueing, "s1"))
	assert.NotEqual(t, GenUID(KindSubtaskManager, "s1"), GenUID(KindSubtaskManager, "s2"))
	assert.Equal(t, "AutoscalerActor", DefaultUID(KindAutoscaler))
}

func TestResolutionError_Unwrap(t *testing.T) {
	cause := errors.New("not found")
	err := error(&ResolutionError{SessionID: "s", Address: "a", Component: KindAutoscaler, Err: cause})
	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsResolutionError(err))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindAutoscaler, re.Component)
}
