package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/worker"
)

const addr = "127.0.0.1:12345"

func bootstrap(t *testing.T, pool *actor.Pool) {
	t.Helper()
	ctx := context.Background()
	_, err := CreateGlobalResourceManager(ctx, pool, addr)
	require.NoError(t, err)
	_, err = CreateAutoscaler(ctx, pool, addr, AutoscalerConfig{}, nil)
	require.NoError(t, err)
	_, err = worker.CreateSubtaskExecution(ctx, pool, addr, 0)
	require.NoError(t, err)
	_, err = worker.CreateSlotManager(ctx, pool, addr, 2)
	require.NoError(t, err)
	_, err = worker.CreateQuotaManager(ctx, pool, addr, 1<<30)
	require.NoError(t, err)
}

func TestService_CreateSession(t *testing.T) {
	ctx := context.Background()
	pool := actor.NewPool()
	bootstrap(t, pool)

	svc := NewService(pool, addr)
	require.NoError(t, svc.CreateSession(ctx, "s1"))

	m, err := actor.RefAs[core.SubtaskManager](ctx, pool, core.GenUID(core.KindSubtaskManager, "s1"), addr)
	require.NoError(t, err)
	_, err = actor.RefAs[core.SubtaskQueueing](ctx, pool, core.GenUID(core.KindSubtaskQueueing, "s1"), addr)
	require.NoError(t, err)

	require.NoError(t, m.AddSubtasks(ctx, []*core.Subtask{{ID: "x", TaskID: "t"}}, []core.Priority{{}}))
	sums, err := m.GetScheduleSummaries(ctx, "")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, []core.Band{{Address: addr, Resource: worker.DefaultBandResource}}, sums[0].Bands)

	assert.ErrorIs(t, svc.CreateSession(ctx, "s1"), ErrSessionExists)

	require.NoError(t, svc.DestroySession(ctx, "s1"))
	assert.False(t, pool.Has(core.GenUID(core.KindSubtaskManager, "s1"), addr))
	require.NoError(t, svc.CreateSession(ctx, "s1"))
}

func TestService_CreateSessionMissingTopology(t *testing.T) {
	ctx := context.Background()
	pool := actor.NewPool()
	_, err := CreateGlobalResourceManager(ctx, pool, addr)
	require.NoError(t, err)
	_, err = CreateAutoscaler(ctx, pool, addr, AutoscalerConfig{}, nil)
	require.NoError(t, err)

	err = NewService(pool, addr).CreateSession(ctx, "s1")
	assert.ErrorIs(t, err, actor.ErrActorNotFound)
	assert.False(t, pool.Has(core.GenUID(core.KindSubtaskManager, "s1"), addr))
}

func TestCreateAutoscaler_Singleton(t *testing.T) {
	ctx := context.Background()
	pool := actor.NewPool()
	_, err := CreateAutoscaler(ctx, pool, addr, AutoscalerConfig{}, nil)
	require.NoError(t, err)
	_, err = CreateAutoscaler(ctx, pool, addr, AutoscalerConfig{}, nil)
	assert.ErrorIs(t, err, actor.ErrActorExists)
}
