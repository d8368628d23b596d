package schedmesh

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/scheduling"
)

func smallTopology(o *scheduling.MockOptions) {
	o.Slots = 2
	o.QuotaSize = 1 << 30
}

func TestCreateMockAndCreate(t *testing.T) {
	ctx := context.Background()
	const addr = "127.0.0.1:21000"

	api, err := CreateMock(ctx, "root-session", addr, smallTopology)
	require.NoError(t, err)

	again, err := Create(ctx, "root-session", addr)
	require.NoError(t, err)
	assert.Same(t, api, again)
	assert.Same(t, actor.Default(), Default().Pool())

	require.NoError(t, api.AddSubtasks(ctx, []*core.Subtask{core.NewSubtask("root-session", "t")}, nil))
	sums, err := api.GetSubtaskScheduleSummaries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, sums, 1)
}

func TestCreate_Unresolvable(t *testing.T) {
	_, err := Create(context.Background(), "nobody", "127.0.0.1:1")
	require.ErrorIs(t, err, core.ErrResolution)
}

func TestNew_WithRegisterer(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(func(o *Options) {
		o.Pool = actor.NewPool()
		o.Registerer = registry
		o.Scheduling = append(o.Scheduling, func(so *scheduling.Options) { so.MaxEntries = 4 })
	})
	require.NoError(t, err)
	defer m.Close()

	api, err := m.CreateMock(context.Background(), "s1", "127.0.0.1:21001", smallTopology)
	require.NoError(t, err)
	require.NoError(t, api.DisableAutoscaleIn(context.Background()))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "schedmesh_scheduling_api_calls_total")
	assert.Contains(t, names, "schedmesh_scheduling_api_resolutions_total")
	assert.Equal(t, 1, m.Cache().Len())
}
