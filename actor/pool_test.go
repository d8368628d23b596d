package actor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface{ Greet() string }

type helloActor struct{ destroyed bool }

func (h *helloActor) Greet() string { return "hello" }

func (h *helloActor) Destroy(context.Context) error {
	h.destroyed = true
	return nil
}

func TestPool_CreateAndRef(t *testing.T) {
	ctx := context.Background()
	p := NewPool()

	h := &helloActor{}
	require.NoError(t, p.Create(ctx, "127.0.0.1:1234", "hello", h))

	ref, err := p.Ref(ctx, "hello", "127.0.0.1:1234")
	require.NoError(t, err)
	assert.Same(t, h, ref)
	assert.True(t, p.Has("hello", "127.0.0.1:1234"))

	err = p.Create(ctx, "127.0.0.1:1234", "hello", &helloActor{})
	assert.ErrorIs(t, err, ErrActorExists)
}

func TestPool_RefErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPool()

	_, err := p.Ref(ctx, "hello", "nowhere")
	assert.ErrorIs(t, err, ErrUnreachable)

	require.NoError(t, p.Create(ctx, "addr", "other", &helloActor{}))
	_, err = p.Ref(ctx, "hello", "addr")
	assert.ErrorIs(t, err, ErrActorNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Ref(cancelled, "other", "addr")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefAs(t *testing.T) {
	ctx := context.Background()
	p := NewPool()
	require.NoError(t, p.Create(ctx, "addr", "hello", &helloActor{}))
	require.NoError(t, p.Create(ctx, "addr", "plain", struct{}{}))

	g, err := RefAs[greeter](ctx, p, "hello", "addr")
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())

	_, err = RefAs[greeter](ctx, p, "plain", "addr")
	assert.ErrorIs(t, err, ErrActorType)
}

func TestPool_Destroy(t *testing.T) {
	ctx := context.Background()
	p := NewPool()
	h := &helloActor{}
	require.NoError(t, p.Create(ctx, "addr", "hello", h))

	require.NoError(t, p.Destroy(ctx, "hello", "addr"))
	assert.True(t, h.destroyed)
	assert.False(t, p.Has("hello", "addr"))
	assert.Empty(t, p.Addresses())
	assert.ErrorIs(t, p.Destroy(ctx, "hello", "addr"), ErrActorNotFound)
}

func TestPool_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	p := NewPool()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Create(ctx, "addr", "singleton", &helloActor{})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrActorExists)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}
