package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/schedmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a batch Func that upper-cases its arguments and remembers every batch.
type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) fn(_ context.Context, args []string) ([]string, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]string(nil), args...))
	r.mu.Unlock()
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ToUpper(a)
	}
	return out, nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

type callResult struct {
	val string
	err error
}

// submitInOrder enqueues args one by one, waiting for each to be buffered so
// submission order is deterministic.
func submitInOrder(t *testing.T, c *Coalescer[string, string], args ...string) []chan callResult {
	t.Helper()
	chans := make([]chan callResult, len(args))
	for i, a := range args {
		ch := make(chan callResult, 1)
		chans[i] = ch
		go func(arg string) {
			v, err := c.Call(context.Background(), arg)
			ch <- callResult{val: v, err: err}
		}(a)
		want := i + 1
		require.Eventually(t, func() bool { return c.Pending() == want }, time.Second, time.Millisecond)
	}
	return chans
}

func TestCoalescer_ThreeCallsOneBatch(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) { o.Window = time.Hour })
	defer c.Close()

	chans := submitInOrder(t, c, "a", "b", "c")
	c.Flush()

	for i, want := range []string{"A", "B", "C"} {
		r := <-chans[i]
		require.NoError(t, r.err)
		assert.Equal(t, want, r.val)
	}
	assert.Equal(t, [][]string{{"a", "b", "c"}}, rec.snapshot())
	assert.Equal(t, 0, c.Pending())
}

func TestCoalescer_WindowFlush(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) { o.Window = 5 * time.Millisecond })
	defer c.Close()

	var wg sync.WaitGroup
	for _, arg := range []string{"x", "y", "z"} {
		wg.Add(1)
		go func(a string) {
			defer wg.Done()
			v, err := c.Call(context.Background(), a)
			assert.NoError(t, err)
			assert.Equal(t, strings.ToUpper(a), v)
		}(arg)
	}
	wg.Wait()

	total := 0
	for _, b := range rec.snapshot() {
		total += len(b)
	}
	assert.Equal(t, 3, total)
}

func TestCoalescer_SingleCallBatchOfOne(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil)
	defer c.Close()

	v, err := c.Call(context.Background(), "solo")
	require.NoError(t, err)
	assert.Equal(t, "SOLO", v)
	assert.Equal(t, [][]string{{"solo"}}, rec.snapshot())
}

func TestCoalescer_MaxBatchSize(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) {
		o.Window = time.Hour
		o.MaxBatchSize = 2
	})
	defer c.Close()

	chans := submitInOrder(t, c, "a")
	go func() { _, _ = c.Call(context.Background(), "b") }()

	r := <-chans[0]
	require.NoError(t, r.err)
	assert.Equal(t, "A", r.val)
	assert.Equal(t, [][]string{{"a", "b"}}, rec.snapshot())
}

func TestCoalescer_BatchErrorFansOut(t *testing.T) {
	boom := errors.New("queue unavailable")
	c := New[string, string](func(context.Context, []string) ([]string, error) { return nil, boom }, nil,
		func(o *Options) { o.Window = time.Hour })
	defer c.Close()

	chans := submitInOrder(t, c, "a", "b")
	c.Flush()
	for _, ch := range chans {
		assert.ErrorIs(t, (<-ch).err, boom)
	}
}

func TestCoalescer_ResultMismatch(t *testing.T) {
	c := New[string, string](func(context.Context, []string) ([]string, error) { return []string{"only-one"}, nil }, nil,
		func(o *Options) { o.Window = time.Hour })
	defer c.Close()

	chans := submitInOrder(t, c, "a", "b")
	c.Flush()
	for _, ch := range chans {
		assert.ErrorIs(t, (<-ch).err, ErrResultMismatch)
	}
}

func TestCoalescer_DisabledWithoutSingle(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) {
		o.Disabled = true
		o.Name = "update_subtask_priority"
	})
	defer c.Close()

	_, err := c.Call(context.Background(), "a")
	assert.ErrorIs(t, err, core.ErrNotImplemented)
	assert.Empty(t, rec.snapshot())
}

func TestCoalescer_DisabledWithSingle(t *testing.T) {
	rec := &recorder{}
	single := func(_ context.Context, a string) (string, error) { return "single:" + a, nil }
	c := New[string, string](rec.fn, single, func(o *Options) { o.Disabled = true })
	defer c.Close()

	v, err := c.Call(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "single:a", v)
	assert.Empty(t, rec.snapshot())
}

func TestCoalescer_CallerContextCancelled(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) { o.Window = time.Hour })
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Call(ctx, "a")
		errCh <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The abandoned argument still travels with its batch.
	c.Flush()
	assert.Equal(t, [][]string{{"a"}}, rec.snapshot())
}

func TestCoalescer_Close(t *testing.T) {
	rec := &recorder{}
	c := New[string, string](rec.fn, nil, func(o *Options) { o.Window = time.Hour })

	chans := submitInOrder(t, c, "a")
	c.Close()
	assert.ErrorIs(t, (<-chans[0]).err, ErrClosed)

	_, err := c.Call(context.Background(), "b")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Batch(context.Background(), "b")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, rec.snapshot())

	c.Close()
}

func TestCoalescer_ExplicitBatch(t *testing.T) {
	rec := &recorder{}
	var observed []int
	c := New[string, string](rec.fn, nil, func(o *Options) {
		o.Observer = func(size int, _ time.Duration, _ error) { observed = append(observed, size) }
	})
	defer c.Close()

	out, err := c.Batch(context.Background(), "p", "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "Q"}, out)
	assert.Equal(t, []int{2}, observed)

	out, err = c.Batch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}
