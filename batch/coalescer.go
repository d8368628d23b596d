package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

var (
	// ErrClosed is returned to calls issued on, or still pending in, a closed coalescer.
	ErrClosed = errors.New("coalescer closed")

	// ErrResultMismatch is returned to every caller of a batch whose Func
	// returned a different number of results than it received arguments.
	ErrResultMismatch = errors.New("batch result count mismatch")
)

// DefaultWindow is the coalescing window used when Options.Window is unset.
const DefaultWindow = time.Millisecond

// Func executes one batch. It must return exactly one result per argument,
// in argument order, or an error that applies to the whole batch.
type Func[A, R any] func(ctx context.Context, args []A) ([]R, error)

// SingleFunc executes one argument outside the batching protocol.
type SingleFunc[A, R any] func(ctx context.Context, arg A) (R, error)

// Options configures a Coalescer.
type Options struct {
	// Name identifies the batched operation in logs and observer callbacks.
	Name string
	// Window is how long the first pending call waits for company before the
	// buffer is flushed. Defaults to DefaultWindow.
	Window time.Duration
	// MaxBatchSize flushes the buffer as soon as it holds this many calls.
	// Zero means unbounded.
	MaxBatchSize int
	// Disabled routes every Call to the single function instead of the buffer.
	Disabled bool
	// Observer, when set, is invoked after every batch execution.
	Observer func(size int, dur time.Duration, err error)
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

type result[R any] struct {
	val R
	err error
}

type pendingCall[A, R any] struct {
	arg  A
	done chan result[R]
}

// Coalescer merges concurrent Calls into batched Func invocations. It is safe
// for concurrent use. The buffer lock is never held while Func runs.
type Coalescer[A, R any] struct {
	fn     Func[A, R]
	single SingleFunc[A, R]
	opts   Options

	mu      sync.Mutex
	pending []*pendingCall[A, R]
	gen     uint64
	timer   *time.Timer
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Coalescer. single may be nil, in which case calls made while
// batching is disabled fail with core.ErrNotImplemented.
func New[A, R any](fn Func[A, R], single SingleFunc[A, R], optFns ...func(o *Options)) *Coalescer[A, R] {
	opts := Options{
		Window: DefaultWindow,
		Logger: logging.NoOpLogger{},
	}
	for _, f := range optFns {
		f(&opts)
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coalescer[A, R]{fn: fn, single: single, opts: opts, ctx: ctx, cancel: cancel}
}

// Call submits one argument and waits for its individual result.
//
// If ctx is done before the batch completes, Call returns ctx.Err(); the
// argument still travels with its batch and its result is discarded.
func (c *Coalescer[A, R]) Call(ctx context.Context, arg A) (R, error) {
	var zero R
	if c.opts.Disabled {
		if c.single == nil {
			return zero, fmt.Errorf("%s: %w", c.opts.Name, core.ErrNotImplemented)
		}
		return c.single(ctx, arg)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	pc := &pendingCall[A, R]{arg: arg, done: make(chan result[R], 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	c.pending = append(c.pending, pc)
	var ready []*pendingCall[A, R]
	switch {
	case c.opts.MaxBatchSize > 0 && len(c.pending) >= c.opts.MaxBatchSize:
		ready = c.takeLocked()
	case len(c.pending) == 1:
		gen := c.gen
		c.timer = time.AfterFunc(c.opts.Window, func() { c.flushGen(gen) })
	}
	c.mu.Unlock()

	if ready != nil {
		go c.run(ready)
	}

	select {
	case r := <-pc.done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Batch executes args as one batch immediately, bypassing the buffer.
func (c *Coalescer[A, R]) Batch(ctx context.Context, args ...A) ([]R, error) {
	if len(args) == 0 {
		return []R{}, nil
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return c.exec(ctx, args)
}

// Flush drains the pending buffer synchronously. It returns once every
// drained call has received its result.
func (c *Coalescer[A, R]) Flush() {
	c.mu.Lock()
	ready := c.takeLocked()
	c.mu.Unlock()
	if len(ready) > 0 {
		c.run(ready)
	}
}

// Pending returns the number of buffered calls.
func (c *Coalescer[A, R]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close rejects further calls, fails pending ones with ErrClosed and cancels
// the context of batches still executing.
func (c *Coalescer[A, R]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	ready := c.takeLocked()
	c.mu.Unlock()

	c.cancel()
	for _, pc := range ready {
		pc.done <- result[R]{err: ErrClosed}
	}
}

func (c *Coalescer[A, R]) flushGen(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	ready := c.takeLocked()
	c.mu.Unlock()
	if len(ready) > 0 {
		c.run(ready)
	}
}

// takeLocked detaches the pending buffer and starts a new generation so a
// stale window timer cannot flush the next batch early.
func (c *Coalescer[A, R]) takeLocked() []*pendingCall[A, R] {
	ready := c.pending
	c.pending = nil
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return ready
}

func (c *Coalescer[A, R]) run(calls []*pendingCall[A, R]) {
	args := make([]A, len(calls))
	for i, pc := range calls {
		args[i] = pc.arg
	}
	results, err := c.exec(c.ctx, args)
	for i, pc := range calls {
		if err != nil {
			pc.done <- result[R]{err: err}
			continue
		}
		pc.done <- result[R]{val: results[i]}
	}
}

func (c *Coalescer[A, R]) exec(ctx context.Context, args []A) ([]R, error) {
	start := time.Now()
	results, err := c.fn(ctx, args)
	if err == nil && len(results) != len(args) {
		err = fmt.Errorf("%w: %s returned %d results for %d calls", ErrResultMismatch, c.opts.Name, len(results), len(args))
	}
	dur := time.Since(start)
	if c.opts.Observer != nil {
		c.opts.Observer(len(args), dur, err)
	}
	if err != nil {
		c.opts.Logger.Warn("batch failed", "operation", c.opts.Name, "batch_size", len(args), "duration", dur, "error", err)
		return nil, err
	}
	c.opts.Logger.Debug("batch flushed", "operation", c.opts.Name, "batch_size", len(args), "duration", dur)
	return results, nil
}
