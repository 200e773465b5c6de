package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ErrPoolClosed is returned by futures submitted after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted functions on a fixed number of goroutines.
// Submitting blocks while every goroutine is busy.
type Pool struct {
	name string
	size int

	mu     sync.RWMutex
	closed bool
	inner  *pool.Pool
}

// NewPool creates a pool with size goroutines (minimum 1).
func NewPool(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		name:  name,
		size:  size,
		inner: pool.New().WithMaxGoroutines(size),
	}
}

// Name returns the pool's label.
func (p *Pool) Name() string { return p.name }

// Size returns the number of goroutines.
func (p *Pool) Size() int { return p.size }

// Close waits for all submitted work to finish. Later submissions resolve
// with ErrPoolClosed. Close is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.inner.Wait()
}

// Future is the pending result of a submitted function.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture returns an unresolved future and the function that resolves it.
// Only the first call to resolve has any effect.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future that is already complete.
func Resolved[T any](value T, err error) *Future[T] {
	f, resolve := NewFuture[T]()
	resolve(value, err)
	return f
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the function returns.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// WaitContext blocks until the function returns or ctx ends. Returning early
// does not stop the function.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on p and returns its future. A panic inside fn is
// converted into the future's error.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		var zero T
		resolve(zero, fmt.Errorf("%s: %w", p.name, ErrPoolClosed))
		return f
	}

	p.inner.Go(func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				resolve(zero, fmt.Errorf("%s: task panicked: %v", p.name, r))
				return
			}
			resolve(value, err)
		}()
		value, err = fn()
	})
	return f
}

// SubmitAndWait runs fn on p and blocks until it returns. Scan work on the CPU
// pool uses it to hand persistence to the single I/O worker.
//
// Calling it from a goroutine of p itself deadlocks when p has one worker.
func SubmitAndWait[T any](p *Pool, fn func() (T, error)) (T, error) {
	return Submit(p, fn).Wait()
}

// Do is SubmitAndWait for functions that only return an error.
func Do(p *Pool, fn func() error) error {
	_, err := SubmitAndWait(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
