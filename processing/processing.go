// Package processing runs CPU heavy work (photo decoding, face detection)
// on a bounded number of workers.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrTimedOut = errors.New("processing timed out")
	ErrPanicked = errors.New("processing panicked")
)

type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *slog.Logger
}

// NewPool allows at most workers concurrent jobs, each limited to timeout
// (0 means no limit).
func NewPool(workers int, timeout time.Duration, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		logger:  logger,
	}
}

type result[T any] struct {
	value T
	err   error
}

// Do runs fn on a worker. Waiting for a free worker counts against the
// deadline. When the deadline passes first, Do returns ErrTimedOut and the
// result of fn, once it arrives, is dropped. A panic in fn is returned as
// ErrPanicked.
func Do[T any](ctx context.Context, p *Pool, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, p.ctxErr(ctx, name)
	}

	start := time.Now()
	done := make(chan result[T], 1)
	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("job panicked", "job", name, "panic", r)
				done <- result[T]{err: fmt.Errorf("%w: %v", ErrPanicked, r)}
			}
		}()
		v, err := fn(ctx)
		done <- result[T]{v, err}
		if elapsed := time.Since(start); p.timeout > 0 && elapsed > p.timeout {
			p.logger.Warn("late job finished", "job", name, "elapsed", elapsed)
		}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, p.ctxErr(ctx, name)
	}
}

func (p *Pool) ctxErr(ctx context.Context, name string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.logger.Warn("job timed out", "job", name, "timeout", p.timeout)
		return ErrTimedOut
	}
	return ctx.Err()
}
