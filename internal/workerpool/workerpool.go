// Package workerpool bounds the blocking work — every SQLite call, every
// CLIP inference — that storage-provider methods dispatch off the async
// HTTP reactor, so a single long embed call cannot starve concurrent status
// polls. It extends the teacher's golang.org/x/sync dependency (already
// used for errgroup.SetLimit-style bounded fan-out) to its semaphore
// subpackage, which models a fixed-size blocking pool more directly than
// rolling one by hand.
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent blocking work to a fixed size.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a pool that admits at most size concurrent blocking calls.
func New(size int64) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(size)}
}

// Run acquires a pool slot, runs fn to completion with no suspension point
// inside it, then releases the slot. It blocks until a slot is free or ctx
// is canceled.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)

	return fn()
}

// RunVoid is Run for functions with no return value.
func RunVoid(ctx context.Context, p *Pool, fn func() error) error {
	_, err := Run(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
