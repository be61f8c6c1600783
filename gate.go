package s3put

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate lets at most one upload transfer be in flight. Once aborted, every
// current and future Acquire returns ErrGateAborted.
type Gate struct {
	permit *semaphore.Weighted

	// abortCtx is cancelled by Abort
	abortCtx context.Context
	abort    context.CancelFunc

	busy atomic.Bool
}

func NewGate() *Gate {
	abortCtx, abort := context.WithCancel(context.Background())
	return &Gate{
		permit:   semaphore.NewWeighted(1),
		abortCtx: abortCtx,
		abort:    abort,
	}
}

// Acquire blocks until the permit is free and takes it. It returns
// ErrGateAborted, without holding the permit, when the gate is aborted
// before or while waiting, and ctx.Err() when ctx is done first.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.Aborted() {
		return ErrGateAborted
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(g.abortCtx, cancel)
	defer stop()

	if err := g.permit.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrGateAborted
	}
	// the previous holder may have aborted right before releasing
	if g.Aborted() {
		g.permit.Release(1)
		return ErrGateAborted
	}
	g.busy.Store(true)
	return nil
}

// Release frees the permit. It must only be called by the holder.
func (g *Gate) Release() {
	g.busy.Store(false)
	g.permit.Release(1)
}

// Abort makes waiting and future Acquire calls give up. The current holder
// keeps its permit until it calls Release.
func (g *Gate) Abort() {
	g.abort()
}

func (g *Gate) Aborted() bool {
	return g.abortCtx.Err() != nil
}

// Busy reports whether a transfer currently holds the permit.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
