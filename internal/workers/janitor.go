// Package workers runs background work off the request path. The only
// tenant today is the session janitor: a pond-backed pool that
// periodically sweeps expired sessions, repurposed from the teacher's
// article-fetch worker pool (SPEC_FULL.md §2, ambient stack).
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond"
)

// SessionStore is the narrow slice of store.Store the janitor needs.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Clock abstracts wall-clock time so the janitor can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// PoolConfig sizes the janitor's worker pool.
type PoolConfig struct {
	Workers int
}

// SessionJanitor periodically deletes sessions whose refresh token has
// already expired. It never touches request-critical state; failures are
// logged, never surfaced to a caller.
type SessionJanitor struct {
	pool  *pond.WorkerPool
	store SessionStore
	clock Clock

	stop chan struct{}
	done chan struct{}
}

// NewSessionJanitor wires a janitor against the given store and clock.
func NewSessionJanitor(cfg PoolConfig, store SessionStore, clock Clock) *SessionJanitor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	return &SessionJanitor{
		pool: pond.New(
			workers,
			workers*2,
			pond.MinWorkers(1),
			pond.IdleTimeout(30*time.Second),
		),
		store: store,
		clock: clock,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start runs a sweep every interval until Shutdown is called.
func (j *SessionJanitor) Start(interval time.Duration) {
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.sweepOnce()
			case <-j.stop:
				return
			}
		}
	}()
}

func (j *SessionJanitor) sweepOnce() {
	j.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("session janitor sweep panicked", "error", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		removed, err := j.store.DeleteExpiredSessions(ctx, j.clock.Now())
		if err != nil {
			slog.Error("session janitor sweep failed", "error", err)
			return
		}
		if removed > 0 {
			slog.Info("session janitor removed expired sessions", "count", removed)
		}
	})
}

// Shutdown stops the ticker and drains the worker pool.
func (j *SessionJanitor) Shutdown() {
	close(j.stop)
	<-j.done
	j.pool.StopAndWait()
}
