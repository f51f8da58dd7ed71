// Package scanner fans Server List Ping probes out over a bounded task group
// and reports every target through a success or failure callback.
package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrReused is returned when a single-use group or scanner is started twice.
var ErrReused = errors.New("scanner already used")

// Limits bounds how fast tasks are submitted and how many run at once.
type Limits struct {
	// Concurrency caps tasks in flight.
	Concurrency int64

	// Burst tasks are submitted back to back before pacing kicks in.
	Burst int

	// Pause is the time granted to refill one burst. Zero disables pacing.
	Pause time.Duration
}

// DefaultLimits submits bursts of 100 every 50ms with at most 512 probes in flight.
var DefaultLimits = Limits{
	Concurrency: 512,
	Burst:       100,
	Pause:       50 * time.Millisecond,
}

func (l Limits) normalize() Limits {
	if l.Concurrency <= 0 {
		l.Concurrency = DefaultLimits.Concurrency
	}
	if l.Burst <= 0 {
		l.Burst = DefaultLimits.Burst
	}
	if l.Pause < 0 {
		l.Pause = 0
	}
	return l
}

// Group runs submitted tasks concurrently within Limits and joins them in Wait.
// A Group is single-use: after Wait no further tasks are accepted.
type Group struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// NewGroup creates a Group with the given limits.
func NewGroup(limits Limits) *Group {
	limits = limits.normalize()

	limit := rate.Inf
	if limits.Pause > 0 {
		limit = rate.Limit(float64(limits.Burst) / limits.Pause.Seconds())
	}

	return &Group{
		sem:     semaphore.NewWeighted(limits.Concurrency),
		limiter: rate.NewLimiter(limit, limits.Burst),
	}
}

// Go submits task. It blocks while the submission rate is exhausted or the
// concurrency cap is reached, then runs task on its own goroutine.
func (g *Group) Go(task func()) error {
	if g.closed.Load() {
		return ErrReused
	}

	ctx := context.Background()
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.sem.Release(1)
		task()
	}()

	return nil
}

// Wait blocks until every submitted task has returned and retires the group.
func (g *Group) Wait() {
	g.closed.Store(true)
	g.wg.Wait()
}
