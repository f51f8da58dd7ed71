package ipv4

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// flushEvery is how many addresses a worker counts locally before
	// publishing to the shared counter.
	flushEvery = 1_000_000

	// checkEvery is how often a worker polls for cancellation.
	checkEvery = 1 << 12

	// DefaultProgressInterval is the default pause between progress reports.
	DefaultProgressInterval = 5 * time.Second
)

// Hook is called once per enumerated address from a worker goroutine.
type Hook func(addr uint32)

// ProgressFunc receives periodic progress reports.
type ProgressFunc func(done, total uint64, elapsed time.Duration)

// Enumerator walks a set of intervals on parallel workers.
type Enumerator struct {
	// Intervals to walk; AllowedIntervals when nil.
	Intervals []Interval

	// Workers defaults to the number of CPUs and is capped at len(Intervals).
	Workers int

	// Hook is called for every address. Nil means count only.
	Hook Hook

	// Progress is reported every ProgressInterval while the walk runs.
	// Nil logs at debug level; a non-positive interval disables reports.
	Progress         ProgressFunc
	ProgressInterval time.Duration
}

// Enumerate walks the public IPv4 space with the given workers and hook and
// returns how many addresses were processed.
func Enumerate(ctx context.Context, workers int, hook Hook) (uint64, error) {
	e := Enumerator{
		Workers:          workers,
		Hook:             hook,
		ProgressInterval: DefaultProgressInterval,
	}
	return e.Run(ctx)
}

// Run walks every interval once. When ctx is cancelled the workers stop
// early and Run returns the partial count with ctx.Err().
func (e Enumerator) Run(ctx context.Context) (uint64, error) {
	intervals := e.Intervals
	if intervals == nil {
		intervals = AllowedIntervals()
	}
	if len(intervals) == 0 {
		return 0, nil
	}

	workers := e.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(intervals))

	hook := e.Hook
	if hook == nil {
		hook = func(uint32) {}
	}
	progress := e.Progress
	if progress == nil {
		progress = logProgress
	}

	var (
		count atomic.Uint64
		wg    sync.WaitGroup
		total = Total(intervals)
		start = time.Now()
	)

	log.Debug().
		Int("workers", workers).
		Int("intervals", len(intervals)).
		Uint64("total", total).
		Msg("Starting IPv4 enumeration")

	stop := make(chan struct{})
	var reporter sync.WaitGroup
	if e.ProgressInterval > 0 {
		reporter.Add(1)
		go func() {
			defer reporter.Done()
			ticker := time.NewTicker(e.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					if done := count.Load(); done > 0 {
						progress(done, total, time.Since(start))
					}
				}
			}
		}()
	}

	for _, part := range Partition(intervals, workers) {
		wg.Add(1)
		go func(it *Iterator) {
			defer wg.Done()
			walk(ctx, it, hook, &count)
		}(NewIterator(part))
	}

	wg.Wait()
	close(stop)
	reporter.Wait()

	done := count.Load()
	log.Debug().
		Uint64("processed", done).
		Uint64("expected", total).
		Dur("elapsed", time.Since(start)).
		Msg("IPv4 enumeration finished")

	return done, ctx.Err()
}

func walk(ctx context.Context, it *Iterator, hook Hook, count *atomic.Uint64) {
	var local uint64
	defer func() { count.Add(local) }()

	for addr, ok := it.Next(); ok; addr, ok = it.Next() {
		hook(addr)
		local++

		if local%checkEvery == 0 && ctx.Err() != nil {
			return
		}
		if local == flushEvery {
			count.Add(local)
			local = 0
		}
	}
}

func logProgress(done, total uint64, elapsed time.Duration) {
	log.Debug().
		Uint64("done", done).
		Uint64("total", total).
		Float64("percent", float64(done)*100/float64(total)).
		Dur("elapsed", elapsed).
		Msg("IPv4 enumeration progress")
}
