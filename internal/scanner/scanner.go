package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcscan/internal/protocol"
)

var (
	// ErrNoSuccessHandler is returned by Scan when onSuccess is nil.
	ErrNoSuccessHandler = errors.New("success handler is required")

	// ErrInvalidRange is returned by NewPortScanner for an unusable port span.
	ErrInvalidRange = errors.New("invalid port range")
)

// Prober performs one probe. protocol.Probe is the default.
type Prober func(ctx context.Context, target protocol.Target) (*protocol.Status, error)

// SuccessFunc receives each successful probe. It may be called concurrently.
type SuccessFunc func(status *protocol.Status)

// FailureFunc receives each failed target and its cause. It may be called concurrently.
type FailureFunc func(target protocol.Target, err error)

// Stats summarises a finished scan.
type Stats struct {
	Submitted int64
	Succeeded int64
	Failed    int64
	Elapsed   time.Duration
}

// Option configures a scanner.
type Option func(*settings)

type settings struct {
	limits Limits
	probe  Prober
}

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(s *settings) {
		s.limits = l
	}
}

// WithProber replaces the probe function.
func WithProber(p Prober) Option {
	return func(s *settings) {
		s.probe = p
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		limits: DefaultLimits,
		probe:  protocol.Probe,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.probe == nil {
		s.probe = protocol.Probe
	}
	return s
}

// run probes every target produced by next on a fresh group and joins it.
func run(s settings, next func() (protocol.Target, bool), onSuccess SuccessFunc, onFailure FailureFunc) Stats {
	var (
		stats     Stats
		succeeded atomic.Int64
		failed    atomic.Int64
		start     = time.Now()
		group     = NewGroup(s.limits)
	)

	for target, ok := next(); ok; target, ok = next() {
		err := group.Go(func() {
			status, err := s.probe(context.Background(), target)
			if err != nil {
				failed.Add(1)
				log.Trace().Err(err).Str("address", target.Addr()).Msg("Probe failed")
				if onFailure != nil {
					onFailure(target, err)
				}
				return
			}

			succeeded.Add(1)
			onSuccess(status)
		})
		if err != nil {
			failed.Add(1)
			if onFailure != nil {
				onFailure(target, err)
			}
			continue
		}
		stats.Submitted++
	}

	group.Wait()

	stats.Succeeded = succeeded.Load()
	stats.Failed = failed.Load()
	stats.Elapsed = time.Since(start)

	log.Debug().
		Int64("submitted", stats.Submitted).
		Int64("succeeded", stats.Succeeded).
		Int64("failed", stats.Failed).
		Dur("elapsed", stats.Elapsed).
		Msg("Scan finished")

	return stats
}
