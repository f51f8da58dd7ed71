package scanner

import (
	"fmt"
	"sync/atomic"

	"github.com/woozymasta/mcscan/internal/protocol"
)

// ServerScanner probes a fixed list of targets once each.
type ServerScanner struct {
	targets  []protocol.Target
	settings settings
	used     atomic.Bool
}

// NewServerScanner validates targets and returns a single-use scanner.
func NewServerScanner(targets []protocol.Target, opts ...Option) (*ServerScanner, error) {
	for i, t := range targets {
		if t.IsZero() {
			return nil, fmt.Errorf("%w: target #%d is empty", protocol.ErrInvalidTarget, i)
		}
	}

	list := make([]protocol.Target, len(targets))
	copy(list, targets)

	return &ServerScanner{
		targets:  list,
		settings: newSettings(opts),
	}, nil
}

// Len returns the number of targets.
func (s *ServerScanner) Len() int {
	return len(s.targets)
}

// Scan probes every target and returns once all of them have been reported.
// onSuccess is required; onFailure may be nil.
func (s *ServerScanner) Scan(onSuccess SuccessFunc, onFailure FailureFunc) (Stats, error) {
	if onSuccess == nil {
		return Stats{}, ErrNoSuccessHandler
	}
	if !s.used.CompareAndSwap(false, true) {
		return Stats{}, ErrReused
	}

	i := 0
	next := func() (protocol.Target, bool) {
		if i >= len(s.targets) {
			return protocol.Target{}, false
		}
		t := s.targets[i]
		i++
		return t, true
	}

	return run(s.settings, next, onSuccess, onFailure), nil
}
