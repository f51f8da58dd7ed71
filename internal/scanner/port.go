package scanner

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/woozymasta/mcscan/internal/protocol"
)

// PortScanner probes count consecutive ports on one host, starting at the
// base target's port. Every derived target shares the base timeout and version.
type PortScanner struct {
	base     protocol.Target
	count    int
	settings settings
	used     atomic.Bool
}

// NewPortScanner returns a single-use scanner for base.Port() .. base.Port()+count-1.
func NewPortScanner(base protocol.Target, count int, opts ...Option) (*PortScanner, error) {
	if base.IsZero() {
		return nil, fmt.Errorf("%w: empty base target", protocol.ErrInvalidTarget)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidRange, count)
	}
	if int(base.Port())+count-1 > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d ports from %d exceed 65535", ErrInvalidRange, count, base.Port())
	}

	return &PortScanner{
		base:     base,
		count:    count,
		settings: newSettings(opts),
	}, nil
}

// Len returns the number of ports that will be probed.
func (s *PortScanner) Len() int {
	return s.count
}

// Scan probes every port in the range and returns once all have been reported.
// onSuccess is required; onFailure may be nil.
func (s *PortScanner) Scan(onSuccess SuccessFunc, onFailure FailureFunc) (Stats, error) {
	if onSuccess == nil {
		return Stats{}, ErrNoSuccessHandler
	}
	if !s.used.CompareAndSwap(false, true) {
		return Stats{}, ErrReused
	}

	i := 0
	next := func() (protocol.Target, bool) {
		if i >= s.count {
			return protocol.Target{}, false
		}
		t := s.base.WithPort(s.base.Port() + uint16(i))
		i++
		return t, true
	}

	return run(s.settings, next, onSuccess, onFailure), nil
}
