// Package resolver turns "host[:port]" entries into probe targets, preferring
// the _minecraft._tcp SRV record and falling back to the literal or default port.
package resolver

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcscan/internal/protocol"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers caps concurrent SRV lookups in ResolveAll.
const DefaultWorkers = 256

// Resolver resolves server entries into protocol.Target values.
// DNS failures never surface; they degrade to the fallback endpoint.
type Resolver struct {
	lookup        SRVLookup
	targetOptions []protocol.TargetOption
	defaultPort   int
	lookupTimeout time.Duration
	workers       int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup replaces the SRV lookup.
func WithLookup(l SRVLookup) Option {
	return func(r *Resolver) {
		r.lookup = l
	}
}

// WithDefaultPort sets the port used when neither SRV nor the entry names one.
func WithDefaultPort(port int) Option {
	return func(r *Resolver) {
		r.defaultPort = port
	}
}

// WithLookupTimeout bounds each SRV lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.lookupTimeout = d
	}
}

// WithWorkers caps concurrent lookups in ResolveAll.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		r.workers = n
	}
}

// WithTargetOptions sets the options applied to every resolved target.
func WithTargetOptions(opts ...protocol.TargetOption) Option {
	return func(r *Resolver) {
		r.targetOptions = opts
	}
}

// New creates a Resolver. Without options it queries the system nameserver,
// falls back to port 25565 and builds targets with a one second timeout.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		defaultPort:   protocol.DefaultPort,
		lookupTimeout: DefaultLookupTimeout,
		workers:       DefaultWorkers,
		targetOptions: []protocol.TargetOption{
			protocol.Timeout(time.Second),
			protocol.Version(protocol.ProtocolLatest),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lookup == nil {
		r.lookup = NewDNSLookup("", r.lookupTimeout)
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}

	return r
}

// Resolve turns one entry into a target.
//
// A successful SRV lookup for _minecraft._tcp.<host> wins and any literal
// port in the entry is ignored. Otherwise the literal port, or the default
// port, is used with the hostname. The only error is an unusable entry.
func (r *Resolver) Resolve(ctx context.Context, entry string) (protocol.Target, error) {
	host, port, hasPort := splitEntry(entry)
	if !hasPort {
		port = r.defaultPort
	}

	if net.ParseIP(host) == nil && host != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
		srvHost, srvPort, err := r.lookup.LookupSRV(lookupCtx, Service+host)
		cancel()

		if err == nil {
			log.Trace().
				Str("host", host).
				Str("srv_host", srvHost).
				Uint16("srv_port", srvPort).
				Msg("SRV record found")
			return protocol.NewTarget(srvHost, int(srvPort), r.targetOptions...)
		}

		log.Trace().
			Err(err).
			Str("host", host).
			Int("port", port).
			Msg("SRV lookup failed, using fallback port")
	}

	return protocol.NewTarget(host, port, r.targetOptions...)
}

// ResolveAll resolves entries concurrently and returns one target per usable
// entry, in input order. It returns once every lookup has finished.
func (r *Resolver) ResolveAll(ctx context.Context, entries []string) []protocol.Target {
	resolved := make([]protocol.Target, len(entries))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, entry := range entries {
		g.Go(func() error {
			target, err := r.Resolve(ctx, entry)
			if err != nil {
				log.Debug().Err(err).Str("entry", entry).Msg("Skipping unusable entry")
				return nil
			}
			resolved[i] = target
			return nil
		})
	}
	_ = g.Wait()

	targets := make([]protocol.Target, 0, len(resolved))
	for _, t := range resolved {
		if !t.IsZero() {
			targets = append(targets, t)
		}
	}

	return targets
}

// Dedupe drops targets whose endpoint already appeared earlier in the list.
func Dedupe(targets []protocol.Target) []protocol.Target {
	seen := make(map[uint64]struct{}, len(targets))
	out := make([]protocol.Target, 0, len(targets))

	for _, t := range targets {
		key := xxhash.Sum64String(t.Addr())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}

	return out
}

// splitEntry lowercases and trims entry, then separates an optional port.
// Bracketed IPv6 literals are handled; a bare IPv6 literal is taken as a host.
// An unparsable or out of range port counts as absent.
func splitEntry(entry string) (host string, port int, ok bool) {
	entry = strings.ToLower(strings.TrimSpace(entry))

	if h, p, err := net.SplitHostPort(entry); err == nil {
		host = h
		port, ok = parsePort(p)
		return strings.TrimSpace(host), port, ok
	}

	if strings.HasPrefix(entry, "[") && strings.HasSuffix(entry, "]") {
		return entry[1 : len(entry)-1], 0, false
	}
	if strings.Count(entry, ":") > 1 {
		return entry, 0, false
	}

	i := strings.LastIndex(entry, ":")
	if i < 0 {
		return entry, 0, false
	}

	port, ok = parsePort(entry[i+1:])
	return strings.TrimSpace(entry[:i]), port, ok
}

func parsePort(s string) (int, bool) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}
