// main is the entry point of the mcscan application.
// It resolves the given servers and probes them, probes port ranges on them,
// or walks the public IPv4 space, depending on the selected mode.
package main

import (
	"context"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcscan/internal/config"
	"github.com/woozymasta/mcscan/internal/geoip"
	"github.com/woozymasta/mcscan/internal/ipv4"
	"github.com/woozymasta/mcscan/internal/logger"
	"github.com/woozymasta/mcscan/internal/protocol"
	"github.com/woozymasta/mcscan/internal/resolver"
	"github.com/woozymasta/mcscan/internal/scanner"
)

func main() {
	cfg := config.Parse()

	if w, ok := logger.Setup(cfg.Logger).(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		defer func() { _ = w.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Mode.Enumerate {
		if err := runEnumerate(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("Enumeration stopped")
		}
		return
	}

	geo := openGeoIP(ctx, cfg.GeoIP)
	if geo != nil {
		defer func() {
			if err := geo.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	entries, err := cfg.Entries()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Mode.File).Msg("Failed to read server list")
	}

	targets := resolveTargets(ctx, cfg, entries)
	if len(targets) == 0 {
		log.Warn().Int("entries", len(entries)).Msg("Nothing to probe")
		return
	}

	out := newPrinter(os.Stdout, cfg.Mode.JSON, geo)

	limits := scanner.Limits{
		Concurrency: cfg.Scan.Concurrency,
		Burst:       cfg.Scan.Burst,
		Pause:       cfg.Scan.Pause,
	}

	if cfg.Mode.Ports > 0 {
		runPortScans(targets, cfg.Mode.Ports, limits, out)
		return
	}

	s, err := scanner.NewServerScanner(targets, scanner.WithLimits(limits))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scanner")
	}

	log.Info().Int("servers", s.Len()).Msg("Scanning servers...")
	stats, err := s.Scan(out.success, out.failure)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}
	logStats(stats)
}

func resolveTargets(ctx context.Context, cfg *config.Config, entries []string) []protocol.Target {
	var lookup resolver.SRVLookup = resolver.NewDNSLookup(cfg.DNS.Server, cfg.DNS.Timeout)
	if cfg.DNS.CacheSize > 0 {
		lookup = resolver.NewCachedLookup(lookup, cfg.DNS.CacheSize, cfg.DNS.CacheTTL)
	}

	r := resolver.New(
		resolver.WithLookup(lookup),
		resolver.WithDefaultPort(cfg.Ping.DefaultPort),
		resolver.WithLookupTimeout(cfg.DNS.Timeout),
		resolver.WithWorkers(cfg.DNS.Workers),
		resolver.WithTargetOptions(
			protocol.Timeout(cfg.Ping.Timeout),
			protocol.Version(protocol.ProtocolVersion(cfg.Ping.Protocol)),
		),
	)

	log.Info().Int("entries", len(entries)).Msg("Resolving servers...")
	start := time.Now()
	resolved := r.ResolveAll(ctx, entries)
	targets := resolver.Dedupe(resolved)

	log.Info().
		Int("resolved", len(resolved)).
		Int("unique", len(targets)).
		Dur("elapsed", time.Since(start)).
		Msg("Servers resolved")

	return targets
}

// runPortScans probes count ports from every target's port, one host after
// another. Ranges running past 65535 are shortened.
func runPortScans(targets []protocol.Target, count int, limits scanner.Limits, out *printer) {
	for _, target := range targets {
		n := min(count, math.MaxUint16-int(target.Port())+1)
		if n < count {
			log.Warn().
				Str("host", target.Host()).
				Int("requested", count).
				Int("ports", n).
				Msg("Port range truncated at 65535")
		}

		s, err := scanner.NewPortScanner(target, n, scanner.WithLimits(limits))
		if err != nil {
			log.Error().Err(err).Str("host", target.Host()).Msg("Skipping port scan")
			continue
		}

		log.Info().
			Str("host", target.Host()).
			Uint16("from", target.Port()).
			Int("ports", n).
			Msg("Scanning ports...")

		stats, err := s.Scan(out.success, nil)
		if err != nil {
			log.Error().Err(err).Str("host", target.Host()).Msg("Port scan failed")
			continue
		}
		logStats(stats)
	}
}

func runEnumerate(ctx context.Context, cfg *config.Config) error {
	intervals, err := ipv4.AllowedIntervalsExcluding(cfg.Enum.Exclude)
	if err != nil {
		return err
	}

	e := ipv4.Enumerator{
		Intervals:        intervals,
		Workers:          cfg.Enum.Workers,
		ProgressInterval: cfg.Enum.Progress,
		Progress: func(done, total uint64, elapsed time.Duration) {
			log.Info().
				Uint64("done", done).
				Uint64("total", total).
				Str("progress", percent(done, total)).
				Dur("elapsed", elapsed).
				Dur("per_address", elapsed/time.Duration(done)).
				Msg("Enumerating public IPv4 space...")
		},
	}

	total := ipv4.Total(intervals)
	log.Info().
		Int("intervals", len(intervals)).
		Uint64("addresses", total).
		Msg("Starting public IPv4 enumeration")

	start := time.Now()
	done, err := e.Run(ctx)
	elapsed := time.Since(start)

	event := log.Info()
	if done != total {
		event = log.Warn()
	}
	event.
		Uint64("processed", done).
		Uint64("expected", total).
		Dur("elapsed", elapsed).
		Msg("Enumeration finished")

	return err
}

func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		return nil
	}

	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.MaxAge); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	provider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return provider
}

func logStats(stats scanner.Stats) {
	log.Info().
		Int64("probed", stats.Submitted).
		Int64("up", stats.Succeeded).
		Int64("down", stats.Failed).
		Dur("elapsed", stats.Elapsed).
		Msg("Scan finished")
}
