package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcscan/internal/brand"
	"github.com/woozymasta/mcscan/internal/protocol"
)

// countryLookup is satisfied by *geoip.Provider.
type countryLookup interface {
	CountryCode(host string) string
}

// printer serializes scan results from concurrent callbacks onto one writer.
type printer struct {
	mu         sync.Mutex
	out        io.Writer
	classifier *brand.Classifier
	geo        countryLookup
	json       bool
}

type result struct {
	Address   string     `json:"address"`
	LatencyMS int64      `json:"latency_ms"`
	Type      brand.Type `json:"type"`
	Release   string     `json:"release"`
	Version   string     `json:"version,omitempty"`
	Protocol  int        `json:"protocol,omitempty"`
	Online    int        `json:"online"`
	Max       int        `json:"max"`
	MOTD      string     `json:"motd,omitempty"`
	Country   string     `json:"country,omitempty"`
}

func newPrinter(out io.Writer, asJSON bool, geo countryLookup) *printer {
	return &printer{
		out:        out,
		classifier: brand.Default(),
		geo:        geo,
		json:       asJSON,
	}
}

func (p *printer) result(status *protocol.Status) result {
	r := result{
		Address:   status.Address(),
		LatencyMS: status.Latency.Milliseconds(),
		Type:      p.classifier.Guess(status),
		Release:   brand.Unknown,
		MOTD:      status.Description.Text,
	}
	if v := status.Version; v != nil {
		r.Release = brand.ReleaseName(int32(v.Protocol))
		r.Version = v.Name
		r.Protocol = v.Protocol
	}
	if pl := status.Players; pl != nil {
		r.Online, r.Max = pl.Online, pl.Max
	}
	if p.geo != nil {
		r.Country = p.geo.CountryCode(status.Target.Host())
	}
	return r
}

// success prints one line per reachable server:
// host:port <latency>ms # <type> <release> [country]
func (p *printer) success(status *protocol.Status) {
	r := p.result(status)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		if err := json.NewEncoder(p.out).Encode(r); err != nil {
			log.Error().Err(err).Msg("Failed to write result")
		}
		return
	}

	line := fmt.Sprintf("%s %dms # %s %s", r.Address, r.LatencyMS, r.Type, r.Release)
	if r.Country != "" {
		line += " [" + r.Country + "]"
	}
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		log.Error().Err(err).Msg("Failed to write result")
	}
}

func (p *printer) failure(target protocol.Target, err error) {
	log.Warn().Err(err).Str("address", target.Addr()).Msg("Server is down or unreachable")
}

func percent(done, total uint64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(done)*100/float64(total))
}
