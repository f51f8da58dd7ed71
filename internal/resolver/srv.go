package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Service is the SRV service label queried for every hostname.
const Service = "_minecraft._tcp."

const (
	// DefaultDNSServer is used when no resolv.conf nameserver is available.
	DefaultDNSServer = "8.8.8.8:53"

	// DefaultLookupTimeout bounds a single SRV exchange.
	DefaultLookupTimeout = 2 * time.Second

	resolvConf = "/etc/resolv.conf"
)

// ErrNoSRV is returned by SRVLookup implementations when no usable record exists.
var ErrNoSRV = errors.New("no srv record")

// SRVLookup resolves the SRV record for a fully qualified service name.
type SRVLookup interface {
	LookupSRV(ctx context.Context, name string) (host string, port uint16, err error)
}

// DNSLookup queries a single DNS server for SRV records using miekg/dns.
type DNSLookup struct {
	client *dns.Client
	server string
}

// NewDNSLookup creates a lookup against server (host:port). An empty server
// selects the first nameserver of /etc/resolv.conf, or DefaultDNSServer.
func NewDNSLookup(server string, timeout time.Duration) *DNSLookup {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if server == "" {
		server = systemServer()
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	return &DNSLookup{
		client: &dns.Client{Net: "udp", Timeout: timeout},
		server: server,
	}
}

// Server returns the host:port the lookup queries.
func (l *DNSLookup) Server() string {
	return l.server
}

// LookupSRV sends one SRV question for name and returns the target and port of
// the first SRV answer, with the trailing dot of the target removed.
func (l *DNSLookup) LookupSRV(ctx context.Context, name string) (string, uint16, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	msg.RecursionDesired = true

	in, _, err := l.client.ExchangeContext(ctx, msg, l.server)
	if err != nil {
		return "", 0, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", 0, fmt.Errorf("%w: %s", ErrNoSRV, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}

		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			// "." target means the service is explicitly not available
			return "", 0, fmt.Errorf("%w: service disabled for %s", ErrNoSRV, name)
		}
		return host, srv.Port, nil
	}

	return "", 0, fmt.Errorf("%w: %s", ErrNoSRV, name)
}

func systemServer() string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return DefaultDNSServer
	}

	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}
