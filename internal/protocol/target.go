package protocol

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ProtocolVersion identifies the wire protocol revision announced in the handshake.
type ProtocolVersion int32

// ProtocolLatest is the highest protocol revision this client announces by default.
const ProtocolLatest ProtocolVersion = 769

const (
	// DefaultPort is the well-known Minecraft server port.
	DefaultPort = 25565

	// DefaultTimeout bounds both connect and every read of a probe.
	DefaultTimeout = 5 * time.Second
)

// Target is an immutable description of one probe: where to connect,
// how long to wait, and which protocol revision to announce.
type Target struct {
	host    string
	port    uint16
	timeout time.Duration
	version ProtocolVersion
}

// TargetOption configures a Target built by NewTarget.
type TargetOption func(*Target)

// Timeout sets the connect and read timeout.
func Timeout(d time.Duration) TargetOption {
	return func(t *Target) {
		t.timeout = d
	}
}

// Version sets the protocol revision sent in the handshake.
func Version(v ProtocolVersion) TargetOption {
	return func(t *Target) {
		t.version = v
	}
}

// NewTarget validates host and port and builds a Target.
// Invalid endpoints are rejected here, before any network I/O.
func NewTarget(host string, port int, opts ...TargetOption) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}
	if port < 0 || port > 65535 {
		return Target{}, fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, port)
	}

	t := Target{
		host:    host,
		port:    uint16(port),
		timeout: DefaultTimeout,
		version: ProtocolLatest,
	}
	for _, opt := range opts {
		opt(&t)
	}
	if t.timeout <= 0 {
		return Target{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidTarget)
	}

	return t, nil
}

// Host returns the hostname or IP literal sent in the handshake.
func (t Target) Host() string { return t.host }

// Port returns the TCP port.
func (t Target) Port() uint16 { return t.port }

// Timeout returns the connect and read timeout.
func (t Target) Timeout() time.Duration { return t.timeout }

// Version returns the announced protocol revision.
func (t Target) Version() ProtocolVersion { return t.version }

// Addr returns the dialable host:port form.
func (t Target) Addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(int(t.port)))
}

// WithPort returns a copy of t aimed at another port on the same host.
func (t Target) WithPort(port uint16) Target {
	t.port = port
	return t
}

// IsZero reports whether t was never built by NewTarget.
func (t Target) IsZero() bool {
	return t.host == ""
}

func (t Target) String() string {
	return t.Addr()
}
