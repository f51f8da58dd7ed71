// Package protocol implements the client side of the Minecraft Server List Ping:
// VarInt and frame encoding, the handshake/status/ping exchange, and decoding
// of the status document.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

// Probe performs one Server List Ping against target.
//
// The connection is opened with the target timeout as connect timeout and as
// deadline for the rest of the exchange, and is closed on every return path.
// Latency is the time spent connecting. Failures are *ConnectionError,
// *ProtocolError or *DecodeError; nothing is retried.
func Probe(ctx context.Context, target Target) (*Status, error) {
	if target.IsZero() {
		return nil, ErrInvalidTarget
	}

	addr := target.Addr()
	dialer := &net.Dialer{Timeout: target.Timeout()}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Op: "dial", Err: err}
	}
	latency := time.Since(start)
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(target.Timeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &ConnectionError{Addr: addr, Op: "deadline", Err: err}
	}

	raw, err := exchange(conn, target)
	if err != nil {
		log.Trace().Err(err).Str("address", addr).Msg("Status exchange failed")
		return nil, err
	}

	status, err := DecodeStatus(raw, target, latency)
	if err != nil {
		return nil, err
	}

	log.Trace().
		Str("address", addr).
		Dur("latency", latency).
		Msg("Status received")

	return status, nil
}

// exchange runs handshake -> status request -> status response -> ping -> pong
// on an open connection and returns the raw status JSON.
func exchange(conn net.Conn, target Target) ([]byte, error) {
	addr := target.Addr()
	r := bufio.NewReader(conn)

	request := HandshakeFrame(target.Host(), target.Port(), target.Version())
	request = append(request, StatusRequestFrame()...)
	if _, err := conn.Write(request); err != nil {
		return nil, &ConnectionError{Addr: addr, Op: "write", Err: err}
	}

	raw, err := readStatusFrame(r)
	if err != nil {
		return nil, classify(addr, "status", err)
	}

	if _, err := conn.Write(PingFrame(time.Now().UnixMilli())); err != nil {
		return nil, &ConnectionError{Addr: addr, Op: "write", Err: err}
	}

	if err := readPongFrame(r); err != nil {
		return nil, classify(addr, "pong", err)
	}

	return raw, nil
}

// classify splits read failures into protocol violations and network errors.
func classify(addr, stage string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidPacket),
		errors.Is(err, ErrPrematureEnd),
		errors.Is(err, ErrUnexpectedLength),
		errors.Is(err, ErrVarIntTooBig):
		return &ProtocolError{Addr: addr, Stage: stage, Err: err}
	default:
		return &ConnectionError{Addr: addr, Op: "read " + stage, Err: err}
	}
}
