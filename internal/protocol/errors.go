package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPacket is returned when the server answers with an unexpected packet id.
	ErrInvalidPacket = errors.New("server returned invalid packet")

	// ErrPrematureEnd is returned when the stream ends before a packet id could be read.
	ErrPrematureEnd = errors.New("server prematurely ended stream")

	// ErrUnexpectedLength is returned for zero or negative length fields.
	ErrUnexpectedLength = errors.New("server returned unexpected length")

	// ErrVarIntTooBig is returned when a VarInt continues past its fifth byte.
	ErrVarIntTooBig = errors.New("varint too big")

	// ErrInvalidTarget is returned by NewTarget for an unusable endpoint.
	ErrInvalidTarget = errors.New("invalid target")
)

// ConnectionError reports a network failure (dial, read, write, timeout, reset)
// while talking to a target.
type ConnectionError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a well-formed connection carrying bytes that violate
// the Server List Ping exchange.
type ProtocolError struct {
	Addr  string
	Stage string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Addr, e.Stage, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DecodeError reports a status document that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode status: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
