package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Packet ids used by the status exchange.
const (
	PacketHandshake     = 0x00
	PacketStatusRequest = 0x00
	PacketStatus        = 0x00
	PacketPing          = 0x01
	PacketPong          = 0x01

	// nextStateStatus asks the server to switch to the status state.
	nextStateStatus = 1
)

// maxFrameLen caps the outer length a server may announce (2 MiB, protocol limit).
const maxFrameLen = 1<<21 - 1

// appendFrame prefixes payload with its VarInt length.
func appendFrame(dst, payload []byte) []byte {
	dst = AppendVarInt(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// HandshakeFrame builds the length-prefixed handshake for the status state.
func HandshakeFrame(host string, port uint16, version ProtocolVersion) []byte {
	payload := make([]byte, 0, 1+MaxVarIntLen*3+len(host)+2)
	payload = append(payload, PacketHandshake)
	payload = AppendVarInt(payload, uint32(version))
	payload = AppendVarInt(payload, uint32(len(host)))
	payload = append(payload, host...)
	payload = binary.BigEndian.AppendUint16(payload, port)
	payload = AppendVarInt(payload, nextStateStatus)

	return appendFrame(make([]byte, 0, len(payload)+MaxVarIntLen), payload)
}

// StatusRequestFrame builds the two-byte status request.
func StatusRequestFrame() []byte {
	return []byte{0x01, PacketStatusRequest}
}

// PingFrame builds the ping request carrying a millisecond timestamp.
func PingFrame(timestamp int64) []byte {
	frame := make([]byte, 0, 10)
	frame = append(frame, 0x09, PacketPing)
	return binary.BigEndian.AppendUint64(frame, uint64(timestamp))
}

// readStatusFrame reads a status response frame and returns the JSON body.
func readStatusFrame(r *bufio.Reader) ([]byte, error) {
	if _, err := readFrameLength(r); err != nil {
		return nil, err
	}

	id, err := readPacketID(r)
	if err != nil {
		return nil, err
	}
	if id != PacketStatus {
		return nil, fmt.Errorf("%w: id 0x%02x", ErrInvalidPacket, id)
	}

	length, err := ReadVarInt(r)
	if err != nil {
		return nil, prematureEOF(err)
	}
	if length <= 0 || length > maxFrameLen {
		return nil, fmt.Errorf("%w: json length %d", ErrUnexpectedLength, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return data, nil
}

// readPongFrame reads a pong frame and checks its id. The payload is ignored.
func readPongFrame(r *bufio.Reader) error {
	if _, err := readFrameLength(r); err != nil {
		return err
	}

	id, err := readPacketID(r)
	if err != nil {
		return err
	}
	if id != PacketPong {
		return fmt.Errorf("%w: id 0x%02x", ErrInvalidPacket, id)
	}

	return nil
}

func readFrameLength(r io.ByteReader) (int32, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return 0, prematureEOF(err)
	}
	if length <= 0 || length > maxFrameLen {
		return 0, fmt.Errorf("%w: frame length %d", ErrUnexpectedLength, length)
	}
	return length, nil
}

func readPacketID(r io.ByteReader) (int32, error) {
	id, err := ReadVarInt(r)
	if err != nil {
		return 0, prematureEOF(err)
	}
	return id, nil
}

// prematureEOF maps an end of stream before any byte to ErrPrematureEnd.
func prematureEOF(err error) error {
	if err == io.EOF {
		return ErrPrematureEnd
	}
	return err
}
