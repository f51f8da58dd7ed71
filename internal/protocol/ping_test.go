package protocol

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockServer replays a Server List Ping exchange for tests.
type mockServer struct {
	listener net.Listener

	status     string
	statusID   byte
	pongID     byte
	closeEarly bool

	handshakes chan handshake
}

type handshake struct {
	version int32
	host    string
	port    uint16
	next    int32
}

func newMockServer(t *testing.T, status string, opts ...func(*mockServer)) *mockServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &mockServer{
		listener:   l,
		status:     status,
		statusID:   PacketStatus,
		pongID:     PacketPong,
		handshakes: make(chan handshake, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	t.Cleanup(func() { _ = l.Close() })

	go s.serve()
	return s
}

func (s *mockServer) target(t *testing.T) Target {
	t.Helper()

	host, portStr, err := net.SplitHostPort(s.listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	target, err := NewTarget(host, port, Timeout(2*time.Second))
	require.NoError(t, err)
	return target
}

func (s *mockServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *mockServer) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	payload, err := readTestFrame(r)
	if err != nil {
		return
	}
	s.handshakes <- parseHandshake(payload)

	if _, err := readTestFrame(r); err != nil {
		return
	}

	if s.closeEarly {
		return
	}

	body := []byte{s.statusID}
	body = AppendVarInt(body, uint32(len(s.status)))
	body = append(body, s.status...)
	if _, err := conn.Write(appendFrame(nil, body)); err != nil {
		return
	}

	ping, err := readTestFrame(r)
	if err != nil {
		return
	}

	pong := append([]byte{s.pongID}, ping[1:]...)
	_, _ = conn.Write(appendFrame(nil, pong))
}

func readTestFrame(r *bufio.Reader) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	_, err = io.ReadFull(r, payload)
	return payload, err
}

func parseHandshake(payload []byte) handshake {
	r := bufio.NewReader(&sliceReader{b: payload[1:]})
	var h handshake
	h.version, _ = ReadVarInt(r)
	n, _ := ReadVarInt(r)
	host := make([]byte, n)
	_, _ = io.ReadFull(r, host)
	h.host = string(host)
	var port [2]byte
	_, _ = io.ReadFull(r, port[:])
	h.port = binary.BigEndian.Uint16(port[:])
	h.next, _ = ReadVarInt(r)
	return h
}

type sliceReader struct{ b []byte }

func (s *sliceReader) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}

const sampleStatus = `{
	"version": {"name": "Paper 1.21.4", "protocol": 769},
	"players": {"max": 100, "online": 2, "sample": [
		{"name": "Notch", "id": "069a79f444e94726a5befca90e38aaf5"},
		{"name": "jeb_", "id": "853c80ef-3c37-49fd-aa49-938b674adae6"}
	]},
	"description": {"text": "", "extra": [{"text": "Hello", "color": "gold"}, {"text": " world"}]},
	"favicon": "data:image/png;base64,AAAA",
	"modinfo": {"type": "FML", "modList": [{"modid": "forge", "version": "47.2.0"}]}
}`

func TestProbe(t *testing.T) {
	server := newMockServer(t, sampleStatus)
	target := server.target(t)

	status, err := Probe(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, target.Addr(), status.Address())
	assert.Equal(t, target, status.Target)
	assert.GreaterOrEqual(t, status.Latency, time.Duration(0))

	assert.Equal(t, `[{"text":"Hello","color":"gold"},{"text":" world"}]`, status.Description.Text)
	require.NotNil(t, status.Version)
	assert.Equal(t, "Paper 1.21.4", status.Version.Name)
	assert.Equal(t, 769, status.Version.Protocol)
	require.NotNil(t, status.Players)
	assert.Equal(t, 2, status.Players.Online)
	assert.Equal(t, 100, status.Players.Max)
	require.Len(t, status.Players.Sample, 2)
	assert.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", status.Players.Sample[0].ID)
	assert.Equal(t, "853c80ef-3c37-49fd-aa49-938b674adae6", status.Players.Sample[1].ID)
	assert.Equal(t, "data:image/png;base64,AAAA", status.Favicon)
	require.NotNil(t, status.ModInfo)
	assert.Equal(t, "FML", status.ModInfo.Type)
	assert.Equal(t, []Mod{{ID: "forge", Version: "47.2.0"}}, status.ModInfo.ModList)

	select {
	case h := <-server.handshakes:
		assert.Equal(t, int32(ProtocolLatest), h.version)
		assert.Equal(t, target.Host(), h.host)
		assert.Equal(t, target.Port(), h.port)
		assert.Equal(t, int32(1), h.next)
	case <-time.After(time.Second):
		t.Fatal("handshake not observed")
	}
}

func TestProbeAnnouncesConfiguredVersion(t *testing.T) {
	server := newMockServer(t, `{"description":"motd"}`)
	base := server.target(t)

	target, err := NewTarget(base.Host(), int(base.Port()), Version(47))
	require.NoError(t, err)

	status, err := Probe(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "motd", status.Description.Text)

	h := <-server.handshakes
	assert.Equal(t, int32(47), h.version)
}

func TestProbeInvalidStatusPacket(t *testing.T) {
	server := newMockServer(t, `{"description":"x"}`, func(s *mockServer) { s.statusID = 0x05 })

	_, err := Probe(context.Background(), server.target(t))
	require.Error(t, err)

	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestProbeInvalidPongPacket(t *testing.T) {
	server := newMockServer(t, `{"description":"x"}`, func(s *mockServer) { s.pongID = 0x00 })

	_, err := Probe(context.Background(), server.target(t))
	assert.ErrorIs(t, err, ErrInvalidPacket)
}

func TestProbeEmptyStatusBody(t *testing.T) {
	server := newMockServer(t, "")

	_, err := Probe(context.Background(), server.target(t))
	assert.ErrorIs(t, err, ErrUnexpectedLength)
}

func TestProbePrematureEnd(t *testing.T) {
	server := newMockServer(t, `{"description":"x"}`, func(s *mockServer) { s.closeEarly = true })

	_, err := Probe(context.Background(), server.target(t))
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrPrematureEnd)
}

func TestProbeMalformedJSON(t *testing.T) {
	server := newMockServer(t, `{"description":`)

	_, err := Probe(context.Background(), server.target(t))
	var derr *DecodeError
	assert.True(t, errors.As(err, &derr))
}

func TestProbeConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	target, err := NewTarget("127.0.0.1", port, Timeout(time.Second))
	require.NoError(t, err)

	_, err = Probe(context.Background(), target)
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "dial", cerr.Op)
}

func TestProbeReadTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = io.Copy(io.Discard, conn)
	}()

	target, err := NewTarget("127.0.0.1", l.Addr().(*net.TCPAddr).Port, Timeout(200*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = Probe(context.Background(), target)
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProbeZeroTarget(t *testing.T) {
	_, err := Probe(context.Background(), Target{})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestFrames(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00}, StatusRequestFrame())

	ping := PingFrame(0x0102030405060708)
	assert.Equal(t, []byte{0x09, 0x01, 1, 2, 3, 4, 5, 6, 7, 8}, ping)

	hs := HandshakeFrame("localhost", 25565, 769)
	expected := []byte{
		0x10,       // frame length
		0x00,       // packet id
		0x81, 0x06, // protocol 769
		0x09, 'l', 'o', 'c', 'a', 'l', 'h', 'o', 's', 't',
		0x63, 0xdd, // port
		0x01, // next state
	}
	assert.Equal(t, expected, hs)
}
