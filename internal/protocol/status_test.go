package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain string",
			input:    `{"description":"Hello"}`,
			expected: `{"text":"Hello"}`,
		},
		{
			name:     "extra array replaces text verbatim",
			input:    `{"description":{"text":"A","extra":[{"text":"B"}]}}`,
			expected: `{"extra":[{"text":"B"}],"text":"[{\"text\":\"B\"}]"}`,
		},
		{
			name:     "extra array is compacted",
			input:    `{"description":{"text":"","extra":[ {"text" : "B", "bold": true} , "C" ]}}`,
			expected: `{"extra":[{"text":"B","bold":true},"C"],"text":"[{\"text\":\"B\",\"bold\":true},\"C\"]"}`,
		},
		{
			name:     "object without extra unchanged",
			input:    `{"description":{"text":"A","color":"red"}}`,
			expected: `{"text":"A","color":"red"}`,
		},
		{
			name:     "non-array extra unchanged",
			input:    `{"description":{"text":"A","extra":"B"}}`,
			expected: `{"text":"A","extra":"B"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NormalizeEnvelope([]byte(tt.input))
			require.NoError(t, err)

			var doc map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(out, &doc))
			assert.JSONEq(t, tt.expected, string(doc["description"]))
		})
	}
}

func TestNormalizeEnvelopePassThrough(t *testing.T) {
	for _, input := range []string{
		`{"version":{"name":"x","protocol":1}}`,
		`{"description":null}`,
		`{"description":42}`,
	} {
		out, err := NormalizeEnvelope([]byte(input))
		require.NoError(t, err)
		assert.JSONEq(t, input, string(out))
	}
}

func TestNormalizeEnvelopeInvalid(t *testing.T) {
	_, err := NormalizeEnvelope([]byte(`[1,2]`))
	var derr *DecodeError
	assert.True(t, errors.As(err, &derr))
}

func TestDecodeStatus(t *testing.T) {
	target, err := NewTarget("mc.example.org", 25566)
	require.NoError(t, err)

	status, err := DecodeStatus([]byte(`{"description":"Hello","version":{"name":"1.8.9","protocol":47}}`), target, 12*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "Hello", status.Description.Text)
	assert.Equal(t, "mc.example.org:25566", status.Address())
	assert.Equal(t, 12*time.Millisecond, status.Latency)
	assert.Nil(t, status.Players)
	assert.Nil(t, status.ModInfo)
}

func TestDecodeStatusBadUUID(t *testing.T) {
	target, err := NewTarget("localhost", DefaultPort)
	require.NoError(t, err)

	_, err = DecodeStatus([]byte(`{"description":"x","players":{"max":1,"online":1,"sample":[{"name":"a","id":"1234"}]}}`), target, 0)
	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.ErrorIs(t, err, ErrInvalidUUID)
}

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"069a79f444e94726a5befca90e38aaf5", "069a79f4-44e9-4726-a5be-fca90e38aaf5", false},
		{"069a79f4-44e9-4726-a5be-fca90e38aaf5", "069a79f4-44e9-4726-a5be-fca90e38aaf5", false},
		{"", "", false},
		{"069a79f4", "", true},
		{"zz9a79f444e94726a5befca90e38aaf5", "", true},
		{"069a79f4-44e9-4726-a5be-fca90e38aaf5ff", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeUUID(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidUUID, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestNewTarget(t *testing.T) {
	target, err := NewTarget(" play.example.net ", 25565)
	require.NoError(t, err)
	assert.Equal(t, "play.example.net", target.Host())
	assert.Equal(t, uint16(25565), target.Port())
	assert.Equal(t, DefaultTimeout, target.Timeout())
	assert.Equal(t, ProtocolLatest, target.Version())

	moved := target.WithPort(25570)
	assert.Equal(t, uint16(25570), moved.Port())
	assert.Equal(t, uint16(25565), target.Port())
	assert.Equal(t, target.Host(), moved.Host())
	assert.Equal(t, target.Timeout(), moved.Timeout())

	ipv6, err := NewTarget("::1", 25565)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:25565", ipv6.Addr())

	_, err = NewTarget("", 25565)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = NewTarget("localhost", 70000)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = NewTarget("localhost", 1, Timeout(0))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
