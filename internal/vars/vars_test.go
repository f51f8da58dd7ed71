package vars

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommitShort(t *testing.T) {
	prev := Commit
	t.Cleanup(func() { Commit = prev })

	Commit = "da15c174cd2ada1ad247906536c101e8f6799def"
	assert.Equal(t, "da15c17", CommitShort())
	assert.Equal(t, "da15c17", Info().CommitShort)

	Commit = "abc"
	assert.Equal(t, "abc", CommitShort())
}

func TestParseLinked(t *testing.T) {
	prevRev, prevTime := Revision, BuildTime
	t.Cleanup(func() { Revision, BuildTime = prevRev, prevTime })

	parseLinked("1337", "2024-05-01T10:00:00+02:00")
	assert.Equal(t, 1337, Revision)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), BuildTime)

	parseLinked("x", "not a time")
	assert.Equal(t, 1337, Revision)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), BuildTime)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf)
	assert.Contains(t, buf.String(), "name:     mcscan")
	assert.Contains(t, buf.String(), "license:  AGPL-3.0")
	assert.Contains(t, UserAgent(), "mcscan/")
}
