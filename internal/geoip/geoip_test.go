package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mmdbServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func TestEnsureDBDownloadsMissing(t *testing.T) {
	srv, hits := mmdbServer(t, http.StatusOK, "mmdb-bytes")
	path := filepath.Join(t.TempDir(), "country.mmdb")

	require.NoError(t, EnsureDB(context.Background(), path, srv.URL, time.Hour))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mmdb-bytes", string(data))
	assert.Equal(t, int64(1), hits.Load())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	// fresh enough: no second download
	require.NoError(t, EnsureDB(context.Background(), path, srv.URL, time.Hour))
	assert.Equal(t, int64(1), hits.Load())
}

func TestEnsureDBRefreshesOutdated(t *testing.T) {
	srv, hits := mmdbServer(t, http.StatusOK, "new")
	path := filepath.Join(t.TempDir(), "country.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, EnsureDB(context.Background(), path, srv.URL, 24*time.Hour))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, int64(1), hits.Load())
}

func TestEnsureDBKeepsFileOnFailure(t *testing.T) {
	srv, _ := mmdbServer(t, http.StatusNotFound, "nope")
	path := filepath.Join(t.TempDir(), "country.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	err := EnsureDB(context.Background(), path, srv.URL, time.Hour)
	assert.ErrorIs(t, err, ErrDownload)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestEnsureDBWithoutURL(t *testing.T) {
	dir := t.TempDir()

	err := EnsureDB(context.Background(), filepath.Join(dir, "missing.mmdb"), "", time.Hour)
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(dir, "local.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	assert.NoError(t, EnsureDB(context.Background(), path, "", time.Hour))
}

func TestOpenInvalid(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o600))
	_, err = Open(path)
	assert.Error(t, err)
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.Empty(t, p.CountryCode("8.8.8.8"))
}
