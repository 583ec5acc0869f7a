// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	ShowProgressBar = false
}

func serveBytes(t *testing.T, content []byte) (*httptest.Server, *atomic.Int32) {
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)
	return server, &count
}

func TestDownloadIfMissing(t *testing.T) {
	content := []byte("some dataset content")
	server, count := serveBytes(t, content)
	filePath := filepath.Join(t.TempDir(), "sub", "file.bin")

	hash := sha256.Sum256(content)
	require.NoError(t, DownloadIfMissing(server.URL, filePath, hex.EncodeToString(hash[:])))
	got, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, int32(1), count.Load())

	// Second call finds the file and doesn't download again.
	require.NoError(t, DownloadIfMissing(server.URL, filePath, ""))
	assert.Equal(t, int32(1), count.Load())
}

func TestDownloadChecksumMismatch(t *testing.T) {
	server, _ := serveBytes(t, []byte("corrupted"))
	filePath := filepath.Join(t.TempDir(), "file.bin")
	err := DownloadIfMissing(server.URL, filePath, "0000")
	require.Error(t, err)
	_, statErr := os.Stat(filePath)
	assert.True(t, os.IsNotExist(statErr), "file failing checksum should be removed")
}

func TestDownloadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := Download(server.URL, filepath.Join(t.TempDir(), "file.bin"), false)
	require.Error(t, err)
}

func makeTarGz(t *testing.T, files map[string]string) []byte {
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}))
		_, err = tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestDownloadAndUntarIfMissing(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}
	archive := makeTarGz(t, map[string]string{"data/a.txt": "a", "data/b.txt": "b"})
	server, count := serveBytes(t, archive)
	baseDir := t.TempDir()

	require.NoError(t, DownloadAndUntarIfMissing(server.URL, baseDir, "data.tar.gz", "data", ""))
	got, err := os.ReadFile(filepath.Join(baseDir, "data", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	// Target directory exists: nothing is downloaded.
	require.NoError(t, os.Remove(filepath.Join(baseDir, "data.tar.gz")))
	require.NoError(t, DownloadAndUntarIfMissing(server.URL, baseDir, "data.tar.gz", "data", ""))
	assert.Equal(t, int32(1), count.Load())

	// Archive without the expected directory.
	err = DownloadAndUntarIfMissing(server.URL, baseDir, "other.tar.gz", "missing", "")
	var missing *MissingDirError
	require.True(t, errors.As(err, &missing), "unexpected error %v", err)
	assert.Equal(t, filepath.Join(baseDir, "missing"), missing.Dir)
}
