package tee_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/always-cache/gofetch/tee"
)

type bufCacheWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (w *bufCacheWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *bufCacheWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *bufCacheWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

type failingCacheWriter struct{ err error }

func (w failingCacheWriter) Write(p []byte) (int, error) { return 0, w.err }
func (w failingCacheWriter) Close() error                { return nil }

func TestTeeCopiesToCallerAndCache(t *testing.T) {
	upstream := io.NopCloser(bytes.NewBufferString("hello world"))
	cache := &bufCacheWriter{}
	tr := tee.New(upstream, func() (tee.CacheWriter, error) { return cache, nil }, nil)

	got, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
	assert.Equal(t, "hello world", cache.String())
	assert.True(t, cache.closed)
}

func TestTeeNeverOpensCacheWriterWithoutRead(t *testing.T) {
	upstream := io.NopCloser(bytes.NewBufferString("hello world"))
	opened := false
	tr := tee.New(upstream, func() (tee.CacheWriter, error) {
		opened = true
		return &bufCacheWriter{}, nil
	}, nil)

	require.NoError(t, tr.Close())
	assert.False(t, opened)
}

func TestTeeHashesBytesForVerifier(t *testing.T) {
	upstream := io.NopCloser(bytes.NewBufferString("hello world"))
	cache := &bufCacheWriter{}
	h := sha256.New()
	tr := tee.New(upstream, func() (tee.CacheWriter, error) { return cache, nil }, h)

	_, err := io.ReadAll(tr)
	require.NoError(t, err)

	want := sha256.Sum256([]byte("hello world"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(want[:]), base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

func TestTeePropagatesCacheWriteErrorToCaller(t *testing.T) {
	upstream := io.NopCloser(bytes.NewBufferString("hello world"))
	boom := errors.New("disk full")
	tr := tee.New(upstream, func() (tee.CacheWriter, error) { return failingCacheWriter{err: boom}, nil }, nil)

	_, err := io.ReadAll(tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestTeePropagatesCacheWriterOpenError(t *testing.T) {
	upstream := io.NopCloser(bytes.NewBufferString("hello world"))
	boom := errors.New("cannot open store")
	tr := tee.New(upstream, func() (tee.CacheWriter, error) { return nil, boom }, nil)

	_, err := io.ReadAll(tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
