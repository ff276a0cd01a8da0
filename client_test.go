package gofetch_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/always-cache/gofetch"
	"github.com/always-cache/gofetch/store"
)

func newClientWithMemStore() (*gofetch.Client, *gofetch.Options) {
	c := gofetch.NewClient()
	return c, &gofetch.Options{CacheManager: store.NewMemoryStore()}
}

func TestFetchCachesAndServesFreshResponse(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "max-age=300")
		w.Write([]byte("hello, world!"))
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	res1, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	body1, err := io.ReadAll(res1.Body)
	require.NoError(t, err)
	res1.Body.Close()
	assert.Equal(t, "hello, world!", string(body1))

	res2, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	body2, err := io.ReadAll(res2.Body)
	require.NoError(t, err)
	res2.Body.Close()

	assert.Equal(t, "hello, world!", string(body2))
	assert.NotEmpty(t, res2.Header.Get("X-Local-Cache-Hash"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchNoStoreNeverCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte("secret"))
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	for i := 0; i < 2; i++ {
		res, err := client.Fetch(context.Background(), srv.URL, opts)
		require.NoError(t, err)
		io.ReadAll(res.Body)
		res.Body.Close()
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestFetchMutatingMethodInvalidatesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&hits, 1)
			w.Header().Set("Cache-Control", "max-age=300")
			w.Write([]byte("v1"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	res, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	io.ReadAll(res.Body)
	res.Body.Close()

	postOpts := &gofetch.Options{CacheManager: opts.CacheManager, Method: http.MethodPost}
	res, err = client.Fetch(context.Background(), srv.URL, postOpts)
	require.NoError(t, err)
	res.Body.Close()

	res, err = client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	io.ReadAll(res.Body)
	res.Body.Close()

	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestFetchOnlyIfCachedMissFails(t *testing.T) {
	client, opts := newClientWithMemStore()
	opts.Cache = gofetch.CacheOnlyIfCached

	_, err := client.Fetch(context.Background(), "http://example.invalid/never-cached", opts)
	require.Error(t, err)
	var notCached *gofetch.NotCachedError
	assert.ErrorAs(t, err, &notCached)
}

func TestFetchRevalidatesWith304AndAddsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Cache-Control", "max-age=0")
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	res, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	first, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, "body", string(first))

	res, err = client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	second, _ := io.ReadAll(res.Body)
	res.Body.Close()

	assert.Equal(t, "body", string(second))
	assert.Contains(t, res.Header.Get("Warning"), "110")
}

func TestFetchHeuristicFreshnessAddsWarning113(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", time.Now().Add(-24*time.Hour).UTC().Format(http.TimeFormat))
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	res, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	io.ReadAll(res.Body)
	res.Body.Close()

	res, err = client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	io.ReadAll(res.Body)
	res.Body.Close()

	assert.Contains(t, res.Header.Get("Warning"), "113")
}

func TestFetchPerAttemptTimeoutSurfacesAsTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("too slow"))
	}))
	defer srv.Close()

	client := gofetch.NewClient()
	opts := &gofetch.Options{
		Timeout: 5 * time.Millisecond,
		Retry:   &gofetch.RetryOptions{Retries: 0},
	}

	_, err := client.Fetch(context.Background(), srv.URL, opts)
	require.Error(t, err)
	var timeoutErr *gofetch.TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestFetchRetriesAndSurfacesClassifiedTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.Listener.Addr().String()
	srv.Close() // nothing listens on addr now: every dial is refused

	client := gofetch.NewClient()
	opts := &gofetch.Options{
		Retry: &gofetch.RetryOptions{Retries: 2, MinTimeout: time.Millisecond, MaxTimeout: 5 * time.Millisecond},
	}

	_, err := client.Fetch(context.Background(), "http://"+addr, opts)
	require.Error(t, err)
	var transportErr *gofetch.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, gofetch.CodeConnRefused, transportErr.Code)
}

func TestFetchSetsRequestIDHeaderOnOriginAndResponse(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(gofetch.RequestIDHeader)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := gofetch.NewClient()
	res, err := client.Fetch(context.Background(), srv.URL, &gofetch.Options{})
	require.NoError(t, err)
	io.ReadAll(res.Body)
	res.Body.Close()

	require.NotEmpty(t, gotHeader)
	assert.Equal(t, gotHeader, res.Header.Get(gofetch.RequestIDHeader))
}

func TestFetchStreamsLargeBodyToDiskAboveMaxMemSize(t *testing.T) {
	const size = 6 * 1024 * 1024 // above the 5 MiB MAX_MEM_SIZE threshold
	body := bytes.Repeat([]byte("a"), size)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=300")
		w.Write(body)
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	res, err := client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, body, got)

	res, err = client.Fetch(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	got, err = io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, body, got)
}

func TestFetchVaryStarNeverMatches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Cache-Control", "max-age=300")
		w.Header().Set("Vary", "*")
		w.Write([]byte("v"))
	}))
	defer srv.Close()

	client, opts := newClientWithMemStore()

	for i := 0; i < 2; i++ {
		url := fmt.Sprintf("%s?a=%d", srv.URL, i)
		res, err := client.Fetch(context.Background(), url, opts)
		require.NoError(t, err)
		io.ReadAll(res.Body)
		res.Body.Close()
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}
