// Package tee fans a response body out to the caller, the cache store,
// and an optional integrity verifier from a single upstream read.
//
// Grounded on the teacher's pkg/response-writer-tee ResponseSaver, which
// tees a server response to a buffer and (conditionally) the underlying
// http.ResponseWriter. That shape is generalized here from "two fixed
// consumers, buffered in full" to "N streaming consumers, with the cache
// branch as the back-pressure authority and lazy startup" — a foreground
// fetch client can't afford to buffer whole bodies in memory by default,
// and unlike a reverse proxy it has a real "nobody reads the body" case
// (a caller that discards the response) that must not touch the cache.
package tee

import (
	"errors"
	"hash"
	"io"
	"sync"
)

// CacheWriter is the write side of a store write: arbitrary body bytes
// followed by a single Close once the stream ends (or fails).
type CacheWriter interface {
	io.Writer
	Close() error
}

// Tee is an io.ReadCloser that, on first read, starts copying its
// upstream to a cache writer and a caller-facing pipe, optionally
// hashing every chunk for an integrity verifier along the way. The
// cache branch is always written before the corresponding bytes are
// handed to the caller, so the cache can never fall behind what the
// caller has already consumed. A cache-branch failure is mirrored to
// the caller, which sees the cache's error. A caller that stops reading
// early does not stop the cache branch: the upstream is still read to
// its end and written to the cache.
type Tee struct {
	upstream        io.ReadCloser
	openCacheWriter func() (CacheWriter, error)
	verifier        hash.Hash

	mu      sync.Mutex
	started bool
	pr      *io.PipeReader
	pw      *io.PipeWriter
}

// New builds a Tee. openCacheWriter is called at most once, lazily, on
// the first Read. verifier may be nil if no integrity check was
// requested.
func New(upstream io.ReadCloser, openCacheWriter func() (CacheWriter, error), verifier hash.Hash) *Tee {
	return &Tee{upstream: upstream, openCacheWriter: openCacheWriter, verifier: verifier}
}

// ensureStarted opens the cache writer and launches the pump goroutine
// exactly once, on first use.
func (t *Tee) ensureStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true
	t.pr, t.pw = io.Pipe()
	go t.pump()
}

func (t *Tee) pump() {
	defer t.upstream.Close()

	cw, err := t.openCacheWriter()
	if err != nil {
		t.pw.CloseWithError(err)
		return
	}

	buf := make([]byte, 32*1024)
	callerGone := false
	for {
		n, rerr := t.upstream.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, werr := cw.Write(chunk); werr != nil {
				cw.Close()
				t.pw.CloseWithError(werr)
				return
			}
			if t.verifier != nil {
				t.verifier.Write(chunk)
			}
			if !callerGone {
				if _, werr := t.pw.Write(chunk); werr != nil {
					// caller branch gave up first; keep reading upstream
					// so the cache branch still receives the whole body.
					callerGone = true
				}
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				if cerr := cw.Close(); cerr != nil {
					t.pw.CloseWithError(cerr)
					return
				}
				t.pw.Close()
				return
			}
			cw.Close()
			t.pw.CloseWithError(rerr)
			return
		}
	}
}

// Read implements io.Reader. The first call starts the pump goroutine;
// a Tee that is never read never opens its cache writer.
func (t *Tee) Read(p []byte) (int, error) {
	t.ensureStarted()
	return t.pr.Read(p)
}

// Close implements io.Closer. If the caller never read the body, the
// pump was never started, so this just closes the upstream directly —
// no cache writer is opened for a body nobody consumed. If the pump is
// already running, closing the pipe reader stops delivery to the
// caller; the pump keeps draining the upstream into the cache writer.
func (t *Tee) Close() error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return t.upstream.Close()
	}
	pr := t.pr
	t.mu.Unlock()
	return pr.Close()
}
