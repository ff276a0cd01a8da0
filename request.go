package gofetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// BodySource builds a request body. Buffered sources are rewindable
// (retriable); stream sources are not.
//
// § spec §3 — Request descriptor body: none | buffered bytes |
// rewindable source | non-rewindable stream.
type BodySource interface {
	// open returns a fresh reader for this attempt.
	open() (io.ReadCloser, error)
	// rewindable reports whether open() can be called more than once.
	rewindable() bool
	size() int64
}

type bufferedBody struct{ b []byte }

func (b bufferedBody) open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.b)), nil
}
func (b bufferedBody) rewindable() bool { return true }
func (b bufferedBody) size() int64      { return int64(len(b.b)) }

// BufferedBody wraps a byte slice as a rewindable request body. Safe
// to retry any number of times.
func BufferedBody(b []byte) BodySource { return bufferedBody{b} }

type reopenableBody struct {
	open_ func() (io.ReadCloser, error)
	n     int64
}

func (b reopenableBody) open() (io.ReadCloser, error) { return b.open_() }
func (b reopenableBody) rewindable() bool             { return true }
func (b reopenableBody) size() int64                  { return b.n }

// ReopenableBody wraps a factory function (e.g. re-opening a file) as
// a rewindable request body whose size is known up front.
func ReopenableBody(size int64, open func() (io.ReadCloser, error)) BodySource {
	return reopenableBody{open_: open, n: size}
}

type streamBody struct {
	r      io.ReadCloser
	opened bool
}

func (b *streamBody) open() (io.ReadCloser, error) {
	if b.opened {
		return nil, errStreamAlreadyConsumed
	}
	b.opened = true
	return b.r, nil
}
func (b *streamBody) rewindable() bool { return false }
func (b *streamBody) size() int64      { return -1 }

var errStreamAlreadyConsumed = &nonRewindableError{}

type nonRewindableError struct{}

func (*nonRewindableError) Error() string {
	return "gofetch: non-rewindable stream body already consumed; cannot retry"
}

// StreamBody wraps a one-shot io.ReadCloser as a non-rewindable
// request body. The retry engine will never re-attempt a request
// carrying one of these (§4.4).
func StreamBody(r io.ReadCloser) BodySource { return &streamBody{r: r} }

// buildRequest constructs a *http.Request for one attempt, wiring
// GetBody so retry/redirect machinery in net/http and our own retry
// engine can tell rewindable bodies from streams: GetBody == nil with
// a non-nil Body means "non-rewindable".
func buildRequest(ctx context.Context, method, rawURL string, header http.Header, body BodySource) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if header != nil {
		req.Header = header.Clone()
	}
	if body != nil {
		rc, err := body.open()
		if err != nil {
			return nil, err
		}
		req.Body = rc
		if n := body.size(); n >= 0 {
			req.ContentLength = n
		}
		if body.rewindable() {
			src := body
			req.GetBody = func() (io.ReadCloser, error) { return src.open() }
		}
	}
	return req, nil
}

// rewindable reports whether req can be safely re-sent: either it has
// no body, or net/http populated GetBody for it (buffered/reopenable
// sources always do; stream sources never do).
func rewindable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
