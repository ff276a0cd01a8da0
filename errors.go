package gofetch

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// NotCachedError is returned when opts.cache is "only-if-cached" and no
// matching entry is present in the store.
//
// § spec 4.8: only-if-cached, no entry -> fail with ENOTCACHED
type NotCachedError struct {
	URL string
}

func (e *NotCachedError) Error() string {
	return fmt.Sprintf("request to %s failed: ENOTCACHED (cache miss with only-if-cached)", e.URL)
}

// BadChecksumError is returned when a response body's digest does not
// satisfy the caller-supplied subresource-integrity metadata.
type BadChecksumError struct {
	URL       string
	Algorithm string
	Wanted    string
	Got       string
}

func (e *BadChecksumError) Error() string {
	return fmt.Sprintf("request to %s failed: EBADCHECKSUM (%s digest mismatch: wanted %s, got %s)",
		e.URL, e.Algorithm, e.Wanted, e.Got)
}

// TimeoutError indicates a per-attempt wall-clock deadline expired.
// Retriable per spec.md §4.4.
type TimeoutError struct {
	URL string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s failed: request-timeout", e.URL)
}

// Retriable reports true unconditionally: a per-attempt timeout is
// always worth another attempt (subject to the usual method/body
// rewindability rules the retry engine also applies).
func (e *TimeoutError) Retriable() bool { return true }

// TransportCode enumerates the classified network error codes the
// retry engine recognizes (spec.md §4.4, §7).
type TransportCode string

const (
	CodeConnReset   TransportCode = "ECONNRESET"
	CodeConnRefused TransportCode = "ECONNREFUSED"
	CodeAddrInUse   TransportCode = "EADDRINUSE"
	CodeTimedOut    TransportCode = "ETIMEDOUT"
	CodeNotFound    TransportCode = "ENOTFOUND"
	CodeUnknown     TransportCode = ""
)

// TransportError wraps an underlying transport-layer error with a
// classified code, so the retry engine doesn't need to sniff syscall
// errors itself.
type TransportError struct {
	Code TransportCode
	Err  error
}

func (e *TransportError) Error() string {
	if e.Code == CodeUnknown {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyTransportError inspects a raw RoundTrip error (typically a
// *url.Error wrapping a *net.OpError wrapping a *os.SyscallError
// wrapping a syscall.Errno) and builds a TransportError carrying the
// matching TransportCode, so the retry loop can classify a failure
// before deciding whether to reattempt it — the classification has to
// happen inside the loop, not after it, or a retriable transport
// failure never gets retried.
func classifyTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}
	code := CodeUnknown

	var dnsErr *net.DNSError
	var errno syscall.Errno
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		code = CodeNotFound
	case errors.As(err, &errno):
		switch errno {
		case syscall.ECONNRESET:
			code = CodeConnReset
		case syscall.ECONNREFUSED:
			code = CodeConnRefused
		case syscall.EADDRINUSE:
			code = CodeAddrInUse
		case syscall.ETIMEDOUT:
			code = CodeTimedOut
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		code = CodeTimedOut
	}

	return &TransportError{Code: code, Err: err}
}

// Retriable reports whether this transport error's code is one the
// retry engine will reattempt for an idempotent, rewindable request.
func (e *TransportError) Retriable() bool {
	switch e.Code {
	case CodeConnReset, CodeConnRefused, CodeAddrInUse, CodeTimedOut:
		return true
	default:
		return false
	}
}
