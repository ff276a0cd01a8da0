package rfc7234

import (
	"strings"
	"time"
)

// CacheControl is a parsed Cache-Control field value (request or response).
//
// §  5.2.  Cache-Control
// §
// §     Cache directives are identified by a token, to be compared
// §     case-insensitively, and have an optional argument that can use both
// §     token and quoted-string syntax.
type CacheControl struct {
	directives map[string]string
}

// ParseCacheControl combines one or more Cache-Control header field lines
// into a single directive set. When a directive repeats, the last
// occurrence wins.
func ParseCacheControl(values []string) CacheControl {
	directives := make(map[string]string)
	for _, header := range values {
		for _, directive := range strings.Split(header, ",") {
			directive = strings.TrimSpace(directive)
			if directive == "" {
				continue
			}
			name, arg, _ := strings.Cut(directive, "=")
			directives[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(arg), `"`)
		}
	}
	return CacheControl{directives}
}

// Has reports whether a directive is present.
func (c CacheControl) Has(name string) bool {
	_, ok := c.directives[name]
	return ok
}

func (c CacheControl) arg(name string) (string, bool) {
	v, ok := c.directives[name]
	return v, ok
}

func (c CacheControl) delta(name string) (time.Duration, bool) {
	v, ok := c.arg(name)
	if !ok {
		return 0, false
	}
	return deltaSeconds(v), true
}

// §  5.2.2.1.  max-age
func (c CacheControl) MaxAge() (time.Duration, bool) { return c.delta("max-age") }

// §  5.2.2.10.  s-maxage
func (c CacheControl) SMaxAge() (time.Duration, bool) { return c.delta("s-maxage") }

// §  5.2.2.2.  must-revalidate
func (c CacheControl) MustRevalidate() bool { return c.Has("must-revalidate") }

// §  5.2.2.5.  no-store
func (c CacheControl) NoStore() bool { return c.Has("no-store") }

// §  5.2.2.4.  no-cache — a bare no-cache forbids reuse without
// §  revalidation; a no-cache with a field-name argument only applies to
// §  that field, which this client treats as "must revalidate the whole
// §  response" since it does not do field-level reuse.
func (c CacheControl) NoCache() bool { return c.Has("no-cache") }

// §  5.2.2.7.  private — meaningful to shared caches only; recorded for
// §  completeness but a single-user client cache always may store it.
func (c CacheControl) Private() bool { return c.Has("private") }

func (c CacheControl) Public() bool { return c.Has("public") }

// Immutable is a commonly deployed extension directive (not in RFC 9111's
// core set) indicating a response will not change for its freshness
// lifetime, letting a client skip revalidation entirely on reload.
func (c CacheControl) Immutable() bool { return c.Has("immutable") }

// §  5.2.1.2.  max-stale (request directive)
func (c CacheControl) MaxStale() (time.Duration, bool) {
	v, ok := c.arg("max-stale")
	if ok && v == "" {
		return time.Duration(1<<63 - 1), true
	}
	return c.delta("max-stale")
}

// §  5.2.1.3.  min-fresh (request directive)
func (c CacheControl) MinFresh() (time.Duration, bool) { return c.delta("min-fresh") }

// StaleWhileRevalidate is a widely deployed extension directive letting a
// cache serve a stale response immediately while revalidating in the
// background, for up to the given duration past expiry.
func (c CacheControl) StaleWhileRevalidate() (time.Duration, bool) {
	return c.delta("stale-while-revalidate")
}

// StaleIfError is a widely deployed extension directive permitting a stale
// response to be served, for up to the given duration past expiry, when
// revalidation fails with a server or connection error.
func (c CacheControl) StaleIfError() (time.Duration, bool) {
	return c.delta("stale-if-error")
}

func (c CacheControl) NoTransform() bool { return c.Has("no-transform") }

func (c CacheControl) OnlyIfCached() bool { return c.Has("only-if-cached") }
