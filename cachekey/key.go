// Package cachekey derives stable storage fingerprints from requests.
//
// Grounded on the teacher's own pkg/cache-key and core/key.go: a key
// is the method, an origin identifier, and the path, joined with
// fixed separators so a key can be split back into its parts.
package cachekey

import (
	"net/http"
	"strings"
)

const (
	methodSeparator = ":"
	varySeparator   = "\t"
)

// Fingerprint returns the cache key for a request, excluding query
// string and fragment (§4.1 — query equivalence is handled at match
// time, not at key time; see DESIGN.md for the rationale). HEAD and
// GET share a key so a HEAD may be served from a GET's stored body.
func Fingerprint(req *http.Request) string {
	method := req.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}
	return method + methodSeparator + origin(req) + req.URL.Path
}

func origin(req *http.Request) string {
	scheme := req.URL.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := req.URL.Host
	return scheme + "://" + host
}

// WithVary extends a key prefix with the values of the request header
// fields named in varyNames, so that two requests differing in a
// varied dimension land on distinct entries. Field names are compared
// case-insensitively, per the open question in spec.md §9(a).
func WithVary(prefix string, varyNames []string, reqHeader http.Header) string {
	if len(varyNames) == 0 {
		return prefix
	}
	key := prefix
	for _, name := range varyNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		key += varySeparator + name + "=" + reqHeader.Get(name)
	}
	return key
}

// SplitVary parses the vary dimensions encoded in a full key (as
// produced by WithVary) back into a header map, so a store can
// reconstruct the request that a key was generated for.
func SplitVary(key string) (prefix string, vary http.Header) {
	parts := strings.Split(key, varySeparator)
	vary = make(http.Header)
	if len(parts) == 0 {
		return key, vary
	}
	prefix = parts[0]
	for _, p := range parts[1:] {
		name, val, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		vary.Set(name, val)
	}
	return prefix, vary
}
