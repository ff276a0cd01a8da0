package gofetch

import "fmt"

// cacheStatusResult is the outcome half of a Cache-Status member (RFC
// 9211 §2.1). Adapted from the teacher's CacheStatus/CacheStatusStatus
// (cache-status.go), which built the equivalent header for a reverse
// proxy's downstream response; here it's emitted on Response.Header
// for a fetch call instead, so callers (and the CLI's -vv logging) can
// tell a hit from a forward without reverse-engineering Warning/Age.
type cacheStatusResult string

const (
	cacheStatusHit cacheStatusResult = "hit"
	cacheStatusFwd cacheStatusResult = "fwd"
)

// cacheStatusFwdReason enumerates RFC 9211's fwd-reason parameter
// values actually reachable from this client's control flow.
type cacheStatusFwdReason string

const (
	fwdBypass   cacheStatusFwdReason = "bypass"   // no-store / method not cacheable
	fwdMethod   cacheStatusFwdReason = "method"   // mutating method, cache skipped
	fwdURIMiss  cacheStatusFwdReason = "uri-miss" // no base-key entry at all
	fwdVaryMiss cacheStatusFwdReason = "vary-miss"
	fwdRequest  cacheStatusFwdReason = "request" // request directives forced a forward
	fwdStale    cacheStatusFwdReason = "stale"   // had an entry, it needed revalidation
)

// cacheStatus builds one Cache-Status member for this client, per RFC
// 9211 §2.1's member grammar: `gofetch; hit` or
// `gofetch; fwd=reason[; detail]`. A zero-value cacheStatus has an
// empty result, which String renders as a bare forward with no
// reason; construct it with hit: true or a reason instead.
type cacheStatus struct {
	result cacheStatusResult
	hit    bool
	reason cacheStatusFwdReason
	detail string
}

func (cs cacheStatus) String() string {
	result := cs.result
	if result == "" {
		if cs.hit {
			result = cacheStatusHit
		} else {
			result = cacheStatusFwd
		}
	}

	s := "gofetch; " + string(result)
	if result == cacheStatusFwd && cs.reason != "" {
		s += fmt.Sprintf("=%s", cs.reason)
	}
	if cs.detail != "" {
		s += "; detail=" + cs.detail
	}
	return s
}

func setCacheStatus(header interface{ Set(string, string) }, cs cacheStatus) {
	header.Set("Cache-Status", cs.String())
}
