package rfc7234

import (
	"net/http"
	"time"
)

// Action tells the orchestrator what to do with a stored entry it has
// just evaluated against an incoming request.
type Action int

const (
	// ActionForward means no usable stored entry; send the request as-is.
	ActionForward Action = iota
	// ActionReuse means the stored entry may be served directly.
	ActionReuse
	// ActionRevalidate means the stored entry is stale (or carries
	// no-cache) and must be revalidated with a conditional request.
	ActionRevalidate
	// ActionReuseStale means the stored entry is stale but may still be
	// served, per stale-while-revalidate or the request's max-stale.
	ActionReuseStale
)

// Evaluation is the outcome of evaluating one stored entry against an
// incoming request at a point in time.
type Evaluation struct {
	Action           Action
	CurrentAge       time.Duration
	FreshnessLT      time.Duration
	Fresh            bool
	WarningCode      int
}

// Evaluate implements the core of §4 (Constructing Responses from
// Caches): whether a stored response may be used, used after
// revalidation, or must be forwarded outright.
//
// storedReqHeader is the header of the request that produced the stored
// entry (needed to check Vary); date/requestTime/responseTime are the
// timestamps recorded when the entry was stored.
func Evaluate(req *http.Request, statusCode int, storedHeader, storedReqHeader http.Header, date, requestTime, responseTime, now time.Time) Evaluation {
	if Unsafe(req.Method) {
		return Evaluation{Action: ActionForward}
	}
	if !VaryMatches(VaryNames(storedHeader), req.Header, storedReqHeader) {
		return Evaluation{Action: ActionForward}
	}

	reqCC := ParseCacheControl(req.Header.Values("Cache-Control"))
	resCC := ParseCacheControl(storedHeader.Values("Cache-Control"))

	age := CurrentAge(storedHeader, date, requestTime, responseTime, now)
	lifetime := FreshnessLifetime(storedHeader, date)
	heuristic := lifetime < 0
	if heuristic {
		lifetime = HeuristicFreshnessLifetime(statusCode, storedHeader, date)
	}
	fresh := IsFresh(lifetime, age)

	// immutable (§4.2): the response is always fresh, and the request's
	// own max-age/min-fresh downgrades never apply to it.
	immutable := resCC.Immutable()
	if immutable {
		fresh = true
	} else {
		if maxAge, ok := reqCC.MaxAge(); ok && age > maxAge {
			fresh = false
		}
		if minFresh, ok := reqCC.MinFresh(); ok && lifetime-age < minFresh {
			fresh = false
		}
	}

	eval := Evaluation{CurrentAge: age, FreshnessLT: lifetime, Fresh: fresh}
	if heuristic && fresh {
		eval.WarningCode = WarnHeuristicExpiration
	}

	mustRevalidate := resCC.NoCache() || resCC.MustRevalidate()
	if fresh && !mustRevalidate {
		eval.Action = ActionReuse
		return eval
	}
	if fresh && mustRevalidate {
		// still fresh, but no-cache forbids reuse without revalidation.
		eval.Action = ActionRevalidate
		return eval
	}

	// stale: see if a staleness allowance covers it.
	staleness := age - lifetime
	if maxStale, ok := reqCC.MaxStale(); ok && staleness <= maxStale && !resCC.MustRevalidate() {
		eval.Action = ActionReuseStale
		eval.WarningCode = WarnResponseIsStale
		return eval
	}
	if swr, ok := resCC.StaleWhileRevalidate(); ok && staleness <= swr {
		eval.Action = ActionReuseStale
		eval.WarningCode = WarnResponseIsStale
		return eval
	}

	eval.Action = ActionRevalidate
	return eval
}
