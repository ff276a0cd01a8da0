package rfc7234

import (
	"net/http"
	"time"
)

// §  4.2.1.  Calculating Freshness Lifetime
// §
// §     A cache can calculate the freshness lifetime by evaluating the
// §     following rules and using the first match:
// §
// §     *  the s-maxage response directive, or
// §     *  the max-age response directive, or
// §     *  the Expires header field value minus the Date header field
// §        value, or
// §     *  otherwise, no explicit expiration time is present; a heuristic
// §        freshness lifetime might be applicable (Section 4.2.2).
//
// date is the response's Date header value (already parsed by the caller,
// since a stored response always has one attached at store time).
func FreshnessLifetime(header http.Header, date time.Time) time.Duration {
	cc := ParseCacheControl(header.Values("Cache-Control"))
	if ttl, ok := cc.SMaxAge(); ok {
		return ttl
	}
	if ttl, ok := cc.MaxAge(); ok {
		return ttl
	}
	if expiresStr := header.Get("Expires"); expiresStr != "" {
		if expires, err := parseHTTPDate(expiresStr); err == nil {
			if !date.IsZero() {
				return expires.Sub(date)
			}
		} else {
			// §  A cache recipient MUST interpret invalid date formats,
			// §  especially the value "0", as representing a time in the
			// §  past (i.e., "already expired").
			return 0
		}
	}
	return -1
}

// heuristicallyCacheableStatus lists status codes RFC 9110 §15.1 marks
// cacheable by default absent explicit freshness information.
var heuristicallyCacheableStatus = map[int]bool{
	200: true, 203: true, 204: true, 206: true,
	300: true, 301: true, 308: true,
	404: true, 405: true, 410: true, 414: true, 451: true, 501: true,
}

// §  4.2.2.  Calculating Heuristic Freshness
// §
// §     A cache MUST NOT use heuristics to determine freshness when an
// §     explicit expiration time is present. If the response has a
// §     Last-Modified header field, caches are encouraged to use a
// §     heuristic expiration value that is no more than some fraction of
// §     the interval since that time. A typical setting of this fraction
// §     might be 10%.
const (
	heuristicFraction = 0.1
	heuristicCap      = 300 * time.Second
)

func HeuristicFreshnessLifetime(statusCode int, header http.Header, date time.Time) time.Duration {
	cc := ParseCacheControl(header.Values("Cache-Control"))
	if !heuristicallyCacheableStatus[statusCode] && !cc.Public() {
		return 0
	}
	lastModStr := header.Get("Last-Modified")
	if lastModStr == "" || date.IsZero() {
		return heuristicCap
	}
	lastMod, err := parseHTTPDate(lastModStr)
	if err != nil {
		return heuristicCap
	}
	age := date.Sub(lastMod)
	if age <= 0 {
		return 0
	}
	lifetime := time.Duration(float64(age) * heuristicFraction)
	if lifetime > heuristicCap {
		return heuristicCap
	}
	return lifetime
}

// §  4.2.3.  Calculating Age
//
// current_age is computed relative to now, given the three timestamps a
// stored entry records: the response's own Date header, the time the
// request that produced it was sent, and the time its response was
// received.
func CurrentAge(header http.Header, date, requestTime, responseTime, now time.Time) time.Duration {
	ageValue := time.Duration(0)
	if v := header.Get("Age"); v != "" {
		ageValue = deltaSeconds(v)
	}
	apparentAge := durationMax(0, responseTime.Sub(date))
	responseDelay := responseTime.Sub(requestTime)
	correctedAgeValue := ageValue + responseDelay
	correctedInitialAge := durationMax(apparentAge, correctedAgeValue)
	residentTime := now.Sub(responseTime)
	return correctedInitialAge + residentTime
}

func durationMax(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// FormatAge renders a duration as the integer Age header value.
func FormatAge(d time.Duration) string { return formatDeltaSeconds(d) }

// §  4.2.  Freshness
// §
// §     response_is_fresh = (freshness_lifetime > current_age)
func IsFresh(freshnessLifetime, currentAge time.Duration) bool {
	return freshnessLifetime > currentAge
}
