// Package rfc7234 implements the client-side cacheability and freshness
// rules of RFC 9111 (HTTP Caching), formerly RFC 7234. Each rule is kept
// next to the section of the spec text it implements so the mapping from
// prose to code stays legible.
package rfc7234

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// §  1.2.2.  Delta Seconds
// §
// §     The delta-seconds rule specifies a non-negative integer, representing
// §     time in seconds.
func deltaSeconds(s string) time.Duration {
	seconds, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return time.Second * time.Duration(seconds)
}

func formatDeltaSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.f", d.Seconds())
}

const imfFixdateLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// §  5.6.7.  Date/Time Formats (imported from [HTTP])
// §
// §     A recipient that parses a timestamp value in an HTTP field MUST
// §     accept all three HTTP-date formats: IMF-fixdate, obsolete RFC 850,
// §     and asctime.
func parseHTTPDate(s string) (time.Time, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if t, err := time.Parse(imfFixdateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC850, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.ANSIC, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("rfc7234: %q is not a valid HTTP-date", s)
}

// formatHTTPDate renders t in the preferred IMF-fixdate form.
func formatHTTPDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}
