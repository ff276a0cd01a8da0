package rfc7234

import (
	"net/http"
	"strings"
)

// §  4.1.  Calculating Cache Keys with the Vary Header Field
// §
// §     When a cache receives a request that can be satisfied by a stored
// §     response and that stored response contains a Vary header field,
// §     the cache MUST NOT use that stored response without revalidation
// §     unless all the presented request header fields nominated by that
// §     Vary field value match those fields in the original request.
// §
// §     A stored response with a Vary header field value containing a
// §     member "*" always fails to match.
func VaryNames(header http.Header) []string {
	var names []string
	for _, v := range header.Values("Vary") {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// VaryMatches reports whether the header fields nominated by varyNames
// carry the same values in both the new request and the request that
// produced the stored entry.
func VaryMatches(varyNames []string, newHeader, storedHeader http.Header) bool {
	for _, name := range varyNames {
		if name == "*" {
			return false
		}
		if !headerValuesEqual(newHeader.Values(name), storedHeader.Values(name)) {
			return false
		}
	}
	return true
}

func headerValuesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}
