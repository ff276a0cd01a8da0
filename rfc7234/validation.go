package rfc7234

import "net/http"

// §  4.3.1.  Sending a Validation Request
// §
// §     When generating a conditional request for validation, a cache:
// §
// §     *  MUST send the relevant entity tags (using If-None-Match) if the
// §        entity tags were provided in the stored response being
// §        validated.
// §     *  SHOULD send the Last-Modified value (using If-Modified-Since) if
// §        the stored response contains one.
// §
// §     Both validators are generally sent together to accommodate old
// §     intermediaries that only understand one form.
func AddConditionalHeaders(req *http.Request, storedHeader http.Header) {
	if etag := storedHeader.Get("ETag"); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod := storedHeader.Get("Last-Modified"); lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
}

// §  3.2.  Updating Stored Header Fields
// §
// §     The cache MUST add each header field in the provided response to
// §     the stored response, replacing field values that are already
// §     present, with the following exceptions: header fields excepted
// §     from storage, header fields the stored response's processing
// §     depends on, and the Content-Length header field.
//
// §  4.3.4.  Freshening Stored Responses upon Validation
// §
// §     For each stored response identified, the cache MUST update its
// §     header fields with the header fields provided in the 304 (Not
// §     Modified) response.
var headersNotUpdatedOn304 = map[string]bool{
	"Content-Length":    true,
	"Content-Encoding":  true,
	"Content-Type":      true,
	"Transfer-Encoding": true,
}

// MergeNotModified folds a 304 response's header fields into a stored
// response's header fields per §3.2 and §4.3.4, returning the merged
// result. storedHeader is not mutated.
func MergeNotModified(storedHeader, notModifiedHeader http.Header) http.Header {
	merged := storedHeader.Clone()
	for name, values := range notModifiedHeader {
		if headersNotUpdatedOn304[http.CanonicalHeaderKey(name)] {
			continue
		}
		merged[http.CanonicalHeaderKey(name)] = values
	}
	return merged
}
