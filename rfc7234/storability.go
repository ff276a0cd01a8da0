package rfc7234

import "net/http"

// §  3.  Storing Responses in Caches
// §
// §     A cache MUST NOT store a response to a request unless:
// §
// §     *  the request method is understood by the cache;
// §     *  the response status code is final;
// §     *  if the response status code is 206 or 304, or must-understand is
// §        present: the cache understands the response status code;
// §     *  the no-store cache directive is not present in the response;
// §     *  the response contains at least one of: a public directive, an
// §        Expires header field, a max-age directive, or (for a shared
// §        cache) an s-maxage directive.
// §
// §     A single-user client cache is not "shared" (§3, last bullet of the
// §     Authorization carve-out does not apply), so the Authorization /
// §     private-directive restrictions that bind a shared cache are
// §     dropped here.
func Storable(req *http.Request, res *http.Response) bool {
	if !requestMethodUnderstood(req.Method) {
		return false
	}
	if !responseStatusFinal(res.StatusCode) {
		return false
	}
	cc := ParseCacheControl(res.Header.Values("Cache-Control"))
	if (res.StatusCode == 206 || res.StatusCode == 304 || cc.Has("must-understand")) && !responseStatusUnderstood(res.StatusCode) {
		return false
	}
	if cc.NoStore() {
		return false
	}
	if cc.Public() || cc.Private() ||
		res.Header.Get("Expires") != "" ||
		cc.Has("max-age") || cc.Has("s-maxage") {
		return true
	}
	// §  Note that, in normal operation, some caches will not store a
	// §  response that has neither a cache validator nor an explicit
	// §  expiration time, as such responses are not usually useful to
	// §  store. However, caches are not prohibited from storing such
	// §  responses.
	//
	// A client cache stores these anyway when they carry a validator,
	// since heuristic freshness (§4.2.2) still applies and a validator
	// makes conditional revalidation possible.
	return res.Header.Get("ETag") != "" || res.Header.Get("Last-Modified") != ""
}

func requestMethodUnderstood(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
		return true
	default:
		return false
	}
}

func responseStatusUnderstood(code int) bool {
	switch code {
	case 200, 203, 204, 206, 300, 301, 304, 404, 405, 410, 414, 451, 501:
		return true
	default:
		return false
	}
}

func responseStatusFinal(code int) bool { return code >= 200 && code <= 599 }

// §  Unsafe methods (§9.2.1 of [HTTP]) must always be forwarded to the
// §  origin; a cache never answers them directly.
func Unsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// §  4.4.  Invalidating Stored Responses
// §
// §     A cache MUST invalidate the effective request URI when it receives
// §     a non-error status code response to a request with an unsafe
// §     method.
func Invalidates(method string, statusCode int) bool {
	return Unsafe(method) && statusCode >= 200 && statusCode < 400
}
