package rfc7234

import (
	"net/http"
	"strconv"
)

// Warning codes from RFC 7234 §5.5, carried forward here even though
// RFC 9111 obsoletes the header field: this client still surfaces them
// to callers as a cheap signal of why a response may be untrustworthy.
const (
	WarnResponseIsStale      = 110
	WarnRevalidationFailed   = 111
	WarnDisconnectOperation  = 112
	WarnHeuristicExpiration  = 113
	WarnMiscellaneous        = 199
	WarnMiscPersistentWarning = 299
)

var warnText = map[int]string{
	WarnResponseIsStale:      "Response is Stale",
	WarnRevalidationFailed:   "Revalidation Failed",
	WarnDisconnectOperation:  "Disconnected Operation",
	WarnHeuristicExpiration:  "Used heuristics to calculate cache freshness",
	WarnMiscellaneous:        "Miscellaneous Warning",
	WarnMiscPersistentWarning: "Miscellaneous Persistent Warning",
}

// AddWarning appends a Warning header field with the given code and
// agent identifier, per the RFC 7234 §5.5 wire format:
//
//	Warning = 1#warning-value
//	warning-value = warn-code SP warn-agent SP warn-text [SP warn-date]
func AddWarning(header http.Header, code int, agent string) {
	text, ok := warnText[code]
	if !ok {
		text = "Warning"
	}
	header.Add("Warning", strconv.Itoa(code)+" "+agent+" \""+text+"\"")
}

// StripWarning1xx removes Warning header fields whose code is 1xx before a
// stored entry is reused, per the RFC 7234 convention that a warn-code
// starting with "1" should be deleted after a successful revalidation
// (the condition that invalidated it no longer holds).
func StripWarning1xx(header http.Header) {
	values := header.Values("Warning")
	if len(values) == 0 {
		return
	}
	header.Del("Warning")
	for _, v := range values {
		if len(v) > 0 && v[0] == '1' {
			continue
		}
		header.Add("Warning", v)
	}
}
