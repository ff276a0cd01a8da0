package store

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// MarshalEasyJSON writes v's wire form without going through
// encoding/json's reflection-based encoder. Header maps are still
// delegated to encoding/json (easyjson's generator does the same for
// field types it has no native support for, such as map[string][]string
// and time.Time).
func (v Entry) MarshalEasyJSON(w *jwriter.Writer) {
	headerJSON, headerErr := json.Marshal(v.Header)
	reqHeaderJSON, reqHeaderErr := json.Marshal(v.ReqHeader)

	w.RawByte('{')
	w.RawString(`"status":`)
	w.Int(v.StatusCode)
	w.RawString(`,"header":`)
	w.Raw(headerJSON, headerErr)
	w.RawString(`,"req_header":`)
	w.Raw(reqHeaderJSON, reqHeaderErr)
	w.RawString(`,"date":`)
	w.Int64(v.Date.UnixNano())
	w.RawString(`,"request_time":`)
	w.Int64(v.RequestTime.UnixNano())
	w.RawString(`,"response_time":`)
	w.Int64(v.ResponseTime.UnixNano())
	w.RawString(`,"algorithm":`)
	w.String(v.Algorithm)
	w.RawString(`,"digest":`)
	w.String(v.Digest)
	w.RawString(`,"size":`)
	w.Int64(v.Size)
	w.RawByte('}')
}

// UnmarshalEasyJSON reads v's wire form as written by MarshalEasyJSON.
func (v *Entry) UnmarshalEasyJSON(l *jlexer.Lexer) {
	if l.IsNull() {
		l.Skip()
		return
	}
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeString()
		l.WantColon()
		switch key {
		case "status":
			v.StatusCode = l.Int()
		case "header":
			raw := l.Raw()
			var h http.Header
			if err := json.Unmarshal(raw, &h); err != nil {
				l.AddError(err)
			}
			v.Header = h
		case "req_header":
			raw := l.Raw()
			var h http.Header
			if err := json.Unmarshal(raw, &h); err != nil {
				l.AddError(err)
			}
			v.ReqHeader = h
		case "date":
			v.Date = time.Unix(0, l.Int64()).UTC()
		case "request_time":
			v.RequestTime = time.Unix(0, l.Int64()).UTC()
		case "response_time":
			v.ResponseTime = time.Unix(0, l.Int64()).UTC()
		case "algorithm":
			v.Algorithm = l.String()
		case "digest":
			v.Digest = l.String()
		case "size":
			v.Size = l.Int64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

// MarshalJSON and UnmarshalJSON route encoding/json calls on Entry
// (the disk and Redis stores use json.Marshal/json.Unmarshal) through
// the jwriter/jlexer methods above.
func (v Entry) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	v.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (v *Entry) UnmarshalJSON(data []byte) error {
	l := jlexer.Lexer{Data: data}
	v.UnmarshalEasyJSON(&l)
	return l.Error()
}
