package cachekey

import (
	"net/http"
	"testing"
)

func TestFingerprintExcludesQuery(t *testing.T) {
	r1, _ := http.NewRequest("GET", "http://example.com/page?a=1", nil)
	r2, _ := http.NewRequest("GET", "http://example.com/page?a=2", nil)
	if Fingerprint(r1) != Fingerprint(r2) {
		t.Fatalf("expected query string to be excluded from the key: %s != %s", Fingerprint(r1), Fingerprint(r2))
	}
}

func TestFingerprintHeadSharesGetKey(t *testing.T) {
	get, _ := http.NewRequest("GET", "http://example.com/page", nil)
	head, _ := http.NewRequest("HEAD", "http://example.com/page", nil)
	if Fingerprint(get) != Fingerprint(head) {
		t.Fatalf("expected HEAD to share GET's key: %s != %s", Fingerprint(head), Fingerprint(get))
	}
}

func TestFingerprintDistinguishesHost(t *testing.T) {
	r1, _ := http.NewRequest("GET", "http://a.example.com/page", nil)
	r2, _ := http.NewRequest("GET", "http://b.example.com/page", nil)
	if Fingerprint(r1) == Fingerprint(r2) {
		t.Fatalf("expected different hosts to produce different keys")
	}
}

func TestWithVaryRoundTrip(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com/page", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	prefix := Fingerprint(req)
	full := WithVary(prefix, []string{"Accept-Encoding"}, req.Header)

	gotPrefix, vary := SplitVary(full)
	if gotPrefix != prefix {
		t.Fatalf("prefix mismatch: %s != %s", gotPrefix, prefix)
	}
	if vary.Get("accept-encoding") != "gzip" {
		t.Fatalf("expected accept-encoding=gzip, got %q", vary.Get("accept-encoding"))
	}
}
