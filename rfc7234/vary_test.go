package rfc7234

import (
	"net/http"
	"testing"
)

func TestVaryMatchesSameValue(t *testing.T) {
	stored := http.Header{"Accept-Encoding": {"gzip"}}
	incoming := http.Header{"Accept-Encoding": {"gzip"}}
	if !VaryMatches([]string{"Accept-Encoding"}, incoming, stored) {
		t.Fatal("expected matching Accept-Encoding to vary-match")
	}
}

func TestVaryMismatchDifferentValue(t *testing.T) {
	stored := http.Header{"Accept-Encoding": {"gzip"}}
	incoming := http.Header{"Accept-Encoding": {"br"}}
	if VaryMatches([]string{"Accept-Encoding"}, incoming, stored) {
		t.Fatal("expected differing Accept-Encoding to fail vary-match")
	}
}

func TestVaryStarNeverMatches(t *testing.T) {
	if VaryMatches([]string{"*"}, http.Header{}, http.Header{}) {
		t.Fatal("expected Vary: * to always fail to match")
	}
}
