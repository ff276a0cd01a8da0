package rfc7234

import (
	"net/http"
	"testing"
)

func TestAddConditionalHeadersPrefersETag(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	stored := http.Header{"Etag": {`"abc"`}, "Last-Modified": {"Mon, 02 Jan 2006 15:04:05 GMT"}}
	AddConditionalHeaders(req, stored)
	if req.Header.Get("If-None-Match") != `"abc"` {
		t.Fatalf("expected If-None-Match set, got %q", req.Header.Get("If-None-Match"))
	}
	if req.Header.Get("If-Modified-Since") == "" {
		t.Fatal("expected If-Modified-Since to also be set")
	}
}

func TestMergeNotModifiedKeepsContentLength(t *testing.T) {
	stored := http.Header{"Content-Length": {"1024"}, "X-Custom": {"old"}}
	notModified := http.Header{"Content-Length": {"0"}, "X-Custom": {"new"}, "ETag": {`"v2"`}}
	merged := MergeNotModified(stored, notModified)
	if merged.Get("Content-Length") != "1024" {
		t.Fatalf("expected Content-Length preserved, got %q", merged.Get("Content-Length"))
	}
	if merged.Get("X-Custom") != "new" {
		t.Fatalf("expected X-Custom updated, got %q", merged.Get("X-Custom"))
	}
	if merged.Get("ETag") != `"v2"` {
		t.Fatalf("expected ETag updated, got %q", merged.Get("ETag"))
	}
}
