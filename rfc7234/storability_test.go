package rfc7234

import (
	"net/http"
	"testing"
)

func TestStorableRejectsNoStore(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	res := &http.Response{StatusCode: 200, Header: http.Header{"Cache-Control": {"no-store"}}}
	if Storable(req, res) {
		t.Fatal("expected no-store response to be unstorable")
	}
}

func TestStorableAcceptsMaxAge(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	res := &http.Response{StatusCode: 200, Header: http.Header{"Cache-Control": {"max-age=60"}}}
	if !Storable(req, res) {
		t.Fatal("expected max-age response to be storable")
	}
}

func TestStorableRejectsUnunderstoodMustUnderstandStatus(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com", nil)
	res := &http.Response{StatusCode: 599, Header: http.Header{"Cache-Control": {"max-age=60, must-understand"}}}
	if Storable(req, res) {
		t.Fatal("expected an unrecognized status with must-understand to be unstorable")
	}
}

func TestInvalidatesOnSuccessfulUnsafeMethod(t *testing.T) {
	if !Invalidates("POST", 200) {
		t.Fatal("expected POST 200 to invalidate")
	}
	if Invalidates("GET", 200) {
		t.Fatal("expected GET to never invalidate")
	}
	if Invalidates("POST", 500) {
		t.Fatal("expected error response to not invalidate")
	}
}
