package gofetch

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustRequest(method, rawURL string) *http.Request {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return &http.Request{Method: method, URL: u}
}

func TestRulesApplyDefaultOnlyWhenOriginSentNone(t *testing.T) {
	rules := Rules{{Prefix: "/static/", Default: "max-age=3600"}}
	req := mustRequest(http.MethodGet, "https://example.com/static/app.js")

	header := http.Header{}
	rules.apply(req, http.StatusOK, header)
	assert.Equal(t, "max-age=3600", header.Get("Cache-Control"))

	header = http.Header{"Cache-Control": []string{"no-store"}}
	rules.apply(req, http.StatusOK, header)
	assert.Equal(t, "no-store", header.Get("Cache-Control"), "default must not clobber an origin-set value")
}

func TestRulesApplyOverrideAlwaysWins(t *testing.T) {
	rules := Rules{{Path: "/api/status", Override: "no-store"}}
	req := mustRequest(http.MethodGet, "https://example.com/api/status")

	header := http.Header{"Cache-Control": []string{"max-age=600"}}
	rules.apply(req, http.StatusOK, header)
	assert.Equal(t, "no-store", header.Get("Cache-Control"))
}

func TestRulesApplySkipsNonOKStatus(t *testing.T) {
	rules := Rules{{Prefix: "/static/", Override: "max-age=3600"}}
	req := mustRequest(http.MethodGet, "https://example.com/static/app.js")

	header := http.Header{}
	rules.apply(req, http.StatusNotFound, header)
	assert.Empty(t, header.Get("Cache-Control"))
}

func TestRulesApplyInjectsExtraHeaders(t *testing.T) {
	rules := Rules{{Prefix: "/", Headers: map[string]string{"X-Served-By": "gofetch"}}}
	req := mustRequest(http.MethodGet, "https://example.com/anything")

	header := http.Header{}
	rules.apply(req, http.StatusOK, header)
	assert.Equal(t, "gofetch", header.Get("X-Served-By"))
}

func TestRulesFindMatchesOnQueryPresence(t *testing.T) {
	rules := Rules{{Path: "/search", Query: map[string]string{"debug": ""}, Override: "no-store"}}

	withDebug := mustRequest(http.MethodGet, "https://example.com/search?debug&q=x")
	assert.NotNil(t, rules.find(withDebug))

	withoutDebug := mustRequest(http.MethodGet, "https://example.com/search?q=x")
	assert.Nil(t, rules.find(withoutDebug))
}

func TestRulesFindSkipsNonGETByDefault(t *testing.T) {
	rules := Rules{{Prefix: "/", Override: "no-store"}}
	req := mustRequest(http.MethodPost, "https://example.com/anything")
	assert.Nil(t, rules.find(req))
}

func TestRulesFindHonorsExplicitMethod(t *testing.T) {
	rules := Rules{{Method: http.MethodPost, Prefix: "/", Override: "no-store"}}
	req := mustRequest(http.MethodPost, "https://example.com/anything")
	assert.NotNil(t, rules.find(req))
}

func TestRulesFindFirstMatchWins(t *testing.T) {
	rules := Rules{
		{Prefix: "/static/", Override: "max-age=60"},
		{Prefix: "/static/images/", Override: "max-age=86400"},
	}
	req := mustRequest(http.MethodGet, "https://example.com/static/images/logo.png")

	rule := rules.find(req)
	if assert.NotNil(t, rule) {
		assert.Equal(t, "max-age=60", rule.Override)
	}
}
