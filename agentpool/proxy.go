// Package agentpool memoizes *http.Transport instances ("agents") so
// repeated requests to the same origin, through the same proxy and TLS
// material, reuse pooled connections instead of dialing fresh ones.
//
// Grounded on the re-exported net/http Transport/ProxyFromEnvironment
// shape shown in other_examples/bruno-anjos-archimedesHTTP__transport.go
// ("Transports should be reused instead of created as needed... safe
// for concurrent use"), generalized from "one process-wide transport"
// to "one transport per distinct (scheme, proxy, TLS material) tuple".
package agentpool

import (
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/http/httpproxy"
)

// lookupEnv checks a variable under its name as given, then upper-
// cased, then lower-cased — some platforms only set one casing and a
// strict single-case lookup would silently miss a configured proxy.
func lookupEnv(name string) string {
	for _, candidate := range []string{name, strings.ToUpper(name), strings.ToLower(name)} {
		if v, ok := os.LookupEnv(candidate); ok {
			return v
		}
	}
	return ""
}

// ResolveProxy picks the proxy URL for a request, given an explicit
// override (empty string means "none configured").
//
// Precedence: an explicit override always wins; otherwise https_proxy
// applies regardless of the target's scheme (a forward proxy reached
// over CONNECT can carry plain HTTP traffic too), and http_proxy is
// only consulted as a fallback for http:// targets. NO_PROXY is
// honored in both cases.
func ResolveProxy(targetURL *url.URL, explicit string) (*url.URL, error) {
	if explicit != "" {
		return url.Parse(explicit)
	}
	noProxy := lookupEnv("no_proxy")

	if https := lookupEnv("https_proxy"); https != "" {
		cfg := &httpproxy.Config{HTTPProxy: https, HTTPSProxy: https, NoProxy: noProxy}
		if u, err := cfg.ProxyFunc()(targetURL); err != nil || u != nil {
			return u, err
		}
	}
	if targetURL.Scheme == "http" {
		if http := lookupEnv("http_proxy"); http != "" {
			cfg := &httpproxy.Config{HTTPProxy: http, NoProxy: noProxy}
			return cfg.ProxyFunc()(targetURL)
		}
	}
	return nil, nil
}
