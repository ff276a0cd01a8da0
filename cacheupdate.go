package gofetch

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/always-cache/gofetch/cachekey"
	"github.com/always-cache/gofetch/rfc7234"
	"github.com/always-cache/gofetch/store"
)

var delayDirective = regexp.MustCompile(`(?i)\bdelay=(\d+)`)

// cacheUpdate is one entry parsed from a Cache-Update response header:
// an origin-named path to invalidate, and an optional delay before
// doing so. Adapted from the teacher's pkg/cache-update, which fetched
// the named path itself to refresh a reverse proxy's cache; a client
// library that doesn't own the next request just drops the stale
// entry instead, so the following Fetch call re-populates it.
type cacheUpdate struct {
	path  string
	delay time.Duration
}

// parseCacheUpdates reads every Cache-Update header value on res, per
// req's method eligibility (only unsafe requests invalidate).
func parseCacheUpdates(req *http.Request, res *Response) []cacheUpdate {
	if !rfc7234.Unsafe(req.Method) {
		return nil
	}
	values := res.Header.Values("Cache-Update")
	if len(values) == 0 {
		return nil
	}
	updates := make([]cacheUpdate, 0, len(values))
	for _, v := range values {
		path := strings.Split(v, ";")[0]
		resolved := req.URL.ResolveReference(&url.URL{Path: path})
		updates = append(updates, cacheUpdate{path: resolved.Path, delay: cacheUpdateDelay(v)})
	}
	return updates
}

func cacheUpdateDelay(directive string) time.Duration {
	matches := delayDirective.FindStringSubmatch(directive)
	if matches == nil {
		return 0
	}
	seconds, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// applyCacheUpdates invalidates each named path's cache entry, honoring
// Delay via time.AfterFunc for entries that ask for one.
func applyCacheUpdates(c *Client, req *http.Request, provider store.Provider, updates []cacheUpdate) {
	for _, u := range updates {
		target := *req.URL
		target.Path = u.path
		target.RawQuery = ""
		key := cachekey.Fingerprint(&http.Request{Method: http.MethodGet, URL: &target})
		if u.delay <= 0 {
			c.deleteKey(provider, key)
			continue
		}
		delay, provider, key := u.delay, provider, key
		time.AfterFunc(delay, func() {
			c.deleteKey(provider, key)
		})
	}
}

func (c *Client) deleteKey(provider store.Provider, key string) {
	if delErr := provider.Delete(context.Background(), key); delErr != nil {
		c.log.Debug().Err(delErr).Str("key", key).Msg("cache-update invalidation failed")
	}
}
