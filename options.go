package gofetch

import (
	"net/http"
	"time"

	"github.com/always-cache/gofetch/store"
)

// CacheMode selects how a request's cache-mode state machine behaves.
// § spec 4.8
type CacheMode string

const (
	CacheDefault       CacheMode = "default"
	CacheNoStore       CacheMode = "no-store"
	CacheReload        CacheMode = "reload"
	CacheNoCache       CacheMode = "no-cache"
	CacheForceCache    CacheMode = "force-cache"
	CacheOnlyIfCached  CacheMode = "only-if-cached"
)

// RetryOptions configures the retry engine (§4.4). Retries: 0 disables
// retry entirely.
type RetryOptions struct {
	Retries     int
	Factor      float64
	MinTimeout  time.Duration
	MaxTimeout  time.Duration
	Randomize   bool
}

// DefaultRetryOptions mirrors common exponential-backoff defaults: a
// handful of retries, doubling delay, randomized to avoid thundering
// herds.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		Retries:    3,
		Factor:     2,
		MinTimeout: time.Second,
		MaxTimeout: 30 * time.Second,
		Randomize:  true,
	}
}

// IntegrityOptions carries caller-supplied subresource-integrity
// metadata: an algorithm and one or more acceptable base64 digests.
// The check runs on a network response that is being written to the
// cache: if its digest under the named algorithm is not in Digests,
// reading its body ends with a *BadChecksumError and nothing is stored.
// Responses served from the cache and network responses that are not
// stored are not checked, nor is any response when store.NewHash does
// not support Algorithm.
type IntegrityOptions struct {
	Algorithm string
	Digests   []string
}

// AgentMode selects how a request picks its transport/connection agent.
type AgentMode int

const (
	// AgentAuto lets the agent pool pick (or build) a pooled transport.
	AgentAuto AgentMode = iota
	// AgentOneShot disables pooling: one connection, Connection: close.
	AgentOneShot
	// AgentExplicit short-circuits the pool entirely with a caller-supplied transport.
	AgentExplicit
)

// Options configures a single Fetch call. The zero value is valid and
// means "no caching, auto transport, no retry override".
// § spec §3 Options
type Options struct {
	// CacheManager is a store handle to use for this request. If nil and
	// CacheManagerPath is empty, caching is disabled for the request.
	CacheManager store.Provider
	// CacheManagerPath, if set and CacheManager is nil, opens (or reuses)
	// the default disk store rooted at this filesystem path.
	CacheManagerPath string

	// Cache selects the cache-mode state machine behavior. Defaults to
	// CacheDefault when a cache manager is configured.
	Cache CacheMode

	Integrity *IntegrityOptions

	// Retry is nil to use DefaultRetryOptions, or an explicit policy.
	// A policy with Retries == 0 disables retry.
	Retry *RetryOptions

	// Timeout bounds a single attempt's wall-clock duration.
	Timeout time.Duration

	// Proxy explicitly overrides proxy resolution (§4.5). Empty string
	// means resolve from environment.
	Proxy string

	AgentMode AgentMode
	// Agent is the caller-supplied transport used when AgentMode is
	// AgentExplicit.
	Agent http.RoundTripper

	CA, Cert, Key []byte
	MaxSockets    int

	Headers  http.Header
	Method   string
	Body     BodySource
	Redirect string
	Follow   int
	Compress bool
	Size     int64

	// Rules overrides or supplies Cache-Control (and extra headers) on
	// 200 responses matching a request shape, for origins that send no
	// caching headers at all or the wrong ones. First match wins.
	Rules Rules
}

func (o *Options) cacheMode() CacheMode {
	if o == nil || o.Cache == "" {
		return CacheDefault
	}
	return o.Cache
}

func (o *Options) retryOptions() RetryOptions {
	if o == nil || o.Retry == nil {
		return DefaultRetryOptions()
	}
	return *o.Retry
}

// cacheProvider resolves which store (if any) this call uses. Per the
// zero-value contract above, a call with no CacheManager and no
// CacheManagerPath has caching disabled entirely — it does not fall
// back to any client-wide default. A caller that wants to share one
// store across calls passes Client.DefaultStore() (or its own handle)
// as CacheManager explicitly.
func (o *Options) cacheProvider(c *Client) store.Provider {
	if o != nil && o.CacheManager != nil {
		return o.CacheManager
	}
	if o != nil && o.CacheManagerPath != "" {
		return c.diskStoreFor(o.CacheManagerPath)
	}
	return nil
}

// merge layers override on top of base, per call wins on collision
// (§4.9 defaults wrapper semantics). Either argument may be nil.
func mergeOptions(base, override *Options) *Options {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	merged := *base
	if override.CacheManager != nil {
		merged.CacheManager = override.CacheManager
	}
	if override.CacheManagerPath != "" {
		merged.CacheManagerPath = override.CacheManagerPath
	}
	if override.Cache != "" {
		merged.Cache = override.Cache
	}
	if override.Integrity != nil {
		merged.Integrity = override.Integrity
	}
	if override.Retry != nil {
		merged.Retry = override.Retry
	}
	if override.Timeout != 0 {
		merged.Timeout = override.Timeout
	}
	if override.Proxy != "" {
		merged.Proxy = override.Proxy
	}
	if override.AgentMode != AgentAuto {
		merged.AgentMode = override.AgentMode
		merged.Agent = override.Agent
	}
	if override.CA != nil {
		merged.CA = override.CA
	}
	if override.Cert != nil {
		merged.Cert = override.Cert
	}
	if override.Key != nil {
		merged.Key = override.Key
	}
	if override.MaxSockets != 0 {
		merged.MaxSockets = override.MaxSockets
	}
	if override.Headers != nil {
		h := make(http.Header, len(merged.Headers)+len(override.Headers))
		for k, v := range merged.Headers {
			h[k] = v
		}
		for k, v := range override.Headers {
			h[k] = v
		}
		merged.Headers = h
	}
	if override.Method != "" {
		merged.Method = override.Method
	}
	if override.Body != nil {
		merged.Body = override.Body
	}
	if override.Redirect != "" {
		merged.Redirect = override.Redirect
	}
	if override.Follow != 0 {
		merged.Follow = override.Follow
	}
	if override.Compress {
		merged.Compress = override.Compress
	}
	if override.Size != 0 {
		merged.Size = override.Size
	}
	if override.Rules != nil {
		merged.Rules = override.Rules
	}
	return &merged
}
