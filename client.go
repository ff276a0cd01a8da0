// Package gofetch is a client-side HTTP fetch library fronted by an
// RFC 7234 compliant cache: callers ask for a URL, the cache decides
// whether a stored response can be served or must be validated or
// refetched, and the result streams back through the same tee that
// wrote it to the store.
//
// Control flow (inverted from the teacher's reverse-proxy model, which
// receives requests rather than originating them): Fetch → cache key →
// store lookup → cache-mode decision → either serve stored, or build
// conditional headers and run the retry engine → transport → streaming
// tee → store write → response.
package gofetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/always-cache/gofetch/agentpool"
	"github.com/always-cache/gofetch/cachekey"
	"github.com/always-cache/gofetch/retry"
	"github.com/always-cache/gofetch/rfc7234"
	"github.com/always-cache/gofetch/store"
	"github.com/always-cache/gofetch/tee"
)

// RequestIDHeader carries a per-Fetch-call correlation id (a random
// uuid), set on both the outgoing request and the returned response so
// a caller's own logs and this client's Debug-level logs can be tied
// together for one logical fetch, retries included.
const RequestIDHeader = "X-Request-Id"

// Response is what Fetch returns: a decoded status line, headers, and a
// lazily-read body. Body is always non-nil and must be closed by the
// caller, mirroring net/http.Response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	Attempts   int
}

// Client owns the process-wide state a fetch call needs: the
// connection-agent pool and the default (in-memory, unless a disk path
// is given per call) cache store. Per spec.md §9 ("prefer an explicit
// client object owning the pool"), this supersedes the teacher's
// package-level globals.
type Client struct {
	log          zerolog.Logger
	pool         *agentpool.Pool
	defaultStore store.Provider
	retryLimiter *rate.Limiter

	mu         sync.Mutex
	diskStores map[string]*store.DiskStore
}

// retryRate and retryBurst bound how often this client will re-attempt
// a failed request across ALL of its in-flight Fetch calls combined, so
// a herd of requests hitting the same failing origin backs off as a
// client rather than retrying in lockstep.
const (
	retryRate  = 20
	retryBurst = 5
)

// NewClient builds a Client with an in-memory default store and a fresh
// agent pool. Use Options.CacheManagerPath per call to open a disk
// store instead.
func NewClient() *Client {
	return &Client{
		log:          zerolog.New(zerolog.NewConsoleWriter()).With().Str("component", "gofetch").Logger(),
		pool:         agentpool.NewPool(),
		defaultStore: store.NewMemoryStore(),
		retryLimiter: rate.NewLimiter(rate.Limit(retryRate), retryBurst),
		diskStores:   make(map[string]*store.DiskStore),
	}
}

// DefaultStore returns the Client's built-in in-memory store, for
// callers that want one cache shared across several Fetch calls
// without managing their own store.Provider. Options.CacheManager is
// never populated with this implicitly — a call must opt in.
func (c *Client) DefaultStore() store.Provider {
	return c.defaultStore
}

// diskStoreFor opens (or reuses) the disk store rooted at dir. Disk
// stores are memoized by path for the lifetime of the Client so two
// calls naming the same directory share one set of open handles.
func (c *Client) diskStoreFor(dir string) store.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.diskStores[dir]; ok {
		return s
	}
	s, err := store.OpenDiskStore(dir)
	if err != nil {
		c.log.Error().Err(err).Str("dir", dir).Msg("could not open disk store, caching disabled for this path")
		return nil
	}
	c.diskStores[dir] = s
	return s
}

// Close releases any disk stores this client opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for _, s := range c.diskStores {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// conditionalHeaderNames are the request headers whose presence means
// the caller is doing its own validation (§4.8 additional rule).
var conditionalHeaderNames = []string{
	"If-Modified-Since", "If-None-Match", "If-Unmodified-Since", "If-Match", "If-Range",
}

func hasConditionalHeaders(h http.Header) bool {
	for _, name := range conditionalHeaderNames {
		if h.Get(name) != "" {
			return true
		}
	}
	return false
}

// Fetch performs a single cached/retried/pooled HTTP request. opts may
// be nil.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts *Options) (*Response, error) {
	req, err := buildRequest(ctx, methodOf(opts), rawURL, headerOf(opts), bodyOf(opts))
	if err != nil {
		return nil, err
	}

	mode := opts.cacheMode()
	if mode == CacheDefault && hasConditionalHeaders(req.Header) {
		mode = CacheNoStore
	}

	provider := opts.cacheProvider(c)

	if !isCacheableMethod(req.Method) {
		return c.fetchMutating(ctx, req, opts, provider)
	}

	switch mode {
	case CacheNoStore:
		return c.fetchForward(ctx, req, opts, nil, fwdBypass)
	case CacheReload:
		return c.fetchForward(ctx, req, opts, provider, fwdRequest)
	case CacheOnlyIfCached:
		entry, body, ok := c.lookup(ctx, req, provider)
		if !ok {
			return nil, &NotCachedError{URL: rawURL}
		}
		return c.serveStored(req, entry, body, nil, cacheStatus{hit: true}), nil
	case CacheForceCache:
		if entry, body, ok := c.lookup(ctx, req, provider); ok {
			return c.serveStored(req, entry, body, nil, cacheStatus{hit: true}), nil
		}
		return c.fetchForward(ctx, req, opts, provider, c.missReason(ctx, req, provider))
	case CacheNoCache:
		if entry, body, ok := c.lookup(ctx, req, provider); ok {
			return c.revalidate(ctx, req, opts, provider, entry, body)
		}
		return c.fetchForward(ctx, req, opts, provider, c.missReason(ctx, req, provider))
	default: // CacheDefault
		entry, body, ok := c.lookup(ctx, req, provider)
		if !ok {
			return c.fetchForward(ctx, req, opts, provider, c.missReason(ctx, req, provider))
		}
		now := time.Now()
		eval := rfc7234.Evaluate(req, entry.StatusCode, entry.Header, entry.ReqHeader, entry.Date, entry.RequestTime, entry.ResponseTime, now)
		switch eval.Action {
		case rfc7234.ActionReuse, rfc7234.ActionReuseStale:
			return c.serveStored(req, entry, body, &eval, cacheStatus{hit: true}), nil
		default: // ActionForward, ActionRevalidate
			return c.revalidate(ctx, req, opts, provider, entry, body)
		}
	}
}

// fetchForward runs fetchNetwork and stamps the resulting response with
// a forward-reason Cache-Status member (RFC 9211 §2.1), for the modes
// that go straight to the network without an intervening revalidation.
func (c *Client) fetchForward(ctx context.Context, req *http.Request, opts *Options, provider store.Provider, reason cacheStatusFwdReason) (*Response, error) {
	res, err := c.fetchNetwork(ctx, req, opts, provider)
	if err == nil {
		setCacheStatus(res.Header, cacheStatus{reason: reason})
	}
	return res, err
}

func hasVaryStar(varyNames []string) bool {
	for _, name := range varyNames {
		if name == "*" {
			return true
		}
	}
	return false
}

func isCacheableMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// fetchMutating handles non-GET/HEAD requests: always bypass the cache
// read, and invalidate any entry under this key once the response is
// known (§4.8: "Non-GET/HEAD requests ALWAYS skip cache lookup; on a
// successful response they invalidate the cached entry for that key").
func (c *Client) fetchMutating(ctx context.Context, req *http.Request, opts *Options, provider store.Provider) (*Response, error) {
	res, err := c.fetchNetwork(ctx, req, opts, nil)
	if err != nil {
		return res, err
	}
	setCacheStatus(res.Header, cacheStatus{reason: fwdMethod})
	if provider != nil && rfc7234.Invalidates(req.Method, res.StatusCode) {
		key := cachekey.Fingerprint(&http.Request{Method: http.MethodGet, URL: req.URL})
		if delErr := provider.Delete(ctx, key); delErr != nil {
			c.log.Debug().Err(delErr).Str("key", key).Msg("invalidation delete failed")
		}
		if updates := parseCacheUpdates(req, res); len(updates) > 0 {
			applyCacheUpdates(c, req, provider, updates)
		}
	}
	return res, nil
}

// lookup resolves a cache entry for req, honoring Vary via a two-phase
// base-key/variant-key scheme: the base key always holds the most
// recently written variant's metadata; if its Vary dimensions don't
// match the current request, a second lookup is made against the
// vary-qualified key for this specific combination (built with
// cachekey.WithVary from the Vary names the base entry declared).
func (c *Client) lookup(ctx context.Context, req *http.Request, provider store.Provider) (*store.Entry, io.ReadCloser, bool) {
	if provider == nil {
		return nil, nil, false
	}
	baseKey := cachekey.Fingerprint(req)
	entry, body, err := provider.Match(ctx, baseKey)
	if err != nil {
		return nil, nil, false
	}
	varyNames := rfc7234.VaryNames(entry.Header)
	if len(varyNames) == 0 {
		return entry, body, true
	}
	if rfc7234.VaryMatches(varyNames, req.Header, entry.ReqHeader) {
		return entry, body, true
	}
	body.Close()
	if hasVaryStar(varyNames) {
		// Vary: * never matches, and never resolves to a reusable
		// variant key either (the "*" member isn't a real header name,
		// so it wouldn't distinguish one request from another).
		return nil, nil, false
	}

	variantKey := cachekey.WithVary(baseKey, varyNames, req.Header)
	entry, body, err = provider.Match(ctx, variantKey)
	if err != nil {
		return nil, nil, false
	}
	return entry, body, true
}

// missReason distinguishes a cache miss with no base-key entry at all
// from one where an entry exists but its Vary dimensions ruled out
// reuse, for the Cache-Status fwd-reason parameter (RFC 9211 §2.3).
func (c *Client) missReason(ctx context.Context, req *http.Request, provider store.Provider) cacheStatusFwdReason {
	if provider == nil {
		return fwdURIMiss
	}
	baseKey := cachekey.Fingerprint(req)
	entry, body, err := provider.Match(ctx, baseKey)
	if err != nil {
		return fwdURIMiss
	}
	body.Close()
	varyNames := rfc7234.VaryNames(entry.Header)
	if len(varyNames) == 0 || hasVaryStar(varyNames) {
		return fwdURIMiss
	}
	return fwdVaryMiss
}

// serveStored turns a stored entry into a Response, stripping any 1xx
// Warning the stored entry carried (§4.8: stripped on every served
// hit), adding the Age header, and — when eval reports one — the
// matching Warning (110 for a stale reuse, 113 when heuristic
// freshness was used), appended only if no Warning is already present.
// For a HEAD request the body is elided regardless of what's stored
// (§4.1: HEAD shares a GET's key but not its body).
func (c *Client) serveStored(req *http.Request, entry *store.Entry, body io.ReadCloser, eval *rfc7234.Evaluation, status cacheStatus) *Response {
	header := entry.Header.Clone()
	rfc7234.StripWarning1xx(header)

	now := time.Now()
	age := rfc7234.CurrentAge(entry.Header, entry.Date, entry.RequestTime, entry.ResponseTime, now)
	header.Set("Age", rfc7234.FormatAge(age))

	if eval != nil && eval.WarningCode != 0 && len(header.Values("Warning")) == 0 {
		rfc7234.AddWarning(header, eval.WarningCode, "gofetch")
	}

	setCacheStatus(header, status)
	header.Set("X-Local-Cache-Key", url.QueryEscape(cachekey.Fingerprint(req)))
	header.Set("X-Local-Cache-Hash", entry.Digest)
	header.Set("X-Local-Cache-Time", entry.ResponseTime.UTC().Format(time.RFC3339))

	respBody := body
	if req.Method == http.MethodHead {
		if body != nil {
			body.Close()
		}
		respBody = http.NoBody
	}
	if respBody == nil {
		respBody = http.NoBody
	}

	return &Response{StatusCode: entry.StatusCode, Header: header, Body: respBody}
}

// revalidate issues a conditional request against the stored entry and
// applies the 304-merge / stale-on-error rules of §4.6.
func (c *Client) revalidate(ctx context.Context, req *http.Request, opts *Options, provider store.Provider, entry *store.Entry, storedBody io.ReadCloser) (*Response, error) {
	condReq := req.Clone(ctx)
	rfc7234.AddConditionalHeaders(condReq, entry.Header)

	mustRevalidate := rfc7234.ParseCacheControl(entry.Header.Values("Cache-Control")).MustRevalidate()

	res, err := c.fetchNetwork(ctx, condReq, opts, nil)
	if err != nil {
		if mustRevalidate {
			storedBody.Close()
			return nil, err
		}
		return c.staleOnError(req, entry, storedBody, err.Error()), nil
	}

	if res.StatusCode == http.StatusNotModified {
		res.Body.Close()
		merged := rfc7234.MergeNotModified(entry.Header, res.Header)
		rfc7234.StripWarning1xx(merged)

		newEntry := *entry
		newEntry.Header = merged
		now := time.Now()
		newEntry.Date = now
		newEntry.ResponseTime = now

		revalidated := cacheStatus{reason: fwdStale}
		var resp *Response
		if provider == nil {
			storedBody.Close()
			resp = c.serveStored(req, &newEntry, http.NoBody, nil, revalidated)
		} else {
			c.writeReusingBody(ctx, req, provider, &newEntry, storedBody)
			resp = c.serveStored(req, &newEntry, reopenBody(ctx, provider, req), nil, revalidated)
		}
		// serveStored strips 1xx warnings, so the 110 is added afterwards.
		rfc7234.AddWarning(resp.Header, rfc7234.WarnResponseIsStale, "gofetch")
		return resp, nil
	}

	if (res.StatusCode >= 500 && res.StatusCode <= 599) && !mustRevalidate {
		res.Body.Close()
		return c.staleOnError(req, entry, storedBody, fmt.Sprintf("status %d", res.StatusCode)), nil
	}

	storedBody.Close()
	fresh, ferr := c.cacheIfStorable(ctx, req, res, provider, opts)
	if ferr == nil {
		setCacheStatus(fresh.Header, cacheStatus{reason: fwdStale})
	}
	return fresh, ferr
}

// staleOnError implements the stale-on-error fallback (§4.6): the
// failed revalidation is dropped and the stored response — still
// holding body — is returned, marked with a 111 Warning.
func (c *Client) staleOnError(req *http.Request, entry *store.Entry, body io.ReadCloser, detail string) *Response {
	c.log.Debug().Str("url", req.URL.String()).Str("reason", detail).Msg("revalidation failed, serving stale entry")
	resp := c.serveStored(req, entry, body, nil, cacheStatus{hit: true, detail: "stale-on-error"})
	rfc7234.AddWarning(resp.Header, rfc7234.WarnRevalidationFailed, "gofetch")
	return resp
}

// writeReusingBody persists newEntry reusing an already-known body (a
// 304 merge has no network body to write): the previously stored
// content stream is re-attached under the new metadata instead of
// being rewritten from scratch, preserving the original digest/size.
func (c *Client) writeReusingBody(ctx context.Context, req *http.Request, provider store.Provider, entry *store.Entry, body io.ReadCloser) {
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		c.log.Debug().Err(err).Msg("could not read stored body for metadata refresh")
		return
	}
	key := cachekey.Fingerprint(req)
	if err := provider.Put(ctx, key, entry, bytes.NewReader(raw)); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("metadata refresh write failed")
		return
	}
	if varyNames := rfc7234.VaryNames(entry.Header); len(varyNames) > 0 && !hasVaryStar(varyNames) {
		variantKey := cachekey.WithVary(key, varyNames, req.Header)
		_ = provider.Put(ctx, variantKey, entry, bytes.NewReader(raw))
	}
}

// reopenBody re-reads the entry just written under req's key, so the
// response handed back to the caller has a fresh, independently
// readable body (the one writeReusingBody consumed is already spent).
func reopenBody(ctx context.Context, provider store.Provider, req *http.Request) io.ReadCloser {
	_, body, err := provider.Match(ctx, cachekey.Fingerprint(req))
	if err != nil {
		return http.NoBody
	}
	return body
}

// fetchNetwork runs one logical (possibly retried) fetch to the
// origin, then — if a provider is given and the response is storable —
// tees the body into the cache on the way back to the caller.
func (c *Client) fetchNetwork(ctx context.Context, req *http.Request, opts *Options, provider store.Provider) (*Response, error) {
	policy := c.retryPolicyOf(opts)
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	log := c.log.With().Str("request_id", reqID).Logger()

	roundTripper, err := c.agentFor(req.URL, opts)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var lastRes *http.Response
	var lastErr error
	var lastCancel context.CancelFunc
	attempt := 0
	for {
		attempt++
		attemptReq := req
		if attempt > 1 {
			log.Debug().Int("attempt", attempt).Msg("retrying request")
			attemptReq = req.Clone(ctx)
			if req.GetBody != nil {
				rc, berr := req.GetBody()
				if berr != nil {
					return nil, berr
				}
				attemptReq.Body = rc
			}
		}

		// A per-attempt timeout bounds only the attempt's own socket I/O
		// (§4.4). The cancel func travels with the response: on success
		// it's deferred until the caller closes the body, since canceling
		// here would also abort an in-flight streaming read.
		var attemptCancel context.CancelFunc = func() {}
		if opts != nil && opts.Timeout > 0 {
			var attemptCtx context.Context
			attemptCtx, attemptCancel = context.WithTimeout(attemptReq.Context(), opts.Timeout)
			attemptReq = attemptReq.WithContext(attemptCtx)
		}

		lastRes, lastErr = roundTripper.RoundTrip(attemptReq)
		if lastErr != nil {
			// Classify before the retriable check runs, not after the loop
			// exits — a *url.Error wrapping ECONNRESET/ECONNREFUSED/
			// EADDRINUSE/ETIMEDOUT only retries if it's already a coded
			// TransportError by the time retry.RetriableError sees it.
			if attemptReq.Context().Err() == context.DeadlineExceeded {
				lastErr = &TimeoutError{URL: req.URL.String()}
			} else {
				lastErr = classifyTransportError(lastErr)
			}
		}

		retriableOutcome := false
		if lastErr == nil && retry.RetriableStatus(lastRes.StatusCode) {
			retriableOutcome = true
		}
		if lastErr != nil && retry.RetriableError(lastErr) {
			retriableOutcome = true
		}
		if !retriableOutcome || !retry.Retriable(req.Method, rewindable(req)) || attempt > policy.Retries {
			lastCancel = attemptCancel
			break
		}
		if lastRes != nil {
			lastRes.Body.Close()
		}
		attemptCancel()
		if werr := policy.Wait(ctx, attempt); werr != nil {
			return nil, werr
		}
	}

	if lastErr != nil {
		lastCancel()
		return nil, lastErr
	}
	retry.SetAttempts(lastRes.Header, attempt)

	body := io.ReadCloser(lastRes.Body)
	if lastCancel != nil {
		body = &cancelOnCloseBody{ReadCloser: body, cancel: lastCancel}
	}
	res := &Response{StatusCode: lastRes.StatusCode, Header: lastRes.Header, Body: body, Attempts: attempt}
	res.Header.Set(RequestIDHeader, reqID)
	if opts != nil && opts.Rules != nil {
		opts.Rules.apply(req, res.StatusCode, res.Header)
	}
	if provider == nil {
		return res, nil
	}
	return c.cacheIfStorable(ctx, req, res, provider, opts)
}

// cacheIfStorable wraps res.Body in a Tee that writes to provider iff
// the response passes rfc7234.Storable, swapping res.Body for the tee
// output (§4.3 put: "return the modified response whose body is the
// tee output, not the original").
func (c *Client) cacheIfStorable(ctx context.Context, req *http.Request, res *Response, provider store.Provider, opts *Options) (*Response, error) {
	fakeRes := &http.Response{StatusCode: res.StatusCode, Header: res.Header}
	if provider == nil || !rfc7234.Storable(req, fakeRes) {
		return res, nil
	}

	now := time.Now()
	entry := &store.Entry{
		StatusCode:   res.StatusCode,
		Header:       res.Header.Clone(),
		ReqHeader:    req.Header.Clone(),
		Date:         now,
		RequestTime:  now,
		ResponseTime: now,
		Algorithm:    store.AlgoSHA256,
	}

	writer := &storeCacheWriter{
		provider: provider,
		ctx:      ctx,
		req:      req,
		key:      cachekey.Fingerprint(req),
		entry:    entry,
		digest:   sha256.New(),
	}

	var verifier hash.Hash
	if opts != nil && opts.Integrity != nil && len(opts.Integrity.Digests) > 0 {
		h, herr := store.NewHash(opts.Integrity.Algorithm)
		if herr == nil {
			verifier = h
			writer.integrityAlgo = opts.Integrity.Algorithm
			writer.integrityWanted = opts.Integrity.Digests
		}
	}
	writer.verifier = verifier

	t := tee.New(res.Body, writer.open, writer.verifier)
	res.Body = t
	return res, nil
}

// maxMemSize is the §4.3/§4.7 MAX_MEM_SIZE threshold (I5): bodies up to
// this size are buffered in memory; larger bodies spool to a temp file
// on disk as they're written, so a single large response body is never
// held in memory twice over (once in the http.Response, once in the
// cache writer).
const maxMemSize = 5 * 1024 * 1024

// storeCacheWriter is the cache branch of a Tee: it buffers the body in
// memory up to maxMemSize, spilling to a temp file past that threshold
// (I5), computes the storage digest incrementally so it's always the
// true digest of exactly what was written (I1), and checks any
// caller-supplied integrity digest before committing the write.
type storeCacheWriter struct {
	provider store.Provider
	ctx      context.Context
	req      *http.Request
	key      string
	entry    *store.Entry
	buf      bytes.Buffer
	spill    *os.File
	size     int64
	digest   hash.Hash
	verifier hash.Hash

	integrityAlgo   string
	integrityWanted []string
}

func (w *storeCacheWriter) open() (tee.CacheWriter, error) {
	return w, nil
}

func (w *storeCacheWriter) Write(p []byte) (int, error) {
	w.digest.Write(p)
	w.size += int64(len(p))

	if w.spill != nil {
		return w.spill.Write(p)
	}
	if int64(w.buf.Len())+int64(len(p)) <= maxMemSize {
		return w.buf.Write(p)
	}

	// crossing the threshold mid-write: move what's buffered onto disk
	// and keep streaming the rest there.
	f, err := os.CreateTemp("", "gofetch-cache-*")
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(w.buf.Bytes()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return 0, err
	}
	w.buf.Reset()
	w.spill = f
	return w.spill.Write(p)
}

func (w *storeCacheWriter) Close() error {
	if w.spill != nil {
		defer os.Remove(w.spill.Name())
		defer w.spill.Close()
	}

	if w.verifier != nil && len(w.integrityWanted) > 0 {
		got := base64.StdEncoding.EncodeToString(w.verifier.Sum(nil))
		if !store.MatchesAny(got, w.integrityWanted) {
			return &BadChecksumError{URL: w.req.URL.String(), Algorithm: w.integrityAlgo, Wanted: fmt.Sprint(w.integrityWanted), Got: got}
		}
	}
	w.entry.Digest = base64.StdEncoding.EncodeToString(w.digest.Sum(nil))
	w.entry.Size = w.size

	body, err := w.bodyReader()
	if err != nil {
		return err
	}
	if err := w.provider.Put(w.ctx, w.key, w.entry, body); err != nil {
		return err
	}
	if varyNames := rfc7234.VaryNames(w.entry.Header); len(varyNames) > 0 && !hasVaryStar(varyNames) {
		body, err := w.bodyReader()
		if err != nil {
			return err
		}
		variantKey := cachekey.WithVary(w.key, varyNames, w.req.Header)
		return w.provider.Put(w.ctx, variantKey, w.entry, body)
	}
	return nil
}

// bodyReader returns a fresh reader over the full written body, rewound
// to the start each time it's called so the base-key and Vary-variant
// Put calls can both read it from the beginning.
func (w *storeCacheWriter) bodyReader() (io.Reader, error) {
	if w.spill == nil {
		return bytes.NewReader(w.buf.Bytes()), nil
	}
	if _, err := w.spill.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return w.spill, nil
}

// agentFor resolves the http.RoundTripper a request should use: the
// caller's own transport when AgentMode is AgentExplicit (the pool is
// short-circuited entirely, per spec.md §4.5), a dedicated one-shot
// transport when AgentOneShot, or a pooled, memoized transport
// otherwise.
func (c *Client) agentFor(target *url.URL, opts *Options) (http.RoundTripper, error) {
	if opts != nil && opts.AgentMode == AgentExplicit && opts.Agent != nil {
		return opts.Agent, nil
	}
	tlsMat := agentpool.TLSMaterial{}
	maxSockets := 0
	proxy := ""
	if opts != nil {
		tlsMat = agentpool.TLSMaterial{CA: opts.CA, Cert: opts.Cert, Key: opts.Key}
		maxSockets = opts.MaxSockets
		proxy = opts.Proxy
	}
	if opts != nil && opts.AgentMode == AgentOneShot {
		proxyURL, err := agentpool.ResolveProxy(target, proxy)
		if err != nil {
			return nil, err
		}
		agent, err := agentpool.OneShot(proxyURL, tlsMat)
		if err != nil {
			return nil, err
		}
		return agent.Transport, nil
	}
	agent, err := c.pool.Get(target, proxy, tlsMat, maxSockets)
	if err != nil {
		return nil, err
	}
	return agent.Transport, nil
}

// cancelOnCloseBody releases a per-attempt timeout context once the
// caller (or the tee reading on its behalf) closes the response body,
// rather than the instant the attempt's RoundTrip call returns.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (c *Client) retryPolicyOf(opts *Options) retry.Policy {
	ro := opts.retryOptions()
	return retry.Policy{
		Retries:    ro.Retries,
		Factor:     ro.Factor,
		MinTimeout: ro.MinTimeout,
		MaxTimeout: ro.MaxTimeout,
		Randomize:  ro.Randomize,
		Limiter:    c.retryLimiter,
	}
}

func methodOf(opts *Options) string {
	if opts != nil && opts.Method != "" {
		return opts.Method
	}
	return http.MethodGet
}

func headerOf(opts *Options) http.Header {
	if opts == nil {
		return nil
	}
	return opts.Headers
}

func bodyOf(opts *Options) BodySource {
	if opts == nil {
		return nil
	}
	return opts.Body
}
