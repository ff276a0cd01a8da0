package gofetch

import "context"

// BoundFetch is a fetch function with a base URL and/or base Options
// pre-bound, as returned by Client.Defaults (§4.9). Per-call arguments
// win on collision with the bound defaults; a missing per-call URL
// falls back to the bound one.
type BoundFetch struct {
	client   *Client
	baseURL  string
	baseOpts *Options
}

// Defaults pre-binds a base URL and/or option set. Calling Fetch on the
// result merges each call's (url, opts) against these bindings.
func (c *Client) Defaults(baseURL string, baseOpts *Options) *BoundFetch {
	return &BoundFetch{client: c, baseURL: baseURL, baseOpts: baseOpts}
}

// Fetch performs a call through the bound defaults.
func (b *BoundFetch) Fetch(ctx context.Context, rawURL string, opts *Options) (*Response, error) {
	if rawURL == "" {
		rawURL = b.baseURL
	}
	return b.client.Fetch(ctx, rawURL, mergeOptions(b.baseOpts, opts))
}

// Defaults layers a further binding on top of this one, so wrappers
// compose: the result's base URL/options win over this one's, which in
// turn win over nothing (there's no third layer below the client).
func (b *BoundFetch) Defaults(baseURL string, baseOpts *Options) *BoundFetch {
	if baseURL == "" {
		baseURL = b.baseURL
	}
	return &BoundFetch{client: b.client, baseURL: baseURL, baseOpts: mergeOptions(b.baseOpts, baseOpts)}
}

// defaultClient backs the package-level Fetch/Defaults convenience
// functions, analogous to net/http's DefaultClient.
var defaultClient = NewClient()

// Fetch is Client.Fetch on the package-level default client.
func Fetch(ctx context.Context, rawURL string, opts *Options) (*Response, error) {
	return defaultClient.Fetch(ctx, rawURL, opts)
}

// Defaults is Client.Defaults on the package-level default client.
func Defaults(baseURL string, baseOpts *Options) *BoundFetch {
	return defaultClient.Defaults(baseURL, baseOpts)
}
