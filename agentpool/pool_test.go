package agentpool_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/always-cache/gofetch/agentpool"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPoolReusesAgentForSameConfig(t *testing.T) {
	p := agentpool.NewPool()
	target := mustURL(t, "https://example.com/a")

	a1, err := p.Get(target, "", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)
	a2, err := p.Get(target, "", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
}

func TestPoolDistinguishesScheme(t *testing.T) {
	p := agentpool.NewPool()
	httpURL := mustURL(t, "http://example.com/a")
	httpsURL := mustURL(t, "https://example.com/a")

	a1, err := p.Get(httpURL, "", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)
	a2, err := p.Get(httpsURL, "", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
}

func TestPoolDistinguishesExplicitProxy(t *testing.T) {
	p := agentpool.NewPool()
	target := mustURL(t, "https://example.com/a")

	a1, err := p.Get(target, "http://proxy1:8080", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)
	a2, err := p.Get(target, "http://proxy2:8080", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
}

func TestPoolDistinguishesTLSMaterial(t *testing.T) {
	p := agentpool.NewPool()
	target := mustURL(t, "https://example.com/a")

	a1, err := p.Get(target, "", agentpool.TLSMaterial{}, 10)
	require.NoError(t, err)
	a2, err := p.Get(target, "", agentpool.TLSMaterial{CA: []byte("ca-pem")}, 10)
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
}

func TestOneShotDisablesKeepAlives(t *testing.T) {
	agent, err := agentpool.OneShot(nil, agentpool.TLSMaterial{})
	require.NoError(t, err)
	assert.True(t, agent.Transport.DisableKeepAlives)
}
