package agentpool

import (
	"container/list"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	defaultCapacity   = 50
	defaultMaxSockets = 15
)

// TLSMaterial is caller-supplied client certificate/CA material; the
// zero value means "use the system defaults".
type TLSMaterial struct {
	CA, Cert, Key []byte
}

func (m TLSMaterial) fingerprint() string {
	h := sha256.New()
	h.Write(m.CA)
	h.Write(m.Cert)
	h.Write(m.Key)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Agent is a pooled transport plus a semaphore capping its concurrent
// sockets, so one busy origin can't starve the process of file
// descriptors.
type Agent struct {
	Transport  *http.Transport
	MaxSockets *semaphore.Weighted
}

type agentKey struct {
	isHTTPS  bool
	proxy    string
	tls      string
	sockets  int
}

// Pool memoizes agents by (scheme, resolved proxy, TLS material,
// socket cap), evicting the least recently used entry once it exceeds
// its capacity. Grounded on net/http's own guidance that transports
// should be reused rather than created per request — this just extends
// that to "reused per distinct configuration" rather than one global
// singleton, since a fetch client fields requests to many origins with
// possibly different proxies/certs.
type Pool struct {
	mu       sync.Mutex
	capacity int
	entries  map[agentKey]*list.Element
	order    *list.List // front = most recently used
}

type poolEntry struct {
	key   agentKey
	agent *Agent
}

func NewPool() *Pool {
	return &Pool{
		capacity: defaultCapacity,
		entries:  make(map[agentKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns the agent for targetURL, building one if this is the
// first time this configuration has been seen. maxSockets <= 0 uses
// the default of 15.
func (p *Pool) Get(targetURL *url.URL, explicitProxy string, tlsMaterial TLSMaterial, maxSockets int) (*Agent, error) {
	if maxSockets <= 0 {
		maxSockets = defaultMaxSockets
	}
	proxyURL, err := ResolveProxy(targetURL, explicitProxy)
	if err != nil {
		return nil, err
	}
	key := agentKey{
		isHTTPS: targetURL.Scheme == "https",
		proxy:   proxyDescriptorFromURL(proxyURL),
		tls:     tlsMaterial.fingerprint(),
		sockets: maxSockets,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.entries[key]; ok {
		p.order.MoveToFront(el)
		return el.Value.(*poolEntry).agent, nil
	}

	agent, err := buildAgent(proxyURL, tlsMaterial, maxSockets)
	if err != nil {
		return nil, err
	}
	el := p.order.PushFront(&poolEntry{key: key, agent: agent})
	p.entries[key] = el

	if p.order.Len() > p.capacity {
		oldest := p.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*poolEntry)
			evicted.agent.Transport.CloseIdleConnections()
			delete(p.entries, evicted.key)
			p.order.Remove(oldest)
		}
	}
	return agent, nil
}

func proxyDescriptorFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func buildAgent(proxyURL *url.URL, tlsMaterial TLSMaterial, maxSockets int) (*Agent, error) {
	transport := &http.Transport{
		Proxy: http.ProxyURL(proxyURL),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        maxSockets,
		MaxIdleConnsPerHost: maxSockets,
		MaxConnsPerHost:     maxSockets,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxyURL == nil {
		transport.Proxy = nil
	}

	if len(tlsMaterial.CA) > 0 || len(tlsMaterial.Cert) > 0 {
		tlsConfig := &tls.Config{}
		if len(tlsMaterial.CA) > 0 {
			pool := x509.NewCertPool()
			pool.AppendCertsFromPEM(tlsMaterial.CA)
			tlsConfig.RootCAs = pool
		}
		if len(tlsMaterial.Cert) > 0 && len(tlsMaterial.Key) > 0 {
			cert, err := tls.X509KeyPair(tlsMaterial.Cert, tlsMaterial.Key)
			if err != nil {
				return nil, err
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &Agent{
		Transport:  transport,
		MaxSockets: semaphore.NewWeighted(int64(maxSockets)),
	}, nil
}

// OneShot builds a transport dedicated to a single request: no pooling,
// connection closed after use.
func OneShot(proxyURL *url.URL, tlsMaterial TLSMaterial) (*Agent, error) {
	agent, err := buildAgent(proxyURL, tlsMaterial, 1)
	if err != nil {
		return nil, err
	}
	agent.Transport.DisableKeepAlives = true
	return agent, nil
}
