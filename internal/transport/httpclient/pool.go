package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config bounds the shared outbound connection pool.
type Config struct {
	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Pool owns the single long-lived HTTP client used for every upstream call
// (language-model provider and web search). It is safe for concurrent use.
type Pool struct {
	transport *http.Transport
	client    *http.Client
}

// New creates the shared pool. Per-call deadlines come from the caller's
// context, so the client itself has no global timeout.
func New(cfg Config) *Pool {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Pool{
		transport: t,
		client:    &http.Client{Transport: t},
	}
}

// Client returns the shared client.
func (p *Pool) Client() *http.Client { return p.client }

// Close releases idle connections. In-flight requests are not interrupted.
func (p *Pool) Close() {
	p.transport.CloseIdleConnections()
}
