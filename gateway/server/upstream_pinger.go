package server

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"code.cloudfoundry.org/lager/v3"
	cache "github.com/patrickmn/go-cache"

	"github.com/oligostore/gateway/healthendpoint"
)

const pingCacheKey = "upstream"

// UpstreamPinger reports whether the upstream accepts TCP connections. The
// verdict is cached for a short TTL, so at most one probe per TTL reaches
// the upstream no matter how often readiness is polled.
type UpstreamPinger struct {
	logger      lager.Logger
	address     string
	dialTimeout time.Duration
	cache       *cache.Cache
}

var _ healthendpoint.Pinger = &UpstreamPinger{}

func NewUpstreamPinger(logger lager.Logger, upstreamURL string, dialTimeout time.Duration, ttl time.Duration) (*UpstreamPinger, error) {
	parsed, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upstream url %q: %w", upstreamURL, err)
	}
	port := parsed.Port()
	if port == "" {
		port = "80"
	}
	return &UpstreamPinger{
		logger:      logger,
		address:     net.JoinHostPort(parsed.Hostname(), port),
		dialTimeout: dialTimeout,
		cache:       cache.New(ttl, 2*ttl),
	}, nil
}

func (p *UpstreamPinger) Ping() error {
	if cached, found := p.cache.Get(pingCacheKey); found {
		if cached == nil {
			return nil
		}
		return cached.(error)
	}

	err := p.probe()
	p.cache.Set(pingCacheKey, err, cache.DefaultExpiration)
	return err
}

func (p *UpstreamPinger) probe() error {
	conn, err := net.DialTimeout("tcp", p.address, p.dialTimeout)
	if err != nil {
		p.logger.Error("upstream-probe-failed", err, lager.Data{"address": p.address})
		return fmt.Errorf("upstream %s is unreachable: %w", p.address, err)
	}
	_ = conn.Close()
	return nil
}
