package trustedproxy

import (
	"fmt"
	"net"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
)

// ForwardedHeaders are the forwarding headers the upstream is allowed to
// trust. Inbound copies are dropped unless the peer is listed as a trusted
// proxy, so a direct client cannot smuggle forwarding metadata past the
// gateway.
var ForwardedHeaders = []string{
	"X-Forwarded-For",
	"X-Forwarded-Proto",
	"X-Forwarded-Port",
	"X-Forwarded-Host",
}

type Middleware interface {
	StripUntrustedMiddleware(next http.Handler) http.Handler
}

type trustedProxyMiddleware struct {
	logger      lager.Logger
	trustedNets []*net.IPNet
}

// NewMiddleware builds the middleware from CIDR notation, e.g.
// "10.0.0.0/8". An empty list means no peer is trusted and every inbound
// forwarding header is stripped.
func NewMiddleware(logger lager.Logger, trustedCIDRs []string) (Middleware, error) {
	nets := make([]*net.IPNet, 0, len(trustedCIDRs))
	for _, cidr := range trustedCIDRs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trusted proxy cidr %q: %w", cidr, err)
		}
		nets = append(nets, ipNet)
	}
	return &trustedProxyMiddleware{
		logger:      logger,
		trustedNets: nets,
	}, nil
}

func (m *trustedProxyMiddleware) StripUntrustedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.isTrusted(r.RemoteAddr) {
			for _, h := range ForwardedHeaders {
				if r.Header.Get(h) != "" {
					m.logger.Debug("stripped-forwarded-header", lager.Data{"header": h, "remoteAddr": r.RemoteAddr})
					r.Header.Del(h)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *trustedProxyMiddleware) isTrusted(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, ipNet := range m.trustedNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
