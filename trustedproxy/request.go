package trustedproxy

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address of a request that already
// passed through StripUntrustedMiddleware: the first X-Forwarded-For entry
// when a trusted peer supplied one, otherwise the connection's remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Scheme returns the protocol the client used, preferring the forwarded
// value over the properties of the immediate connection.
func Scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// IsSecure reports whether the client reached the service over TLS,
// either directly or via a trusted proxy that vouched for it.
func IsSecure(r *http.Request) bool {
	return Scheme(r) == "https"
}
