package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"code.cloudfoundry.org/lager/v3"

	"github.com/oligostore/gateway/helpers"
)

// RedirectHandler answers every plaintext request, regardless of method,
// with a permanent redirect to the encrypted listener. Host, path and query
// survive the hop unchanged.
type RedirectHandler struct {
	logger  lager.Logger
	tlsPort int
}

func NewRedirectHandler(logger lager.Logger, tlsPort int) *RedirectHandler {
	return &RedirectHandler{
		logger:  logger,
		tlsPort: tlsPort,
	}
}

func (h *RedirectHandler) RedirectToHTTPS(w http.ResponseWriter, r *http.Request) {
	target := "https://" + h.redirectHost(r.Host) + r.URL.RequestURI()
	h.logger.Debug("redirect-to-https", helpers.AddTraceID(r.Context(), lager.Data{"host": r.Host, "target": target}))
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// redirectHost drops the inbound port, then appends the encrypted listener's
// port unless it is the https default.
func (h *RedirectHandler) redirectHost(requestHost string) string {
	host := requestHost
	if splitHost, _, err := net.SplitHostPort(requestHost); err == nil {
		host = splitHost
	}
	if h.tlsPort != 443 {
		return net.JoinHostPort(host, strconv.Itoa(h.tlsPort))
	}
	if strings.Contains(host, ":") {
		// bare IPv6 literal, SplitHostPort unwrapped the brackets
		return "[" + host + "]"
	}
	return host
}
