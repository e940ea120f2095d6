package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"code.cloudfoundry.org/lager/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oligostore/gateway/gateway/config"
	"github.com/oligostore/gateway/healthendpoint"
	"github.com/oligostore/gateway/helpers"
	"github.com/oligostore/gateway/helpers/handlers"
	"github.com/oligostore/gateway/models"
)

var (
	upstreamUnreachableCounterOpts = prometheus.CounterOpts{
		Namespace: "oligostore",
		Subsystem: "gateway",
		Name:      "upstream_unreachable_total",
		Help:      "Number of requests answered 502 because the upstream could not be reached",
	}
	upstreamTimeoutCounterOpts = prometheus.CounterOpts{
		Namespace: "oligostore",
		Subsystem: "gateway",
		Name:      "upstream_timeout_total",
		Help:      "Number of requests answered 504 because the upstream did not start answering in time",
	}
)

// ProxyHandler relays everything that is not a file request to the plaintext
// upstream and streams the answer back untouched, exactly once per request.
// The inbound Host header travels verbatim; X-Forwarded-For is appended to,
// while X-Forwarded-Proto and X-Forwarded-Port always describe the encrypted
// listener, whatever a client may have sent.
type ProxyHandler struct {
	logger   lager.Logger
	proxy    *httputil.ReverseProxy
	counters healthendpoint.CounterCollector
}

func NewProxyHandler(logger lager.Logger, conf *config.Config, counters healthendpoint.CounterCollector) (*ProxyHandler, error) {
	upstreamURL, err := url.Parse(conf.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upstream url %q: %w", conf.Upstream.URL, err)
	}

	transport, err := createUpstreamTransport(conf)
	if err != nil {
		return nil, err
	}

	counters.AddCounters(upstreamUnreachableCounterOpts, upstreamTimeoutCounterOpts)

	h := &ProxyHandler{
		logger:   logger,
		counters: counters,
	}

	listenerPort := strconv.Itoa(conf.Server.Port)

	proxy := httputil.NewSingleHostReverseProxy(upstreamURL)
	rewriteTarget := proxy.Director
	proxy.Director = func(req *http.Request) {
		rewriteTarget(req)
		// req.Host stays untouched so the upstream sees the name the client
		// asked for. The reverse proxy itself appends the peer address to
		// whatever X-Forwarded-For survived the trust filter.
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Forwarded-Port", listenerPort)
	}
	proxy.Transport = transport
	proxy.ErrorHandler = h.handleUpstreamError
	h.proxy = proxy

	return h, nil
}

func (h *ProxyHandler) ForwardUpstream(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

func (h *ProxyHandler) handleUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logData := helpers.AddTraceID(r.Context(), lager.Data{"method": r.Method, "path": r.URL.Path})

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.logger.Info("request-body-too-large", logData)
		handlers.WriteJSONResponse(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Code:    "Request-Entity-Too-Large",
			Message: "Request body exceeds the configured limit",
		})
		return
	}

	if errors.Is(err, context.Canceled) {
		// the client hung up first, there is nobody left to answer
		h.logger.Debug("client-closed-request", logData)
		return
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		h.counters.Add(upstreamTimeoutCounterOpts, 1)
		h.logger.Error("upstream-timeout", err, logData)
		handlers.WriteJSONResponse(w, http.StatusGatewayTimeout, models.ErrorResponse{
			Code:    "Gateway-Timeout",
			Message: "Upstream did not answer in time",
		})
		return
	}

	h.counters.Add(upstreamUnreachableCounterOpts, 1)
	h.logger.Error("upstream-unreachable", err, logData)
	handlers.WriteJSONResponse(w, http.StatusBadGateway, models.ErrorResponse{
		Code:    "Bad-Gateway",
		Message: "Upstream is unreachable",
	})
}

func createUpstreamTransport(conf *config.Config) (*http.Transport, error) {
	client, err := helpers.CreateHTTPClient(nil)
	if err != nil {
		return nil, err
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected transport type %T", client.Transport)
	}
	transport.DialContext = (&net.Dialer{
		Timeout: conf.Upstream.DialTimeout,
	}).DialContext
	transport.ResponseHeaderTimeout = conf.Upstream.ResponseHeaderTimeout
	return transport, nil
}
