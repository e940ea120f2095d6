package server

import (
	"fmt"
	"net/http"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tedsuo/ifrit"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/oligostore/gateway/gateway/config"
	"github.com/oligostore/gateway/healthendpoint"
	"github.com/oligostore/gateway/helpers"
	"github.com/oligostore/gateway/helpers/handlers"
	"github.com/oligostore/gateway/models"
	"github.com/oligostore/gateway/ratelimiter"
	"github.com/oligostore/gateway/routes"
	"github.com/oligostore/gateway/trustedproxy"
)

type Server struct {
	logger              lager.Logger
	conf                *config.Config
	clock               clock.Clock
	httpStatusCollector healthendpoint.HTTPStatusCollector
	counterCollector    healthendpoint.CounterCollector
	rateLimiter         ratelimiter.Limiter

	healthRouter *mux.Router
}

// NewServer wires the three listeners of the gateway: the encrypted one that
// serves files and forwards to the upstream, the plaintext one that only
// redirects, and the health one. rateLimiter may be nil, in which case no
// limiting happens.
func NewServer(logger lager.Logger, conf *config.Config, gwClock clock.Clock,
	httpStatusCollector healthendpoint.HTTPStatusCollector,
	counterCollector healthendpoint.CounterCollector,
	rateLimiter ratelimiter.Limiter) *Server {
	return &Server{
		logger:              logger,
		conf:                conf,
		clock:               gwClock,
		httpStatusCollector: httpStatusCollector,
		counterCollector:    counterCollector,
		rateLimiter:         rateLimiter,
	}
}

func (s *Server) Setup() error {
	hr, err := s.createHealthRouter()
	if err != nil {
		return err
	}

	s.healthRouter = hr

	return nil
}

func (s *Server) GetHealthServer() (ifrit.Runner, error) {
	return helpers.NewHTTPServer(s.logger, s.conf.Health.ServerConfig, s.healthRouter)
}

func (s *Server) GetGatewayServer() (ifrit.Runner, error) {
	proxyHandler, err := NewProxyHandler(s.logger.Session("proxy"), s.conf, s.counterCollector)
	if err != nil {
		return nil, err
	}

	r, err := s.setupGatewayRoutes(proxyHandler)
	if err != nil {
		return nil, err
	}

	return helpers.NewHTTPServer(s.logger, s.conf.Server, r)
}

func (s *Server) GetRedirectServer() (ifrit.Runner, error) {
	return helpers.NewHTTPServer(s.logger, s.conf.RedirectServer, s.setupRedirectRoutes())
}

func (s *Server) setupGatewayRoutes(proxyHandler *ProxyHandler) (*mux.Router, error) {
	r := routes.GatewayRoutes()
	r.Use(otelmux.Middleware("gateway"))
	r.Use(healthendpoint.NewHTTPStatusCollectMiddleware(s.httpStatusCollector).Collect)

	// Forwarding headers are filtered before anything reads them, so neither
	// the access log nor the upstream ever sees an untrusted value.
	trustMiddleware, err := trustedproxy.NewMiddleware(s.logger.Session("trusted-proxy"), s.conf.TrustedProxies)
	if err != nil {
		return nil, err
	}
	r.Use(trustMiddleware.StripUntrustedMiddleware)
	r.Use(NewAccessLogMiddleware(s.logger.Session("access"), s.clock).AccessLog)

	if s.rateLimiter != nil {
		rateLimiterMiddleware := ratelimiter.NewRateLimiterMiddleware(s.rateLimiter, s.logger.Session("gateway-ratelimiter-middleware"))
		r.Use(rateLimiterMiddleware.CheckRateLimit)
	}

	if s.conf.MaxBodySize > 0 {
		r.Use(s.limitBodySize)
	}

	staticHandler := NewStaticHandler(s.logger.Session("static"), routes.StaticPath, s.conf.Files.StaticDir)
	mediaHandler := NewStaticHandler(s.logger.Session("media"), routes.MediaPath, s.conf.Files.MediaDir)

	r.Get(routes.StaticRouteName).Handler(http.HandlerFunc(staticHandler.ServeFile))
	r.Get(routes.MediaRouteName).Handler(http.HandlerFunc(mediaHandler.ServeFile))
	r.Get(routes.ProxyRouteName).Handler(http.HandlerFunc(proxyHandler.ForwardUpstream))

	return r, nil
}

func (s *Server) setupRedirectRoutes() *mux.Router {
	rr := routes.RedirectRoutes()
	rr.Use(otelmux.Middleware("gateway-redirect"))
	rr.Use(healthendpoint.NewHTTPStatusCollectMiddleware(s.httpStatusCollector).Collect)
	rr.Use(NewAccessLogMiddleware(s.logger.Session("access"), s.clock).AccessLog)

	redirectHandler := NewRedirectHandler(s.logger.Session("redirect"), s.conf.Server.Port)
	rr.Get(routes.RedirectRouteName).Handler(http.HandlerFunc(redirectHandler.RedirectToHTTPS))

	return rr
}

func (s *Server) limitBodySize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > s.conf.MaxBodySize {
			s.logger.Info("request-body-too-large", lager.Data{"contentLength": r.ContentLength, "limit": s.conf.MaxBodySize})
			handlers.WriteJSONResponse(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Code:    "Request-Entity-Too-Large",
				Message: "Request body exceeds the configured limit",
			})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.conf.MaxBodySize)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createHealthRouter() (*mux.Router, error) {
	pinger, err := NewUpstreamPinger(s.logger.Session("upstream-pinger"), s.conf.Upstream.URL,
		s.conf.Upstream.DialTimeout, s.conf.Upstream.ProbeTTL)
	if err != nil {
		return nil, err
	}

	checkers := []healthendpoint.Checker{
		healthendpoint.UpstreamChecker("upstream", pinger),
		healthendpoint.CertificateChecker("server-certificate", s.conf.Server.TLS.CertFile, time.Now),
	}
	gatherer := s.createPrometheusRegistry()
	healthRouter, err := healthendpoint.NewHealthRouter(s.conf.Health, checkers, s.logger.Session("health-server"), gatherer, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to create health router: %w", err)
	}

	s.logger.Debug("Successfully created health server")
	return healthRouter, nil
}

func (s *Server) createPrometheusRegistry() *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	collectors := []prometheus.Collector{
		s.httpStatusCollector,
		s.counterCollector,
	}
	if s.rateLimiter != nil {
		collectors = append(collectors, healthendpoint.NewRateLimiterStatusCollector("oligostore", "gateway", s.rateLimiter))
	}
	healthendpoint.RegisterCollectors(promRegistry, collectors, true, s.logger.Session("gateway-prometheus"))
	return promRegistry
}
