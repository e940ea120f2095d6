package healthendpoint

import (
	"net/http/pprof"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oligostore/gateway/helpers"
)

// NewHealthRouter serves the prometheus gatherer, optionally behind basic
// authentication, plus an always-unauthenticated readiness endpoint. The
// readiness endpoint stays open because deployment probes cannot carry
// credentials. Profiling handlers live under /debug/pprof and exist only
// when credentials are configured.
func NewHealthRouter(conf helpers.HealthConfig, healthCheckers []Checker, logger lager.Logger, gatherer prometheus.Gatherer, now func() time.Time) (*mux.Router, error) {
	if conf.BasicAuth.Unconfigured() {
		healthRouter := mux.NewRouter()
		if conf.ReadinessCheckEnabled {
			healthRouter.HandleFunc("/health/readiness", readiness(healthCheckers, now))
		}
		healthRouter.PathPrefix("").Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		return healthRouter, nil
	}
	return healthBasicAuthRouter(conf, healthCheckers, logger, gatherer, now)
}

func healthBasicAuthRouter(conf helpers.HealthConfig, healthCheckers []Checker, logger lager.Logger, gatherer prometheus.Gatherer, now func() time.Time) (*mux.Router, error) {
	basicAuthentication, err := helpers.NewBasicAuthMiddleware(logger, conf.BasicAuth)
	if err != nil {
		return nil, err
	}
	promHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	router := mux.NewRouter()
	// unauthenticated paths
	if conf.ReadinessCheckEnabled {
		router.HandleFunc("/health/readiness", readiness(healthCheckers, now))
	}
	// authenticated paths
	health := router.Path("/health").Subrouter()
	health.Use(basicAuthentication.Middleware)
	health.PathPrefix("").Handler(promHandler)

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(basicAuthentication.Middleware)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("").HandlerFunc(pprof.Index)

	everything := router.PathPrefix("").Subrouter()
	everything.Use(basicAuthentication.Middleware)
	everything.PathPrefix("").Handler(promHandler)

	return router, nil
}
