package routes

import (
	"github.com/gorilla/mux"
)

const (
	StaticPath      = "/static/"
	StaticRouteName = "ServeStatic"

	MediaPath      = "/media/"
	MediaRouteName = "ServeMedia"

	ProxyPath      = "/"
	ProxyRouteName = "ForwardUpstream"

	RedirectPath      = "/"
	RedirectRouteName = "RedirectToHTTPS"

	HealthPath         = "/health"
	HealthRouteName    = "GetHealth"
	ReadinessPath      = "/health/readiness"
	ReadinessRouteName = "GetReadiness"
)

type GatewayRoute struct {
	gatewayRoutes  *mux.Router
	redirectRoutes *mux.Router
}

var gatewayRouteInstance = newRouters()

func newRouters() *GatewayRoute {
	instance := &GatewayRoute{
		gatewayRoutes:  mux.NewRouter(),
		redirectRoutes: mux.NewRouter(),
	}

	// Longest prefixes first; the upstream route is the catch-all. Method
	// filtering happens in the handlers so that, like the original server
	// blocks, a POST to /static/ is answered here and never forwarded.
	instance.gatewayRoutes.PathPrefix(StaticPath).Name(StaticRouteName)
	instance.gatewayRoutes.PathPrefix(MediaPath).Name(MediaRouteName)
	instance.gatewayRoutes.PathPrefix(ProxyPath).Name(ProxyRouteName)

	instance.redirectRoutes.PathPrefix(RedirectPath).Name(RedirectRouteName)

	return instance
}

func GatewayRoutes() *mux.Router {
	return gatewayRouteInstance.gatewayRoutes
}

func RedirectRoutes() *mux.Router {
	return gatewayRouteInstance.redirectRoutes
}
