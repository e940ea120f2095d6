package ratelimiter

import (
	"net"
	"net/http"

	"code.cloudfoundry.org/lager/v3"

	"github.com/oligostore/gateway/helpers/handlers"
	"github.com/oligostore/gateway/models"
)

// RateLimiterMiddleware throttles by client address. The key is the host
// part of RemoteAddr, never a forwarded header, so clients cannot dodge the
// limit by spoofing X-Forwarded-For.
type RateLimiterMiddleware struct {
	logger      lager.Logger
	RateLimiter Limiter
}

func NewRateLimiterMiddleware(rateLimiter Limiter, logger lager.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		logger:      logger,
		RateLimiter: rateLimiter,
	}
}

func (mw *RateLimiterMiddleware) CheckRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			key = r.RemoteAddr
		}
		if mw.RateLimiter.ExceedsLimit(key) {
			mw.logger.Info("error-exceed-rate-limit", lager.Data{"clientAddr": key, "path": r.URL.Path})
			handlers.WriteJSONResponse(w, http.StatusTooManyRequests, models.ErrorResponse{
				Code:    "Request-Limit-Exceeded",
				Message: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
