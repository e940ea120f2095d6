package server

import (
	"bufio"
	"net"
	"net/http"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"

	"github.com/oligostore/gateway/helpers"
	"github.com/oligostore/gateway/trustedproxy"
)

// AccessLogMiddleware emits one structured line per finished request, after
// the response is complete, so the recorded status and byte count are final.
type AccessLogMiddleware struct {
	logger lager.Logger
	clock  clock.Clock
}

func NewAccessLogMiddleware(logger lager.Logger, clock clock.Clock) *AccessLogMiddleware {
	return &AccessLogMiddleware{
		logger: logger,
		clock:  clock,
	}
}

func (m *AccessLogMiddleware) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.clock.Now()

		requestID, err := helpers.GenerateGUID()
		if err != nil {
			m.logger.Error("failed-to-generate-request-id", err)
		}

		rec := &accessRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		m.logger.Info("access", helpers.AddTraceID(r.Context(), lager.Data{
			"requestId":  requestID,
			"clientIp":   trustedproxy.ClientIP(r),
			"scheme":     trustedproxy.Scheme(r),
			"method":     r.Method,
			"host":       r.Host,
			"requestURI": r.URL.RequestURI(),
			"status":     rec.status(),
			"bytes":      rec.bytes,
			"durationMs": m.clock.Since(start).Milliseconds(),
			"userAgent":  r.UserAgent(),
			"referer":    r.Referer(),
		}))
	})
}

// accessRecorder captures status and body size while staying transparent to
// handlers that need flushing or connection takeover, the reverse proxy's
// websocket path among them.
type accessRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
	hijacked   bool
}

func (rec *accessRecorder) WriteHeader(code int) {
	if rec.statusCode == 0 {
		rec.statusCode = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *accessRecorder) Write(p []byte) (int, error) {
	if rec.statusCode == 0 {
		rec.statusCode = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += int64(n)
	return n, err
}

func (rec *accessRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *accessRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	rec.hijacked = true
	return hj.Hijack()
}

func (rec *accessRecorder) status() int {
	if rec.hijacked {
		return http.StatusSwitchingProtocols
	}
	if rec.statusCode == 0 {
		return http.StatusOK
	}
	return rec.statusCode
}
