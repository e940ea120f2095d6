package server_test

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/oligostore/gateway/gateway/config"
	"github.com/oligostore/gateway/gateway/server"
	"github.com/oligostore/gateway/healthendpoint"
	"github.com/oligostore/gateway/helpers"
)

var _ = Describe("ProxyHandler", func() {
	var (
		logger   *lagertest.TestLogger
		counters healthendpoint.CounterCollector
	)

	newConf := func(upstreamURL string, responseHeaderTimeout time.Duration) *config.Config {
		return &config.Config{
			Server: helpers.ServerConfig{Port: 8443},
			Upstream: config.UpstreamConfig{
				URL:                   upstreamURL,
				DialTimeout:           500 * time.Millisecond,
				ResponseHeaderTimeout: responseHeaderTimeout,
				ProbeTTL:              time.Second,
			},
		}
	}

	forward := func(handler *server.ProxyHandler, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.ForwardUpstream(rec, req)
		return rec
	}

	BeforeEach(func() {
		logger = lagertest.NewTestLogger("proxy")
		counters = healthendpoint.NewCounterCollector()
	})

	Context("when the upstream answers", func() {
		var backend *ghttp.Server

		BeforeEach(func() {
			backend = ghttp.NewServer()
			backend.RouteToHandler("GET", "/orders/42", ghttp.CombineHandlers(
				ghttp.VerifyHeaderKV("X-Forwarded-Proto", "https"),
				ghttp.VerifyHeaderKV("X-Forwarded-Port", "8443"),
				ghttp.RespondWith(http.StatusOK, "order details", http.Header{"X-Backend": []string{"django"}}),
			))
		})

		AfterEach(func() {
			backend.Close()
		})

		It("relays status, headers and body", func() {
			handler, err := server.NewProxyHandler(logger, newConf(backend.URL(), 5*time.Second), counters)
			Expect(err).NotTo(HaveOccurred())

			rec := forward(handler, "/orders/42")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("X-Backend")).To(Equal("django"))
			Expect(rec.Body.String()).To(Equal("order details"))
		})
	})

	Context("when the upstream is unreachable", func() {
		It("answers 502 and counts the failure", func() {
			// reserve a port nothing listens on
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			deadAddress := listener.Addr().String()
			Expect(listener.Close()).To(Succeed())

			handler, err := server.NewProxyHandler(logger, newConf("http://"+deadAddress, 5*time.Second), counters)
			Expect(err).NotTo(HaveOccurred())

			rec := forward(handler, "/checkout/cart")
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(rec.Body.String()).To(MatchJSON(`{"code":"Bad-Gateway","message":"Upstream is unreachable"}`))

			expected := `
				# HELP oligostore_gateway_upstream_unreachable_total Number of requests answered 502 because the upstream could not be reached
				# TYPE oligostore_gateway_upstream_unreachable_total counter
				oligostore_gateway_upstream_unreachable_total 1
			`
			Expect(testutil.CollectAndCompare(counters, strings.NewReader(expected),
				"oligostore_gateway_upstream_unreachable_total")).To(Succeed())
		})
	})

	Context("when the upstream accepts but does not answer in time", func() {
		var backend *ghttp.Server

		BeforeEach(func() {
			backend = ghttp.NewServer()
			backend.RouteToHandler("GET", "/slow", func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			})
		})

		AfterEach(func() {
			backend.Close()
		})

		It("answers 504 and counts the timeout", func() {
			handler, err := server.NewProxyHandler(logger, newConf(backend.URL(), 50*time.Millisecond), counters)
			Expect(err).NotTo(HaveOccurred())

			rec := forward(handler, "/slow")
			Expect(rec.Code).To(Equal(http.StatusGatewayTimeout))
			Expect(rec.Body.String()).To(MatchJSON(`{"code":"Gateway-Timeout","message":"Upstream did not answer in time"}`))

			expected := `
				# HELP oligostore_gateway_upstream_timeout_total Number of requests answered 504 because the upstream did not start answering in time
				# TYPE oligostore_gateway_upstream_timeout_total counter
				oligostore_gateway_upstream_timeout_total 1
			`
			Expect(testutil.CollectAndCompare(counters, strings.NewReader(expected),
				"oligostore_gateway_upstream_timeout_total")).To(Succeed())
		})
	})

	Context("when the upstream url does not parse", func() {
		It("refuses to build the handler", func() {
			_, err := server.NewProxyHandler(logger, newConf("http://upstream host:8000", 5*time.Second), counters)
			Expect(err).To(MatchError(ContainSubstring("failed to parse upstream url")))
		})
	})
})
