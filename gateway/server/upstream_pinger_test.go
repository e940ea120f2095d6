package server_test

import (
	"net"
	"time"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oligostore/gateway/gateway/server"
)

var _ = Describe("UpstreamPinger", func() {
	var logger *lagertest.TestLogger

	BeforeEach(func() {
		logger = lagertest.NewTestLogger("pinger")
	})

	It("refuses an unparseable upstream url", func() {
		_, err := server.NewUpstreamPinger(logger, "://bad", time.Second, time.Second)
		Expect(err).To(MatchError(ContainSubstring("failed to parse upstream url")))
	})

	It("probes over tcp and caches the verdict for the ttl", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		address := listener.Addr().String()

		ttl := 150 * time.Millisecond
		pinger, err := server.NewUpstreamPinger(logger, "http://"+address, 500*time.Millisecond, ttl)
		Expect(err).NotTo(HaveOccurred())

		Expect(pinger.Ping()).To(Succeed())

		// the listener goes away but the cached verdict holds until the ttl runs out
		Expect(listener.Close()).To(Succeed())
		Expect(pinger.Ping()).To(Succeed())
		Eventually(pinger.Ping, "2s", "20ms").Should(MatchError(ContainSubstring("is unreachable")))

		// the failure is cached just the same
		listener, err = net.Listen("tcp", address)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = listener.Close() }()
		Expect(pinger.Ping()).To(MatchError(ContainSubstring("is unreachable")))
		Eventually(pinger.Ping, "2s", "20ms").Should(Succeed())
	})

	It("probes port 80 when the upstream url carries none", func() {
		// .invalid never resolves, so the probe fails before any dial and
		// the error names the defaulted port
		pinger, err := server.NewUpstreamPinger(logger, "http://backend.invalid", 50*time.Millisecond, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(pinger.Ping()).To(MatchError(ContainSubstring("upstream backend.invalid:80 is unreachable")))
	})
})
