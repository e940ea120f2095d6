package main_test

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	. "github.com/onsi/gomega/gexec"

	"github.com/oligostore/gateway/testhelpers"
)

var _ = Describe("Main", func() {
	var (
		runner *GatewayRunner
		err    error

		serverURL   *url.URL
		redirectURL *url.URL
		healthURL   *url.URL
	)

	BeforeEach(func() {
		runner = NewGatewayRunner()

		serverURL, err = url.Parse("https://127.0.0.1:" + strconv.Itoa(gatewayPort))
		Expect(err).ToNot(HaveOccurred())

		redirectURL, err = url.Parse("http://127.0.0.1:" + strconv.Itoa(redirectPort))
		Expect(err).ToNot(HaveOccurred())

		healthURL, err = url.Parse("http://127.0.0.1:" + strconv.Itoa(healthPort))
		Expect(err).ToNot(HaveOccurred())
	})

	JustBeforeEach(func() {
		runner.Start()
	})

	AfterEach(func() {
		runner.KillWithFire()
	})

	Describe("With incorrect config", func() {
		Context("with a missing config file", func() {
			BeforeEach(func() {
				runner.startCheck = ""
				runner.configPath = "bogus"
			})

			It("fails with an error", func() {
				Eventually(runner.Session).Should(Exit(1))
				Expect(runner.Session.Buffer()).To(gbytes.Say("failed to open config file"))
			})
		})

		Context("with an invalid config file", func() {
			BeforeEach(func() {
				runner.startCheck = ""
				badfile, err := os.CreateTemp("", "bad-gateway-config")
				Expect(err).NotTo(HaveOccurred())
				runner.configPath = badfile.Name()
				// #nosec G306
				err = os.WriteFile(runner.configPath, []byte("bogus"), os.ModePerm)
				Expect(err).NotTo(HaveOccurred())
			})

			AfterEach(func() {
				_ = os.Remove(runner.configPath)
			})

			It("fails with an error", func() {
				Eventually(runner.Session).Should(Exit(1))
				Expect(runner.Session.Buffer()).To(gbytes.Say("failed to read config file"))
			})
		})

		Context("with missing configuration", func() {
			BeforeEach(func() {
				runner.startCheck = ""
				missingParamConf := conf
				missingParamConf.Upstream.URL = ""

				cfg := writeConfig(&missingParamConf)
				runner.configPath = cfg.Name()
			})

			AfterEach(func() {
				os.Remove(runner.configPath)
			})

			It("should fail validation", func() {
				Eventually(runner.Session).Should(Exit(1))
				Expect(runner.Session.Buffer()).To(gbytes.Say("failed to validate configuration"))
			})
		})

		Context("with a mismatched certificate pair", func() {
			BeforeEach(func() {
				runner.startCheck = ""
				otherCerts := testhelpers.GenerateServerCertFiles(filepath.Join(tmpDir, "other-certs"))
				mismatchedConf := conf
				mismatchedConf.Server.TLS.KeyFile = otherCerts.KeyFile

				cfg := writeConfig(&mismatchedConf)
				runner.configPath = cfg.Name()
			})

			AfterEach(func() {
				os.Remove(runner.configPath)
			})

			It("refuses to come up", func() {
				Eventually(runner.Session).Should(Exit(1))
				Expect(runner.Session.Buffer()).To(gbytes.Say("failed to create gateway_https_server"))
			})
		})
	})

	Describe("when the gateway is ready to serve", func() {
		JustBeforeEach(func() {
			Eventually(runner.Session, 5).Should(gbytes.Say(runner.startCheck))
		})

		It("keeps running", func() {
			Consistently(runner.Session).ShouldNot(Exit())
		})

		When("a shop request comes in over https", func() {
			It("forwards it to the upstream", func() {
				serverURL.Path = "/checkout/cart"
				rsp, err := httpClient.Get(serverURL.String())
				Expect(err).NotTo(HaveOccurred())

				Expect(rsp.StatusCode).To(Equal(http.StatusOK))
				Expect(readBody(rsp)).To(Equal("rendered by django"))
			})
		})

		When("a static asset is requested", func() {
			It("serves it from disk", func() {
				serverURL.Path = "/static/css/site.css"
				rsp, err := httpClient.Get(serverURL.String())
				Expect(err).NotTo(HaveOccurred())

				Expect(rsp.StatusCode).To(Equal(http.StatusOK))
				Expect(readBody(rsp)).To(Equal("body { color: teal; }"))
			})
		})

		When("a plaintext request comes in", func() {
			It("redirects to the https listener", func() {
				redirectURL.Path = "/checkout/cart"
				redirectURL.RawQuery = "promo=1"
				rsp, err := redirectClient.Get(redirectURL.String())
				Expect(err).NotTo(HaveOccurred())
				defer rsp.Body.Close()

				Expect(rsp.StatusCode).To(Equal(http.StatusMovedPermanently))
				Expect(rsp.Header.Get("Location")).To(Equal(fmt.Sprintf("https://127.0.0.1:%d/checkout/cart?promo=1", gatewayPort)))
			})
		})

		When("a client sends more requests than the limit allows", func() {
			It("answers 429 once the bucket runs dry", func() {
				// every client starts with a bucket of 20 tokens
				serverURL.Path = "/checkout/cart"
				for i := 0; i < 20; i++ {
					rsp, err := httpClient.Get(serverURL.String())
					Expect(err).NotTo(HaveOccurred())
					Expect(rsp.StatusCode).To(Equal(http.StatusOK))
					rsp.Body.Close()
				}

				rsp, err := httpClient.Get(serverURL.String())
				Expect(err).NotTo(HaveOccurred())

				Expect(rsp.StatusCode).To(Equal(http.StatusTooManyRequests))
				Expect(readBody(rsp)).To(MatchJSON(`{"code": "Request-Limit-Exceeded", "message": "Too many requests"}`))
			})
		})
	})

	Describe("when the health server is ready to serve", func() {
		JustBeforeEach(func() {
			Eventually(runner.Session, 5).Should(gbytes.Say(runner.startCheck))
		})

		When("a request to query readiness comes", func() {
			It("returns with a 200", func() {
				healthURL.Path = "/health/readiness"
				rsp, err := healthHttpClient.Get(healthURL.String())
				Expect(err).NotTo(HaveOccurred())

				Expect(rsp.StatusCode).To(Equal(http.StatusOK))
				Expect(readBody(rsp)).To(MatchJSON(`{
					"overall_status": "UP",
					"checks": [
						{"name": "upstream", "type": "upstream", "status": "UP"},
						{"name": "server-certificate", "type": "certificate", "status": "UP"}
					]
				}`))
			})
		})

		When("username and password are incorrect for basic authentication during health check", func() {
			It("should return 401", func() {
				healthURL.Path = "/health"
				testhelpers.CheckHealthAuth(GinkgoT(), healthHttpClient, healthURL.String(),
					"wrongusername", "wrongpassword", http.StatusUnauthorized)
			})
		})

		When("username and password are correct for basic authentication during health check", func() {
			It("exposes the gateway metrics", func() {
				healthURL.Path = "/health"
				req, err := http.NewRequest(http.MethodGet, healthURL.String(), nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth(conf.Health.BasicAuth.Username, conf.Health.BasicAuth.Password)

				rsp, err := healthHttpClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(rsp.StatusCode).To(Equal(http.StatusOK))

				metrics := readBody(rsp)
				Expect(metrics).To(ContainSubstring("oligostore_gateway_concurrent_http_request"))
				Expect(metrics).To(ContainSubstring("oligostore_gateway_ratelimit_tracked_clients"))
				Expect(metrics).To(ContainSubstring("go_goroutines"))
			})
		})
	})

	Describe("when an interrupt is sent", func() {
		It("stops gracefully", func() {
			Eventually(runner.Session, 5).Should(gbytes.Say(runner.startCheck))
			runner.Interrupt()
			Eventually(runner.Session, 5).Should(Exit(0))
		})
	})
})

func readBody(rsp *http.Response) string {
	defer rsp.Body.Close()
	bodyBytes, err := io.ReadAll(rsp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(bodyBytes)
}
