package helpers

import (
	"fmt"
	"net/http"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/http_server"

	"github.com/oligostore/gateway/models"
)

type ServerConfig struct {
	Port int             `yaml:"port" json:"port"`
	TLS  models.TLSCerts `yaml:"tls" json:"tls"`
}

// NewHTTPServer wraps a handler in an ifrit runner, terminating TLS when
// the config carries a cert/key pair. Test runs bind to localhost so suites
// can run in parallel sandboxes without firewall prompts.
func NewHTTPServer(logger lager.Logger, conf ServerConfig, handler http.Handler) (ifrit.Runner, error) {
	addr := fmt.Sprintf("%s:%d", listenHost(), conf.Port)
	logger.Info("new-http-server", lager.Data{"addr": addr, "hasTLS": conf.TLS.CertFile != ""})

	if conf.TLS.CertFile == "" || conf.TLS.KeyFile == "" {
		return http_server.New(addr, handler), nil
	}

	tlsConfig, err := conf.TLS.CreateServerConfig()
	if err != nil {
		logger.Error("failed-building-server-tls-config", err, lager.Data{"tls": conf.TLS})
		return nil, fmt.Errorf("server tls config error: %w", err)
	}
	return http_server.NewTLSServer(addr, handler, tlsConfig), nil
}

func listenHost() string {
	if os.Getenv("OLIGOSTORE_GATEWAY_TEST_RUN") == "true" {
		return "localhost"
	}
	return "0.0.0.0"
}
