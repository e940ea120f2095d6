package testhelpers

import (
	"crypto/tls"

	"code.cloudfoundry.org/tlsconfig"
)

// ClientTLSConfig trusts exactly the given certificate, which is how tests
// talk to a listener that runs on a freshly generated self-signed identity.
func ClientTLSConfig(caCertFile string) *tls.Config {
	config, err := tlsconfig.Build().Client(tlsconfig.WithAuthorityFromFile(caCertFile))
	FailOnError("Creating client tls config failed", err)
	return config
}
