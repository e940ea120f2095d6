package helpers

import (
	"net"
	"net/http"
	"time"

	"github.com/oligostore/gateway/models"
)

const (
	DefaultDialTimeout         = 30 * time.Second
	DefaultIdleConnTimeout     = 5 * time.Second
	DefaultMaxIdleConnsPerHost = 200
)

// CreateHTTPClient builds a client suitable for talking to a single backend:
// bounded dial time, aggressive idle connection reuse. A nil or incomplete
// tlsCerts yields a plaintext client.
func CreateHTTPClient(tlsCerts *models.TLSCerts) (*http.Client, error) {
	if tlsCerts != nil && (tlsCerts.CertFile == "" || tlsCerts.KeyFile == "") {
		tlsCerts = nil
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: DefaultDialTimeout,
		}).DialContext,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
	}

	if tlsCerts != nil {
		tlsConfig, err := tlsCerts.CreateClientConfig()
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{Transport: transport}, nil
}
