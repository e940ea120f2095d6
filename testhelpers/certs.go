package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// TestCerts points at a freshly generated self-signed identity on disk. The
// certificate doubles as its own authority, so clients can trust CertFile
// directly.
type TestCerts struct {
	CertFile string
	KeyFile  string
}

// GenerateServerCertFiles writes a self-signed identity for localhost and
// the loopback addresses into dir, valid from a minute ago for one hour.
func GenerateServerCertFiles(dir string) *TestCerts {
	return GenerateServerCertFilesExpiring(dir, time.Now().Add(-time.Minute), time.Now().Add(time.Hour))
}

// GenerateServerCertFilesExpiring is GenerateServerCertFiles with an
// explicit validity window, for exercising certificate health checks.
func GenerateServerCertFilesExpiring(dir string, notBefore time.Time, notAfter time.Time) *TestCerts {
	certPEM, keyPEM := generateSelfSignedPEM(notBefore, notAfter)

	FailOnError("creating certificate dir", os.MkdirAll(dir, 0755))
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	FailOnError("writing certificate", os.WriteFile(certFile, certPEM, 0600))
	FailOnError("writing private key", os.WriteFile(keyFile, keyPEM, 0600))

	return &TestCerts{CertFile: certFile, KeyFile: keyFile}
}

func generateSelfSignedPEM(notBefore time.Time, notAfter time.Time) ([]byte, []byte) {
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	FailOnError("generating serial number", err)

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	FailOnError("generating private key", err)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Oligostore"},
			CommonName:   "localhost",
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	FailOnError("creating certificate", err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	FailOnError("marshalling private key", err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	return certPEM, keyPEM
}
