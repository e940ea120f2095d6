package healthendpoint

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"os"
	"sync"
	"time"
)

type (
	Pinger interface {
		Ping() error
	}

	ReadinessCheck struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Status string `json:"status"`
	}
	readinessResponse struct {
		OverallStatus string           `json:"overall_status"`
		Checks        []ReadinessCheck `json:"checks"`
	}
	Checker func() ReadinessCheck
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"

	// readiness results are cached so that deployment probes hitting the
	// endpoint every few seconds do not turn into a probe storm on the
	// upstream
	readinessCacheDuration = 30 * time.Second
)

func readiness(checkers []Checker, now func() time.Time) http.HandlerFunc {
	var mutex sync.Mutex
	var cachedResponse []byte
	var cachedAt time.Time

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		mutex.Lock()
		defer mutex.Unlock()

		checkedAt := now()
		if cachedResponse == nil || checkedAt.Sub(cachedAt) >= readinessCacheDuration {
			checks := make([]ReadinessCheck, 0, 8)
			overallStatus := statusUp
			for _, checker := range checkers {
				check := checker()
				checks = append(checks, check)
				if check.Status == statusDown {
					overallStatus = statusDown
				}
			}
			response, err := json.Marshal(readinessResponse{OverallStatus: overallStatus, Checks: checks})
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal error"}`))
				return
			}
			cachedResponse = response
			cachedAt = checkedAt
		}
		_, _ = w.Write(cachedResponse)
	}
}

// UpstreamChecker reports whether the proxied backend accepts connections.
// A nil pinger never fails the check.
func UpstreamChecker(name string, pinger Pinger) Checker {
	if pinger != nil {
		return func() ReadinessCheck {
			status := statusUp
			err := pinger.Ping()
			if err != nil {
				status = statusDown
			}
			return ReadinessCheck{Name: name, Type: "upstream", Status: status}
		}
	}
	return func() ReadinessCheck {
		return ReadinessCheck{Name: name, Type: "upstream", Status: statusUp}
	}
}

// CertificateChecker goes DOWN once the serving certificate is unreadable or
// outside its validity window, so expiry shows up on the readiness endpoint
// before clients see handshake failures.
func CertificateChecker(name string, certFile string, now func() time.Time) Checker {
	return func() ReadinessCheck {
		status := statusUp
		cert, err := loadLeafCertificate(certFile)
		if err != nil {
			status = statusDown
		} else if now().Before(cert.NotBefore) || now().After(cert.NotAfter) {
			status = statusDown
		}
		return ReadinessCheck{Name: name, Type: "certificate", Status: status}
	}
}

func loadLeafCertificate(certFile string) (*x509.Certificate, error) {
	pemBytes, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, os.ErrInvalid
	}
	return x509.ParseCertificate(block.Bytes)
}
