package models

import (
	"crypto/tls"
	"fmt"
	"os"

	"code.cloudfoundry.org/tlsconfig"
	"golang.org/x/crypto/bcrypt"
)

type TLSCerts struct {
	KeyFile    string `yaml:"key_file" json:"keyFile"`
	CertFile   string `yaml:"cert_file" json:"certFile"`
	CACertFile string `yaml:"ca_file" json:"caCertFile"`
}

// Validate reports an error when the cert/key pair is incomplete or a
// referenced file does not exist. Loading and parsing happens later, in
// CreateServerConfig or CreateClientConfig.
func (t *TLSCerts) Validate() error {
	if t.CertFile == "" || t.KeyFile == "" {
		return fmt.Errorf("%w: both cert_file and key_file are required", ErrConfiguration)
	}
	files := []string{t.CertFile, t.KeyFile}
	if t.CACertFile != "" {
		files = append(files, t.CACertFile)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("%w: failed to stat %q: %w", ErrConfiguration, f, err)
		}
	}
	return nil
}

func (t *TLSCerts) CreateClientConfig() (*tls.Config, error) {
	if t != nil && t.CertFile != "" && t.KeyFile != "" {
		client := tlsconfig.Build(tlsconfig.WithIdentityFromFile(t.CertFile, t.KeyFile))
		if t.CACertFile != "" {
			return client.Client(tlsconfig.WithAuthorityFromFile(t.CACertFile))
		}
		return client.Client()
	}
	return nil, nil
}

func (t *TLSCerts) CreateServerConfig() (*tls.Config, error) {
	if t != nil && t.CertFile != "" && t.KeyFile != "" {
		build := tlsconfig.Build(tlsconfig.WithIdentityFromFile(t.CertFile, t.KeyFile))
		if t.CACertFile != "" {
			return build.Server(tlsconfig.WithClientAuthenticationFromFile(t.CACertFile))
		}
		return build.Server()
	}
	return nil, nil
}

// BasicAuth holds credentials either in cleartext or as bcrypt hashes.
// At most one form may be provided per field.
type BasicAuth struct {
	Username     string `yaml:"username" json:"username"`
	UsernameHash string `yaml:"username_hash" json:"username_hash"`
	Password     string `yaml:"password" json:"password"`
	PasswordHash string `yaml:"password_hash" json:"password_hash"`
}

func (ba *BasicAuth) Validate() error {
	if ba.Username != "" && ba.UsernameHash != "" {
		return fmt.Errorf("%w: both username and username_hash are set, please provide only one of them", ErrConfiguration)
	}

	if ba.Password != "" && ba.PasswordHash != "" {
		return fmt.Errorf("%w: both password and password_hash are set, please provide only one of them", ErrConfiguration)
	}

	if ba.UsernameHash != "" {
		if _, err := bcrypt.Cost([]byte(ba.UsernameHash)); err != nil {
			return fmt.Errorf("%w: username_hash is not a valid bcrypt hash", ErrConfiguration)
		}
	}

	if ba.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(ba.PasswordHash)); err != nil {
			return fmt.Errorf("%w: password_hash is not a valid bcrypt hash", ErrConfiguration)
		}
	}

	if ba.Username == "" && ba.Password != "" {
		return fmt.Errorf("%w: username is empty", ErrConfiguration)
	}

	if ba.Username != "" && ba.Password == "" {
		return fmt.Errorf("%w: password is empty", ErrConfiguration)
	}

	return nil
}

// Unconfigured reports whether no credential material is present at all, in
// which case callers skip basic authentication entirely.
func (ba *BasicAuth) Unconfigured() bool {
	return ba.Username == "" && ba.Password == "" && ba.UsernameHash == "" && ba.PasswordHash == ""
}
