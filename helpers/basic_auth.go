package helpers

import (
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/oligostore/gateway/models"
)

// BasicAuthMiddleware guards the operational endpoints. Credentials may be
// configured as cleartext or as bcrypt hashes; cleartext gets hashed on
// startup so the comparison path is the same either way.
type BasicAuthMiddleware struct {
	usernameHash []byte
	passwordHash []byte
	logger       lager.Logger
}

func NewBasicAuthMiddleware(logger lager.Logger, auth models.BasicAuth) (*BasicAuthMiddleware, error) {
	usernameHash, err := hashCredential(logger, "username", auth.UsernameHash, auth.Username)
	if err != nil {
		return nil, err
	}
	passwordHash, err := hashCredential(logger, "password", auth.PasswordHash, auth.Password)
	if err != nil {
		return nil, err
	}
	return &BasicAuthMiddleware{
		usernameHash: usernameHash,
		passwordHash: passwordHash,
		logger:       logger,
	}, nil
}

// Middleware satisfies mux.MiddlewareFunc.
func (m *BasicAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(r) {
			m.logger.Debug("basic-authentication-failed", lager.Data{"remoteAddr": r.RemoteAddr})
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *BasicAuthMiddleware) authorized(r *http.Request) bool {
	if m.usernameHash == nil && m.passwordHash == nil {
		return true
	}
	username, password, ok := r.BasicAuth()
	return ok &&
		bcrypt.CompareHashAndPassword(m.usernameHash, []byte(username)) == nil &&
		bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
}

func hashCredential(logger lager.Logger, name string, configuredHash string, cleartext string) ([]byte, error) {
	if configuredHash != "" {
		return []byte(configuredHash), nil
	}

	// bcrypt refuses anything beyond 72 bytes
	if len(cleartext) > 72 {
		logger.Error("configured-"+name+"-too-long", bcrypt.ErrPasswordTooLong, lager.Data{"length": len(cleartext)})
		cleartext = cleartext[:72]
	}

	// MinCost, the cleartext already sits in the config file
	hash, err := bcrypt.GenerateFromPassword([]byte(cleartext), bcrypt.MinCost)
	if err != nil {
		logger.Error("failed-hashing-"+name, err)
		return nil, err
	}
	return hash, nil
}
