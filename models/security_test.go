package models_test

import (
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/oligostore/gateway/models"
	"github.com/oligostore/gateway/testhelpers"
)

var _ = Describe("TLSCerts", func() {
	var (
		certs    *testhelpers.TestCerts
		tlsCerts models.TLSCerts
	)

	BeforeEach(func() {
		certs = testhelpers.GenerateServerCertFiles(GinkgoT().TempDir())
		tlsCerts = models.TLSCerts{
			CertFile: certs.CertFile,
			KeyFile:  certs.KeyFile,
		}
	})

	Describe("Validate", func() {
		When("the pair is complete and present on disk", func() {
			It("succeeds", func() {
				Expect(tlsCerts.Validate()).To(Succeed())
			})
		})

		When("a ca certificate is configured as well", func() {
			It("succeeds", func() {
				tlsCerts.CACertFile = certs.CertFile
				Expect(tlsCerts.Validate()).To(Succeed())
			})
		})

		When("the key file is missing from the pair", func() {
			It("fails", func() {
				tlsCerts.KeyFile = ""
				err := tlsCerts.Validate()
				Expect(errors.Is(err, models.ErrConfiguration)).To(BeTrue())
				Expect(err).To(MatchError("configuration error: both cert_file and key_file are required"))
			})
		})

		When("a referenced file does not exist", func() {
			It("fails", func() {
				tlsCerts.CertFile = "/no/such/cert"
				err := tlsCerts.Validate()
				Expect(errors.Is(err, models.ErrConfiguration)).To(BeTrue())
				Expect(err).To(MatchError(ContainSubstring(`failed to stat "/no/such/cert"`)))
			})
		})
	})

	Describe("CreateServerConfig", func() {
		When("the pair loads", func() {
			It("returns a tls config carrying the identity", func() {
				serverConfig, err := tlsCerts.CreateServerConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(serverConfig).NotTo(BeNil())
				Expect(serverConfig.Certificates).To(HaveLen(1))
			})
		})

		When("no certificates are configured", func() {
			It("returns nothing", func() {
				empty := models.TLSCerts{}
				serverConfig, err := empty.CreateServerConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(serverConfig).To(BeNil())
			})
		})

		When("the key does not belong to the certificate", func() {
			It("fails", func() {
				otherCerts := testhelpers.GenerateServerCertFiles(filepath.Join(GinkgoT().TempDir(), "other"))
				tlsCerts.KeyFile = otherCerts.KeyFile
				serverConfig, err := tlsCerts.CreateServerConfig()
				Expect(err).To(HaveOccurred())
				Expect(serverConfig).To(BeNil())
			})
		})
	})

	Describe("CreateClientConfig", func() {
		When("a ca certificate is configured", func() {
			It("returns a tls config trusting it", func() {
				tlsCerts.CACertFile = certs.CertFile
				clientConfig, err := tlsCerts.CreateClientConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(clientConfig).NotTo(BeNil())
				Expect(clientConfig.RootCAs).NotTo(BeNil())
			})
		})

		When("no certificates are configured", func() {
			It("returns nothing", func() {
				empty := models.TLSCerts{}
				clientConfig, err := empty.CreateClientConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(clientConfig).To(BeNil())
			})
		})
	})
})

var _ = Describe("BasicAuth", func() {
	Describe("Validate", func() {
		When("no credential material is present", func() {
			It("succeeds", func() {
				basicAuth := models.BasicAuth{}
				Expect(basicAuth.Validate()).To(Succeed())
				Expect(basicAuth.Unconfigured()).To(BeTrue())
			})
		})

		When("username and password are set", func() {
			It("succeeds", func() {
				basicAuth := models.BasicAuth{Username: "healthuser", Password: "healthpass"}
				Expect(basicAuth.Validate()).To(Succeed())
				Expect(basicAuth.Unconfigured()).To(BeFalse())
			})
		})

		When("hashes are set instead of cleartext", func() {
			It("succeeds", func() {
				usernameHash, err := bcrypt.GenerateFromPassword([]byte("healthuser"), bcrypt.MinCost)
				Expect(err).NotTo(HaveOccurred())
				passwordHash, err := bcrypt.GenerateFromPassword([]byte("healthpass"), bcrypt.MinCost)
				Expect(err).NotTo(HaveOccurred())

				basicAuth := models.BasicAuth{UsernameHash: string(usernameHash), PasswordHash: string(passwordHash)}
				Expect(basicAuth.Validate()).To(Succeed())
			})
		})

		When("both password and password_hash are set", func() {
			It("fails", func() {
				basicAuth := models.BasicAuth{Username: "healthuser", Password: "healthpass", PasswordHash: "something"}
				err := basicAuth.Validate()
				Expect(errors.Is(err, models.ErrConfiguration)).To(BeTrue())
				Expect(err).To(MatchError("configuration error: both password and password_hash are set, please provide only one of them"))
			})
		})

		When("a hash is not valid bcrypt", func() {
			It("fails", func() {
				basicAuth := models.BasicAuth{UsernameHash: "not-bcrypt"}
				err := basicAuth.Validate()
				Expect(errors.Is(err, models.ErrConfiguration)).To(BeTrue())
				Expect(err).To(MatchError("configuration error: username_hash is not a valid bcrypt hash"))
			})
		})

		When("a username comes without a password", func() {
			It("fails", func() {
				basicAuth := models.BasicAuth{Username: "healthuser"}
				Expect(basicAuth.Validate()).To(MatchError("configuration error: password is empty"))
			})
		})

		When("a password comes without a username", func() {
			It("fails", func() {
				basicAuth := models.BasicAuth{Password: "healthpass"}
				Expect(basicAuth.Validate()).To(MatchError("configuration error: username is empty"))
			})
		})
	})
})
