package config

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oligostore/gateway/helpers"
	"github.com/oligostore/gateway/models"
)

const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultResponseHeaderTimeout = 60 * time.Second
	DefaultProbeTTL              = 5 * time.Second
)

var defaultServerConfig = helpers.ServerConfig{
	Port: 443,
}

var defaultRedirectServerConfig = helpers.ServerConfig{
	Port: 80,
}

var defaultHealthConfig = helpers.HealthConfig{
	ServerConfig: helpers.ServerConfig{
		Port: 8081,
	},
}

var defaultLoggingConfig = helpers.LoggingConfig{
	Level: "info",
}

type UpstreamConfig struct {
	URL                   string        `yaml:"url"`
	DialTimeout           time.Duration `yaml:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
	ProbeTTL              time.Duration `yaml:"probe_ttl"`
}

type FilesConfig struct {
	StaticDir string `yaml:"static_dir"`
	MediaDir  string `yaml:"media_dir"`
}

type Config struct {
	Logging        helpers.LoggingConfig  `yaml:"logging"`
	Server         helpers.ServerConfig   `yaml:"server"`
	RedirectServer helpers.ServerConfig   `yaml:"redirect_server"`
	Health         helpers.HealthConfig   `yaml:"health"`
	Upstream       UpstreamConfig         `yaml:"upstream"`
	Files          FilesConfig            `yaml:"files"`
	RateLimit      models.RateLimitConfig `yaml:"rate_limit"`
	TrustedProxies []string               `yaml:"trusted_proxies"`
	MaxBodySize    int64                  `yaml:"max_body_size"`
}

func LoadConfig(reader io.Reader) (*Config, error) {
	conf := &Config{
		Logging:        defaultLoggingConfig,
		Server:         defaultServerConfig,
		RedirectServer: defaultRedirectServerConfig,
		Health:         defaultHealthConfig,
		Upstream: UpstreamConfig{
			DialTimeout:           DefaultDialTimeout,
			ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
			ProbeTTL:              DefaultProbeTTL,
		},
	}

	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	err := dec.Decode(conf)

	if err != nil {
		return nil, err
	}

	conf.Logging.Level = strings.ToLower(conf.Logging.Level)

	return conf, nil
}

func (c *Config) Validate() error {
	if err := c.Server.TLS.Validate(); err != nil {
		return fmt.Errorf("server.tls: %w", err)
	}

	// The redirect listener only ever answers 301; it stays plaintext.
	if c.RedirectServer.TLS.CertFile != "" || c.RedirectServer.TLS.KeyFile != "" {
		return fmt.Errorf("Configuration error: redirect_server must not carry tls certificates")
	}

	if c.Upstream.URL == "" {
		return fmt.Errorf("Configuration error: upstream.url is empty")
	}

	upstreamURL, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return fmt.Errorf("Configuration error: upstream.url is not a valid url: %w", err)
	}

	// The upstream leg is plaintext; encryption terminates at this process.
	if upstreamURL.Scheme != "http" {
		return fmt.Errorf("Configuration error: upstream.url scheme must be http, got %q", upstreamURL.Scheme)
	}

	if upstreamURL.Host == "" {
		return fmt.Errorf("Configuration error: upstream.url has no host")
	}

	if c.Upstream.DialTimeout <= time.Duration(0) {
		return fmt.Errorf("Configuration error: upstream.dial_timeout is less-equal than 0")
	}

	if c.Upstream.ResponseHeaderTimeout <= time.Duration(0) {
		return fmt.Errorf("Configuration error: upstream.response_header_timeout is less-equal than 0")
	}

	if c.Upstream.ProbeTTL <= time.Duration(0) {
		return fmt.Errorf("Configuration error: upstream.probe_ttl is less-equal than 0")
	}

	if c.Files.StaticDir == "" {
		return fmt.Errorf("Configuration error: files.static_dir is empty")
	}

	if c.Files.MediaDir == "" {
		return fmt.Errorf("Configuration error: files.media_dir is empty")
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("Configuration error: trusted_proxies entry %q is not a valid CIDR", cidr)
		}
	}

	if c.MaxBodySize < 0 {
		return fmt.Errorf("Configuration error: max_body_size is negative")
	}

	if err := c.RateLimit.Validate(); err != nil {
		return err
	}

	if err := c.Health.Validate(); err != nil {
		return err
	}

	return nil
}
