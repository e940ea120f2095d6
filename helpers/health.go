package helpers

import (
	"fmt"

	"github.com/oligostore/gateway/models"
)

type HealthConfig struct {
	ServerConfig          ServerConfig     `yaml:"server_config" json:"server_config"`
	BasicAuth             models.BasicAuth `yaml:"basic_auth" json:"basic_auth"`
	ReadinessCheckEnabled bool             `yaml:"readiness_enabled" json:"readiness_enabled"`
}

func (c *HealthConfig) Validate() error {
	if err := c.BasicAuth.Validate(); err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	return nil
}
