package config

import (
	"strings"
	"time"
)

// EmailClientConfig configures the outbound email provider client.
type EmailClientConfig struct {
	// BaseURL is the provider API root; requests go to {BaseURL}/email.
	BaseURL string `env:"BASE_URL" envDefault:"https://api.postmarkapp.com"`

	// Sender is the From address of every outgoing email.
	Sender string `env:"SENDER" envDefault:"newsletter@example.com"`

	// AuthorizationToken is sent as X-Postmark-Server-Token.
	AuthorizationToken string `env:"AUTHORIZATION_TOKEN"`

	// Timeout bounds a single send; a timed out send counts as a failed send.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize normalises email client configuration values.
func (c *EmailClientConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Sender = strings.TrimSpace(c.Sender)
	c.AuthorizationToken = strings.TrimSpace(c.AuthorizationToken)
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
