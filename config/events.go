package config

import "strings"

// EventsConfig controls publication of domain events to an AMQP broker.
// Publishing is disabled when AMQPURL is empty.
type EventsConfig struct {
	AMQPURL  string `env:"AMQP_URL"`
	Exchange string `env:"EXCHANGE" envDefault:"newsletter.events"`
}

// Sanitize normalises event configuration values.
func (c *EventsConfig) Sanitize() {
	c.AMQPURL = strings.TrimSpace(c.AMQPURL)
	if c.Exchange = strings.TrimSpace(c.Exchange); c.Exchange == "" {
		c.Exchange = "newsletter.events"
	}
}

// Enabled reports whether domain events are published.
func (c *EventsConfig) Enabled() bool { return c.AMQPURL != "" }
