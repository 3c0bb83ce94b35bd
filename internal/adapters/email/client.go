// Package email sends transactional email through a Postmark-compatible HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/model"
)

const tokenHeader = "X-Postmark-Server-Token"

// Config configures the email client.
type Config struct {
	BaseURL            string
	Sender             model.SubscriberEmail
	AuthorizationToken string
	Timeout            time.Duration // Applied per send; defaults to 10s
	HTTPClient         *http.Client  // Optional
}

// Client implements core.EmailSender. Each SendEmail is a single attempt.
type Client struct {
	endpoint string
	sender   model.SubscriberEmail
	token    string
	timeout  time.Duration
	http     *http.Client
}

var _ core.EmailSender = (*Client)(nil)

// NewClient builds an email client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("email base url is required")
	}
	if cfg.Sender == "" {
		return nil, errors.New("email sender is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		endpoint: base + "/email",
		sender:   cfg.Sender,
		token:    cfg.AuthorizationToken,
		timeout:  timeout,
		http:     hc,
	}, nil
}

type sendEmailBody struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendEmail posts one email. Any non-2xx response is an error.
func (c *Client) SendEmail(ctx context.Context, req core.SendEmailRequest) error {
	body, err := json.Marshal(sendEmailBody{
		From:     string(c.sender),
		To:       string(req.Recipient),
		Subject:  req.Subject,
		HTMLBody: req.HTMLBody,
		TextBody: req.TextBody,
	})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
