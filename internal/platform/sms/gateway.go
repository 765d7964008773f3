// Package sms provides the text-messaging provider backed by the bulk SMS
// HTTP gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Config holds the gateway endpoint and credential.
type Config struct {
	Endpoint string
	APIKey   string
	// Route selects the gateway's message class; transactional traffic
	// bypasses promotional-rate throttling.
	Route string
}

type Provider struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if cfg.Route == "" {
		cfg.Route = "transactional"
	}
	return &Provider{
		cfg:        cfg,
		logger:     logger.With("component", "SMSProvider"),
		httpClient: &http.Client{},
	}
}

type sendRequest struct {
	Route   string `json:"route"`
	Numbers string `json:"numbers"`
	Message string `json:"message"`
}

// gatewayResponse carries the gateway's boolean status. RequestID is logged
// for correlation with the gateway's own delivery reports.
type gatewayResponse struct {
	Return    bool   `json:"return"`
	RequestID string `json:"request_id,omitempty"`
}

// Send submits one message to the gateway. The phone number must already be
// canonical; this provider never reshapes input. The gateway's boolean
// `return` field is the success indicator.
func (p *Provider) Send(ctx context.Context, canonicalPhone, body string) error {
	payload, err := json.Marshal(sendRequest{
		Route:   p.cfg.Route,
		Numbers: canonicalPhone,
		Message: body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway transport failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var gw gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gw); err != nil {
		return fmt.Errorf("malformed sms gateway response: %w", err)
	}
	if !gw.Return {
		return fmt.Errorf("sms gateway reported failure (request_id=%s)", gw.RequestID)
	}

	p.logger.Debug("SMS accepted by gateway", "request_id", gw.RequestID)
	return nil
}
