// Package expo provides a push provider backed by an Expo-compatible HTTP
// push gateway, the transport the mobile client registers its tokens with.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

type Provider struct {
	endpoint   string
	authToken  string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewProvider builds the gateway client. authToken is optional; when set it
// is sent as a bearer token on every request.
func NewProvider(endpoint, authToken string, logger *slog.Logger) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Provider{
		endpoint:   endpoint,
		authToken:  authToken,
		logger:     logger.With("component", "ExpoPushProvider"),
		httpClient: &http.Client{},
	}
}

type pushMessage struct {
	To        string            `json:"to"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
	Priority  string            `json:"priority"`
}

// ticket is one per-recipient receipt inside the gateway response.
type ticket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Send submits one message and reads the gateway's receipt. The gateway is
// inconsistent about its response shape: `data` is a single receipt object
// for some deployments and a one-element array for others, so both shapes are
// decoded explicitly. Anything that is not an explicit "ok" status counts as
// failure.
func (p *Provider) Send(ctx context.Context, token, title, body string, data map[string]string, channelClass string) error {
	msg := pushMessage{
		To:        token,
		Title:     title,
		Body:      body,
		Data:      data,
		ChannelID: channelClass,
		Priority:  "high",
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway transport failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Warn("Push gateway rejected request", "status", resp.StatusCode)
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read push gateway response: %w", err)
	}

	tk, err := decodeReceipt(raw)
	if err != nil {
		p.logger.Warn("Unparseable push gateway response", "err", err)
		return err
	}
	if tk.Status != "ok" {
		return fmt.Errorf("push gateway reported %q: %s", tk.Status, tk.Message)
	}
	return nil
}

// decodeReceipt handles the gateway's two response shapes: either
// {"data": {ticket}} or {"data": [{ticket}, ...]}. On the array shape the
// first element carries our single recipient. Missing or empty data defaults
// to failure, never to success.
func decodeReceipt(raw []byte) (ticket, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ticket{}, fmt.Errorf("malformed gateway response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return ticket{}, fmt.Errorf("gateway response has no data field")
	}

	var single ticket
	if err := json.Unmarshal(envelope.Data, &single); err == nil && single.Status != "" {
		return single, nil
	}

	var many []ticket
	if err := json.Unmarshal(envelope.Data, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}

	return ticket{}, fmt.Errorf("gateway response data has unrecognized shape")
}
