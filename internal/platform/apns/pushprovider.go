// Package apns provides the Apple Push Notification Service implementation of
// the push provider.
package apns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSClient defines the subset of the apns2.Client methods we use.
// This allows mocking for unit tests.
type APNSClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

type Provider struct {
	client APNSClient
	topic  string // The App Bundle ID (e.g. com.lodgekeep.booking)
	logger *slog.Logger
}

// Config holds the credentials required to sign APNs tokens.
type Config struct {
	KeyID    string
	TeamID   string
	BundleID string
	// P8KeyContent is the raw string content of the .p8 file
	P8KeyContent string
	Sandbox      bool
}

// NewProvider creates a configured APNS provider. It parses the P8 key
// immediately to fail fast on startup if credentials are bad.
func NewProvider(cfg Config, logger *slog.Logger) (*Provider, error) {
	authKey, err := token.AuthKeyFromBytes([]byte(cfg.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}

	tokenSource := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	client := apns2.NewTokenClient(tokenSource).Production()
	if cfg.Sandbox {
		client = client.Development()
	}

	return &Provider{
		client: client,
		topic:  cfg.BundleID,
		logger: logger.With("component", "APNSProvider"),
	}, nil
}

// Send submits one notification over the APNs HTTP/2 API. The channel class
// travels as the notification category so the client app can group and
// prioritize admin alerts.
func (p *Provider) Send(ctx context.Context, deviceToken, title, body string, data map[string]string, channelClass string) error {
	builder := payload.NewPayload().
		AlertTitle(title).
		AlertBody(body).
		Category(channelClass)
	for k, v := range data {
		builder.Custom(k, v)
	}

	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     builder,
	}

	res, err := p.client.PushWithContext(ctx, n)
	if err != nil {
		return fmt.Errorf("apns transport failed: %w", err)
	}
	if !res.Sent() {
		switch res.Reason {
		case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
			// Token is dead; delivery to this device will never succeed.
			return fmt.Errorf("apns token unusable: %s", res.Reason)
		default:
			p.logger.Warn("APNs rejected notification", "reason", res.Reason, "status", res.StatusCode)
			return fmt.Errorf("apns rejected: %s (status %d)", res.Reason, res.StatusCode)
		}
	}
	return nil
}
