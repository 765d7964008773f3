// Package fcm provides the Firebase Cloud Messaging implementation of the
// push provider.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Provider struct {
	client MessagingClient
	logger *slog.Logger
}

// NewProvider accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewProvider(client MessagingClient, logger *slog.Logger) *Provider {
	return &Provider{
		client: client,
		logger: logger.With("component", "FCMProvider"),
	}
}

// Send submits exactly one message for the given device token. The channel
// class becomes the Android notification channel id, which is what lets the
// client app and FCM prioritize admin alerts over routine booking updates.
func (p *Provider) Send(ctx context.Context, token, title, body string, data map[string]string, channelClass string) error {
	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Title:     title,
				Body:      body,
				ChannelID: channelClass,
			},
		},
	}

	id, err := p.client.Send(ctx, msg)
	if err != nil {
		// Triage the SDK error: a dead or malformed token is a permanent
		// failure, anything else is transport.
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			p.logger.Warn("FCM rejected token as unusable", "err", err)
			return fmt.Errorf("fcm token rejected: %w", err)
		}
		return fmt.Errorf("fcm transport failed: %w", err)
	}

	p.logger.Debug("FCM message accepted", "message_id", id)
	return nil
}
