// Package redislog implements the delivery log on a Redis stream. Streams are
// append-only, which matches the log contract exactly: this service only ever
// XADDs, trimming and read-back belong to external tooling.
package redislog

import (
	"context"
	"fmt"
	"time"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

const defaultStream = "notify:deliveries"

// StreamClient defines the single Redis command this package needs.
type StreamClient interface {
	// Append adds one entry to the stream.
	Append(ctx context.Context, stream string, values map[string]any) error
}

// DeliveryLog appends outcomes to a Redis stream.
type DeliveryLog struct {
	client StreamClient
	stream string
}

func NewDeliveryLog(client StreamClient, stream string) *DeliveryLog {
	if stream == "" {
		stream = defaultStream
	}
	return &DeliveryLog{client: client, stream: stream}
}

func (l *DeliveryLog) Append(ctx context.Context, outcome notify.DeliveryOutcome) error {
	values := map[string]any{
		"event_id":     outcome.EventID,
		"channel":      string(outcome.Channel),
		"event_kind":   string(outcome.EventKind),
		"recipient_id": outcome.RecipientID,
		"succeeded":    outcome.Succeeded,
		"timestamp":    outcome.Timestamp.Format(time.RFC3339Nano),
	}
	if err := l.client.Append(ctx, l.stream, values); err != nil {
		return fmt.Errorf("failed to append to delivery stream: %w", err)
	}
	return nil
}
