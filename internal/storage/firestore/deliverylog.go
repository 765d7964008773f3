package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

const deliveryLogCollection = "delivery_log"

// DeliveryLog appends outcome records to the delivery_log collection.
// Append-only: nothing in this service updates or deletes entries; retention
// is handled by a scheduled cleanup outside this repo.
type DeliveryLog struct {
	client *firestore.Client
}

func NewDeliveryLog(client *firestore.Client) *DeliveryLog {
	return &DeliveryLog{client: client}
}

func (l *DeliveryLog) Append(ctx context.Context, outcome notify.DeliveryOutcome) error {
	_, err := l.client.Collection(deliveryLogCollection).NewDoc().Create(ctx, outcome)
	if err != nil {
		return fmt.Errorf("failed to append delivery outcome: %w", err)
	}
	return nil
}
