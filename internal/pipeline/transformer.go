// Package pipeline contains the message processing components feeding
// Pub/Sub booking events into the dispatcher.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// EventTransformer is a dataflow Transformer that safely unmarshals and
// validates a raw message payload into a structured notify.Event.
//
// It relies on Event's UnmarshalJSON, which selects the concrete payload type
// by event kind and rejects unknown kinds, so malformed or unrecognized
// events never reach the dispatcher.
func EventTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notify.Event, bool, error) {
	var event notify.Event

	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// skip=true hands Nack/DLQ handling to the StreamingService.
		return nil, true, fmt.Errorf("failed to unmarshal booking event from message %s: %w", msg.ID, err)
	}

	return &event, false, nil
}
