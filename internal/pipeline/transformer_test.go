package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/go-booking-notifications/internal/pipeline"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

func TestEventTransformer(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a valid event with its typed payload", func(t *testing.T) {
		payload := []byte(`{
			"id": "evt-1",
			"kind": "new_booking_alert",
			"payload": {
				"booking_id": "B77",
				"hotel_name": "Sea Breeze",
				"guest_name": "Asha",
				"check_in": "2026-09-01",
				"check_out": "2026-09-03",
				"room_type": "Deluxe"
			},
			"admin_hint": {"hotel_id": "H1"}
		}`)

		msg := &messagepipeline.Message{}
		msg.ID = "msg-1"
		msg.Payload = payload

		event, skip, err := pipeline.EventTransformer(ctx, msg)

		require.NoError(t, err)
		assert.False(t, skip)
		assert.Equal(t, notify.EventNewBookingAlert, event.Kind)

		p, ok := event.Payload.(notify.NewBookingAlertPayload)
		require.True(t, ok, "payload should decode to the kind's concrete type")
		assert.Equal(t, "Sea Breeze", p.HotelName)
		require.NotNil(t, event.AdminHint)
		assert.Equal(t, "H1", event.AdminHint.HotelID)
	})

	t.Run("malformed json is skipped for DLQ", func(t *testing.T) {
		msg := &messagepipeline.Message{}
		msg.ID = "msg-2"
		msg.Payload = []byte(`{"not valid`)

		event, skip, err := pipeline.EventTransformer(ctx, msg)

		require.Error(t, err)
		assert.True(t, skip)
		assert.Nil(t, event)
	})

	t.Run("unknown event kind is skipped for DLQ", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]any{"id": "evt-2", "kind": "room_service"})
		msg := &messagepipeline.Message{}
		msg.ID = "msg-3"
		msg.Payload = payload

		event, skip, err := pipeline.EventTransformer(ctx, msg)

		require.Error(t, err)
		assert.True(t, skip)
		assert.Nil(t, event)
		assert.Contains(t, err.Error(), "unknown event kind")
	})
}
