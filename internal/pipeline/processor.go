package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

// EventDispatcher is the orchestration entry point the pipeline feeds.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event notify.Event) bool
}

// NewProcessor builds the pipeline stage that hands each decoded event to the
// dispatcher. Delivery is single-attempt by design: a failed dispatch is
// logged and Acked, never returned as a pipeline error, because returning an
// error would trigger a redelivery and a second provider attempt. Callers
// needing per-channel detail consult the delivery log.
func NewProcessor(
	dispatcher EventDispatcher,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[notify.Event] {

	return func(ctx context.Context, original messagepipeline.Message, event *notify.Event) error {
		procLogger := logger.With(
			"event_id", event.ID,
			"kind", string(event.Kind),
			"pubsub_msg_id", original.ID,
		)

		if ok := dispatcher.Dispatch(ctx, *event); !ok {
			procLogger.Warn("Dispatch reported failure; see delivery log for per-channel detail")
			return nil
		}

		procLogger.Info("Dispatch succeeded")
		return nil
	}
}
