// --- File: bookingnotify/service.go ---
package bookingnotify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/microservice"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/lodgekeep/go-booking-notifications/bookingnotify/config"
	"github.com/lodgekeep/go-booking-notifications/internal/api"
	"github.com/lodgekeep/go-booking-notifications/internal/dispatch"
	"github.com/lodgekeep/go-booking-notifications/internal/metrics"
	"github.com/lodgekeep/go-booking-notifications/internal/pipeline"
	"github.com/lodgekeep/go-booking-notifications/internal/resolve"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"
)

type Wrapper struct {
	*microservice.BaseServer
	pipelineService *messagepipeline.StreamingService[notify.Event]
	logger          *slog.Logger
}

// New assembles the service: the Pub/Sub consumer feeding the dispatcher,
// plus the HTTP doors (direct dispatch, contact validation, admin lookup).
func New(
	cfg *config.Config,
	consumer messagepipeline.MessageConsumer,
	users notify.Directory,
	hotels notify.HotelDirectory,
	push notify.PushProvider,
	sms notify.SMSProvider,
	deliveryLog notify.DeliveryLog,
	m *metrics.Metrics,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) (*Wrapper, error) {

	// 1. Base Server
	baseServer := microservice.NewBaseServer(logger, cfg.ListenAddr)

	// 2. Dispatch orchestration
	resolver := resolve.New(users, hotels, logger)
	dispatcher := dispatch.New(
		dispatch.Config{
			FallbackAdminIDs: cfg.FallbackAdminIDs,
			ProviderTimeout:  cfg.ProviderTimeout,
		},
		users, resolver, push, sms, deliveryLog, m, logger,
	)

	// 3. Pipeline
	processor := pipeline.NewProcessor(dispatcher, logger)
	streamingService, err := messagepipeline.NewStreamingService(
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumPipelineWorkers},
		consumer,
		pipeline.EventTransformer,
		processor,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create streaming service: %w", err)
	}

	// 4. API
	dispatchAPI := api.NewDispatchAPI(dispatcher, resolver, cfg.FallbackAdminIDs, logger)

	// Register Routes
	mux := baseServer.Mux()
	corsMiddleware := middleware.NewCorsMiddleware(cfg.CorsConfig, logger)

	handle := func(pattern string, handlerFunc http.HandlerFunc) {
		mux.Handle(pattern, corsMiddleware(authMiddleware(handlerFunc)))
	}

	handle("POST /api/v1/notifications", dispatchAPI.Dispatch)
	handle("GET /api/v1/admin-contact", dispatchAPI.AdminContact)

	// Validation is side-effect free and carries no directory data, so it
	// stays outside the auth middleware for the booking frontend.
	mux.Handle("POST /api/v1/contacts/validate", corsMiddleware(http.HandlerFunc(dispatchAPI.ValidateContact)))

	// Global OPTIONS for the API namespace (CORS preflight)
	mux.Handle("OPTIONS /api/v1/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Just returns 200 OK with CORS headers handled by middleware
	})))

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return &Wrapper{
		BaseServer:      baseServer,
		pipelineService: streamingService,
		logger:          logger,
	}, nil
}

func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info("Core processing pipeline starting...")
	if err := w.pipelineService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start processing service: %w", err)
	}
	w.SetReady(true)
	w.logger.Info("Service is now ready.")
	return w.BaseServer.Start()
}

func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down service components...")
	var finalErr error
	if err := w.pipelineService.Stop(ctx); err != nil {
		w.logger.Error("Processing pipeline shutdown failed.", "err", err)
		finalErr = err
	}
	if err := w.BaseServer.Shutdown(ctx); err != nil {
		w.logger.Error("HTTP server shutdown failed.", "err", err)
		finalErr = err
	}
	w.logger.Info("Service shutdown complete.")
	return finalErr
}
