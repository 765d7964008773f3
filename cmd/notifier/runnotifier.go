// --- File: cmd/notifier/runnotifier.go ---
package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"

	firebase "firebase.google.com/go/v4"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/lodgekeep/go-booking-notifications/internal/metrics"
	"github.com/lodgekeep/go-booking-notifications/internal/platform/apns"
	"github.com/lodgekeep/go-booking-notifications/internal/platform/expo"
	"github.com/lodgekeep/go-booking-notifications/internal/platform/fcm"
	"github.com/lodgekeep/go-booking-notifications/internal/platform/sms"
	fsStore "github.com/lodgekeep/go-booking-notifications/internal/storage/firestore"
	"github.com/lodgekeep/go-booking-notifications/internal/storage/redislog"
	"github.com/lodgekeep/go-booking-notifications/pkg/notify"

	"github.com/lodgekeep/go-booking-notifications/bookingnotify"
	"github.com/lodgekeep/go-booking-notifications/bookingnotify/config"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-booking-notifications")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Infrastructure Clients ---
	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("PubSub client failed", "err", err)
		os.Exit(1)
	}
	defer psClient.Close()

	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Error("Firestore client failed", "err", err)
		os.Exit(1)
	}
	defer fsClient.Close()

	// --- Storage ---
	directory := fsStore.NewDirectory(fsClient)

	var deliveryLog notify.DeliveryLog = fsStore.NewDeliveryLog(fsClient)
	logger.Info("DeliveryLog initialized", "type", "firestore")

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis delivery stream...", "addr", cfg.Redis.Addr)
		redisClient, err := redislog.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		deliveryLog = redislog.NewDeliveryLog(redisClient, cfg.Redis.Stream)
		logger.Info("DeliveryLog upgraded", "type", "redis_stream")
	}

	// --- Auth ---
	identityURL := os.Getenv("IDENTITY_SERVICE_URL")
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, err := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	if err != nil {
		logger.Error("JWKS discovery failed", "identity_url", identityURL, "err", err)
		os.Exit(1)
	}
	authMiddleware, err := middleware.NewJWKSAuthMiddleware(jwksURL, logger)
	if err != nil {
		logger.Error("Auth middleware setup failed", "err", err)
		os.Exit(1)
	}

	// --- Providers ---
	pushProvider, err := newPushProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("Push provider setup failed", "platform", cfg.Push.Platform, "err", err)
		os.Exit(1)
	}
	logger.Info("Push provider initialized", "platform", cfg.Push.Platform)

	if cfg.SMS.APIKey == "" {
		logger.Warn("SMS API key missing in configuration. SMS delivery will fail.")
	}
	smsProvider := sms.NewProvider(sms.Config{
		Endpoint: cfg.SMS.Endpoint,
		APIKey:   cfg.SMS.APIKey,
		Route:    cfg.SMS.Route,
	}, logger)

	// --- Consumer & Service ---
	m := metrics.New()
	consumer, err := newIngestionConsumer(ctx, cfg, psClient, logger)
	if err != nil {
		logger.Error("Consumer setup failed", "err", err)
		os.Exit(1)
	}

	service, err := bookingnotify.New(
		cfg,
		consumer,
		directory,
		directory,
		pushProvider,
		smsProvider,
		deliveryLog,
		m,
		authMiddleware,
		logger,
	)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

// newPushProvider selects the configured push transport.
func newPushProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notify.PushProvider, error) {
	switch cfg.Push.Platform {
	case "fcm":
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase App: %w", err)
		}
		fcmMessaging, err := fbApp.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create FCM messaging client: %w", err)
		}
		return fcm.NewProvider(fcmMessaging, logger), nil

	case "apns":
		keyContent, err := os.ReadFile(cfg.Push.APNSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read APNs key file: %w", err)
		}
		return apns.NewProvider(apns.Config{
			KeyID:        cfg.Push.APNSKeyID,
			TeamID:       cfg.Push.APNSTeamID,
			BundleID:     cfg.Push.APNSBundleID,
			P8KeyContent: string(keyContent),
			Sandbox:      cfg.Push.APNSSandbox,
		}, logger)

	case "expo":
		return expo.NewProvider(cfg.Push.ExpoEndpoint, cfg.Push.ExpoAuthToken, logger), nil
	}
	return nil, fmt.Errorf("unknown push platform %q", cfg.Push.Platform)
}

func newIngestionConsumer(ctx context.Context, cfg *config.Config, psClient *pubsub.Client, logger *slog.Logger) (messagepipeline.MessageConsumer, error) {
	sub := convertPubsub(cfg.ProjectID, cfg.PubsubConsumerConfig.SubscriptionID, "subscriptions")
	topicID := convertPubsub(cfg.ProjectID, cfg.TopicID, "topics")
	dlt := convertPubsub(cfg.ProjectID, cfg.SubscriptionDLQTopicID, "topics")

	subConfig := &pubsubpb.Subscription{
		Name:               sub,
		Topic:              topicID,
		AckDeadlineSeconds: 10,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     dlt,
			MaxDeliveryAttempts: 5,
		},
		EnableMessageOrdering: false,
	}
	logger.Debug("Ensuring subscription exists", "sub", subConfig.Name, "topic", subConfig.Topic)
	_, err := psClient.SubscriptionAdminClient.CreateSubscription(ctx, subConfig)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			logger.Debug("Subscription already exists, skipping creation", "sub", subConfig.Name)
		} else {
			logger.Error("Failed to create subscription", "sub", subConfig.Name, "err", err)
			return nil, fmt.Errorf("could not create sub: %s", sub)
		}
	}

	return messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(subConfig.Name), psClient, logger,
	)
}

type PS string

func convertPubsub(project, id string, ps PS) string {
	return fmt.Sprintf("projects/%s/%s/%s", project, ps, id)
}
