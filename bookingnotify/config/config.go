// --- File: bookingnotify/config/config.go ---
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type SMSConfig struct {
	Endpoint string
	APIKey   string
	Route    string
}

// PushConfig selects and configures the push transport. Exactly one
// platform is active per deployment: "fcm", "apns" or "expo".
type PushConfig struct {
	Platform string

	// APNS credentials (p8 token auth).
	APNSKeyID     string
	APNSTeamID    string
	APNSBundleID  string
	APNSKeyPath   string
	APNSSandbox   bool
	ExpoEndpoint  string
	ExpoAuthToken string
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	SMS        SMSConfig
	Push       PushConfig

	FallbackAdminIDs []string
	ProviderTimeout  time.Duration

	TopicID              string
	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	if val := os.Getenv("SUBSCRIPTION_DLQ_TOPIC_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_DLQ_TOPIC_ID", "source", "env")
		cfg.SubscriptionDLQTopicID = val
	}
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}
	if val := os.Getenv("REDIS_STREAM"); val != "" {
		cfg.Redis.Stream = val
	}

	// SMS Overrides
	if val := os.Getenv("SMS_ENDPOINT"); val != "" {
		logger.Debug("Overriding config value", "key", "SMS_ENDPOINT", "source", "env")
		cfg.SMS.Endpoint = val
	}
	if val := os.Getenv("SMS_API_KEY"); val != "" {
		logger.Debug("Overriding config value", "key", "SMS_API_KEY", "source", "env")
		cfg.SMS.APIKey = val
	}
	if val := os.Getenv("SMS_ROUTE"); val != "" {
		cfg.SMS.Route = val
	}

	// Push Overrides
	if val := os.Getenv("PUSH_PLATFORM"); val != "" {
		logger.Debug("Overriding config value", "key", "PUSH_PLATFORM", "source", "env")
		cfg.Push.Platform = val
	}
	if val := os.Getenv("APNS_KEY_ID"); val != "" {
		cfg.Push.APNSKeyID = val
	}
	if val := os.Getenv("APNS_TEAM_ID"); val != "" {
		cfg.Push.APNSTeamID = val
	}
	if val := os.Getenv("APNS_BUNDLE_ID"); val != "" {
		cfg.Push.APNSBundleID = val
	}
	if val := os.Getenv("APNS_KEY_PATH"); val != "" {
		cfg.Push.APNSKeyPath = val
	}
	if val := os.Getenv("EXPO_ENDPOINT"); val != "" {
		cfg.Push.ExpoEndpoint = val
	}
	if val := os.Getenv("EXPO_AUTH_TOKEN"); val != "" {
		cfg.Push.ExpoAuthToken = val
	}

	// Dispatch Overrides
	if val := os.Getenv("FALLBACK_ADMIN_IDS"); val != "" {
		logger.Debug("Overriding config value", "key", "FALLBACK_ADMIN_IDS", "source", "env")
		rawIDs := strings.Split(val, ",")
		var cleanIDs []string
		for _, id := range rawIDs {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				cleanIDs = append(cleanIDs, trimmed)
			}
		}
		cfg.FallbackAdminIDs = cleanIDs
	}
	if val := os.Getenv("PROVIDER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			cfg.ProviderTimeout = d
		}
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}
	switch cfg.Push.Platform {
	case "", "fcm", "apns", "expo":
	default:
		return nil, fmt.Errorf("push platform must be one of fcm, apns, expo (got %q)", cfg.Push.Platform)
	}
	if cfg.Push.Platform == "" {
		cfg.Push.Platform = "fcm"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
