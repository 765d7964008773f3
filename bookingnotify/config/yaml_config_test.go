// --- File: bookingnotify/config/yaml_config_test.go ---
package config_test

import (
	"testing"
	"time"

	"github.com/lodgekeep/go-booking-notifications/bookingnotify/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:              "yaml-project",
			ListenAddr:             ":9000",
			TopicID:                "yaml-topic",
			SubscriptionID:         "yaml-subscription",
			SubscriptionDLQTopicID: "yaml-dlq",
			NumPipelineWorkers:     5,
			CorsConfig: config.YamlCorsConfig{
				AllowedOrigins: []string{"http://yaml.com"},
				Role:           "editor",
			},
			RedisConfig: config.YamlRedisConfig{
				Addr:    "localhost:6379",
				Enabled: true,
				Stream:  "yaml-stream",
			},
			SMSConfig: config.YamlSMSConfig{
				Endpoint: "https://yaml.example/sms",
				APIKey:   "yaml-api-key",
				Route:    "transactional",
			},
			PushConfig: config.YamlPushConfig{
				Platform:     "apns",
				APNSKeyID:    "yaml-key-id",
				APNSTeamID:   "yaml-team-id",
				APNSBundleID: "com.example.bookings",
			},
			FallbackAdminIDs: []string{"admin-fallback-1"},
			ProviderTimeout:  "15s",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		// 1. Direct Field Mapping
		assert.Equal(t, "yaml-project", cfg.ProjectID)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "yaml-topic", cfg.TopicID)
		assert.Equal(t, "yaml-subscription", cfg.SubscriptionID)
		assert.Equal(t, "yaml-dlq", cfg.SubscriptionDLQTopicID)
		assert.Equal(t, 5, cfg.NumPipelineWorkers)

		// 2. Complex Logic: CORS
		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, middleware.CorsRoleEditor, cfg.CorsConfig.Role)

		// 3. Domain sections
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "yaml-stream", cfg.Redis.Stream)
		assert.Equal(t, "https://yaml.example/sms", cfg.SMS.Endpoint)
		assert.Equal(t, "apns", cfg.Push.Platform)
		assert.Equal(t, "yaml-key-id", cfg.Push.APNSKeyID)
		assert.Equal(t, []string{"admin-fallback-1"}, cfg.FallbackAdminIDs)
		assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)

		assert.NotNil(t, cfg.PubsubConsumerConfig)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:      "minimal-project",
			SubscriptionID: "minimal-sub",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "minimal-project", cfg.ProjectID)
		assert.Equal(t, 0, cfg.NumPipelineWorkers)
		assert.Empty(t, cfg.ListenAddr)
		assert.Empty(t, cfg.Push.Platform)
		assert.Zero(t, cfg.ProviderTimeout)
	})

	t.Run("Bad provider_timeout falls back to zero", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ProjectID:       "p",
			SubscriptionID:  "s",
			ProviderTimeout: "soon",
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)
		require.NoError(t, err)
		assert.Zero(t, cfg.ProviderTimeout)
	})
}
