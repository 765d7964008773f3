// --- File: bookingnotify/config/yaml_config.go ---
package config

import (
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	Stream   string `yaml:"stream"`
}

type YamlSMSConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Route    string `yaml:"route"`
}

type YamlPushConfig struct {
	Platform      string `yaml:"platform"`
	APNSKeyID     string `yaml:"apns_key_id"`
	APNSTeamID    string `yaml:"apns_team_id"`
	APNSBundleID  string `yaml:"apns_bundle_id"`
	APNSKeyPath   string `yaml:"apns_key_path"`
	APNSSandbox   bool   `yaml:"apns_sandbox"`
	ExpoEndpoint  string `yaml:"expo_endpoint"`
	ExpoAuthToken string `yaml:"expo_auth_token"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string          `yaml:"project_id"`
	ListenAddr             string          `yaml:"listen_addr"`
	TopicID                string          `yaml:"topic_id"`
	SubscriptionID         string          `yaml:"subscription_id"`
	SubscriptionDLQTopicID string          `yaml:"subscription_dlq_topic_id"`
	CorsConfig             YamlCorsConfig  `yaml:"cors"`
	RedisConfig            YamlRedisConfig `yaml:"redis"`
	SMSConfig              YamlSMSConfig   `yaml:"sms"`
	PushConfig             YamlPushConfig  `yaml:"push"`
	FallbackAdminIDs       []string        `yaml:"fallback_admin_ids"`
	ProviderTimeout        string          `yaml:"provider_timeout"`
	NumPipelineWorkers     int             `yaml:"num_pipeline_workers"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:      baseCfg.ProjectID,
		ListenAddr:     baseCfg.ListenAddr,
		TopicID:        baseCfg.TopicID,
		SubscriptionID: baseCfg.SubscriptionID,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
			Stream:   baseCfg.RedisConfig.Stream,
		},
		SMS: SMSConfig{
			Endpoint: baseCfg.SMSConfig.Endpoint,
			APIKey:   baseCfg.SMSConfig.APIKey,
			Route:    baseCfg.SMSConfig.Route,
		},
		Push: PushConfig{
			Platform:      baseCfg.PushConfig.Platform,
			APNSKeyID:     baseCfg.PushConfig.APNSKeyID,
			APNSTeamID:    baseCfg.PushConfig.APNSTeamID,
			APNSBundleID:  baseCfg.PushConfig.APNSBundleID,
			APNSKeyPath:   baseCfg.PushConfig.APNSKeyPath,
			APNSSandbox:   baseCfg.PushConfig.APNSSandbox,
			ExpoEndpoint:  baseCfg.PushConfig.ExpoEndpoint,
			ExpoAuthToken: baseCfg.PushConfig.ExpoAuthToken,
		},
		FallbackAdminIDs:       baseCfg.FallbackAdminIDs,
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if baseCfg.ProviderTimeout != "" {
		d, err := time.ParseDuration(baseCfg.ProviderTimeout)
		if err != nil {
			logger.Warn("Invalid provider_timeout in YAML, using default", "value", baseCfg.ProviderTimeout, "err", err)
		} else {
			cfg.ProviderTimeout = d
		}
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
	)

	return cfg, nil
}
