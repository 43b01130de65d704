package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("AURA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Allow common env vars without AURA_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "AURA_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "AURA_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "AURA_REDIS_URL")
	viper.BindEnv("nats.url", "NATS_URL", "AURA_NATS_URL")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL", "AURA_RABBITMQ_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "AURA_JWT_SECRET")
	viper.BindEnv("providers.openai.api_key", "OPENAI_API_KEY", "AURA_PROVIDERS_OPENAI_API_KEY")
	viper.BindEnv("providers.anthropic.api_key", "ANTHROPIC_API_KEY", "AURA_PROVIDERS_ANTHROPIC_API_KEY")
	viper.BindEnv("vault.address", "VAULT_ADDR")
	viper.BindEnv("vault.token", "VAULT_TOKEN")
	viper.BindEnv("app.environment", "AURA_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file means env vars plus defaults.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "aura-core")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("http.port", 8080)

	viper.SetDefault("dialogue.intent_threshold", 0.70)
	viper.SetDefault("dialogue.state_timeout", 30*time.Second)
	viper.SetDefault("dialogue.handler_timeout", 10*time.Second)
	viper.SetDefault("dialogue.classify_retry_backoff", 200*time.Millisecond)
	viper.SetDefault("dialogue.history_limit", 20)

	viper.SetDefault("session.ttl", 15*time.Minute)
	viper.SetDefault("session.sweep_interval", time.Minute)
	viper.SetDefault("session.queue_capacity", 16)
	viper.SetDefault("session.turn_timeout", 15*time.Second)

	viper.SetDefault("synthesis.subject", "aura.synthesis")
	viper.SetDefault("synthesis.default_voice_id", "nova")
	viper.SetDefault("transcripts.subject", "aura.transcripts")
	viper.SetDefault("transcripts.room_subject", "aura.rooms")

	viper.SetDefault("prometheus.enabled", true)
	viper.SetDefault("prometheus.path", "/metrics")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("cors.enabled", true)
}
