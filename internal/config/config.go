// Package config loads process configuration from a yaml file with
// environment-variable overrides, and builds the process logger.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken       string       `yaml:"discord_token"`
	DatabasePath       string       `yaml:"database_path"`
	LogLevel           string       `yaml:"log_level"`
	CheckCooldownHours int          `yaml:"check_cooldown_hours"`
	MessageFetchLimit  int          `yaml:"message_fetch_limit"`
	Sweep              SweepConfig  `yaml:"sweep"`
	Health             HealthConfig `yaml:"health"`
}

type SweepConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:       "/data/sentry.db",
		LogLevel:           "info",
		CheckCooldownHours: 24,
		MessageFetchLimit:  15,
		Sweep:              SweepConfig{BatchSize: 4},
		Health:             HealthConfig{Enabled: false, Addr: ":8080"},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.CheckCooldownHours <= 0 {
		cfg.CheckCooldownHours = 24
	}
	if cfg.MessageFetchLimit <= 0 {
		cfg.MessageFetchLimit = 15
	}
	if cfg.Sweep.BatchSize <= 0 {
		cfg.Sweep.BatchSize = 4
	}

	return cfg, nil
}

// CheckCooldown is the minimum wait between two manual scans of one guild.
func (c Config) CheckCooldown() time.Duration {
	return time.Duration(c.CheckCooldownHours) * time.Hour
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.CheckCooldownHours = envInt("CHECK_COOLDOWN_HOURS", cfg.CheckCooldownHours)
	cfg.MessageFetchLimit = envInt("MESSAGE_FETCH_LIMIT", cfg.MessageFetchLimit)
	cfg.Sweep.BatchSize = envInt("SWEEP_BATCH_SIZE", cfg.Sweep.BatchSize)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
