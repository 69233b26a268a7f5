// Package config loads the daemon configuration from an optional yaml file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// RedisConfig configures the live game state store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ZAPZAP_REDIS_ADDR"`
	Password string `yaml:"password" env:"ZAPZAP_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"ZAPZAP_REDIS_DB"`
}

// EventsConfig sizes the event processor.
type EventsConfig struct {
	QueueSize int `yaml:"queue_size" env:"ZAPZAP_EVENT_QUEUE_SIZE"`
	Workers   int `yaml:"workers" env:"ZAPZAP_EVENT_WORKERS"`
}

// BotConfig tunes the bot turn coordinator.
type BotConfig struct {
	ChainDelayMs int `yaml:"chain_delay_ms" env:"ZAPZAP_BOT_CHAIN_DELAY_MS"`
	RetryDelayMs int `yaml:"retry_delay_ms" env:"ZAPZAP_BOT_RETRY_DELAY_MS"`
	MaxRetries   int `yaml:"max_retries" env:"ZAPZAP_BOT_MAX_RETRIES"`
}

// ChainDelay returns the pause between chained bot turns.
func (c *BotConfig) ChainDelay() time.Duration {
	return time.Duration(c.ChainDelayMs) * time.Millisecond
}

// RetryDelay returns the pause between retries of a failed bot turn.
func (c *BotConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Config is the full daemon configuration.
type Config struct {
	DataDir    string       `yaml:"data_dir" env:"ZAPZAP_DATA_DIR"`
	DBPath     string       `yaml:"db_path" env:"ZAPZAP_DB_PATH"`
	LogFile    string       `yaml:"log_file" env:"ZAPZAP_LOG_FILE"`
	DebugLevel string       `yaml:"debug_level" env:"ZAPZAP_DEBUG_LEVEL"`
	Seed       int64        `yaml:"seed" env:"ZAPZAP_SEED"`
	Redis      RedisConfig  `yaml:"redis"`
	Events     EventsConfig `yaml:"events"`
	Bot        BotConfig    `yaml:"bot"`
}

// Load reads the config file at path (missing file is fine, defaults apply),
// applies environment overrides, and fills in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "zapzap.sqlite")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "logs", "zapzapd.log")
	}
	if c.DebugLevel == "" {
		c.DebugLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Events.QueueSize == 0 {
		c.Events.QueueSize = 1000
	}
	if c.Events.Workers == 0 {
		c.Events.Workers = 3
	}
	if c.Bot.ChainDelayMs == 0 {
		c.Bot.ChainDelayMs = 250
	}
	if c.Bot.RetryDelayMs == 0 {
		c.Bot.RetryDelayMs = 500
	}
	if c.Bot.MaxRetries == 0 {
		c.Bot.MaxRetries = 3
	}
}
