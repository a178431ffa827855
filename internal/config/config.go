package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PROOFCHECK_CONFIG"
	listenAddrEnv     = "PROOFCHECK_LISTEN_ADDR"
	redisURLEnv       = "REDIS_URL"
	kafkaBrokersEnv   = "KAFKA_BROKERS"
	engineEndpointEnv = "RECOGNIZER_ENDPOINT"
	engineAPIKeyEnv   = "RECOGNIZER_API_KEY"
)

// Config holds high-level settings required across the daemon.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadMB   int64  `yaml:"maxUploadMb"`
	ShutdownGrace int    `yaml:"shutdownGraceSeconds"`
}

// EngineConfig wires the remote text-recognition service and the pool
// lifecycle around it. Durations are plain seconds so the YAML stays
// toolable.
type EngineConfig struct {
	Endpoint                string `yaml:"endpoint"`
	APIKey                  string `yaml:"apiKey"`
	Language                string `yaml:"language"`
	IdleWindowSeconds       int    `yaml:"idleWindowSeconds"`
	RecognizeTimeoutSeconds int    `yaml:"recognizeTimeoutSeconds"`
}

// IdleWindow converts the configured idle window.
func (e EngineConfig) IdleWindow() time.Duration {
	return time.Duration(e.IdleWindowSeconds) * time.Second
}

// RecognizeTimeout converts the configured recognition timeout.
func (e EngineConfig) RecognizeTimeout() time.Duration {
	return time.Duration(e.RecognizeTimeoutSeconds) * time.Second
}

// RedisConfig describes the optional verdict cache.
type RedisConfig struct {
	URL      string `yaml:"url"`
	TTLHours int    `yaml:"ttlHours"`
}

// TTL converts the configured cache expiry.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLHours) * time.Hour
}

// KafkaConfig describes the optional verification-event publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv(engineEndpointEnv); v != "" {
		c.Engine.Endpoint = v
	}
	if v := os.Getenv(engineAPIKeyEnv); v != "" {
		c.Engine.APIKey = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.MaxUploadMB > 0 {
		base.Server.MaxUploadMB = override.Server.MaxUploadMB
	}
	if override.Server.ShutdownGrace > 0 {
		base.Server.ShutdownGrace = override.Server.ShutdownGrace
	}

	if override.Engine.Endpoint != "" {
		base.Engine.Endpoint = override.Engine.Endpoint
	}
	if override.Engine.APIKey != "" {
		base.Engine.APIKey = override.Engine.APIKey
	}
	if override.Engine.Language != "" {
		base.Engine.Language = override.Engine.Language
	}
	if override.Engine.IdleWindowSeconds > 0 {
		base.Engine.IdleWindowSeconds = override.Engine.IdleWindowSeconds
	}
	if override.Engine.RecognizeTimeoutSeconds > 0 {
		base.Engine.RecognizeTimeoutSeconds = override.Engine.RecognizeTimeoutSeconds
	}

	if override.Redis.URL != "" {
		base.Redis.URL = override.Redis.URL
	}
	if override.Redis.TTLHours > 0 {
		base.Redis.TTLHours = override.Redis.TTLHours
	}

	if len(override.Kafka.Brokers) > 0 {
		base.Kafka.Brokers = override.Kafka.Brokers
	}
	if override.Kafka.Topic != "" {
		base.Kafka.Topic = override.Kafka.Topic
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8086",
			MaxUploadMB:   10,
			ShutdownGrace: 10,
		},
		Engine: EngineConfig{
			Endpoint:                "http://localhost:9090",
			Language:                "eng",
			IdleWindowSeconds:       30,
			RecognizeTimeoutSeconds: 20,
		},
		Redis: RedisConfig{
			TTLHours: 24,
		},
		Kafka: KafkaConfig{
			Topic: "submission.verified",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
