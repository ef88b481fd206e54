package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the notifier's provider configuration, read from the YAML file
// named by NOTIFIER_CONFIG.
type Config struct {
	Push  PushConfig  `yaml:"push"`
	Kafka KafkaConfig `yaml:"kafka"`
}

type PushConfig struct {
	Provider     string        `yaml:"provider"`
	Endpoint     string        `yaml:"endpoint"`
	AccessToken  string        `yaml:"access_token"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

type KafkaConfig struct {
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

const expoEndpoint = "https://exp.host/--/api/v2/push/send"

func defaultConfig() Config {
	return Config{
		Push: PushConfig{
			Provider:     "expo",
			Endpoint:     expoEndpoint,
			Timeout:      10 * time.Second,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			GroupID: "notifier-service",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse notifier config: %w", err)
	}

	switch cfg.Push.Provider {
	case "expo":
	default:
		return nil, fmt.Errorf("unsupported push provider: %s", cfg.Push.Provider)
	}
	if cfg.Push.Endpoint == "" {
		return nil, fmt.Errorf("missing push endpoint")
	}
	return &cfg, nil
}
