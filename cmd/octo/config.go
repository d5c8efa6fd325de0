package main

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/utils"
)

// Config is the YAML config file of the tool.
type Config struct {
	// Dir is the pebble directory of the store.
	Dir        string `yaml:"dir"`
	ClientID   uint64 `yaml:"client_id"`
	MaxPending int    `yaml:"max_pending,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
	History    string `yaml:"history,omitempty"`
	// Metrics is the address to serve prometheus metrics on, if any.
	Metrics string `yaml:"metrics,omitempty"`
}

func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "octo.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.History == "" {
		c.History = ".octo_cmd_log.txt"
	}
}

// LoadConfig reads the file; no path means all defaults.
func LoadConfig(path string) (cfg Config, err error) {
	if path != "" {
		var data []byte
		if data, err = os.ReadFile(path); err != nil {
			return
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return
		}
	}
	cfg.SetDefaults()
	return
}

func (c Config) Logger() (utils.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, err
	}
	return utils.NewDefaultLogger(level), nil
}

func (c Config) DocOptions() (octo.Options, error) {
	logger, err := c.Logger()
	if err != nil {
		return octo.Options{}, err
	}
	return octo.Options{
		ClientID:   c.ClientID,
		MaxPending: c.MaxPending,
		Logger:     logger,
	}, nil
}
