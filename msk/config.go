package msk

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type yamlMSKConfig struct {
	Mode struct {
		Debug    bool   `yaml:"debug"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"mode"`
	Queues struct {
		Small  string `yaml:"small"`
		Medium string `yaml:"medium"`
		Large  string `yaml:"large"`
	} `yaml:"queues"`
	Dispatch struct {
		MaxWorkers  int    `yaml:"maxWorkers"`
		BatchSize   int    `yaml:"batchSize"`
		SendTimeout string `yaml:"sendTimeout"`
	} `yaml:"dispatch"`
}

func optionFromMSKConfig(cfg yamlMSKConfig) (Option, error) {
	var sendTimeout time.Duration
	if cfg.Dispatch.SendTimeout != "" {
		d, err := time.ParseDuration(cfg.Dispatch.SendTimeout)
		if err != nil {
			return nil, fmt.Errorf("dispatch.sendTimeout: %w", err)
		}
		sendTimeout = d
	}

	return OptionFunc(func(o *Options) {
		o.DebugMode = cfg.Mode.Debug
		if cfg.Mode.LogLevel != "" {
			o.LogLevel = cfg.Mode.LogLevel
		}

		if cfg.Queues.Small != "" {
			o.SmallQueueURL = cfg.Queues.Small
		}
		if cfg.Queues.Medium != "" {
			o.MediumQueueURL = cfg.Queues.Medium
		}
		if cfg.Queues.Large != "" {
			o.LargeQueueURL = cfg.Queues.Large
		}

		if cfg.Dispatch.MaxWorkers > 0 {
			o.MaxWorkers = cfg.Dispatch.MaxWorkers
		}
		if cfg.Dispatch.BatchSize > 0 {
			o.BatchSize = cfg.Dispatch.BatchSize
		}
		if sendTimeout > 0 {
			o.SendTimeout = sendTimeout
		}
	}), nil
}

func optionFromConfigBytes(b []byte) (Option, error) {
	var cfg yamlMSKConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	return optionFromMSKConfig(cfg)
}

// WithConfig parses YAML bytes following msk.yml structure and applies it to Options.
// It panics if the YAML is invalid.
func WithConfig(yamlBytes []byte) Option {
	opt, err := optionFromConfigBytes(yamlBytes)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("msk.WithConfig: %w", err))
		})
	}
	return opt
}

// WithConfigFile loads a YAML file and applies it to Options.
// It panics if the file cannot be read or YAML is invalid.
func WithConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		return OptionFunc(func(*Options) {
			panic(fmt.Errorf("msk.WithConfigFile(%s): %w", path, err))
		})
	}
	return WithConfig(b)
}
