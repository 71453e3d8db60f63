package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aura-studio/mskrouter/httpserver"
	"github.com/aura-studio/mskrouter/msk"
	"github.com/aura-studio/mskrouter/telemetry"
	yaml "gopkg.in/yaml.v2"
)

type yamlServerConfig struct {
	Lambda string `yaml:"lambda"`
	Addr   string `yaml:"addr"`
	HTTP   any    `yaml:"http"`
	MSK    any    `yaml:"msk"`

	Telemetry struct {
		Exporter    string `yaml:"exporter"`
		Interval    string `yaml:"interval"`
		ServiceName string `yaml:"serviceName"`
	} `yaml:"telemetry"`
}

type Option interface {
	Apply(*Options)
}

type Options struct {
	Lambda string
	Http   []httpserver.Option
	Msk    []msk.Option

	// MskConfigured is set once the server config carried an msk section.
	// Without one, the msk default config file is looked up.
	MskConfigured bool
	Telemetry     telemetry.ProviderConfig
}

type serveOptionFunc func(*Options)

func (f serveOptionFunc) Apply(o *Options) { f(o) }

type serveConfigOption struct {
	lambda    string
	httpOpt   []httpserver.Option
	mskOpt    msk.Option
	telemetry telemetry.ProviderConfig
}

func (o serveConfigOption) Apply(opts *Options) {
	if o.lambda != "" {
		opts.Lambda = o.lambda
	}
	opts.Http = append(opts.Http, o.httpOpt...)
	if o.mskOpt != nil {
		opts.Msk = append(opts.Msk, o.mskOpt)
		opts.MskConfigured = true
	}
	if o.telemetry.Exporter != "" {
		opts.Telemetry.Exporter = o.telemetry.Exporter
	}
	if o.telemetry.Interval > 0 {
		opts.Telemetry.Interval = o.telemetry.Interval
	}
	if o.telemetry.ServiceName != "" {
		opts.Telemetry.ServiceName = o.telemetry.ServiceName
	}
}

func WithLambda(lambda string) Option {
	return serveOptionFunc(func(o *Options) {
		o.Lambda = lambda
	})
}

func WithTelemetry(cfg telemetry.ProviderConfig) Option {
	return serveOptionFunc(func(o *Options) {
		o.Telemetry = cfg
	})
}

func WithHttpOptions(opts ...httpserver.Option) Option {
	return serveOptionFunc(func(o *Options) {
		o.Http = append(o.Http, opts...)
	})
}

func WithMskOptions(opts ...msk.Option) Option {
	return serveOptionFunc(func(o *Options) {
		o.Msk = append(o.Msk, opts...)
	})
}

// WithServeConfig parses YAML bytes following server.yml structure.
func WithServeConfig(yamlBytes []byte) Option {
	var cfg yamlServerConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		panic(fmt.Errorf("server.WithServeConfig: %w", err))
	}

	var httpOpts []httpserver.Option
	if cfg.HTTP != nil {
		b, err := yaml.Marshal(cfg.HTTP)
		if err != nil {
			panic(fmt.Errorf("server.WithServeConfig: %w", err))
		}
		httpOpts = append(httpOpts, httpserver.WithConfig(b))
	}
	if cfg.Addr != "" {
		httpOpts = append(httpOpts, httpserver.WithAddress(cfg.Addr))
	}

	var mskOpt msk.Option
	if cfg.MSK != nil {
		b, err := yaml.Marshal(cfg.MSK)
		if err != nil {
			panic(fmt.Errorf("server.WithServeConfig: %w", err))
		}
		mskOpt = msk.WithConfig(b)
	}

	var interval time.Duration
	if cfg.Telemetry.Interval != "" {
		d, err := time.ParseDuration(cfg.Telemetry.Interval)
		if err != nil {
			panic(fmt.Errorf("server.WithServeConfig: telemetry.interval: %w", err))
		}
		interval = d
	}

	return serveConfigOption{
		lambda:  cfg.Lambda,
		httpOpt: httpOpts,
		mskOpt:  mskOpt,
		telemetry: telemetry.ProviderConfig{
			Exporter:    cfg.Telemetry.Exporter,
			Interval:    interval,
			ServiceName: cfg.Telemetry.ServiceName,
		},
	}
}

// WithServeConfigFile loads a YAML file and applies it as Option.
func WithServeConfigFile(path string) Option {
	b, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("server.WithServeConfigFile(%s): %w", path, err))
	}
	return WithServeConfig(b)
}

// DefaultServeConfigCandidates returns relative paths that will be checked (in order)
// when searching for a default server config.
func DefaultServeConfigCandidates() []string {
	return []string{
		"mskrouter.yaml",
		"mskrouter.yml",
		"server.yaml",
		"server.yml",
		"config.yaml",
		"config.yml",
	}
}

// FindDefaultServeConfigFile searches for a server config file in a small set of
// well-known locations (CWD then executable directory).
func FindDefaultServeConfigFile() (string, error) {
	candidates := DefaultServeConfigCandidates()

	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, dir := range dirs {
		for _, rel := range candidates {
			p := rel
			if dir != "." {
				p = filepath.Join(dir, rel)
			}
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("server config not found (expected %v)", candidates)
}

// WithDefaultServeConfigFile finds and loads the default server config file.
// A missing file is not an error; the environment may carry everything.
func WithDefaultServeConfigFile() Option {
	p, err := FindDefaultServeConfigFile()
	if err != nil {
		return nil
	}
	return WithServeConfigFile(p)
}
