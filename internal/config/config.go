// Package config loads the arbor CLI configuration from a YAML file and
// ARBOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ARBOR_REDIS_ADDR.
const EnvPrefix = "ARBOR_"

// Trace store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Traces  TracesConfig  `yaml:"traces" mapstructure:"traces"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Debug   DebugConfig   `yaml:"debug" mapstructure:"debug"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type TracesConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	// Redact lists regular expressions; exception info fields whose key
	// matches are masked before a trace is stored.
	Redact []string `yaml:"redact" mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type DebugConfig struct {
	// Breakpoints enables breakpoint tags in plain runs.
	Breakpoints bool `yaml:"breakpoints" mapstructure:"breakpoints"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "warn", Format: "text"},
		Traces:  TracesConfig{Backend: BackendFile, Dir: ".arbor/traces"},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "arbor:trace:"},
		Metrics: MetricsConfig{Addr: ":9090"},
		Debug:   DebugConfig{Breakpoints: true},
	}
}

// Options controls where the configuration is read from.
type Options struct {
	// File is the YAML file; a missing file is ignored.
	File string
	// DotEnv is a .env file whose values apply below the process environment;
	// a missing file is ignored.
	DotEnv string
	// Environ defaults to os.Environ().
	Environ []string
}

// Load reads the configuration. Precedence, lowest first: defaults, YAML
// file, .env file, process environment.
func Load(o Options) (*Config, error) {
	raw := map[string]any{}

	if o.File != "" {
		data, err := os.ReadFile(o.File)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", o.File, err)
			}
		}
	}

	if o.DotEnv != "" {
		vars, err := godotenv.Read(o.DotEnv)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", o.DotEnv, err)
		}
		for k, v := range vars {
			overlay(raw, k, v)
		}
	}

	environ := o.Environ
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		overlay(raw, k, v)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay sets raw[section][key] for an ARBOR_SECTION_KEY variable.
func overlay(raw map[string]any, name, value string) {
	rest, ok := strings.CutPrefix(name, EnvPrefix)
	if !ok {
		return
	}
	section, key, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || key == "" {
		return
	}
	m, ok := raw[section].(map[string]any)
	if !ok {
		m = map[string]any{}
		raw[section] = m
	}
	m[key] = value
}

// Validate reports configuration values the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Traces.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Traces.Dir == "" {
			return errors.New("config: traces.dir is required for the file backend")
		}
	default:
		return fmt.Errorf("config: unknown traces.backend %q", c.Traces.Backend)
	}
	if c.Redis.TTL < 0 {
		return errors.New("config: redis.ttl must not be negative")
	}
	return nil
}
