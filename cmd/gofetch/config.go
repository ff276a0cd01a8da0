package main

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the daemon's configuration: literal Go defaults form the
// base layer, a YAML file (grounded on the teacher's own config.go)
// overrides those, and environment variables override the YAML in
// turn — the same "narrower scope wins" idiom Options/mergeOptions
// uses for a single call, one layer up. Deliberately no envDefault
// tags here: those apply regardless of a field's current value, which
// would let an unset environment variable clobber a YAML-set field
// back to the tag's default instead of leaving it alone.
type Config struct {
	CacheDir      string        `yaml:"cacheDir" env:"GOFETCH_CACHE_DIR"`
	DefaultMaxAge time.Duration `yaml:"defaultMaxAge" env:"GOFETCH_DEFAULT_MAX_AGE"`
	GCSchedule    string        `yaml:"gcSchedule" env:"GOFETCH_GC_SCHEDULE"`
	DebugAddr     string        `yaml:"debugAddr" env:"GOFETCH_DEBUG_ADDR"`
	Proxy         string        `yaml:"proxy" env:"GOFETCH_PROXY"`
	MaxSockets    int           `yaml:"maxSockets" env:"GOFETCH_MAX_SOCKETS"`
	LogLevel      string        `yaml:"logLevel" env:"GOFETCH_LOG_LEVEL"`
}

// defaultConfig is the base layer loadConfig starts from, before YAML
// and environment overrides are applied.
func defaultConfig() Config {
	return Config{
		DefaultMaxAge: time.Hour,
		GCSchedule:    "@every 1h",
		MaxSockets:    15,
		LogLevel:      "info",
	}
}

// loadConfig starts from defaultConfig, applies filename as a YAML
// layer (skipped entirely when filename is empty), and applies
// environment overrides on top of that.
func loadConfig(filename string) (Config, error) {
	cfg := defaultConfig()
	if filename != "" {
		raw, err := os.ReadFile(filename)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
