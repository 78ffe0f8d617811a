// Package config loads application settings from the environment and an
// optional YAML file.
//
// Environment variables and their defaults are read first; values present in
// the YAML file override them. Classifier settings carry the BLOCKS_ prefix,
// e.g. BLOCKS_URL_FORMAT or BLOCKS_PATH_VAR.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/blocks/pkg/cache"
	"github.com/dmitrymomot/blocks/pkg/logger"
	"github.com/dmitrymomot/blocks/pkg/redis"
	"github.com/dmitrymomot/blocks/pkg/request"
)

var (
	ErrParseEnv     = errors.New("config: failed to parse environment")
	ErrReadFile     = errors.New("config: failed to read config file")
	ErrParseFile    = errors.New("config: failed to parse config file")
	ErrInvalidValue = errors.New("config: invalid value")
)

// Config is the complete application configuration.
type Config struct {
	Server  Server            `yaml:"server"`
	Request request.Config    `envPrefix:"BLOCKS_" yaml:"request"`
	Redis   redis.Config      `yaml:"redis"`
	Cache   cache.RedisConfig `yaml:"cache"`
	Log     logger.Config     `yaml:"log"`
}

// Server holds HTTP server and dispatch settings.
type Server struct {
	Addr string `env:"SERVER_ADDR" envDefault:":8080" yaml:"addr"`

	ReadTimeout       time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s" yaml:"read_timeout"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s" yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s" yaml:"write_timeout"`
	IdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s" yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s" yaml:"shutdown_timeout"`

	// CPHosts are host patterns ("cp.example.com", "*.admin.example.com")
	// whose requests are control-panel requests.
	CPHosts []string `env:"CP_HOSTS" envSeparator:"," yaml:"cp_hosts"`
	// CPPathPrefix marks "/<prefix>/..." as control-panel requests. Empty disables it.
	CPPathPrefix string `env:"CP_PATH_PREFIX" envDefault:"admin" yaml:"cp_path_prefix"`

	// ResourcesPath is the directory resource requests are served from.
	ResourcesPath string `env:"RESOURCES_PATH" envDefault:"./resources" yaml:"resources_path"`
	SessionCookie string `env:"SESSION_COOKIE" envDefault:"blocks_session" yaml:"session_cookie"`
}

// Load reads the environment, then overlays the YAML file at path when path
// is not empty, and validates the result.
func Load(path string) (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrParseEnv, err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadFile, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Join(ErrParseFile, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the parsers cannot.
func (c Config) Validate() error {
	if _, err := request.ParseURLFormat(string(c.Request.URLFormat)); err != nil {
		return fmt.Errorf("%w: request.url_format: %w", ErrInvalidValue, err)
	}
	if c.Request.PathVar == "" {
		return fmt.Errorf("%w: request.path_var must not be empty", ErrInvalidValue)
	}
	if base := c.Request.ProbeBaseURL; base != "" {
		u, err := url.Parse(base)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: request.probe_base_url must be an absolute http(s) url", ErrInvalidValue)
		}
	}
	if c.Request.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: request.probe_timeout must be positive", ErrInvalidValue)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidValue)
	}
	return nil
}
