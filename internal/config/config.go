package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
type Config struct {
	// Environment specifies the current running environment (development, production, test)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout bounds the handling of a single request, upstream fetches included
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"1m" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// API configures the upstream JSONPlaceholder client
	API struct {
		// BaseURL is the root of the REST API
		BaseURL string `env:"API_BASE_URL" env-default:"https://jsonplaceholder.typicode.com" yaml:"baseURL"`
		// Timeout bounds a single upstream request; expiry is treated like an HTTP failure
		Timeout time.Duration `env:"API_TIMEOUT" env-default:"10s" yaml:"timeout"`
	} `yaml:"api"`

	// Render tunes how post lists are turned into display nodes
	Render struct {
		// TransientNodeDelay is how long the helper article appended after a render stays in
		// the content region. A negative value disables the helper (zero is replaced by the default).
		TransientNodeDelay time.Duration `env:"RENDER_TRANSIENT_NODE_DELAY" env-default:"100ms" yaml:"transientNodeDelay"`
		// ConcurrentFetch fetches every post's author and comments concurrently
		// instead of one post at a time
		ConcurrentFetch bool `env:"RENDER_CONCURRENT_FETCH" env-default:"false" yaml:"concurrentFetch"`
	} `yaml:"render"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads the yaml config file at configPath, applying environment
// overrides. A missing file is not an error: defaults and the environment are
// used instead.
func Load(configPath string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(configPath)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("could not stat config file: %w", statErr)
	}

	return &cfg, nil
}
