package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	perrors "portfolio-server-go/internal/platform/errors"
)

const defaultConfigPath = "config.yaml"

// Loader reads configuration from a YAML file layered over the built-in
// defaults, with environment variables taking final precedence.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the default config path.
func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigPath,
		useDotEnv: true,
	}
}

// WithPath overrides the config file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load produces the effective configuration. A missing config file is not an
// error; the defaults apply.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	path := l.path
	if env := os.Getenv("PORTFOLIO_CONFIG"); env != "" {
		path = env
	}

	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, perrors.Wrap(perrors.KindConfig, "config.load", "failed to parse config file", err)
		}
	case os.IsNotExist(err):
		path = ""
	default:
		return nil, perrors.Wrap(perrors.KindConfig, "config.load", "failed to read config file", err)
	}

	applyEnvOverrides(cfg)

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORTFOLIO_ADMIN_PASSWORD_SHA256"); v != "" {
		cfg.Auth.PasswordSHA256 = v
	}
	if v := os.Getenv("PORTFOLIO_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
	if v := os.Getenv("PORTFOLIO_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("PORTFOLIO_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("PORTFOLIO_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}
