package config

import "time"

// defaultPasswordSHA256 is the digest of the out-of-the-box edit password.
// Deployments are expected to override it via config or environment.
const defaultPasswordSHA256 = "240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9"

// DefaultConfig returns the configuration used when no file or override is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
			DataDir:   "./data",
		},
		Auth: AuthConfig{
			PasswordSHA256:   defaultPasswordSHA256,
			TokenSecret:      "portfolio_token_secret",
			SessionTimeout:   Duration(30 * time.Minute),
			MaxLoginAttempts: 5,
			LockoutDuration:  Duration(15 * time.Minute),
			CheckInterval:    Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Driver:    "sqlite",
			Namespace: "portfolio",
			SQLite: SQLiteStoreConfig{
				DSN: "data/portfolio.db",
			},
		},
		Content: ContentConfig{
			DataDir: "./data",
		},
	}
}
