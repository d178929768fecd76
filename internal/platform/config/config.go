package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use the "30m" notation.
// Bare integers are interpreted as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	raw := value.Value
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", raw)
}

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Web     WebConfig     `yaml:"web"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Content ContentConfig `yaml:"content"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
	DataDir   string `yaml:"data_dir"`
}

// AuthConfig carries the shared-secret digest and the session state machine
// tuning knobs. PasswordSHA256 is the hex-encoded digest of the edit-mode
// password; the cleartext is never stored.
type AuthConfig struct {
	PasswordSHA256   string   `yaml:"password_sha256"`
	TokenSecret      string   `yaml:"token_secret"`
	SessionTimeout   Duration `yaml:"session_timeout"`
	MaxLoginAttempts int      `yaml:"max_login_attempts"`
	LockoutDuration  Duration `yaml:"lockout_duration"`
	CheckInterval    Duration `yaml:"check_interval"`
}

type StoreConfig struct {
	Driver    string           `yaml:"driver"`
	Namespace string           `yaml:"namespace"`
	Redis     RedisStoreConfig `yaml:"redis,omitempty"`
	SQLite    SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// ContentConfig selects where the shipped default documents come from.
// When BaseURL is set the manager fetches them over HTTP; otherwise it reads
// them from DataDir on disk.
type ContentConfig struct {
	DataDir string `yaml:"data_dir"`
	BaseURL string `yaml:"base_url,omitempty"`
}
