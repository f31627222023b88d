package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config keeps runtime settings for the notifier.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Scan     ScanConfig     `koanf:"scan"`
	FCM      FCMConfig      `koanf:"fcm"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type AuthConfig struct {
	// JWTSecret signs and verifies the bearer tokens on user-facing routes.
	JWTSecret string `koanf:"jwt_secret"`
}

type ScanConfig struct {
	// Secret guards the scan-over-HTTP endpoint. Empty means the endpoint
	// always rejects.
	Secret string `koanf:"secret"`
	// IntervalSeconds is the period of the scheduled reminder scan.
	IntervalSeconds int `koanf:"interval_seconds"`
	// LookaheadSeconds is how far past "now" a scan looks for due reminders.
	// Must be at least the interval so a jittered trigger cannot leave gaps.
	LookaheadSeconds int `koanf:"lookahead_seconds"`
}

type FCMConfig struct {
	// CredentialsFile points to the Firebase service-account JSON. Empty falls
	// back to application-default credentials.
	CredentialsFile string `koanf:"credentials_file"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Load reads configuration from defaults, an optional YAML file and NUDGE_*
// environment variables, in that order of precedence. Env keys use a double
// underscore as the section delimiter: NUDGE_AUTH__JWT_SECRET -> auth.jwt_secret.
func Load(configPath string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("NUDGE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "NUDGE_")), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set NUDGE_AUTH__JWT_SECRET)")
	}
	if c.Scan.IntervalSeconds <= 0 {
		return fmt.Errorf("scan.interval_seconds must be positive")
	}
	if c.Scan.LookaheadSeconds < c.Scan.IntervalSeconds {
		return fmt.Errorf("scan.lookahead_seconds must be at least scan.interval_seconds")
	}
	return nil
}

// ScanInterval returns the scan period as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalSeconds) * time.Second
}

// ScanLookahead returns the due-window width as a duration.
func (c *Config) ScanLookahead() time.Duration {
	return time.Duration(c.Scan.LookaheadSeconds) * time.Second
}
