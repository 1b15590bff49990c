package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	defaultDSN           = "duty_system.db"
	defaultMigrationsDir = "./migrations"
	defaultTokenHeader   = "Authorization"
	defaultSessionTTL    = 12 * time.Hour
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL     string `toml:"redis_url"`
		Passcode     string `toml:"passcode"`
		PasscodeHash string `toml:"passcode_hash"`
		TokenHeader  string `toml:"token_header"`
		SessionTTL   string `toml:"session_ttl"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Week struct {
		Timezone string `toml:"timezone"`
	} `toml:"week"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`

	sessionTTL time.Duration
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s\n> Error: %w", path, err)
	}

	logger.Debug.Printf("Loaded config from %s: port=%s auth=%t dsn=%s", path, config.Server.Port, config.Server.EnableAuth, config.Database.DSN)

	return config, nil
}

// ParseConfig decodes TOML and fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :5000")
	}

	if config.Database.DSN == "" {
		config.Database.DSN = defaultDSN
	}
	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = defaultMigrationsDir
	}
	if config.Auth.TokenHeader == "" {
		config.Auth.TokenHeader = defaultTokenHeader
	}

	config.sessionTTL = defaultSessionTTL
	if config.Auth.SessionTTL != "" {
		ttl, err := time.ParseDuration(config.Auth.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid auth.session_ttl %q: %w", config.Auth.SessionTTL, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("auth.session_ttl must be positive, got %s", ttl)
		}
		config.sessionTTL = ttl
	}

	if config.Server.EnableAuth && config.Auth.Passcode == "" && config.Auth.PasscodeHash == "" {
		return nil, fmt.Errorf("auth is enabled but neither auth.passcode nor auth.passcode_hash is set")
	}

	return &config, nil
}

func (c *Config) SessionLifetime() time.Duration {
	if c.sessionTTL == 0 {
		return defaultSessionTTL
	}
	return c.sessionTTL
}
