package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Identity modes.
const (
	AuthDev       = "dev"
	AuthJWT       = "jwt"
	AuthTailscale = "tailscale"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Events    EventsConfig    `yaml:"events"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Mode      string `yaml:"mode"`
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
	// DevUser is the login every request acts as in dev mode.
	DevUser string `yaml:"dev_user"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix IRONLOG_ and underscore-separated paths:
//
//	IRONLOG_SERVER_HOST, IRONLOG_SERVER_PORT,
//	IRONLOG_DB_DRIVER, IRONLOG_DB_HOST, IRONLOG_DB_PORT, IRONLOG_DB_NAME,
//	IRONLOG_DB_USER, IRONLOG_DB_PASSWORD, IRONLOG_DB_SSLMODE, IRONLOG_DB_PATH,
//	IRONLOG_AUTH_MODE, IRONLOG_AUTH_JWT_SECRET, IRONLOG_AUTH_JWT_ISSUER, IRONLOG_AUTH_DEV_USER,
//	IRONLOG_TAILSCALE_ENABLED, IRONLOG_TAILSCALE_HOSTNAME, IRONLOG_TAILSCALE_STATE_DIR,
//	IRONLOG_EVENTS_BROKERS (comma-separated), IRONLOG_EVENTS_TOPIC
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("IRONLOG_SERVER_HOST", &cfg.Server.Host)
	num("IRONLOG_SERVER_PORT", &cfg.Server.Port)

	str("IRONLOG_DB_DRIVER", &cfg.Database.Driver)
	str("IRONLOG_DB_HOST", &cfg.Database.Host)
	num("IRONLOG_DB_PORT", &cfg.Database.Port)
	str("IRONLOG_DB_NAME", &cfg.Database.Name)
	str("IRONLOG_DB_USER", &cfg.Database.User)
	str("IRONLOG_DB_PASSWORD", &cfg.Database.Password)
	str("IRONLOG_DB_SSLMODE", &cfg.Database.SSLMode)
	str("IRONLOG_DB_PATH", &cfg.Database.Path)

	str("IRONLOG_AUTH_MODE", &cfg.Auth.Mode)
	str("IRONLOG_AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("IRONLOG_AUTH_JWT_ISSUER", &cfg.Auth.JWTIssuer)
	str("IRONLOG_AUTH_DEV_USER", &cfg.Auth.DevUser)

	if v := os.Getenv("IRONLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	str("IRONLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	str("IRONLOG_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	if v := os.Getenv("IRONLOG_EVENTS_BROKERS"); v != "" {
		cfg.Events.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Events.Brokers = append(cfg.Events.Brokers, b)
			}
		}
	}
	str("IRONLOG_EVENTS_TOPIC", &cfg.Events.Topic)
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthDev
	}
	if cfg.Auth.DevUser == "" {
		cfg.Auth.DevUser = "dev"
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "ironlog.events"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "ironlog"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("database.driver %q is not one of postgres, sqlite", c.Database.Driver)
	}

	switch c.Auth.Mode {
	case AuthDev:
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for jwt mode")
		}
	case AuthTailscale:
		if !c.Tailscale.Enabled {
			return fmt.Errorf("auth.mode tailscale requires tailscale.enabled")
		}
	default:
		return fmt.Errorf("auth.mode %q is not one of dev, jwt, tailscale", c.Auth.Mode)
	}
	return nil
}
