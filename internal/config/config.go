package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SCHWS_"

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Client        ClientConfig         `koanf:"client" validate:"required"`
	Stats         StatsConfig          `koanf:"stats"`
	Quote         QuoteConfig          `koanf:"quote" validate:"required"`
	Archive       *ArchiveConfig       `koanf:"archive"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required"`
	// Minimal serves a static page instead of the statistics report.
	Minimal bool `koanf:"minimal"`
}

type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// ClientConfig holds the versions a client must report in its User-Agent.
type ClientConfig struct {
	MCVersion  string `koanf:"mc_version" validate:"required"`
	ModVersion string `koanf:"mod_version" validate:"required"`
}

type StatsConfig struct {
	// AllowListPath overrides the built-in list of accepted stat names.
	AllowListPath string `koanf:"allowlist_path"`
}

type QuoteConfig struct {
	Provider  string `koanf:"provider" validate:"required,oneof=builtin http"`
	URL       string `koanf:"url" validate:"required_if=Provider http"`
	JSONPath  string `koanf:"json_path"`
	TimeoutMS int    `koanf:"timeout_ms" validate:"required,min=1"`
}

func (q QuoteConfig) Timeout() time.Duration {
	return time.Duration(q.TimeoutMS) * time.Millisecond
}

// ArchiveConfig points at the S3-compatible bucket that receives periodic
// snapshots. Archiving is off when the section is absent.
type ArchiveConfig struct {
	Endpoint  string `koanf:"endpoint" validate:"required"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket" validate:"required"`
	// Prefix is prepended to every snapshot key; defaults to "surveys".
	Prefix    string `koanf:"prefix"`
	AccessKey string `koanf:"access_key" validate:"required"`
	SecretKey string `koanf:"secret_key" validate:"required"`
	Interval  string `koanf:"interval"`
}

// defaults is a koanf.Provider for the values used when no variable is set.
type defaults struct{}

func (defaults) ReadBytes() ([]byte, error) {
	return nil, errors.New("defaults provider does not support ReadBytes")
}

func (defaults) Read() (map[string]any, error) {
	return map[string]any{
		"primary": map[string]any{"env": "development"},
		"server": map[string]any{
			"port":          "46444",
			"read_timeout":  10,
			"write_timeout": 10,
			"idle_timeout":  60,
		},
		"database": map[string]any{
			"host":               "localhost",
			"port":               5432,
			"name":               "schws",
			"ssl_mode":           "disable",
			"max_open_conns":     10,
			"max_idle_conns":     2,
			"conn_max_lifetime":  3600,
			"conn_max_idle_time": 300,
		},
		"quote": map[string]any{
			"provider":   "builtin",
			"timeout_ms": 500,
		},
	}, nil
}

// envKey maps SCHWS_DATABASE__HOST to database.host.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// LoadConfig loads the configuration from a .env file, if any, and the
// SCHWS_* environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(defaults{}, nil); err != nil {
		return nil, fmt.Errorf("could not load defaults: %w", err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("could not validate config: %w", err)
	}
	if mainConfig.Archive != nil {
		if _, err := mainConfig.Archive.ParsedInterval(); err != nil {
			return nil, fmt.Errorf("invalid archive config: %w", err)
		}
	}

	// Observability is a pointer so that a missing section can be told apart
	// from an empty one.
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "schws"
	mainConfig.Observability.Environment = mainConfig.Primary.Env
	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// DSN returns a postgres:// connection string for the database.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

const defaultArchiveInterval = 24 * time.Hour

// ParsedInterval returns the snapshot interval, defaulting to a day.
func (a *ArchiveConfig) ParsedInterval() (time.Duration, error) {
	if a.Interval == "" {
		return defaultArchiveInterval, nil
	}
	d, err := time.ParseDuration(a.Interval)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", d)
	}
	return d, nil
}
