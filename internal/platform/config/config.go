package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"flightsurety/internal/surety"
	id "flightsurety/pkg/domain"
	platformstrings "flightsurety/pkg/platform/strings"
)

const envPrefix = "SURETY"

// Config holds all configuration for the registry daemon.
type Config struct {
	Server    Server               `mapstructure:"server"`
	App       App                  `mapstructure:"app"`
	Auth      Auth                 `mapstructure:"auth"`
	Genesis   surety.GenesisParams `mapstructure:"genesis"`
	Storage   Storage              `mapstructure:"storage"`
	Redis     Redis                `mapstructure:"redis"`
	Kafka     Kafka                `mapstructure:"kafka"`
	Audit     Audit                `mapstructure:"audit"`
	Snapshot  Snapshot             `mapstructure:"snapshot"`
	RateLimit RateLimit            `mapstructure:"rate_limit"`
	Log       Log                  `mapstructure:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// App identifies this facade to the registry. Caller must be on the genesis
// allow-list for mutations submitted over HTTP to pass the caller gate.
type App struct {
	Caller string `mapstructure:"caller"`
}

type Auth struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Storage struct {
	Driver         string `mapstructure:"driver"`
	PostgresDriver string `mapstructure:"postgres_driver"`
	DSN            string `mapstructure:"dsn"`
	SQLitePath     string `mapstructure:"sqlite_path"`
}

type Redis struct {
	URL       string        `mapstructure:"url"`
	PoolSize  int           `mapstructure:"pool_size"`
	Retention time.Duration `mapstructure:"retention"`
}

type Kafka struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	Partitions  int32    `mapstructure:"partitions"`
	Replication int16    `mapstructure:"replication"`
	ClientID    string   `mapstructure:"client_id"`
	Group       string   `mapstructure:"group"`
}

// Enabled reports whether audit events are shipped to Kafka.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Audit struct {
	Buffer int `mapstructure:"buffer"`
}

type Snapshot struct {
	Interval uint64 `mapstructure:"interval"`
}

// RateLimit budgets authenticated HTTP requests per sender and window.
// A zero budget disables the class.
type RateLimit struct {
	Enabled bool          `mapstructure:"enabled"`
	Reads   int           `mapstructure:"reads"`
	Writes  int           `mapstructure:"writes"`
	Window  time.Duration `mapstructure:"window"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("auth.signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("auth.issuer", "flightsurety")
	v.SetDefault("auth.audience", "flightsurety-api")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("genesis.owner", "")
	v.SetDefault("genesis.first_airline", "")
	v.SetDefault("genesis.first_airline_name", "")
	v.SetDefault("genesis.min_funds", "")
	v.SetDefault("genesis.max_policy", "")
	v.SetDefault("genesis.consensus_threshold", 0)
	v.SetDefault("genesis.payout_num", 0)
	v.SetDefault("genesis.payout_den", 0)
	v.SetDefault("genesis.authorized_callers", []string{})
	v.SetDefault("genesis.oracles", []string{})
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.postgres_driver", "pgx")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sqlite_path", "surety.db")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.retention", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "surety.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication", 1)
	v.SetDefault("kafka.client_id", "flightsurety")
	v.SetDefault("kafka.group", "flightsurety-audit")
	v.SetDefault("audit.buffer", 1024)
	v.SetDefault("snapshot.interval", 100)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.reads", 300)
	v.SetDefault("rate_limit.writes", 60)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("app.caller", "")
}

// Load reads defaults, then the YAML file at path (or SURETY_CONFIG_PATH),
// then SURETY_* environment variables. An empty path with no config file in
// the search paths is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("surety")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/flightsurety")
	v.AddConfigPath(".")
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = platformstrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// BuildGenesis parses the genesis section.
func (c *Config) BuildGenesis() (surety.Genesis, error) {
	return c.Genesis.Build()
}

// Caller returns the facade address, or the zero address when unset.
func (c *Config) Caller() id.Address {
	addr, err := id.ParseAddress(c.App.Caller)
	if err != nil {
		return id.ZeroAddress
	}
	return addr
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if cfg.App.Caller != "" {
		if _, err := id.ParseAddress(cfg.App.Caller); err != nil {
			return fmt.Errorf("app.caller: %w", err)
		}
	}
	if len(cfg.Auth.SigningKey) < 16 {
		return errors.New("auth.signing_key must be at least 16 characters")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}

	switch cfg.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
		if cfg.Storage.PostgresDriver != "pgx" && cfg.Storage.PostgresDriver != "postgres" {
			return fmt.Errorf("invalid storage.postgres_driver: %s (must be pgx or postgres)", cfg.Storage.PostgresDriver)
		}
	case StorageSQLite:
		if cfg.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid storage.driver: %s (must be memory, postgres, or sqlite)", cfg.Storage.Driver)
	}

	if cfg.Kafka.Enabled() {
		if cfg.Kafka.Topic == "" {
			return errors.New("kafka.topic is required when brokers are set")
		}
		if cfg.Kafka.Partitions < 1 {
			return errors.New("kafka.partitions must be at least 1")
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Window <= 0 {
			return errors.New("rate_limit.window must be positive")
		}
		if cfg.RateLimit.Reads < 0 || cfg.RateLimit.Writes < 0 {
			return errors.New("rate_limit budgets must not be negative")
		}
	}
	if cfg.Audit.Buffer < 0 {
		return errors.New("audit.buffer must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}
	return nil
}
