package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Public    PublicConfig    `mapstructure:"public"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Bolt      BoltConfig      `mapstructure:"bolt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// PublicConfig describes how the provider reaches this gateway.
type PublicConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CallbackURL is the absolute URL the provider posts payment notifications to.
func (p PublicConfig) CallbackURL() string {
	return strings.TrimRight(p.BaseURL, "/") + "/callback"
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverBolt     = "bolt"
	StorageDriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres, bolt, memory
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type BoltConfig struct {
	Path        string        `mapstructure:"path"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type ProviderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Payer        PayerConfig   `mapstructure:"payer"`
}

// PayerConfig is the placeholder payer identity sent with every deposit.
type PayerConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Document string `mapstructure:"document"`
}

type SecurityConfig struct {
	SecretPepper string `mapstructure:"secret_pepper"` // keys the stored secret digest
}

type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ChargeLimit    int64         `mapstructure:"charge_limit"`
	ChargeWindow   time.Duration `mapstructure:"charge_window"`
	KeyIssueLimit  int64         `mapstructure:"key_issue_limit"`
	KeyIssueWindow time.Duration `mapstructure:"key_issue_window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// legacyEnv maps config keys to the bare environment names older deployments use.
var legacyEnv = map[string]string{
	"provider.client_id":     "CLIENT_ID",
	"provider.client_secret": "CLIENT_SECRET",
	"public.base_url":        "BASE_URL",
	"server.port":            "PORT",
}

// Load reads configuration from an optional .env file, a config file and
// environment variables. Environment variables override file values.
// Prefix: PIXGW_. Nested keys use underscore: PIXGW_PROVIDER_CLIENT_ID.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("public.base_url", "https://gateway-pix.onrender.com")
	v.SetDefault("storage.driver", StorageDriverBolt)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "pix_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("bolt.path", "gateway.db")
	v.SetDefault("bolt.open_timeout", "1s")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("provider.base_url", "https://api.the-key.club")
	v.SetDefault("provider.client_id", "")
	v.SetDefault("provider.client_secret", "")
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.payer.name", "Cliente Gateway")
	v.SetDefault("provider.payer.email", "cliente@gateway.com")
	v.SetDefault("provider.payer.document", "12345678901")
	v.SetDefault("security.secret_pepper", "")
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.charge_limit", 100)
	v.SetDefault("ratelimit.charge_window", "1m")
	v.SetDefault("ratelimit.key_issue_limit", 10)
	v.SetDefault("ratelimit.key_issue_window", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// PIXGW_PROVIDER_CLIENT_ID -> provider.client_id
	v.SetEnvPrefix("PIXGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "PIXGW_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.ClientID == "" || c.Provider.ClientSecret == "" {
		return fmt.Errorf("provider credentials are not configured")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	return nil
}

// ValidateStorage checks only the storage section. Offline commands that
// never reach the provider use it instead of Validate.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverBolt, StorageDriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
}
