package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SecureCookie bool
	StaticDir    string
}

// BackendConfig selects the RemoteStore implementation. Mode "local" keeps
// bills in the sqlite database, "rest" talks to a Billed REST backend.
type BackendConfig struct {
	Mode          string
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RetryAttempts int
}

type DatabaseConfig struct {
	Path string
}

// SessionConfig selects where client session blobs are kept: "sqlite",
// "redis" or "memory".
type SessionConfig struct {
	Backend   string
	ClientTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ReceiptsConfig selects where uploaded receipts go: "dir" or "minio".
type ReceiptsConfig struct {
	Backend    string
	Dir        string
	PublicPath string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	Region     string
	PublicURL  string
}

// BillsConfig holds business policy values.
type BillsConfig struct {
	DefaultPct   int `mapstructure:"default_pct"`
	PreviewWidth int `mapstructure:"preview_width"`
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Backend     BackendConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Redis       RedisConfig
	Receipts    ReceiptsConfig
	Bills       BillsConfig
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads .env, an optional config.yaml and BILLED_* environment
// variables, in increasing priority.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BILLED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *AppConfig) Validate() error {
	switch c.Backend.Mode {
	case "local":
	case "rest":
		if c.Backend.BaseURL == "" {
			return errors.New("backend.baseurl is required in rest mode")
		}
	default:
		return fmt.Errorf("unknown backend mode %q", c.Backend.Mode)
	}

	switch c.Session.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.Receipts.Backend {
	case "dir", "minio":
	default:
		return fmt.Errorf("unknown receipts backend %q", c.Receipts.Backend)
	}

	if c.Bills.DefaultPct < 0 || c.Bills.DefaultPct > 100 {
		return fmt.Errorf("bills.default_pct must be between 0 and 100, got %d", c.Bills.DefaultPct)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.securecookie", false)
	v.SetDefault("http.staticdir", "web/static")

	v.SetDefault("backend.mode", "local")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.retryattempts", 3)

	v.SetDefault("database.path", "billed.db")

	v.SetDefault("session.backend", "sqlite")
	v.SetDefault("session.clientttl", "720h") // 30 days

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("receipts.backend", "dir")
	v.SetDefault("receipts.dir", "receipts")
	v.SetDefault("receipts.publicpath", "/receipts")
	v.SetDefault("receipts.bucket", "billed-receipts")
	v.SetDefault("receipts.usessl", false)
	v.SetDefault("receipts.region", "us-east-1")

	v.SetDefault("bills.default_pct", 20)
	v.SetDefault("bills.preview_width", 500)
}

// bindLegacyEnv keeps the plain PORT and DB_PATH variables working.
func bindLegacyEnv(v *viper.Viper) error {
	if err := v.BindEnv("http.port", "BILLED_HTTP_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("database.path", "BILLED_DATABASE_PATH", "DB_PATH"); err != nil {
		return fmt.Errorf("bind env: %w", err)
	}
	return nil
}
