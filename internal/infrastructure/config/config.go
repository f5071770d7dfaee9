package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	ERP       ERPConfig
	Remote    RemoteConfig
	Sync      SyncConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxUploadSize   int64
}

// DatabaseConfig holds local storage settings.
// Driver is "sqlite" (default) or "postgres".
type DatabaseConfig struct {
	Driver          string
	SQLiteFile      string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// ERPConfig holds the SQL connection to the ERP company database and the
// values stamped on every normalized document
type ERPConfig struct {
	Server         string
	Port           int
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
	TimeZone       string
	Currency       string
	OriginatorID   string
	BuyerID        string
}

// RemoteConfig holds the payment-status API settings
type RemoteConfig struct {
	BaseURL     string
	APIKey      string
	TokenHeader string
	Timeout     time.Duration
	RateLimit   float64 // requests per second
	RateBurst   int
}

// SyncConfig holds background synchronization settings
type SyncConfig struct {
	Enabled           bool
	Interval          time.Duration
	HistorySize       int
	LockTTL           time.Duration
	LookupConcurrency int
}

// AuthConfig holds token issuing settings
type AuthConfig struct {
	JWTSecret       string
	Issuer          string
	TokenTTL        time.Duration
	DefaultUser     string
	DefaultPassword string
}

// RedisConfig holds Redis connection settings. An empty host disables Redis.
type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	KeyPrefix   string
	DocumentTTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	LogsEnabled       bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// legacyEnv maps config keys to the flat variable names used by existing
// deployments. Prefixed variables take precedence.
var legacyEnv = map[string][]string{
	"erp.server":            {"SAP_DB_SERVER"},
	"erp.database":          {"SAP_DB_NAME", "SAP_COMPANYDB"},
	"erp.user":              {"SAP_DB_USER"},
	"erp.password":          {"SAP_DB_PASS"},
	"erp.originator_id":     {"FREELANCER_ID"},
	"remote.base_url":       {"QUEPAGAR_BASE"},
	"remote.api_key":        {"QUEPAGAR_APIKEY"},
	"sync.interval_minutes": {"CRON_MINUTES"},
	"database.sqlite_file":  {"SQLITE_FILE"},
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PAYSYNC_ prefix (e.g., PAYSYNC_REMOTE_API_KEY)
// 2. Legacy flat variables (e.g., QUEPAGAR_APIKEY)
// 3. Variables from a .env file in the working directory
// 4. config.toml
// 5. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paysync")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PAYSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := "PAYSYNC_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	v.SetDefault("sync.enabled", true)

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxUploadSize:   v.GetInt64("http.max_upload_size"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			SQLiteFile:      v.GetString("database.sqlite_file"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		ERP: ERPConfig{
			Server:         v.GetString("erp.server"),
			Port:           v.GetInt("erp.port"),
			Database:       v.GetString("erp.database"),
			User:           v.GetString("erp.user"),
			Password:       v.GetString("erp.password"),
			ConnectTimeout: v.GetDuration("erp.connect_timeout"),
			TimeZone:       v.GetString("erp.time_zone"),
			Currency:       v.GetString("erp.currency"),
			OriginatorID:   v.GetString("erp.originator_id"),
			BuyerID:        v.GetString("erp.buyer_id"),
		},
		Remote: RemoteConfig{
			BaseURL:     v.GetString("remote.base_url"),
			APIKey:      v.GetString("remote.api_key"),
			TokenHeader: v.GetString("remote.token_header"),
			Timeout:     v.GetDuration("remote.timeout"),
			RateLimit:   v.GetFloat64("remote.rate_limit"),
			RateBurst:   v.GetInt("remote.rate_burst"),
		},
		Sync: SyncConfig{
			Enabled:           v.GetBool("sync.enabled"),
			Interval:          v.GetDuration("sync.interval"),
			HistorySize:       v.GetInt("sync.history_size"),
			LockTTL:           v.GetDuration("sync.lock_ttl"),
			LookupConcurrency: v.GetInt("sync.lookup_concurrency"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("auth.jwt_secret"),
			Issuer:          v.GetString("auth.issuer"),
			TokenTTL:        v.GetDuration("auth.token_ttl"),
			DefaultUser:     v.GetString("auth.default_user"),
			DefaultPassword: v.GetString("auth.default_password"),
		},
		Redis: RedisConfig{
			Host:        v.GetString("redis.host"),
			Port:        v.GetInt("redis.port"),
			Password:    v.GetString("redis.password"),
			DB:          v.GetInt("redis.db"),
			KeyPrefix:   v.GetString("redis.key_prefix"),
			DocumentTTL: v.GetDuration("redis.document_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	// CRON_MINUTES carries a bare number of minutes
	if cfg.Sync.Interval == 0 {
		if minutes, err := strconv.Atoi(strings.TrimSpace(v.GetString("sync.interval_minutes"))); err == nil && minutes > 0 {
			cfg.Sync.Interval = time.Duration(minutes) * time.Minute
		}
	}

	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "paysync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 10 << 20 // 10MB
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLiteFile == "" {
		cfg.Database.SQLiteFile = "appdata.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "paysync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.ERP.Server == "" {
		cfg.ERP.Server = "SAP_SERVER"
	}
	if cfg.ERP.Port == 0 {
		cfg.ERP.Port = 1433
	}
	if cfg.ERP.Database == "" {
		cfg.ERP.Database = "SBODEMOUS"
	}
	if cfg.ERP.User == "" {
		cfg.ERP.User = "sa"
	}
	if cfg.ERP.Password == "" {
		cfg.ERP.Password = "sqlpass"
	}
	if cfg.ERP.ConnectTimeout == 0 {
		cfg.ERP.ConnectTimeout = 30 * time.Second
	}
	if cfg.ERP.TimeZone == "" {
		cfg.ERP.TimeZone = "UTC"
	}
	if cfg.ERP.Currency == "" {
		cfg.ERP.Currency = "USD"
	}
	if cfg.ERP.OriginatorID == "" {
		cfg.ERP.OriginatorID = "unknown"
	}

	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "https://quepagar.com/api/v1"
	}
	if cfg.Remote.APIKey == "" {
		cfg.Remote.APIKey = "ABC"
	}
	if cfg.Remote.TokenHeader == "" {
		cfg.Remote.TokenHeader = "X-Remote-Token"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Remote.RateLimit == 0 {
		cfg.Remote.RateLimit = 5
	}
	if cfg.Remote.RateBurst == 0 {
		cfg.Remote.RateBurst = 1
	}

	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 15 * time.Minute
	}
	if cfg.Sync.HistorySize == 0 {
		cfg.Sync.HistorySize = 50
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Sync.LookupConcurrency == 0 {
		cfg.Sync.LookupConcurrency = 4
	}

	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "paysync"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 8 * time.Hour
	}
	if cfg.Auth.DefaultUser == "" {
		cfg.Auth.DefaultUser = "apiuser"
	}
	if cfg.Auth.DefaultPassword == "" {
		cfg.Auth.DefaultPassword = "apipass"
	}
	if cfg.Auth.JWTSecret == "" && cfg.App.Env != "production" {
		cfg.Auth.JWTSecret = "paysync-development-secret-change-me"
	}

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "paysync:"
	}
	if cfg.Redis.DocumentTTL == 0 {
		cfg.Redis.DocumentTTL = 24 * time.Hour
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "paysync"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if _, err := time.LoadLocation(c.ERP.TimeZone); err != nil {
		return fmt.Errorf("erp.time_zone %q is not a valid location: %w", c.ERP.TimeZone, err)
	}

	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("remote.rate_limit cannot be negative")
	}

	if c.Sync.Interval < time.Second {
		return fmt.Errorf("sync.interval must be at least 1s, got %s", c.Sync.Interval)
	}
	if c.Sync.LookupConcurrency <= 0 {
		return fmt.Errorf("sync.lookup_concurrency must be positive")
	}

	if c.App.Env == "production" {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DSN returns the postgres connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// DSN returns the sqlserver connection string for the ERP database
func (e *ERPConfig) DSN() string {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(e.User, e.Password),
		Host:   fmt.Sprintf("%s:%d", e.Server, e.Port),
	}
	q := u.Query()
	q.Set("database", e.Database)
	q.Set("connection timeout", strconv.Itoa(int(e.ConnectTimeout.Seconds())))
	q.Set("app name", "paysync")
	u.RawQuery = q.Encode()
	return u.String()
}

// Location returns the ERP wall-clock time zone, falling back to UTC
func (e *ERPConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
