package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Blob       BlobConfig
	Cache      CacheConfig
	CORS       CORSConfig
	Extraction ExtractionConfig
	Analysis   AnalysisConfig
	Session    SessionConfig
	Security   SecurityConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds settings for the settings/history store. Driver is "pgx"
// for PostgreSQL or "sqlite" for a local file; "none" disables persistence.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// Enabled reports whether a store is configured.
func (d *DBConfig) Enabled() bool {
	return d.Driver != "" && d.Driver != "none"
}

// DSN returns the driver-specific connection string.
func (d *DBConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the golang-migrate database URL.
func (d *DBConfig) MigrateURL() string {
	if d.Driver == "sqlite" {
		return "sqlite://" + d.Path
	}
	return d.DSN()
}

// S3Config holds AWS S3 archive settings.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// BlobConfig holds Azure Blob Storage archive settings. ConnectionString
// takes precedence; otherwise AccountURL is used with the default Azure
// credential chain.
type BlobConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ConnectionString string `mapstructure:"connection_string"`
	AccountURL       string `mapstructure:"account_url"`
	Container        string `mapstructure:"container"`
}

// CacheConfig holds Redis extraction cache settings. Empty Addr disables it.
type CacheConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSecs  int    `mapstructure:"ttl_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractionConfig holds document extraction service settings. Endpoint and
// APIKey are server-side defaults used when a session supplies none.
type ExtractionConfig struct {
	Provider          string  `mapstructure:"provider"`
	Endpoint          string  `mapstructure:"endpoint"`
	APIKey            string  `mapstructure:"api_key"`
	ModelID           string  `mapstructure:"model_id"`
	APIVersion        string  `mapstructure:"api_version"`
	TimeoutSecs       int     `mapstructure:"timeout_secs"`
	PollIntervalMS    int     `mapstructure:"poll_interval_ms"`
	PollMaxAttempts   int     `mapstructure:"poll_max_attempts"`
	PollBackoff       float64 `mapstructure:"poll_backoff"`
	PollMaxIntervalMS int     `mapstructure:"poll_max_interval_ms"`
}

// AnalysisConfig holds language-model provider settings.
type AnalysisConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxTokens   int    `mapstructure:"max_tokens"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	Endpoint    string `mapstructure:"endpoint"`
}

// SessionConfig holds workflow session settings.
type SessionConfig struct {
	DemoMode         bool          `mapstructure:"demo_mode"`
	IdleTTL          time.Duration `mapstructure:"idle_ttl"`
	JanitorInterval  time.Duration `mapstructure:"janitor_interval"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// SecurityConfig holds session token and settings sealing secrets.
type SecurityConfig struct {
	TokenSecret    string        `mapstructure:"token_secret"`
	TokenExpiry    time.Duration `mapstructure:"token_expiry"`
	TokenIssuer    string        `mapstructure:"token_issuer"`
	SettingsSecret string        `mapstructure:"settings_secret"`
}

// ExtractionProvider returns the effective extraction provider name.
func (c *Config) ExtractionProvider() string {
	if c.Session.DemoMode {
		return "mock"
	}
	return c.Extraction.Provider
}

// AnalysisProvider returns the effective analysis provider name.
func (c *Config) AnalysisProvider() string {
	if c.Session.DemoMode {
		return "mock"
	}
	return c.Analysis.Provider
}

// Load reads configuration from environment variables with the DOCINTAKE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCINTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docintake")
	v.SetDefault("db.password", "docintake_secret")
	v.SetDefault("db.name", "docintake_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "docintake.db")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docintake-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Blob defaults
	v.SetDefault("blob.enabled", false)
	v.SetDefault("blob.connection_string", "")
	v.SetDefault("blob.account_url", "")
	v.SetDefault("blob.container", "docintake-uploads")

	// Cache defaults
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl_secs", 86400)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:8080,http://127.0.0.1:8080,http://localhost:3000,http://127.0.0.1:3000")

	// Extraction defaults
	v.SetDefault("extraction.provider", "azure")
	v.SetDefault("extraction.endpoint", "")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.model_id", "prebuilt-document")
	v.SetDefault("extraction.api_version", "2023-07-31")
	v.SetDefault("extraction.timeout_secs", 60)
	v.SetDefault("extraction.poll_interval_ms", 1000)
	v.SetDefault("extraction.poll_max_attempts", 120)
	v.SetDefault("extraction.poll_backoff", 1.0)
	v.SetDefault("extraction.poll_max_interval_ms", 5000)

	// Analysis defaults
	v.SetDefault("analysis.provider", "claude")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.model", "")
	v.SetDefault("analysis.max_tokens", 1000)
	v.SetDefault("analysis.timeout_secs", 60)
	v.SetDefault("analysis.endpoint", "")

	// Session defaults
	v.SetDefault("session.demo_mode", false)
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.janitor_interval", "1m")
	v.SetDefault("session.operation_timeout", "5m")

	// Security defaults
	v.SetDefault("security.token_secret", "change-me-in-production")
	v.SetDefault("security.token_expiry", "12h")
	v.SetDefault("security.token_issuer", "docintake")
	v.SetDefault("security.settings_secret", "change-me-in-production")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "DOCINTAKE_SERVER_PORT",
		"server.read_timeout":             "DOCINTAKE_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "DOCINTAKE_SERVER_WRITE_TIMEOUT",
		"server.environment":              "DOCINTAKE_SERVER_ENVIRONMENT",
		"db.driver":                       "DOCINTAKE_DB_DRIVER",
		"db.host":                         "DOCINTAKE_DB_HOST",
		"db.port":                         "DOCINTAKE_DB_PORT",
		"db.user":                         "DOCINTAKE_DB_USER",
		"db.password":                     "DOCINTAKE_DB_PASSWORD",
		"db.name":                         "DOCINTAKE_DB_NAME",
		"db.sslmode":                      "DOCINTAKE_DB_SSLMODE",
		"db.path":                         "DOCINTAKE_DB_PATH",
		"db.max_open":                     "DOCINTAKE_DB_MAX_OPEN",
		"db.max_idle":                     "DOCINTAKE_DB_MAX_IDLE",
		"s3.enabled":                      "DOCINTAKE_S3_ENABLED",
		"s3.region":                       "DOCINTAKE_S3_REGION",
		"s3.bucket":                       "DOCINTAKE_S3_BUCKET",
		"s3.endpoint":                     "DOCINTAKE_S3_ENDPOINT",
		"s3.access_key":                   "DOCINTAKE_S3_ACCESS_KEY",
		"s3.secret_key":                   "DOCINTAKE_S3_SECRET_KEY",
		"s3.max_file_size_mb":             "DOCINTAKE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":               "DOCINTAKE_S3_PRESIGN_EXPIRY",
		"blob.enabled":                    "DOCINTAKE_BLOB_ENABLED",
		"blob.connection_string":          "DOCINTAKE_BLOB_CONNECTION_STRING",
		"blob.account_url":                "DOCINTAKE_BLOB_ACCOUNT_URL",
		"blob.container":                  "DOCINTAKE_BLOB_CONTAINER",
		"cache.addr":                      "DOCINTAKE_CACHE_ADDR",
		"cache.password":                  "DOCINTAKE_CACHE_PASSWORD",
		"cache.db":                        "DOCINTAKE_CACHE_DB",
		"cache.ttl_secs":                  "DOCINTAKE_CACHE_TTL_SECS",
		"cors.allowed_origins":            "DOCINTAKE_CORS_ALLOWED_ORIGINS",
		"extraction.provider":             "DOCINTAKE_EXTRACTION_PROVIDER",
		"extraction.endpoint":             "DOCINTAKE_EXTRACTION_ENDPOINT",
		"extraction.api_key":              "DOCINTAKE_EXTRACTION_API_KEY",
		"extraction.model_id":             "DOCINTAKE_EXTRACTION_MODEL_ID",
		"extraction.api_version":          "DOCINTAKE_EXTRACTION_API_VERSION",
		"extraction.timeout_secs":         "DOCINTAKE_EXTRACTION_TIMEOUT_SECS",
		"extraction.poll_interval_ms":     "DOCINTAKE_EXTRACTION_POLL_INTERVAL_MS",
		"extraction.poll_max_attempts":    "DOCINTAKE_EXTRACTION_POLL_MAX_ATTEMPTS",
		"extraction.poll_backoff":         "DOCINTAKE_EXTRACTION_POLL_BACKOFF",
		"extraction.poll_max_interval_ms": "DOCINTAKE_EXTRACTION_POLL_MAX_INTERVAL_MS",
		"analysis.provider":               "DOCINTAKE_ANALYSIS_PROVIDER",
		"analysis.api_key":                "DOCINTAKE_ANALYSIS_API_KEY",
		"analysis.model":                  "DOCINTAKE_ANALYSIS_MODEL",
		"analysis.max_tokens":             "DOCINTAKE_ANALYSIS_MAX_TOKENS",
		"analysis.timeout_secs":           "DOCINTAKE_ANALYSIS_TIMEOUT_SECS",
		"analysis.endpoint":               "DOCINTAKE_ANALYSIS_ENDPOINT",
		"session.demo_mode":               "DOCINTAKE_SESSION_DEMO_MODE",
		"session.idle_ttl":                "DOCINTAKE_SESSION_IDLE_TTL",
		"session.janitor_interval":        "DOCINTAKE_SESSION_JANITOR_INTERVAL",
		"session.operation_timeout":       "DOCINTAKE_SESSION_OPERATION_TIMEOUT",
		"security.token_secret":           "DOCINTAKE_SECURITY_TOKEN_SECRET",
		"security.token_expiry":           "DOCINTAKE_SECURITY_TOKEN_EXPIRY",
		"security.token_issuer":           "DOCINTAKE_SECURITY_TOKEN_ISSUER",
		"security.settings_secret":        "DOCINTAKE_SECURITY_SETTINGS_SECRET",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if DOCINTAKE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCINTAKE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Driver:   v.GetString("db.driver"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		Path:     v.GetString("db.path"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Blob = BlobConfig{
		Enabled:          v.GetBool("blob.enabled"),
		ConnectionString: v.GetString("blob.connection_string"),
		AccountURL:       v.GetString("blob.account_url"),
		Container:        v.GetString("blob.container"),
	}
	cfg.Cache = CacheConfig{
		Addr:     v.GetString("cache.addr"),
		Password: v.GetString("cache.password"),
		DB:       v.GetInt("cache.db"),
		TTLSecs:  v.GetInt("cache.ttl_secs"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Extraction = ExtractionConfig{
		Provider:          v.GetString("extraction.provider"),
		Endpoint:          v.GetString("extraction.endpoint"),
		APIKey:            v.GetString("extraction.api_key"),
		ModelID:           v.GetString("extraction.model_id"),
		APIVersion:        v.GetString("extraction.api_version"),
		TimeoutSecs:       v.GetInt("extraction.timeout_secs"),
		PollIntervalMS:    v.GetInt("extraction.poll_interval_ms"),
		PollMaxAttempts:   v.GetInt("extraction.poll_max_attempts"),
		PollBackoff:       v.GetFloat64("extraction.poll_backoff"),
		PollMaxIntervalMS: v.GetInt("extraction.poll_max_interval_ms"),
	}
	cfg.Analysis = AnalysisConfig{
		Provider:    v.GetString("analysis.provider"),
		APIKey:      v.GetString("analysis.api_key"),
		Model:       v.GetString("analysis.model"),
		MaxTokens:   v.GetInt("analysis.max_tokens"),
		TimeoutSecs: v.GetInt("analysis.timeout_secs"),
		Endpoint:    v.GetString("analysis.endpoint"),
	}
	cfg.Session = SessionConfig{
		DemoMode:         v.GetBool("session.demo_mode"),
		IdleTTL:          v.GetDuration("session.idle_ttl"),
		JanitorInterval:  v.GetDuration("session.janitor_interval"),
		OperationTimeout: v.GetDuration("session.operation_timeout"),
	}
	cfg.Security = SecurityConfig{
		TokenSecret:    v.GetString("security.token_secret"),
		TokenExpiry:    v.GetDuration("security.token_expiry"),
		TokenIssuer:    v.GetString("security.token_issuer"),
		SettingsSecret: v.GetString("security.settings_secret"),
	}

	if cfg.S3.Enabled && cfg.Blob.Enabled {
		return nil, fmt.Errorf("s3.enabled and blob.enabled are mutually exclusive")
	}
	if cfg.Extraction.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("extraction.poll_max_attempts must be positive, got %d", cfg.Extraction.PollMaxAttempts)
	}

	return cfg, nil
}
