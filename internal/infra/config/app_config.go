// Package config manages application configuration loading and validation.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
)

// APIServerConfig configures the HTTP control surface.
type APIServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// FileStorageConfig configures the file backend.
type FileStorageConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// StorageConfig selects the settings store backend.
type StorageConfig struct {
	Backend    persistence.Backend `yaml:"backend"`
	Key        string              `yaml:"key"`
	SaveOnExit bool                `yaml:"saveOnExit"`
	File       FileStorageConfig   `yaml:"file"`
}

// DatabaseConfig controls PostgreSQL connectivity and migration behaviour.
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`
	MaxConns       int32         `yaml:"maxConns"`
	MinConns       int32         `yaml:"minConns"`
	RunMigrations  bool          `yaml:"runMigrations"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// RedisConfig addresses the Redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TranslatorConfig configures the description translator.
type TranslatorConfig struct {
	BaseURL       string        `yaml:"baseUrl"`
	APIKey        string        `yaml:"apiKey"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
}

// QueryConfig bounds remote query execution.
type QueryConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	MaxResponseBytes int64         `yaml:"maxResponseBytes"`
}

// TelemetryConfig configures OTLP exporters (metrics only).
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
	Insecure     bool   `yaml:"insecure"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// AppConfig is the unified application configuration sourced from YAML and the environment.
type AppConfig struct {
	Environment Environment      `yaml:"environment"`
	APIServer   APIServerConfig  `yaml:"apiServer"`
	Storage     StorageConfig    `yaml:"storage"`
	Database    DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig      `yaml:"redis"`
	Translator  TranslatorConfig `yaml:"translator"`
	Query       QueryConfig      `yaml:"query"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// DefaultAppConfig returns the built-in configuration.
func DefaultAppConfig() AppConfig {
	cfg := AppConfig{
		Environment: EnvDev,
		APIServer:   APIServerConfig{Addr: ":8880", AllowedOrigins: []string{"*"}},
		Storage: StorageConfig{
			Backend:    persistence.BackendFile,
			Key:        settingsstore.DefaultKey,
			SaveOnExit: true,
			File:       FileStorageConfig{Dir: "data", Watch: true},
		},
		Database:   DatabaseConfig{DSN: "", MaxConns: 0, MinConns: 0, RunMigrations: true, ConnectTimeout: 0},
		Redis:      RedisConfig{Addr: "", Password: "", DB: 0},
		Translator: TranslatorConfig{BaseURL: "", APIKey: "", Model: "", Timeout: 0, RatePerSecond: 0, Burst: 0},
		Query:      QueryConfig{Timeout: 0, MaxResponseBytes: 0},
		Telemetry:  TelemetryConfig{Enabled: false, OTLPEndpoint: "", ServiceName: "", Insecure: false},
		Logging:    LoggingConfig{Level: "", File: "", MaxSizeMB: 0, MaxBackups: 0, MaxAgeDays: 0, Compress: false},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads configPath, overlays the environment, and validates the result. A missing file
// yields the built-in defaults. envFile, when non-empty, is loaded into the process
// environment first; a missing env file is ignored.
func Load(ctx context.Context, configPath, envFile string) (AppConfig, error) {
	_ = ctx

	if strings.TrimSpace(envFile) != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := DefaultAppConfig()
	reader, closer, err := openConfigFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return AppConfig{}, err
	default:
		defer closer()
		raw, err := io.ReadAll(reader)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return AppConfig{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if value, ok := lookup(name); ok {
			*dst = value
		}
	}
	var env, backend string
	env, backend = string(c.Environment), string(c.Storage.Backend)
	str("EOB_ENV", &env)
	str("EOB_STORAGE_BACKEND", &backend)
	c.Environment = Environment(env)
	c.Storage.Backend = persistence.Backend(backend)

	str("EOB_API_ADDR", &c.APIServer.Addr)
	str("EOB_STORAGE_KEY", &c.Storage.Key)
	str("EOB_DATA_DIR", &c.Storage.File.Dir)
	str("EOB_DATABASE_DSN", &c.Database.DSN)
	str("EOB_REDIS_ADDR", &c.Redis.Addr)
	str("EOB_REDIS_PASSWORD", &c.Redis.Password)
	str("EOB_TRANSLATOR_BASE_URL", &c.Translator.BaseURL)
	str("EOB_TRANSLATOR_API_KEY", &c.Translator.APIKey)
	str("EOB_TRANSLATOR_MODEL", &c.Translator.Model)
	str("EOB_LOG_LEVEL", &c.Logging.Level)
	str("EOB_LOG_FILE", &c.Logging.File)

	if value, ok := lookup("EOB_REDIS_DB"); ok && strings.TrimSpace(value) != "" {
		db, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("EOB_REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	return nil
}

func (c *AppConfig) applyDefaults() {
	c.Environment = normalizeEnvironment(string(c.Environment))
	if c.Environment == "" {
		c.Environment = EnvDev
	}

	c.APIServer.Addr = strings.TrimSpace(c.APIServer.Addr)
	if c.APIServer.Addr == "" {
		c.APIServer.Addr = ":8880"
	}
	origins := make([]string, 0, len(c.APIServer.AllowedOrigins))
	for _, origin := range c.APIServer.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" && !slices.Contains(origins, trimmed) {
			origins = append(origins, trimmed)
		}
	}
	c.APIServer.AllowedOrigins = origins

	c.Storage.Backend = persistence.Backend(strings.ToLower(strings.TrimSpace(string(c.Storage.Backend))))
	if c.Storage.Backend == "" {
		c.Storage.Backend = persistence.BackendFile
	}
	c.Storage.Key = strings.TrimSpace(c.Storage.Key)
	if c.Storage.Key == "" {
		c.Storage.Key = settingsstore.DefaultKey
	}
	c.Storage.File.Dir = strings.TrimSpace(c.Storage.File.Dir)
	if c.Storage.File.Dir == "" {
		c.Storage.File.Dir = "data"
	}
	c.Storage.File.Dir = filepath.Clean(c.Storage.File.Dir)

	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 4
	}
	if c.Database.MinConns <= 0 {
		c.Database.MinConns = 1
	}
	if c.Database.MinConns > c.Database.MaxConns {
		c.Database.MinConns = c.Database.MaxConns
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 30 * time.Second
	}

	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)

	c.Translator.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Translator.BaseURL), "/")
	if c.Translator.BaseURL == "" {
		c.Translator.BaseURL = "https://api.openai.com/v1"
	}
	c.Translator.APIKey = strings.TrimSpace(c.Translator.APIKey)
	c.Translator.Model = strings.TrimSpace(c.Translator.Model)
	if c.Translator.Model == "" {
		c.Translator.Model = "gpt-4o-mini"
	}
	if c.Translator.Timeout == 0 {
		c.Translator.Timeout = 20 * time.Second
	}
	if c.Translator.RatePerSecond == 0 {
		c.Translator.RatePerSecond = 2
	}
	if c.Translator.Burst <= 0 {
		c.Translator.Burst = 1
	}

	if c.Query.Timeout == 0 {
		c.Query.Timeout = 30 * time.Second
	}
	if c.Query.MaxResponseBytes <= 0 {
		c.Query.MaxResponseBytes = 16 << 20
	}

	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "eobrowser"
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 50
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// Validate performs semantic validation on the configuration.
func (c AppConfig) Validate() error {
	if !c.Environment.Valid() {
		return fmt.Errorf("environment must be one of dev, staging, prod")
	}
	if strings.TrimSpace(c.APIServer.Addr) == "" {
		return fmt.Errorf("apiServer addr required")
	}
	if !c.Storage.Backend.Valid() {
		return fmt.Errorf("storage backend must be one of memory, file, postgres, redis; got %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key required")
	}
	switch c.Storage.Backend {
	case persistence.BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database: dsn required for postgres storage")
		}
	case persistence.BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis: addr required for redis storage")
		}
	case persistence.BackendFile:
		if c.Storage.File.Dir == "" {
			return fmt.Errorf("storage file dir required")
		}
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("database connectTimeout must be >= 0")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must be >= 0")
	}
	if c.Translator.Timeout < 0 {
		return fmt.Errorf("translator timeout must be >= 0")
	}
	if c.Translator.RatePerSecond < 0 {
		return fmt.Errorf("translator ratePerSecond must be >= 0")
	}
	if c.Query.Timeout < 0 {
		return fmt.Errorf("query timeout must be >= 0")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry otlpEndpoint required when enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be one of debug, info, warn, error")
	}
	return nil
}

// Clone returns a deep copy.
func (c AppConfig) Clone() AppConfig {
	clone := c
	clone.APIServer.AllowedOrigins = slices.Clone(c.APIServer.AllowedOrigins)
	return clone
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c AppConfig) Redacted() AppConfig {
	clone := c.Clone()
	clone.Database.DSN = redactDSN(clone.Database.DSN)
	clone.Redis.Password = mask(clone.Redis.Password)
	clone.Translator.APIKey = mask(clone.Translator.APIKey)
	return clone
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":****"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}

// Marshal renders the configuration as YAML.
func (c AppConfig) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	if candidate == "" {
		return nil, nil, fmt.Errorf("open app config: %w", fs.ErrNotExist)
	}
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
