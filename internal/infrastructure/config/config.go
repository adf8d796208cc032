package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Backend modes selectable at startup.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	API      APIConfig      `mapstructure:"api"`
	Local    LocalConfig    `mapstructure:"local"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// BackendConfig selects which backend implementation serves the client.
type BackendConfig struct {
	Mode string `mapstructure:"mode"`
}

// APIConfig holds remote backend configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LocalConfig holds local mock backend configuration
type LocalConfig struct {
	Latency time.Duration `mapstructure:"latency"`
}

// StorageConfig holds durable client-state storage configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RefreshConfig holds refresh timing configuration
type RefreshConfig struct {
	AutoInterval   time.Duration `mapstructure:"auto_interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
}

// ServerConfig holds dev server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	Storage           string        `mapstructure:"storage"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
}

// DatabaseConfig holds database configuration for the dev server's Postgres
// storage mode.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// Load loads configuration from the environment with sane defaults
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := expandStoragePath(&cfg); err != nil {
		return nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "ScheduleWorks")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Backend defaults
	viper.SetDefault("backend.mode", BackendLocal)

	// Remote API defaults
	viper.SetDefault("api.base_url", "http://localhost:8080/api")
	viper.SetDefault("api.timeout", "15s")

	// Local mock defaults
	viper.SetDefault("local.latency", "0s")

	// Storage defaults
	viper.SetDefault("storage.path", "~/.scheduleworks")

	// Refresh defaults
	viper.SetDefault("refresh.auto_interval", "5m")
	viper.SetDefault("refresh.stale_after", "2m")
	viper.SetDefault("refresh.search_debounce", "300ms")

	// Dev server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.storage", "local")
	viper.SetDefault("server.rate_limit_requests", 100)
	viper.SetDefault("server.rate_limit_window", "1m")
	viper.SetDefault("server.metrics_enabled", true)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "schedules")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output", "stderr")
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	// Backend
	viper.BindEnv("backend.mode", "BACKEND_MODE")

	// Remote API
	viper.BindEnv("api.base_url", "API_BASE_URL")
	viper.BindEnv("api.timeout", "API_TIMEOUT")

	// Local mock
	viper.BindEnv("local.latency", "LOCAL_LATENCY")

	// Storage
	viper.BindEnv("storage.path", "STORAGE_PATH")

	// Refresh
	viper.BindEnv("refresh.auto_interval", "REFRESH_AUTO_INTERVAL")
	viper.BindEnv("refresh.stale_after", "REFRESH_STALE_AFTER")
	viper.BindEnv("refresh.search_debounce", "REFRESH_SEARCH_DEBOUNCE")

	// Dev server
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.storage", "SERVER_STORAGE")
	viper.BindEnv("server.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("server.rate_limit_window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("server.metrics_enabled", "ENABLE_METRICS")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")
}

func expandStoragePath(cfg *Config) error {
	expanded, err := homedir.Expand(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("expand storage path: %w", err)
	}
	cfg.Storage.Path = filepath.Clean(expanded)
	return nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Backend.Mode {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("backend mode must be %q or %q", BackendLocal, BackendRemote)
	}

	if cfg.Backend.Mode == BackendRemote && cfg.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required for the remote backend")
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Refresh.SearchDebounce < 0 {
		return fmt.Errorf("search debounce must not be negative")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// Addr returns the dev server listen address
func (cfg *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
