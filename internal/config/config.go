package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Model      ModelConfig
	Estimate   EstimateConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds the prediction log database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	Enabled            bool
	AutoMigrate        bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ShutdownTimeout time.Duration
	WebDir          string // form assets when not embedded
}

// ModelConfig holds the model provider configuration
type ModelConfig struct {
	Kind             string // "artifact" or "remote"
	URL              string // artifact download URL or remote inference base URL
	Path             string // local artifact cache
	DownloadTimeout  time.Duration
	DownloadAttempts int
	RequestTimeout   time.Duration
	Preload          bool
}

// EstimateConfig holds estimate-related configuration
type EstimateConfig struct {
	RangeFraction       float64
	SimilarDefaultLimit int
	SimilarMaxLimit     int
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Model provider kinds
const (
	ModelKindArtifact = "artifact"
	ModelKindRemote   = "remote"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	dsn := getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", "")))

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                dsn,
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "price_estimator"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
			Enabled:            getEnvAsBool("PREDICTION_LOG_ENABLED", dsn != ""),
			AutoMigrate:        getEnvAsBool("PG_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			WebDir:          getEnv("WEB_DIR", "cmd/server/web/dist"),
		},
		Model: ModelConfig{
			Kind:             strings.ToLower(getEnv("MODEL_KIND", ModelKindArtifact)),
			URL:              getEnv("MODEL_URL", ""),
			Path:             getEnv("MODEL_PATH", "final_real_estate_model.json"),
			DownloadTimeout:  getEnvAsDuration("MODEL_DOWNLOAD_TIMEOUT", 60*time.Second),
			DownloadAttempts: getEnvAsInt("MODEL_DOWNLOAD_ATTEMPTS", 3),
			RequestTimeout:   getEnvAsDuration("MODEL_REQUEST_TIMEOUT", 10*time.Second),
			Preload:          getEnvAsBool("MODEL_PRELOAD", true),
		},
		Estimate: EstimateConfig{
			RangeFraction:       getEnvAsFloat("ESTIMATE_RANGE_FRACTION", 0.10),
			SimilarDefaultLimit: getEnvAsInt("SIMILAR_DEFAULT_LIMIT", 5),
			SimilarMaxLimit:     getEnvAsInt("SIMILAR_MAX_LIMIT", 50),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Model.Kind {
	case ModelKindArtifact:
		if c.Model.URL == "" && c.Model.Path == "" {
			return eris.New("config: MODEL_URL or MODEL_PATH is required for the artifact provider")
		}
	case ModelKindRemote:
		if c.Model.URL == "" {
			return eris.New("config: MODEL_URL is required for the remote provider")
		}
	default:
		return eris.Errorf("config: unknown MODEL_KIND %q (want %s or %s)", c.Model.Kind, ModelKindArtifact, ModelKindRemote)
	}

	if c.Estimate.RangeFraction < 0 || c.Estimate.RangeFraction >= 1 {
		return eris.Errorf("config: ESTIMATE_RANGE_FRACTION must be in [0, 1), got %v", c.Estimate.RangeFraction)
	}
	if c.Estimate.SimilarDefaultLimit <= 0 || c.Estimate.SimilarMaxLimit <= 0 {
		return eris.Errorf("config: SIMILAR_DEFAULT_LIMIT and SIMILAR_MAX_LIMIT must be positive, got %d and %d",
			c.Estimate.SimilarDefaultLimit, c.Estimate.SimilarMaxLimit)
	}
	if c.Estimate.SimilarDefaultLimit > c.Estimate.SimilarMaxLimit {
		return eris.Errorf("config: SIMILAR_DEFAULT_LIMIT (%d) exceeds SIMILAR_MAX_LIMIT (%d)",
			c.Estimate.SimilarDefaultLimit, c.Estimate.SimilarMaxLimit)
	}
	if c.Model.DownloadAttempts < 1 {
		c.Model.DownloadAttempts = 1
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// GetPostgreSQLURL returns the connection string in URL form, which the
// migration driver requires
func (c *Config) GetPostgreSQLURL() string {
	if strings.HasPrefix(c.PostgreSQL.DSN, "postgres://") || strings.HasPrefix(c.PostgreSQL.DSN, "postgresql://") {
		return c.PostgreSQL.DSN
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgreSQL.User, c.PostgreSQL.Password),
		Host:     fmt.Sprintf("%s:%d", c.PostgreSQL.Host, c.PostgreSQL.Port),
		Path:     "/" + c.PostgreSQL.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgreSQL.SSLMode),
	}
	return u.String()
}

// InitLogger builds the global zap logger from the logging configuration
func InitLogger(cfg LoggingConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// warnInvalid runs before InitLogger, so it goes to stderr directly.
func warnInvalid(key, value string, defaultValue any) {
	fmt.Fprintf(os.Stderr, "Warning: invalid value %q for %s, using default %v\n", value, key, defaultValue)
}
