package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/phytocast/internal/domain/selection"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Prediction PredictionConfig `yaml:"prediction"`
	Selection  SelectionConfig  `yaml:"selection"`
	Session    SessionConfig    `yaml:"session"`
	History    HistoryConfig    `yaml:"history"`
	Export     ExportConfig     `yaml:"export"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ForecastConfig locates the Open-Meteo forecast.
type ForecastConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Latitude     float64       `yaml:"latitude"`
	Longitude    float64       `yaml:"longitude"`
	Timezone     string        `yaml:"timezone"`
	ForecastDays int           `yaml:"forecastDays"`
	Timeout      time.Duration `yaml:"timeout"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

// BreakerConfig guards the forecast provider.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
}

// PredictionConfig points at the model service.
type PredictionConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	IncludeDate bool          `yaml:"includeDate"`
}

// SelectionConfig controls per-session date selection.
type SelectionConfig struct {
	StalePolicy string        `yaml:"stalePolicy"`
	StateTTL    time.Duration `yaml:"stateTtl"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for the selection store.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookieName"`
}

// HistoryConfig controls prediction history storage.
type HistoryConfig struct {
	Limit            int            `yaml:"limit"`
	MaxMemoryRecords int            `yaml:"maxMemoryRecords"`
	Postgres         PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ExportConfig controls CSV exports of the history.
type ExportConfig struct {
	Prefix   string        `yaml:"prefix"`
	MaxRows  int           `yaml:"maxRows"`
	Interval time.Duration `yaml:"interval"`
	S3       S3Config      `yaml:"s3"`
}

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Location resolves the forecast timezone, defaulting to UTC.
func (c ForecastConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv fills unset variables from ENV_FILE or ./.env. Real environment wins.
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString("HTTP_ADDRESS", &cfg.HTTP.Address)
	setDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	setDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	setDuration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	setInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	setInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)

	setString("FORECAST_BASE_URL", &cfg.Forecast.BaseURL)
	setFloat("FORECAST_LATITUDE", &cfg.Forecast.Latitude)
	setFloat("FORECAST_LONGITUDE", &cfg.Forecast.Longitude)
	setString("FORECAST_TIMEZONE", &cfg.Forecast.Timezone)
	setInt("FORECAST_DAYS", &cfg.Forecast.ForecastDays)
	setDuration("FORECAST_TIMEOUT", &cfg.Forecast.Timeout)
	setBool("FORECAST_BREAKER_ENABLED", &cfg.Forecast.Breaker.Enabled)

	setString("PREDICTION_ENDPOINT", &cfg.Prediction.Endpoint)
	setDuration("PREDICTION_TIMEOUT", &cfg.Prediction.Timeout)
	setBool("PREDICTION_INCLUDE_DATE", &cfg.Prediction.IncludeDate)

	setString("SELECTION_STALE_POLICY", &cfg.Selection.StalePolicy)
	setDuration("SELECTION_STATE_TTL", &cfg.Selection.StateTTL)
	setBool("SELECTION_REDIS_ENABLED", &cfg.Selection.Redis.Enabled)
	setString("SELECTION_REDIS_ADDR", &cfg.Selection.Redis.Addr)

	setString("SESSION_SECRET", &cfg.Session.Secret)
	setDuration("SESSION_TTL", &cfg.Session.TTL)

	setInt("HISTORY_LIMIT", &cfg.History.Limit)
	setString("HISTORY_POSTGRES_DSN", &cfg.History.Postgres.DSN)
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}

	setString("EXPORT_PREFIX", &cfg.Export.Prefix)
	setInt("EXPORT_MAX_ROWS", &cfg.Export.MaxRows)
	setDuration("EXPORT_INTERVAL", &cfg.Export.Interval)
	setBool("EXPORT_S3_ENABLED", &cfg.Export.S3.Enabled)
	setString("EXPORT_S3_ENDPOINT", &cfg.Export.S3.Endpoint)
	setString("EXPORT_S3_ACCESS_KEY", &cfg.Export.S3.AccessKey)
	setString("EXPORT_S3_SECRET_KEY", &cfg.Export.S3.SecretKey)
	setString("EXPORT_S3_BUCKET", &cfg.Export.S3.Bucket)
	setString("EXPORT_S3_REGION", &cfg.Export.S3.Region)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    45 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Forecast: ForecastConfig{
			BaseURL:      "https://api.open-meteo.com/v1/forecast",
			Latitude:     14.5243,
			Longitude:    121.0792,
			Timezone:     "Asia/Singapore",
			ForecastDays: 7,
			Timeout:      10 * time.Second,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Prediction: PredictionConfig{
			Endpoint:    "http://127.0.0.1:5000/predict_and_learn",
			Timeout:     30 * time.Second,
			IncludeDate: true,
		},
		Selection: SelectionConfig{
			StalePolicy: string(selection.StaleFallback),
			StateTTL:    30 * 24 * time.Hour,
			Redis: RedisConfig{
				Prefix: "phytocast",
			},
		},
		Session: SessionConfig{
			TTL:        30 * 24 * time.Hour,
			CookieName: "phytocast_session",
		},
		History: HistoryConfig{
			Limit:            50,
			MaxMemoryRecords: 1000,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Export: ExportConfig{
			Prefix:  "exports",
			MaxRows: 1000,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Forecast.BaseURL) == "" {
		return errors.New("forecast.baseUrl cannot be empty")
	}
	if c.Forecast.Latitude < -90 || c.Forecast.Latitude > 90 {
		return errors.New("forecast.latitude must be within [-90, 90]")
	}
	if c.Forecast.Longitude < -180 || c.Forecast.Longitude > 180 {
		return errors.New("forecast.longitude must be within [-180, 180]")
	}
	if _, err := time.LoadLocation(c.Forecast.Timezone); err != nil {
		return fmt.Errorf("forecast.timezone: %w", err)
	}
	if c.Forecast.ForecastDays < 0 || c.Forecast.ForecastDays > 16 {
		return errors.New("forecast.forecastDays must be within [0, 16]")
	}
	if c.Forecast.Timeout <= 0 {
		return errors.New("forecast.timeout must be positive")
	}
	if strings.TrimSpace(c.Prediction.Endpoint) == "" {
		return errors.New("prediction.endpoint cannot be empty")
	}
	if c.Prediction.Timeout <= 0 {
		return errors.New("prediction.timeout must be positive")
	}
	if _, ok := selection.ParseStalePolicy(c.Selection.StalePolicy); !ok {
		return fmt.Errorf("selection.stalePolicy must be %q or %q", selection.StaleFallback, selection.StaleReject)
	}
	if c.Selection.StateTTL < 0 {
		return errors.New("selection.stateTtl cannot be negative")
	}
	if c.Selection.Redis.Enabled && strings.TrimSpace(c.Selection.Redis.Addr) == "" {
		return errors.New("selection.redis.addr cannot be empty when redis is enabled")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.History.Limit <= 0 {
		return errors.New("history.limit must be positive")
	}
	if c.Export.MaxRows <= 0 {
		return errors.New("export.maxRows must be positive")
	}
	if c.Export.Interval < 0 {
		return errors.New("export.interval cannot be negative")
	}
	if c.Export.S3.Enabled {
		if strings.TrimSpace(c.Export.S3.Endpoint) == "" {
			return errors.New("export.s3.endpoint cannot be empty when s3 export is enabled")
		}
		if strings.TrimSpace(c.Export.S3.Bucket) == "" {
			return errors.New("export.s3.bucket cannot be empty when s3 export is enabled")
		}
	}
	return nil
}
