package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all agent configuration. Policy constants observed to drift
// across app revisions (poll interval, step count, proximity threshold) are set
// once here and never re-derived elsewhere.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Search     SearchConfig     `mapstructure:"search"`
	Trip       TripConfig       `mapstructure:"trip"`
	Location   LocationConfig   `mapstructure:"location"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
	Token   string `mapstructure:"token"`   // bearer token, empty = unauthenticated
}

type DirectionsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

type SearchConfig struct {
	BaseRadiusKm float64 `mapstructure:"base_radius_km"`
	MaxSteps     int     `mapstructure:"max_steps"`
	StepDelayMs  int     `mapstructure:"step_delay_ms"`
}

// StepDelay returns the inter-step widening delay.
func (s SearchConfig) StepDelay() time.Duration {
	return time.Duration(s.StepDelayMs) * time.Millisecond
}

type TripConfig struct {
	PollIntervalMs    int     `mapstructure:"poll_interval_ms"`
	ArrivalThresholdM float64 `mapstructure:"arrival_threshold_m"`
	FailureThreshold  int     `mapstructure:"failure_threshold"`
}

// PollInterval returns the occupancy/proximity polling cadence.
func (t TripConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}

type LocationConfig struct {
	HighAccuracy bool `mapstructure:"high_accuracy"`
	TimeoutSec   int  `mapstructure:"timeout_sec"`
	MaxAgeMs     int  `mapstructure:"max_age_ms"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 10)
	v.SetDefault("backend.token", "")
	v.SetDefault("directions.base_url", "http://localhost:8002")
	v.SetDefault("directions.timeout", 7)
	v.SetDefault("search.base_radius_km", 1.0)
	v.SetDefault("search.max_steps", 5)
	v.SetDefault("search.step_delay_ms", 1000)
	v.SetDefault("trip.poll_interval_ms", 5000)
	v.SetDefault("trip.arrival_threshold_m", 10)
	v.SetDefault("trip.failure_threshold", 3)
	v.SetDefault("location.high_accuracy", true)
	v.SetDefault("location.timeout_sec", 20)
	v.SetDefault("location.max_age_ms", 1000)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("journal.path", "parkpass.db")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "reservation-cleanup")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PARKPASS_SEARCH_MAX_STEPS → search.max_steps
	v.SetEnvPrefix("PARKPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	}
	if c.Directions.BaseURL == "" {
		errs = append(errs, "directions.base_url is required")
	}
	if c.Search.BaseRadiusKm <= 0 {
		errs = append(errs, "search.base_radius_km must be positive")
	}
	if c.Search.MaxSteps <= 0 {
		errs = append(errs, "search.max_steps must be positive")
	}
	if c.Trip.PollIntervalMs <= 0 {
		errs = append(errs, "trip.poll_interval_ms must be positive")
	}
	if c.Trip.ArrivalThresholdM <= 0 {
		errs = append(errs, "trip.arrival_threshold_m must be positive")
	}
	if c.Trip.FailureThreshold <= 0 {
		errs = append(errs, "trip.failure_threshold must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
