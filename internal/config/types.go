package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Mongo          MongoConfig          `yaml:"mongo"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Commission     CommissionConfig     `yaml:"commission"`
	PayoutWindow   PayoutWindowConfig   `yaml:"payout_window"`
	PromoDefaults  PromoDefaultsConfig  `yaml:"promo_defaults"`
	AdminAPIKey    string               `yaml:"admin_api_key"`
	PSP            PSPConfig            `yaml:"psp"`
	Callbacks      CallbacksConfig      `yaml:"callbacks"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	ShutdownGrace      Duration `yaml:"shutdown_grace"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RoutePrefix        string   `yaml:"route_prefix"`
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // protects /metrics when set
}

// MongoConfig holds the primary document-store connection.
type MongoConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// PostgresConfig holds the secondary relational backend used for
// rider_payouts and promo_config, selected per-component.
type PostgresConfig struct {
	URL  string             `yaml:"url"`
	Pool PostgresPoolConfig `yaml:"pool"`
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// CommissionConfig holds the platform commission rate applied by the
// Commission Splitter.
type CommissionConfig struct {
	RatePercent int64 `yaml:"rate_percent"` // default 10
}

// PayoutWindowConfig holds timing parameters for the Payment Window
// Controller and the enforcement sweep.
type PayoutWindowConfig struct {
	Timezone               string `yaml:"timezone"`                 // default Africa/Lagos
	GracePeriodHours        int    `yaml:"grace_period_hours"`       // default 24
	StrikeWindowHours       int    `yaml:"strike_window_hours"`      // default 48
	MaxStrikes              int    `yaml:"max_strikes"`              // default 3
	EnforcementTickMinutes  int    `yaml:"enforcement_tick_minutes"` // default 15
}

// PromoDefaultsConfig seeds the PromoConfig singleton on first boot,
// in the style of a YAML-backed repository default.
type PromoDefaultsConfig struct {
	SeedFile string `yaml:"seed_file"`
}

// PSPConfig holds the inbound payment-service-provider webhook
// verification secret.
type PSPConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// CallbacksConfig holds outbound notifier configuration (referral
// payout, gold unlock, payout events, enforcement events).
type CallbacksConfig struct {
	TargetURL  string            `yaml:"target_url"`
	Headers    map[string]string `yaml:"headers"`
	Timeout    Duration          `yaml:"timeout"`
	Retry      RetryConfig       `yaml:"retry"`
	DLQEnabled bool              `yaml:"dlq_enabled"`
	DLQPath    string            `yaml:"dlq_path"`
}

// RetryConfig holds webhook retry configuration.
type RetryConfig struct {
	Enabled         bool     `yaml:"enabled"`
	MaxAttempts     int      `yaml:"max_attempts"`
	InitialInterval Duration `yaml:"initial_interval"`
	MaxInterval     Duration `yaml:"max_interval"`
	Multiplier      float64  `yaml:"multiplier"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

// RateLimitConfig holds rate limiting configuration, guarding against
// referral-redemption and payout-generation abuse.
type RateLimitConfig struct {
	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalLimit   int      `yaml:"global_limit"`
	GlobalWindow  Duration `yaml:"global_window"`

	ReferralEnabled bool     `yaml:"referral_enabled"`
	ReferralLimit   int      `yaml:"referral_limit"`
	ReferralWindow  Duration `yaml:"referral_window"`

	PerIPEnabled bool     `yaml:"per_ip_enabled"`
	PerIPLimit   int      `yaml:"per_ip_limit"`
	PerIPWindow  Duration `yaml:"per_ip_window"`
}

// CircuitBreakerConfig holds circuit breaker configuration for
// external services (PSP webhook verification, Notifier delivery).
type CircuitBreakerConfig struct {
	Enabled  bool                 `yaml:"enabled"`
	PSP      BreakerServiceConfig `yaml:"psp"`
	Notifier BreakerServiceConfig `yaml:"notifier"`
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}
