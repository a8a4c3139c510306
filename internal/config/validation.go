package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"database/sql"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "earnings_core"
	}
	if c.Commission.RatePercent <= 0 {
		c.Commission.RatePercent = 10
	}
	if c.PayoutWindow.Timezone == "" {
		c.PayoutWindow.Timezone = "Africa/Lagos"
	}
	if c.PayoutWindow.GracePeriodHours <= 0 {
		c.PayoutWindow.GracePeriodHours = 24
	}
	if c.PayoutWindow.StrikeWindowHours <= 0 {
		c.PayoutWindow.StrikeWindowHours = 48
	}
	if c.PayoutWindow.MaxStrikes <= 0 {
		c.PayoutWindow.MaxStrikes = 3
	}
	if c.PayoutWindow.EnforcementTickMinutes <= 0 {
		c.PayoutWindow.EnforcementTickMinutes = 15
	}
	if c.Callbacks.Timeout.Duration == 0 {
		c.Callbacks.Timeout = Duration{Duration: 3 * time.Second}
	}
	if c.Callbacks.Headers == nil {
		c.Callbacks.Headers = make(map[string]string)
	}

	return c.validate()
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	if c.Mongo.URL == "" {
		errs = append(errs, "mongo.url is required")
	}
	if c.Commission.RatePercent < 0 || c.Commission.RatePercent > 100 {
		errs = append(errs, "commission.rate_percent must be between 0 and 100")
	}
	if _, err := time.LoadLocation(c.PayoutWindow.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("payout_window.timezone %q is not a valid IANA timezone", c.PayoutWindow.Timezone))
	}
	if c.PayoutWindow.MaxStrikes < 1 {
		errs = append(errs, "payout_window.max_strikes must be at least 1")
	}

	if len(errs) > 0 {
		return stderrors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ApplyPostgresPoolSettings applies connection pool settings to a database connection.
// If pool config is not specified, applies sensible defaults.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
