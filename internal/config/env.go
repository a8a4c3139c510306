package config

import (
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// Most env vars use the WAKA_ prefix; the commission and payout-window
// settings (COMMISSION_RATE_PERCENT, RIDER_PAYOUT_TIMEZONE, ...) are read
// without it.
func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Server.Address, "WAKA_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "WAKA_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "WAKA_ADMIN_METRICS_API_KEY")
	if c.Server.RoutePrefix != "" {
		c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)
	}
	setDurationIfEnv(&c.Server.ShutdownGrace, "WAKA_SERVER_SHUTDOWN_GRACE")

	setIfEnv(&c.Logging.Level, "WAKA_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "WAKA_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "WAKA_ENVIRONMENT")

	setIfEnv(&c.Mongo.URL, "WAKA_MONGO_URL")
	setIfEnv(&c.Mongo.Database, "WAKA_MONGO_DATABASE")

	setIfEnv(&c.Postgres.URL, "WAKA_POSTGRES_URL")
	setIntIfEnv(&c.Postgres.Pool.MaxOpenConns, "WAKA_POSTGRES_MAX_OPEN_CONNS")
	setIntIfEnv(&c.Postgres.Pool.MaxIdleConns, "WAKA_POSTGRES_MAX_IDLE_CONNS")
	setDurationIfEnv(&c.Postgres.Pool.ConnMaxLifetime, "WAKA_POSTGRES_CONN_MAX_LIFETIME")

	setInt64IfEnv(&c.Commission.RatePercent, "COMMISSION_RATE_PERCENT")

	setIfEnv(&c.PayoutWindow.Timezone, "RIDER_PAYOUT_TIMEZONE")
	setIntIfEnv(&c.PayoutWindow.GracePeriodHours, "GRACE_PERIOD_HOURS")
	setIntIfEnv(&c.PayoutWindow.StrikeWindowHours, "STRIKE_WINDOW_HOURS")
	setIntIfEnv(&c.PayoutWindow.MaxStrikes, "MAX_STRIKES")
	setIntIfEnv(&c.PayoutWindow.EnforcementTickMinutes, "ENFORCEMENT_TICK_MINUTES")

	setIfEnv(&c.PromoDefaults.SeedFile, "WAKA_PROMO_SEED_FILE")
	setIfEnv(&c.AdminAPIKey, "WAKA_ADMIN_API_KEY")
	setIfEnv(&c.PSP.WebhookSecret, "WAKA_PSP_WEBHOOK_SECRET")

	setIfEnv(&c.Callbacks.TargetURL, "WAKA_NOTIFIER_TARGET_URL")
	setDurationIfEnv(&c.Callbacks.Timeout, "WAKA_NOTIFIER_TIMEOUT")
	setBoolIfEnv(&c.Callbacks.DLQEnabled, "WAKA_NOTIFIER_DLQ_ENABLED")
	setIfEnv(&c.Callbacks.DLQPath, "WAKA_NOTIFIER_DLQ_PATH")

	// Notifier headers (WAKA_NOTIFIER_HEADER_*)
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "WAKA_NOTIFIER_HEADER_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimPrefix(parts[0], "WAKA_NOTIFIER_HEADER_")
		if name == "" {
			continue
		}
		if c.Callbacks.Headers == nil {
			c.Callbacks.Headers = make(map[string]string)
		}
		headerName := textproto.CanonicalMIMEHeaderKey(strings.ReplaceAll(name, "_", "-"))
		c.Callbacks.Headers[headerName] = parts[1]
	}

	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "WAKA_RATE_LIMIT_GLOBAL_ENABLED")
	setBoolIfEnv(&c.RateLimit.ReferralEnabled, "WAKA_RATE_LIMIT_REFERRAL_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

// setIntIfEnv sets an int pointer from an environment variable.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setInt64IfEnv sets an int64 pointer from an environment variable.
func setInt64IfEnv(target *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api", "waka-earnings" -> "/waka-earnings"
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix
}
