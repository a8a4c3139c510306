package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOverrides_ServerConfig(t *testing.T) {
	defer os.Clearenv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:    "WAKA_SERVER_ADDRESS overrides default",
			envVars: map[string]string{"WAKA_SERVER_ADDRESS": ":3000"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("Expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name:    "WAKA_ROUTE_PREFIX override",
			envVars: map[string]string{"WAKA_ROUTE_PREFIX": "/api"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.RoutePrefix != "/api" {
					t.Errorf("Expected /api, got %s", cfg.Server.RoutePrefix)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_PayoutWindowConfig(t *testing.T) {
	defer os.Clearenv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:    "GRACE_PERIOD_HOURS override",
			envVars: map[string]string{"GRACE_PERIOD_HOURS": "48"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.PayoutWindow.GracePeriodHours != 48 {
					t.Errorf("Expected 48, got %d", cfg.PayoutWindow.GracePeriodHours)
				}
			},
		},
		{
			name:    "RIDER_PAYOUT_TIMEZONE override",
			envVars: map[string]string{"RIDER_PAYOUT_TIMEZONE": "UTC"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.PayoutWindow.Timezone != "UTC" {
					t.Errorf("Expected UTC, got %s", cfg.PayoutWindow.Timezone)
				}
			},
		},
		{
			name:    "MAX_STRIKES override",
			envVars: map[string]string{"MAX_STRIKES": "5"},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.PayoutWindow.MaxStrikes != 5 {
					t.Errorf("Expected 5, got %d", cfg.PayoutWindow.MaxStrikes)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_CommissionConfig(t *testing.T) {
	defer os.Clearenv()
	os.Setenv("COMMISSION_RATE_PERCENT", "15")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Commission.RatePercent != 15 {
		t.Errorf("Expected 15, got %d", cfg.Commission.RatePercent)
	}
}

func TestEnvOverrides_NotifierTimeout(t *testing.T) {
	defer os.Clearenv()
	os.Setenv("WAKA_NOTIFIER_TIMEOUT", "5s")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Callbacks.Timeout.Duration != 5*time.Second {
		t.Errorf("Expected 5s, got %v", cfg.Callbacks.Timeout.Duration)
	}
}

func TestEnvOverrides_NotifierHeaders(t *testing.T) {
	defer os.Clearenv()

	os.Setenv("WAKA_NOTIFIER_HEADER_AUTHORIZATION", "Bearer token123")
	os.Setenv("WAKA_NOTIFIER_HEADER_X_API_KEY", "api-key-456")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Callbacks.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Expected Authorization header to be set, got %v", cfg.Callbacks.Headers)
	}
	if cfg.Callbacks.Headers["X-Api-Key"] != "api-key-456" {
		t.Errorf("Expected X-Api-Key header to be set, got %v", cfg.Callbacks.Headers)
	}
}

func TestEnvOverrides_AdminAPIKey(t *testing.T) {
	defer os.Clearenv()
	os.Setenv("WAKA_ADMIN_API_KEY", "admin-secret")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.AdminAPIKey != "admin-secret" {
		t.Errorf("Expected admin-secret, got %s", cfg.AdminAPIKey)
	}
}
