package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestManager_Disabled_PassesThrough(t *testing.T) {
	m := NewManager(Config{Enabled: false})

	calls := 0
	_, err := m.Execute(ServicePSP, func() (interface{}, error) {
		calls++
		return nil, errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected the wrapped error to propagate")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if m.State(ServicePSP) != "disabled" {
		t.Errorf("expected state 'disabled', got %q", m.State(ServicePSP))
	}
}

func TestManager_TripsOnConsecutiveFailures(t *testing.T) {
	m := NewManager(Config{
		Enabled: true,
		PSP: BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             time.Minute,
			ConsecutiveFailures: 3,
		},
	})

	failing := func() (interface{}, error) {
		return nil, errors.New("psp unreachable")
	}

	for i := 0; i < 3; i++ {
		if _, err := m.Execute(ServicePSP, failing); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	if state := m.State(ServicePSP); state != "open" {
		t.Errorf("expected breaker to be open after 3 consecutive failures, got %q", state)
	}

	_, err := m.Execute(ServicePSP, func() (interface{}, error) {
		t.Fatal("fn should not be invoked while breaker is open")
		return nil, nil
	})
	if err == nil {
		t.Error("expected an error from the open breaker")
	}
}

func TestManager_NotConfiguredService_PassesThrough(t *testing.T) {
	m := NewManager(Config{Enabled: true})

	calls := 0
	_, err := m.Execute(ServiceType("unknown"), func() (interface{}, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if state := m.State(ServiceType("unknown")); state != "not_configured" {
		t.Errorf("expected 'not_configured', got %q", state)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("expected circuit breaker enabled by default")
	}
	if cfg.PSP.ConsecutiveFailures != 5 {
		t.Errorf("expected PSP consecutive failures 5, got %d", cfg.PSP.ConsecutiveFailures)
	}
	if cfg.Notifier.ConsecutiveFailures != 10 {
		t.Errorf("expected Notifier consecutive failures 10, got %d", cfg.Notifier.ConsecutiveFailures)
	}
}
