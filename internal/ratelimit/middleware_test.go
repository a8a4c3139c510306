package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.GlobalEnabled {
		t.Error("expected global rate limiting enabled by default")
	}
	if cfg.GlobalLimit != 1000 {
		t.Errorf("expected global limit 1000, got %d", cfg.GlobalLimit)
	}
	if !cfg.ReferralEnabled {
		t.Error("expected referral rate limiting enabled by default")
	}
	if cfg.ReferralLimit != 10 {
		t.Errorf("expected referral limit 10, got %d", cfg.ReferralLimit)
	}
	if !cfg.PerIPEnabled {
		t.Error("expected per-IP rate limiting enabled by default")
	}
}

func TestGlobalLimiter_Disabled(t *testing.T) {
	cfg := Config{GlobalEnabled: false}
	limiter := GlobalLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestGlobalLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		GlobalEnabled: true,
		GlobalLimit:   5,
		GlobalWindow:  1 * time.Second,
		GlobalBurst:   2,
	}
	limiter := GlobalLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit exceeded, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header to be set")
	}
}

func TestReferralLimiter_Disabled(t *testing.T) {
	cfg := Config{ReferralEnabled: false}
	limiter := ReferralLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("POST", "/referral/use", nil)
		req.Header.Set("X-Rider-Id", "rider-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestReferralLimiter_PerRiderLimit(t *testing.T) {
	cfg := Config{
		ReferralEnabled: true,
		ReferralLimit:   3,
		ReferralWindow:  1 * time.Second,
		ReferralBurst:   1,
	}
	limiter := ReferralLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rider1 := "rider-abc"
	rider2 := "rider-xyz"

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/referral/use", nil)
		req.Header.Set("X-Rider-Id", rider1)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("rider1 request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("POST", "/referral/use", nil)
	req.Header.Set("X-Rider-Id", rider1)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("rider1: expected 429 after limit, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/referral/use", nil)
	req.Header.Set("X-Rider-Id", rider2)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("rider2: expected 200, got %d", w.Code)
	}
}

func TestReferralLimiter_FallbackToIP(t *testing.T) {
	cfg := Config{
		ReferralEnabled: true,
		ReferralLimit:   3,
		ReferralWindow:  1 * time.Second,
		ReferralBurst:   1,
	}
	limiter := ReferralLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/referral/use", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("POST", "/referral/use", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after IP fallback limit, got %d", w.Code)
	}
}

func TestExtractRiderFromRequest(t *testing.T) {
	tests := []struct {
		name         string
		setupRequest func(*http.Request)
		expected     string
	}{
		{
			name: "X-Rider-Id header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("X-Rider-Id", "rider-42")
			},
			expected: "rider-42",
		},
		{
			name:         "no rider information",
			setupRequest: func(r *http.Request) {},
			expected:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/referral/use", nil)
			tt.setupRequest(req)

			got := extractRiderFromRequest(req)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIPLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		PerIPEnabled: true,
		PerIPLimit:   3,
		PerIPWindow:  1 * time.Second,
		PerIPBurst:   1,
	}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "192.168.1.100:54321"

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after IP limit, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.101:54321"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("different IP: expected 200, got %d", w.Code)
	}
}
