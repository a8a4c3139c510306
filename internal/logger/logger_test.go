package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestRedactPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  string
	}{
		{"+2348012345678", "+234********78"},
		{"08012345678", "080******78"},
		{"123", "[redacted]"},
		{"", "[redacted]"},
	}

	for _, tt := range tests {
		if got := RedactPhone(tt.phone); got != tt.want {
			t.Errorf("RedactPhone(%q) = %q, want %q", tt.phone, got, tt.want)
		}
	}
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "ja***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-email", "[redacted]"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := RedactEmail(tt.email); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	if l.GetLevel() != zerolog.Disabled {
		t.Errorf("expected Nop logger when context has no logger, got level %v", l.GetLevel())
	}
}

func TestWithContext_RoundTrip(t *testing.T) {
	base := New(Config{Level: "debug", Format: "json", Service: "waka-earnings", Environment: "test"})
	ctx := WithContext(context.Background(), base)

	got := FromContext(ctx)
	if got.GetLevel() == zerolog.Disabled {
		t.Error("expected logger stored in context, got disabled logger")
	}
}

func TestWithRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc123")
	if GetRequestID(ctx) != "req_abc123" {
		t.Errorf("expected req_abc123, got %q", GetRequestID(ctx))
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if GetRequestID(context.Background()) != "" {
		t.Error("expected empty string when no request id in context")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}

	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
