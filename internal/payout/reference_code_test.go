package payout

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateReferenceCode_Format(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	code, err := generateReferenceCode("rider-abcdef123456", now)
	if err != nil {
		t.Fatalf("generateReferenceCode: %v", err)
	}

	if !strings.HasPrefix(code, "9W") {
		t.Fatalf("code = %q, want 9W prefix", code)
	}
	// "9W" + 6 (rider) + 6 (timestamp) + 2 (random) = 16.
	if len(code) != 16 {
		t.Fatalf("len(code) = %d, want 16 (code=%q)", len(code), code)
	}

	riderPart := code[2:8]
	if riderPart != "123456" {
		t.Fatalf("riderPart = %q, want last 6 of rider id uppercased", riderPart)
	}
}

func TestGenerateReferenceCode_ShortRiderIDPadded(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	code, err := generateReferenceCode("ab", now)
	if err != nil {
		t.Fatalf("generateReferenceCode: %v", err)
	}
	riderPart := code[2:8]
	if riderPart != "0000AB" {
		t.Fatalf("riderPart = %q, want zero-padded short id", riderPart)
	}
}
