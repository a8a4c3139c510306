package psp

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"9WABC123","status":"success"}}`)
	sig := sign("topsecret", body)

	if err := VerifySignature("topsecret", body, sig); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignature_Mismatch(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	err := VerifySignature("topsecret", body, sign("wrongsecret", body))
	if err == nil {
		t.Fatal("expected signature mismatch error")
	}
	if waerrors.KindOf(err) != waerrors.Unauthorized {
		t.Fatalf("KindOf = %v, want Unauthorized", waerrors.KindOf(err))
	}
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature("topsecret", []byte("{}"), "")
	if waerrors.KindOf(err) != waerrors.Unauthorized {
		t.Fatalf("KindOf = %v, want Unauthorized", waerrors.KindOf(err))
	}
}

func TestVerifySignature_NoSecretConfigured(t *testing.T) {
	err := VerifySignature("", []byte("{}"), "anything")
	if waerrors.KindOf(err) != waerrors.Internal {
		t.Fatalf("KindOf = %v, want Internal", waerrors.KindOf(err))
	}
}
