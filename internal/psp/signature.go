// Package psp verifies inbound webhook deliveries from the card/bank
// payment service provider (Paystack-shaped, per the paystackPayment
// field name on RiderPayout) and translates a confirmed transfer into
// a payout.MarkPaid call. No Paystack Go SDK appears in the example
// corpus, so verification is hand-rolled on crypto/hmac + crypto/sha512
// — the same shape CedrosPay-server's internal/auth/signature.go and
// handlers_stripe.go use for their own inbound webhook signatures,
// just swapped to the HMAC-SHA512 scheme Paystack actually signs with.
package psp

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

// VerifySignature checks the X-Paystack-Signature header (lowercase hex
// HMAC-SHA512 of the raw request body, keyed by the webhook secret).
func VerifySignature(secret string, body []byte, signatureHeader string) error {
	if secret == "" {
		return waerrors.New(waerrors.Internal, "psp: webhook secret not configured")
	}
	if signatureHeader == "" {
		return waerrors.New(waerrors.Unauthorized, "psp: missing signature header")
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return waerrors.New(waerrors.Unauthorized, "psp: signature mismatch")
	}
	return nil
}
