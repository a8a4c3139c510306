package psp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
)

type fakePayoutMarker struct {
	calls []string
	err   error
}

func (f *fakePayoutMarker) MarkPaidByReference(_ context.Context, referenceCode, pspStatus string, _ time.Time) (payout.RiderPayout, error) {
	f.calls = append(f.calls, referenceCode)
	if f.err != nil {
		return payout.RiderPayout{}, f.err
	}
	return payout.RiderPayout{ID: "payout-1", PaymentReferenceCode: referenceCode, Status: payout.StatusPaid}, nil
}

func newTestHandler(marker *fakePayoutMarker) *Handler {
	return NewHandler("topsecret", marker, metrics.New(prometheus.NewRegistry()))
}

func postWebhook(t *testing.T, h *Handler, body string, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/psp", strings.NewReader(body))
	if sig != "" {
		req.Header.Set("X-Paystack-Signature", sig)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ValidSettlement_MarksPaid(t *testing.T) {
	body := `{"event":"transfer.success","data":{"reference":"9WABC123","status":"success","paid_at":"2026-08-01T10:00:00Z"}}`
	marker := &fakePayoutMarker{}
	rec := postWebhook(t, newTestHandler(marker), body, sign("topsecret", []byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(marker.calls) != 1 || marker.calls[0] != "9WABC123" {
		t.Fatalf("calls = %v, want one call for 9WABC123", marker.calls)
	}
}

func TestHandler_BadSignature_Rejected(t *testing.T) {
	body := `{"event":"transfer.success","data":{"reference":"9WABC123","status":"success"}}`
	marker := &fakePayoutMarker{}
	rec := postWebhook(t, newTestHandler(marker), body, sign("wrongsecret", []byte(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(marker.calls) != 0 {
		t.Fatal("MarkPaidByReference must not be called on signature failure")
	}
}

func TestHandler_UnsettledEvent_IgnoredWithoutMarking(t *testing.T) {
	body := `{"event":"transfer.failed","data":{"reference":"9WABC123","status":"failed"}}`
	marker := &fakePayoutMarker{}
	rec := postWebhook(t, newTestHandler(marker), body, sign("topsecret", []byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(marker.calls) != 0 {
		t.Fatal("a failed transfer must not mark any payout paid")
	}
}

func TestHandler_UnknownReference_RespondsOK(t *testing.T) {
	body := `{"event":"transfer.success","data":{"reference":"9WZZZ999","status":"success"}}`
	marker := &fakePayoutMarker{err: payout.ErrNotFound}
	rec := postWebhook(t, newTestHandler(marker), body, sign("topsecret", []byte(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the PSP does not retry an unknown reference forever", rec.Code)
	}
}
