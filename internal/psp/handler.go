package psp

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
)

// PayoutMarker is the narrow slice of payout.Aggregator the webhook
// handler depends on.
type PayoutMarker interface {
	MarkPaidByReference(ctx context.Context, referenceCode, pspStatus string, pspPaidAt time.Time) (payout.RiderPayout, error)
}

// Handler serves the PSP's webhook delivery endpoint (§6, §11): verify
// signature, parse, reconcile against the matching RiderPayout.
type Handler struct {
	secret  string
	payouts PayoutMarker
	metrics *metrics.Metrics
}

func NewHandler(webhookSecret string, payouts PayoutMarker, m *metrics.Metrics) *Handler {
	return &Handler{secret: webhookSecret, payouts: payouts, metrics: m}
}

// ServeHTTP implements http.Handler so it can be mounted directly on a
// chi router alongside the rest of the admin/rider surface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, waerrors.New(waerrors.InvalidInput, "psp: failed to read webhook body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Paystack-Signature")
	if err := VerifySignature(h.secret, body, signature); err != nil {
		h.metrics.ObservePSPCall("webhook_verify", time.Since(start), err)
		h.writeError(w, err)
		return
	}

	env, err := ParseWebhook(body)
	if err != nil {
		h.metrics.ObservePSPCall("webhook_parse", time.Since(start), err)
		h.writeError(w, err)
		return
	}

	if !env.IsSettled() {
		log.Info().Str("event", string(env.Event)).Str("reference", env.Data.Reference).Msg("psp.webhook_ignored")
		h.metrics.ObservePSPCall("webhook_ignored", time.Since(start), nil)
		w.WriteHeader(http.StatusOK)
		return
	}

	_, err = h.payouts.MarkPaidByReference(ctx, env.Data.Reference, env.Data.Status, env.Data.parsedPaidAt())
	h.metrics.ObservePSPCall("webhook_mark_paid", time.Since(start), err)
	if err != nil {
		if err == payout.ErrNotFound {
			log.Warn().Str("reference", env.Data.Reference).Msg("psp.webhook_unknown_reference")
			w.WriteHeader(http.StatusOK)
			return
		}
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	waerrors.WriteError(w, err)
}
