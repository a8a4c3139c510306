package httpserver

import (
	"net/http"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

type useReferralRequest struct {
	ReferralCode string `json:"referralCode"`
}

// useReferral handles POST /referral/use (§6: AlreadyReferred,
// SelfReferral, UnknownCode are all surfaced as typed errors by
// referral.Engine.ClaimCode already).
func (h *handlers) useReferral(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	riderID := riderIDFromRequest(r)
	if riderID == "" {
		waerrors.WriteError(w, waerrors.New(waerrors.Unauthorized, "missing rider identity"))
		return
	}

	var req useReferralRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("referral.use.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}
	if req.ReferralCode == "" {
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "referralCode is required"))
		return
	}

	ref, err := h.referral.ClaimCode(r.Context(), riderID, req.ReferralCode)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, ref)
}

// referralStats handles GET /referral/stats.
func (h *handlers) referralStats(w http.ResponseWriter, r *http.Request) {
	riderID := riderIDFromRequest(r)
	if riderID == "" {
		waerrors.WriteError(w, waerrors.New(waerrors.Unauthorized, "missing rider identity"))
		return
	}

	stats, err := h.referral.Stats(r.Context(), riderID)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, stats)
}
