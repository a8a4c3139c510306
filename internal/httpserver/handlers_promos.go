package httpserver

import (
	"net/http"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/promoconfig"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

// getPromos handles GET /admin/promos (§6, §4.1).
func (h *handlers) getPromos(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.promos.Get(r.Context())
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, cfg)
}

// getPromoHistory handles GET /admin/promos/history (§13 admin audit trail).
func (h *handlers) getPromoHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.promos.History(r.Context())
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, history)
}

type referralPromoRequest struct {
	Enabled          *bool  `json:"enabled"`
	RewardAmountKobo *int64 `json:"rewardAmountKobo"`
	RequiredTrips    *int   `json:"requiredTrips"`
}

// putReferralPromo handles PUT /admin/promos/referral.
func (h *handlers) putReferralPromo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req referralPromoRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("promos.referral.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}

	partial := promoconfig.ReferralPartial{Enabled: req.Enabled, RequiredTrips: req.RequiredTrips}
	if req.RewardAmountKobo != nil {
		amount := money.New(money.NGN, *req.RewardAmountKobo)
		partial.RewardAmount = &amount
	}

	cfg, err := h.promos.UpdateReferral(r.Context(), partial, actorID(r))
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, cfg)
}

type streakPromoRequest struct {
	Enabled         *bool  `json:"enabled"`
	BonusAmountKobo *int64 `json:"bonusAmountKobo"`
	RequiredStreak  *int   `json:"requiredStreak"`
}

// putStreakPromo handles PUT /admin/promos/streak.
func (h *handlers) putStreakPromo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req streakPromoRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("promos.streak.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}

	partial := promoconfig.StreakPartial{Enabled: req.Enabled, RequiredStreak: req.RequiredStreak}
	if req.BonusAmountKobo != nil {
		amount := money.New(money.NGN, *req.BonusAmountKobo)
		partial.BonusAmount = &amount
	}

	cfg, err := h.promos.UpdateStreak(r.Context(), partial, actorID(r))
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, cfg)
}

type goldStatusPromoRequest struct {
	Enabled         *bool `json:"enabled"`
	RequiredRides   *int  `json:"requiredRides"`
	WindowDays      *int  `json:"windowDays"`
	DurationDays    *int  `json:"durationDays"`
	DiscountPercent *int  `json:"discountPercent"`
}

// putGoldStatusPromo handles PUT /admin/promos/gold-status.
func (h *handlers) putGoldStatusPromo(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req goldStatusPromoRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("promos.gold_status.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}

	partial := promoconfig.GoldStatusPartial{
		Enabled:         req.Enabled,
		RequiredRides:   req.RequiredRides,
		WindowDays:      req.WindowDays,
		DurationDays:    req.DurationDays,
		DiscountPercent: req.DiscountPercent,
	}

	cfg, err := h.promos.UpdateGoldStatus(r.Context(), partial, actorID(r))
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, cfg)
}

type toggleAllRequest struct {
	Enabled bool `json:"enabled"`
}

// putToggleAll handles PUT /admin/promos/toggle-all.
func (h *handlers) putToggleAll(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req toggleAllRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("promos.toggle_all.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}

	cfg, err := h.promos.ToggleAll(r.Context(), req.Enabled, actorID(r))
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, cfg)
}

// actorID identifies the admin operator for the promo config audit
// trail (§13). Falls back to "admin" when the caller doesn't supply one,
// since every caller on this route has already cleared apikey.Middleware.
func actorID(r *http.Request) string {
	if id := r.Header.Get("X-Admin-Actor-Id"); id != "" {
		return id
	}
	return "admin"
}
