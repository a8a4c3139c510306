package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toyorcee/9thwaka-earnings-core/internal/enforcement"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/users"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

type enforcementActionResponse struct {
	RiderID string `json:"riderId"`
	Status  string `json:"status"`
}

// unblockRider handles PATCH /payouts/admin/riders/{id}/unblock.
func (h *handlers) unblockRider(w http.ResponseWriter, r *http.Request) {
	riderID := chi.URLParam(r, "id")
	if err := h.enforcement.Unblock(r.Context(), riderID); err != nil {
		writeEnforcementError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, enforcementActionResponse{RiderID: riderID, Status: "unblocked"})
}

type deactivateRiderRequest struct {
	Reason string `json:"reason"`
}

// deactivateRider handles PATCH /payouts/admin/riders/{id}/deactivate.
func (h *handlers) deactivateRider(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	riderID := chi.URLParam(r, "id")

	var req deactivateRiderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &req); err != nil {
			log.Warn().Err(err).Msg("enforcement.deactivate.invalid_body")
			waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "admin deactivation"
	}

	if err := h.enforcement.Deactivate(r.Context(), riderID, req.Reason); err != nil {
		writeEnforcementError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, enforcementActionResponse{RiderID: riderID, Status: "deactivated"})
}

type reactivateRiderRequest struct {
	UnblockPayment bool `json:"unblockPayment"`
}

// reactivateRider handles PATCH /payouts/admin/riders/{id}/reactivate.
func (h *handlers) reactivateRider(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	riderID := chi.URLParam(r, "id")

	var req reactivateRiderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &req); err != nil {
			log.Warn().Err(err).Msg("enforcement.reactivate.invalid_body")
			waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
			return
		}
	}

	opts := enforcement.ReactivateOptions{UnblockPayment: req.UnblockPayment}
	if err := h.enforcement.Reactivate(r.Context(), riderID, opts); err != nil {
		writeEnforcementError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, enforcementActionResponse{RiderID: riderID, Status: "reactivated"})
}

// writeEnforcementError maps the plain sentinel errors returned by
// internal/users repositories (enforcement.Actions doesn't wrap them)
// onto the wire error taxonomy.
func writeEnforcementError(w http.ResponseWriter, err error) {
	if err == users.ErrNotFound {
		waerrors.WriteError(w, waerrors.New(waerrors.NotFound, "rider not found"))
		return
	}
	waerrors.WriteError(w, err)
}
