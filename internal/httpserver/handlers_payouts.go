package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/toyorcee/9thwaka-earnings-core/internal/apikey"
	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/payout"
	"github.com/toyorcee/9thwaka-earnings-core/internal/paymentwindow"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

const maxPaymentProofBytes = 5 << 20 // 5MB, per §6

type generatePayoutsRequest struct {
	WeekStart *time.Time `json:"weekStart"`
}

type generatePayoutsResponse struct {
	WeekStart time.Time `json:"weekStart"`
	Generated int       `json:"generated"`
}

// generatePayouts handles POST /payouts/generate (admin, idempotent).
func (h *handlers) generatePayouts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req generatePayoutsRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &req); err != nil {
			log.Warn().Err(err).Msg("payouts.generate.invalid_body")
			waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
			return
		}
	}

	weekStart := req.WeekStart
	if weekStart == nil {
		now := time.Now().In(h.loc)
		start, _ := payout.GetWeekRange(now, h.loc)
		weekStart = &start
	}

	count, err := h.payouts.GeneratePayoutsForWeek(r.Context(), *weekStart)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}

	responders.JSON(w, http.StatusOK, generatePayoutsResponse{WeekStart: *weekStart, Generated: count})
}

// payoutView augments RiderPayout with the derived §4.8 window flags
// (§6: "list with derived flags per item").
type payoutView struct {
	payout.RiderPayout
	Flags paymentwindow.Flags `json:"flags"`
}

// listPayouts handles GET /payouts (rider sees own; admin filters by
// riderId/status/weekStart query params).
func (h *handlers) listPayouts(w http.ResponseWriter, r *http.Request) {
	filter := payout.Filter{}

	if apikey.IsAdmin(r) {
		filter.RiderID = r.URL.Query().Get("riderId")
		if status := r.URL.Query().Get("status"); status != "" {
			filter.Status = payout.Status(status)
		}
	} else {
		riderID := riderIDFromRequest(r)
		if riderID == "" {
			waerrors.WriteError(w, waerrors.New(waerrors.Unauthorized, "missing rider identity"))
			return
		}
		filter.RiderID = riderID
	}

	payouts, err := h.payouts.ListPayouts(r.Context(), filter)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}

	views := make([]payoutView, 0, len(payouts))
	now := time.Now()
	for _, p := range payouts {
		views = append(views, payoutView{
			RiderPayout: p,
			Flags:       paymentwindow.Compute(p.WeekEnd, p.Totals.Commission, now, p.Status, h.gracePeriod),
		})
	}

	responders.JSON(w, http.StatusOK, views)
}

// markPayoutPaid handles PATCH /payouts/{id}/mark-paid: a multipart
// form carrying an optional paymentProof image (§6).
func (h *handlers) markPayoutPaid(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	payoutID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxPaymentProofBytes+1<<20)
	if err := r.ParseMultipartForm(maxPaymentProofBytes); err != nil {
		log.Warn().Err(err).Msg("payouts.mark_paid.invalid_multipart")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid multipart form"))
		return
	}

	proofURL, err := h.storePaymentProof(r, payoutID)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}

	by := payout.MarkedByRider
	if apikey.IsAdmin(r) {
		by = payout.MarkedByAdmin
	}

	updated, err := h.payouts.MarkPaid(r.Context(), payoutID, by, proofURL)
	if err != nil {
		if err == payout.ErrNotFound {
			waerrors.WriteError(w, waerrors.New(waerrors.NotFound, "payout not found"))
			return
		}
		waerrors.WriteError(w, err)
		return
	}

	responders.JSON(w, http.StatusOK, updated)
}

// storePaymentProof validates the optional paymentProof upload. No
// object-storage SDK appears anywhere in the retrieved examples for
// this domain, so the file is not persisted to a backing store here;
// a production deployment would swap this for a real uploader behind
// the same signature. The returned reference is built from the payout
// id and a random UUID; it is not derived from the file content.
func (h *handlers) storePaymentProof(r *http.Request, payoutID string) (string, error) {
	file, header, err := r.FormFile("paymentProof")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", waerrors.New(waerrors.InvalidInput, "invalid paymentProof upload")
	}
	defer file.Close()

	if header.Size > maxPaymentProofBytes {
		return "", waerrors.New(waerrors.InvalidInput, "paymentProof exceeds 5MB limit")
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", waerrors.New(waerrors.InvalidInput, "paymentProof must be an image")
	}

	return fmt.Sprintf("payment-proofs/%s/%s", payoutID, uuid.New().String()), nil
}
