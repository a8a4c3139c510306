package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
	"github.com/toyorcee/9thwaka-earnings-core/internal/eventbus"
	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
	"github.com/toyorcee/9thwaka-earnings-core/internal/money"
	"github.com/toyorcee/9thwaka-earnings-core/internal/orders"
	"github.com/toyorcee/9thwaka-earnings-core/pkg/responders"
)

// This file is the order-lifecycle ingestion surface: dispatch/matching
// is an explicit Non-goal, so some upstream system owns assignment and
// routing and calls in here whenever an order's lifecycle advances. The
// Commission Splitter, Referral Engine, and Streak Engine only react to
// order.accepted/order.delivered/order.cancelled — something has to be
// the thing that actually flips an Order's status and fires those events.

type createOrderRequest struct {
	CustomerID  string             `json:"customerId"`
	ServiceType orders.ServiceType `json:"serviceType"`
	PriceKobo   int64              `json:"priceKobo"`
}

// createOrder handles POST /internal/orders (admin/service-to-service).
func (h *handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req createOrderRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("orders.create.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}
	if req.CustomerID == "" || req.PriceKobo <= 0 {
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "customerId and a positive priceKobo are required"))
		return
	}
	if req.ServiceType != orders.ServiceTypeCourier && req.ServiceType != orders.ServiceTypeRide {
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "serviceType must be courier or ride"))
		return
	}

	now := time.Now()
	order := orders.Order{
		ID:          uuid.New().String(),
		CustomerID:  req.CustomerID,
		ServiceType: req.ServiceType,
		Price:       money.New(money.NGN, req.PriceKobo),
		Status:      orders.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.orders.Create(r.Context(), order); err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusCreated, order)
}

type acceptOrderRequest struct {
	RiderID string `json:"riderId"`
}

// acceptOrder handles PATCH /internal/orders/{id}/accept: assigns a
// rider and publishes order.accepted for the Streak Engine.
func (h *handlers) acceptOrder(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	var req acceptOrderRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		log.Warn().Err(err).Msg("orders.accept.invalid_body")
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "invalid request body"))
		return
	}
	if req.RiderID == "" {
		waerrors.WriteError(w, waerrors.New(waerrors.InvalidInput, "riderId is required"))
		return
	}

	order, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if order.Status == orders.StatusAssigned || order.Status == orders.StatusPickedUp ||
		order.Status == orders.StatusDelivering || order.Status == orders.StatusDelivered {
		responders.JSON(w, http.StatusOK, order)
		return
	}

	now := time.Now()
	order.RiderID = req.RiderID
	order.Status = orders.StatusAssigned
	order.UpdatedAt = now
	if err := h.orders.Update(r.Context(), order); err != nil {
		waerrors.WriteError(w, err)
		return
	}

	if h.bus != nil {
		h.bus.Publish(eventbus.TopicOrderAccepted, eventbus.OrderAccepted{
			OrderID:    order.ID,
			RiderID:    order.RiderID,
			AcceptedAt: now,
		})
	}

	responders.JSON(w, http.StatusOK, order)
}

// deliverOrder handles PATCH /internal/orders/{id}/deliver: marks the
// order delivered, then runs it through the Commission Splitter (C3).
func (h *handlers) deliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if !order.IsDelivered() {
		now := time.Now()
		order.Status = orders.StatusDelivered
		order.Delivery.DeliveredAt = &now
		order.UpdatedAt = now
		if err := h.orders.Update(r.Context(), order); err != nil {
			waerrors.WriteError(w, err)
			return
		}
	}

	split, err := h.splitter.Split(r.Context(), orderID)
	if err != nil {
		waerrors.WriteError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, split)
}

// cancelOrder handles PATCH /internal/orders/{id}/cancel: publishes
// order.cancelled for the Streak Engine's reset handler.
func (h *handlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if order.Status == orders.StatusCancelled || order.Status == orders.StatusDelivered {
		responders.JSON(w, http.StatusOK, order)
		return
	}

	now := time.Now()
	order.Status = orders.StatusCancelled
	order.UpdatedAt = now
	if err := h.orders.Update(r.Context(), order); err != nil {
		waerrors.WriteError(w, err)
		return
	}

	if h.bus != nil && order.RiderID != "" {
		h.bus.Publish(eventbus.TopicOrderCancelled, eventbus.OrderCancelled{
			OrderID:     order.ID,
			RiderID:     order.RiderID,
			CancelledAt: now,
		})
	}

	responders.JSON(w, http.StatusOK, order)
}

func writeOrderError(w http.ResponseWriter, err error) {
	if err == orders.ErrNotFound {
		waerrors.WriteError(w, waerrors.New(waerrors.NotFound, "order not found"))
		return
	}
	waerrors.WriteError(w, err)
}
