package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/web"
)

func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var form contracts.OrderFormDTO
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	orderID, err := h.coordinator.CreateOrder(r.Context(), userID, form)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusCreated, contracts.CreateOrderResponse{OrderID: orderID})
}

// GetOrderHandler hides orders of other users behind the same 404 as
// unknown ids.
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidOrderIDTitleMsg, invalidOrderIDBodyMsg)
		return
	}

	order, err := h.ledger.QueryByID(r.Context(), orderID)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}
	if order.UserID != userID {
		web.RespondWithAppError(w, h.logger, r, apperr.NotFound("order", fmt.Sprintf("order %d not found", orderID)).
			WithReason(apperr.ReasonOrderNotFound))
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, order)
}

// MarkOrderPaidHandler answers 204 whether or not the order was still
// unpaid, so repeated confirmations are harmless.
func (h *Handler) MarkOrderPaidHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidOrderIDTitleMsg, invalidOrderIDBodyMsg)
		return
	}

	if _, err := h.ledger.MarkPaid(r.Context(), orderID); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
