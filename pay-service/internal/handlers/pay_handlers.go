package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
	"github.com/peng-yewang/YGMall/shared/web"
)

const (
	invalidOrderIDTitleMsg = "Invalid Order ID"
	invalidOrderIDBodyMsg  = "invalid order id"
	requestTimeoutTitleMsg = "Request Timeout"
	badGatewayTitleMsg     = "Bad Gateway"
)

type PayService interface {
	ConfirmPaySuccess(ctx context.Context, orderID int64) (rabbitmq.Confirmation, error)
}

type Handler struct {
	service PayService
	logger  logs.Logger
}

func NewHandler(service PayService, logger logs.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// PaySuccessHandler answers 202 once the broker has taken the event. A nack
// or an unroutable return is a 502 so the caller retries.
func (h *Handler) PaySuccessHandler(w http.ResponseWriter, r *http.Request) {
	if !web.CheckContext(r.Context(), h.logger) {
		web.RespondWithError(w, h.logger, r, http.StatusRequestTimeout, requestTimeoutTitleMsg, web.ReqCancelledMsg)
		return
	}

	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidOrderIDTitleMsg, invalidOrderIDBodyMsg)
		return
	}

	confirmation, err := h.service.ConfirmPaySuccess(r.Context(), orderID)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}
	if !confirmation.Acked() {
		web.RespondWithError(w, h.logger, r, http.StatusBadGateway, badGatewayTitleMsg,
			fmt.Sprintf("payment confirmation for order %d was not accepted by the broker (%s)", orderID, confirmation.Outcome))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
