package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

const (
	invalidOrderIDTitleMsg = "Invalid Order ID"
	invalidOrderIDBodyMsg  = "invalid order id"

	invalidRequestBodyTitleMsg = "Invalid Request Body"
	requestTimeoutTitleMsg     = "Request Timeout"
	unauthorizedTitleMsg       = "Unauthorized"
)

type OrderCoordinator interface {
	CreateOrder(ctx context.Context, userID int64, form contracts.OrderFormDTO) (int64, error)
}

type OrderLedger interface {
	QueryByID(ctx context.Context, orderID int64) (contracts.OrderView, error)
	MarkPaid(ctx context.Context, orderID int64) (bool, error)
}

type Handler struct {
	coordinator OrderCoordinator
	ledger      OrderLedger
	logger      logs.Logger
}

func NewHandler(coordinator OrderCoordinator, ledger OrderLedger, logger logs.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		ledger:      ledger,
		logger:      logger,
	}
}

func (h *Handler) checkContext(w http.ResponseWriter, r *http.Request) bool {
	if !web.CheckContext(r.Context(), h.logger) {
		web.RespondWithError(w, h.logger, r, http.StatusRequestTimeout, requestTimeoutTitleMsg, web.ReqCancelledMsg)
		return false
	}
	return true
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := web.UserIDFromContext(r.Context())
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusUnauthorized, unauthorizedTitleMsg, "caller identity is missing")
		return 0, false
	}
	return userID, true
}

func parseOrderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
