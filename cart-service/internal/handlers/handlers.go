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
	invalidItemIDTitleMsg = "Invalid Item ID"
	invalidItemIDBodyMsg  = "invalid item id"

	invalidRequestBodyTitleMsg = "Invalid Request Body"
	requestTimeoutTitleMsg     = "Request Timeout"
	unauthorizedTitleMsg       = "Unauthorized"
)

type CartService interface {
	AddItem(ctx context.Context, userID int64, req contracts.AddCartItemRequest) error
	ListByUser(ctx context.Context, userID int64) ([]contracts.CartLineDTO, error)
	RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]contracts.CartLineDTO, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	RestoreLines(ctx context.Context, userID int64, lines []contracts.CartLineDTO) error
}

type Handler struct {
	service CartService
	logger  logs.Logger
}

func NewHandler(service CartService, logger logs.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) checkContext(w http.ResponseWriter, r *http.Request) bool {
	if !web.CheckContext(r.Context(), h.logger) {
		web.RespondWithError(w, h.logger, r, http.StatusRequestTimeout, requestTimeoutTitleMsg, web.ReqCancelledMsg)
		return false
	}
	return true
}

// callerID reads the identity stored by web.RequireUser.
func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := web.UserIDFromContext(r.Context())
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusUnauthorized, unauthorizedTitleMsg, "caller identity is missing")
		return 0, false
	}
	return userID, true
}

func parseItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("itemId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
