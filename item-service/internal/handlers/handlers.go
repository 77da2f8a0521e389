package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/peng-yewang/YGMall/item-service/internal/repository"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

const (
	invalidItemIDTitleMsg = "Invalid Item ID"
	invalidItemIDBodyMsg  = "invalid item id"

	invalidRequestBodyTitleMsg = "Invalid Request Body"
	requestTimeoutTitleMsg     = "Request Timeout"
)

type ItemService interface {
	QueryByIDs(ctx context.Context, ids []int64) ([]contracts.ItemDTO, error)
	GetItem(ctx context.Context, id int64) (contracts.ItemDTO, error)
	UpdateItem(ctx context.Context, arg repository.UpdateItemParams) (contracts.ItemDTO, error)
	DeductStock(ctx context.Context, req contracts.DeductStockRequest) error
	RestoreStock(ctx context.Context, req contracts.RestoreStockRequest) error
}

type Handler struct {
	service ItemService
	logger  logs.Logger
}

func NewHandler(service ItemService, logger logs.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type ItemRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int32  `json:"stock"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Spec     string `json:"spec"`
	Status   int16  `json:"status"`
}

func (h *Handler) checkContext(w http.ResponseWriter, r *http.Request) bool {
	if !web.CheckContext(r.Context(), h.logger) {
		web.RespondWithError(w, h.logger, r, http.StatusRequestTimeout, requestTimeoutTitleMsg, web.ReqCancelledMsg)
		return false
	}
	return true
}

func parseItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
