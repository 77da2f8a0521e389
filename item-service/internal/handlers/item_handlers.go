package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/peng-yewang/YGMall/item-service/internal/repository"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/web"
)

func (h *Handler) GetItemsByIDsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	ids, err := contracts.ParseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidItemIDTitleMsg, err.Error())
		return
	}
	if len(ids) == 0 {
		web.RespondWithJSON(w, h.logger, http.StatusOK, []contracts.ItemDTO{})
		return
	}

	items, err := h.service.QueryByIDs(r.Context(), ids)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, items)
}

func (h *Handler) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	id, ok := parseItemID(r)
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidItemIDTitleMsg, invalidItemIDBodyMsg)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, item)
}

func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	id, ok := parseItemID(r)
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidItemIDTitleMsg, invalidItemIDBodyMsg)
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	item, err := h.service.UpdateItem(r.Context(), repository.UpdateItemParams{
		ID:       id,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Image:    req.Image,
		Category: req.Category,
		Brand:    req.Brand,
		Spec:     req.Spec,
		Status:   req.Status,
	})
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, item)
}
