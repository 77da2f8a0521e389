package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/web"
)

func (h *Handler) DeductStockHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	var req contracts.DeductStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	if err := h.service.DeductStock(r.Context(), req); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreStockHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}

	var req contracts.RestoreStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	if err := h.service.RestoreStock(r.Context(), req); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
