package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/web"
)

func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req contracts.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	if err := h.service.AddItem(r.Context(), userID, req); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) ListCartHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	lines, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, lines)
}

// RemoveByItemIDsHandler answers with the removed lines so the caller can
// hand them back to RestoreLinesHandler if its own work fails.
func (h *Handler) RemoveByItemIDsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	ids, err := contracts.ParseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidItemIDTitleMsg, err.Error())
		return
	}

	removed, err := h.service.RemoveByItemIDs(r.Context(), userID, ids)
	if err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	web.RespondWithJSON(w, h.logger, http.StatusOK, removed)
}

func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	itemID, ok := parseItemID(r)
	if !ok {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidItemIDTitleMsg, invalidItemIDBodyMsg)
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, itemID); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreLinesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.checkContext(w, r) {
		return
	}
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req contracts.RestoreCartLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondWithError(w, h.logger, r, http.StatusBadRequest, invalidRequestBodyTitleMsg, err.Error())
		return
	}

	if err := h.service.RestoreLines(r.Context(), userID, req.Lines); err != nil {
		web.RespondWithAppError(w, h.logger, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
