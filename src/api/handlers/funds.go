package handlers

import (
	"encoding/json"
	"net/http"

	"tracker/src/schemas"
	"tracker/src/utils"
)

func (h *Handler) GetFunds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	resp, err := h.FundsController.GetFunds(ctx, userID)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	h.respond(w, r, resp, http.StatusOK)
}

func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request) {
	h.mutateFunds(w, r, false)
}

func (h *Handler) SetFunds(w http.ResponseWriter, r *http.Request) {
	h.mutateFunds(w, r, true)
}

func (h *Handler) mutateFunds(w http.ResponseWriter, r *http.Request, replace bool) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	var req schemas.FundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("Invalid request body"))
		return
	}

	var resp *schemas.FundsResponse
	if replace {
		resp, err = h.FundsController.SetFunds(ctx, userID, req.Amount)
	} else {
		resp, err = h.FundsController.AddFunds(ctx, userID, req.Amount)
	}
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	h.respond(w, r, resp, http.StatusOK)
}
