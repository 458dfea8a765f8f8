package handlers

import (
	"encoding/json"
	"net/http"

	"tracker/src/schemas"
	"tracker/src/utils"
)

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	var req schemas.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("Invalid request body"))
		return
	}

	resp, err := h.TransactionsController.ApplyTransaction(ctx, userID, &req)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	h.respond(w, r, resp, http.StatusOK)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	page, pageSize := pageParams(r)
	resp, err := h.PortfolioController.ListUserTransactions(ctx, userID, page, pageSize)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	h.respond(w, r, resp, http.StatusOK)
}
