package handlers

import (
	"net/http"
)

func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	userID, err := userIDFromRequest(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	page, pageSize := pageParams(r)
	resp, err := h.PortfolioController.ListUserHoldings(ctx, userID, page, pageSize)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	h.respond(w, r, resp, http.StatusOK)
}
