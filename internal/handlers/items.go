package handlers

import (
	"net/http"
)

// GetItems returns the item reference table as last fetched from the API.
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.store.Items(ctx)
	if err != nil {
		h.logger.Errorw("Failed to load items", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Query failed")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}
