package handlers

import (
	"net/http"
)

// GetSnapshot returns run metadata for the loaded snapshot
// @Summary Snapshot metadata
// @Description Run ID, generation time, patch and dataset sizes of the ratings being served
// @Tags Ratings
// @Produce json
// @Success 200 {object} map[string]interface{} "Snapshot metadata"
// @Failure 503 {object} map[string]string "No snapshot loaded"
// @Router /api/v1/snapshot [get]
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.ratings.Get()
	if snap == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "No ratings snapshot loaded")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"run_id":        snap.RunID,
		"generated_at":  snap.GeneratedAt,
		"patch_version": snap.PatchVersion,
		"queue_id":      snap.QueueID,
		"dates":         snap.Dates,
		"params":        snap.Params,
		"matches":       snap.Matches,
		"participants":  snap.Participants,
		"gods":          len(snap.Gods),
	})
}
