package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smitebuilds/recommender/internal/models"
)

type godSummary struct {
	GodID      int     `json:"god_id"`
	GodName    string  `json:"god_name"`
	Matches    int     `json:"matches"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
	BestItemID int     `json:"best_item_id,omitempty"`
	BestItem   string  `json:"best_item,omitempty"`
}

// GetGods lists every god in the snapshot with its headline item
// @Summary God list
// @Tags Ratings
// @Produce json
// @Success 200 {object} map[string]interface{} "God summaries"
// @Failure 503 {object} map[string]string "No snapshot loaded"
// @Router /api/v1/gods [get]
func (h *Handler) GetGods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap := h.ratings.Get()
	if snap == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "No ratings snapshot loaded")
		return
	}

	cacheKey := snap.RunID + ":gods"
	if h.cache != nil {
		if body, ok := h.cache.Dashboard(ctx, cacheKey); ok {
			writeCached(w, body)
			return
		}
	}

	gods := make([]godSummary, 0, len(snap.Gods))
	for _, g := range snap.Gods {
		s := godSummary{
			GodID:   g.GodID,
			GodName: g.GodName,
			Matches: g.Matches,
			Wins:    g.Wins,
		}
		if g.Matches > 0 {
			s.WinRate = float64(g.Wins) / float64(g.Matches)
		}
		if len(g.With) > 0 {
			s.BestItemID = g.With[0].ItemID
			s.BestItem = g.With[0].ItemName
		}
		gods = append(gods, s)
	}

	body, err := json.Marshal(map[string]interface{}{
		"run_id": snap.RunID,
		"gods":   gods,
	})
	if err != nil {
		h.logger.Errorw("Failed to encode god list", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Encoding failed")
		return
	}
	if h.cache != nil {
		h.cache.StoreDashboard(ctx, cacheKey, body)
	}
	writeCached(w, body)
}

// ratingsQuery is the validated query string of the ratings endpoint.
type ratingsQuery struct {
	Side  string `validate:"omitempty,oneof=with against"`
	Limit int    `validate:"omitempty,min=1,max=100"`
}

// GetGodRatings returns one god's ranked item table
// @Summary God item ratings
// @Description Ranked item weights for one god, best buys or most dangerous enemy items
// @Tags Ratings
// @Produce json
// @Param id path int true "God ID"
// @Param side query string false "Table side (with, against)" default(with)
// @Param limit query int false "Limit" default(25)
// @Success 200 {object} map[string]interface{} "Ranked ratings"
// @Failure 400 {object} map[string]string "Bad query"
// @Failure 404 {object} map[string]string "Unknown god"
// @Router /api/v1/gods/{id}/ratings [get]
func (h *Handler) GetGodRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	godID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid god id")
		return
	}

	q := ratingsQuery{Side: r.URL.Query().Get("side")}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		q.Limit = parsed
	}
	if err := h.validator.Struct(&q); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid query: side must be with or against, limit 1-100")
		return
	}
	if q.Side == "" {
		q.Side = "with"
	}
	if q.Limit == 0 {
		q.Limit = 25
	}

	snap := h.ratings.Get()
	if snap == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "No ratings snapshot loaded")
		return
	}

	cacheKey := fmt.Sprintf("%s:god:%d:%s:%d", snap.RunID, godID, q.Side, q.Limit)
	if h.cache != nil {
		if body, ok := h.cache.Dashboard(ctx, cacheKey); ok {
			writeCached(w, body)
			return
		}
	}

	var god *models.GodRatings
	for i := range snap.Gods {
		if snap.Gods[i].GodID == godID {
			god = &snap.Gods[i]
			break
		}
	}
	if god == nil {
		h.errorResponse(w, http.StatusNotFound, "Unknown god")
		return
	}

	table := god.With
	if q.Side == "against" {
		table = god.Against
	}
	if len(table) > q.Limit {
		table = table[:q.Limit]
	}

	body, err := json.Marshal(map[string]interface{}{
		"god_id":   god.GodID,
		"god_name": god.GodName,
		"matches":  god.Matches,
		"wins":     god.Wins,
		"side":     q.Side,
		"metrics":  god.Metrics,
		"ratings":  table,
	})
	if err != nil {
		h.logger.Errorw("Failed to encode ratings", "god", godID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Encoding failed")
		return
	}
	if h.cache != nil {
		h.cache.StoreDashboard(ctx, cacheKey, body)
	}
	writeCached(w, body)
}
