package handlers

import (
	"net/http"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	Sessions      int    `json:"sessions"`
	TotalMessages int    `json:"total_messages"`
	ActiveViewers int    `json:"active_viewers"`
	Mode          string `json:"mode"`
}

// Stats returns chat pipeline statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, StatsResponse{
		Sessions:      h.store.SessionCount(),
		TotalMessages: h.store.MessageCount(),
		ActiveViewers: h.store.ActiveViewers(),
		Mode:          h.mode(),
	})
}
