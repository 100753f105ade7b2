package api

import (
	"net/http"
	"time"

	"github.com/raushankrgupta/fitly/utils"
)

const Version = "1.0.0"

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Server is running",
		"timestamp": h.now().UTC(),
		"version":   Version,
	})
}

// TimeHandler reports the server clock, for clients checking skew
func (h *Handler) TimeHandler(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	zone, _ := now.Zone()
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"utc":       now.UTC().Format(http.TimeFormat),
		"local":     now.Format(time.RFC1123Z),
		"timestamp": now.UnixMilli(),
		"timezone":  zone,
	})
}
