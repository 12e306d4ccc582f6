package handlers

import (
	"context"
	"net/http"
	"time"

	"pm-functions/internal/api/utils"
	"pm-functions/internal/db"
)

const healthTimeout = 3 * time.Second

func NewHealthHandler(p db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.TestConnection(ctx, p); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "Database connection failed", "DB_UNAVAILABLE", nil)
			return
		}

		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
