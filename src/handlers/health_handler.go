package handlers

import (
	"context"
	"net/http"
	"time"

	"fintrack-server/src/logger"
	"fintrack-server/src/store"
	"fintrack-server/src/util"
)

func Health(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check failed", logger.FieldError, err)
			util.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
