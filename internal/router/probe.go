package router

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

// probeHandler serves GET /api/test: pings storage and reports which core
// tables exist.
func probeHandler(db *sqlx.DB, env string, logger *zap.SugaredLogger, debug bool, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		missing, err := database.MissingTables(ctx, db)
		if err != nil {
			logger.Errorw("connectivity probe failed", "err", err)
			body := map[string]any{
				"success":   false,
				"error":     "database connection failed",
				"timestamp": now().UTC().Format(time.RFC3339),
			}
			if debug {
				body["details"] = err.Error()
			}
			utilities.WriteJSON(w, http.StatusInternalServerError, body)
			return
		}

		absent := make(map[string]bool, len(missing))
		for _, t := range missing {
			absent[t] = true
		}
		structure := make(map[string]bool, len(database.CoreTables))
		for _, t := range database.CoreTables {
			structure[t] = !absent[t]
		}
		msg := "database connection ok"
		if len(missing) > 0 {
			msg = "database connected, schema incomplete"
		}
		utilities.WriteJSON(w, http.StatusOK, map[string]any{
			"success":            true,
			"message":            msg,
			"database_structure": structure,
			"timestamp":          now().UTC().Format(time.RFC3339),
			"environment":        env,
		})
	}
}
