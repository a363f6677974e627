package controllers

import (
	"net/http"

	"github.com/estoque-mci/estoque-api/api/responses"
	"github.com/estoque-mci/estoque-api/pkg/config"
	"github.com/estoque-mci/estoque-api/pkg/db"
	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
	"github.com/estoque-mci/estoque-api/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Estoque-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Estoque-Env", cfg.App.Env)
		if dbClient != nil {
			if err := dbClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
