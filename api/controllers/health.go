package controllers

import (
	"context"
	"net/http"

	"github.com/khiels/storefront-backend/api/responses"
	"github.com/khiels/storefront-backend/pkg/config"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Khiels-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger, redisPinger pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Khiels-Env", cfg.App.Env)

		checks := map[string]pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}
		status := map[string]string{}
		for name, p := range checks {
			if p == nil {
				status[name] = "skipped"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				status[name] = "down"
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(status))
				return
			}
			status[name] = "up"
		}

		responses.WriteSuccess(w, status)
	}
}
