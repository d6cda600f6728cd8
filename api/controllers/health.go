package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aasta/aasta-backend/api/responses"
	"github.com/aasta/aasta-backend/pkg/config"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/types"
)

const (
	envHeader    = "X-AASTA-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type statusResponse struct {
	types.Ack
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// APIHealth answers the legacy front-end health probe.
func APIHealth(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, http.StatusOK, statusResponse{
			Ack:       types.OK("AASTA API is running"),
			Status:    "ok",
			Timestamp: time.Now().UTC(),
		})
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, http.StatusOK, statusResponse{
			Ack:       types.OK("live"),
			Status:    "live",
			Timestamp: time.Now().UTC(),
		})
	}
}

// HealthReady pings the database and, when configured, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger Pinger, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		if dbPinger == nil {
			failed["database"] = "not configured"
		} else if err := dbPinger.Ping(ctx); err != nil {
			failed["database"] = err.Error()
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				failed["redis"] = err.Error()
			}
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, http.StatusOK, statusResponse{
			Ack:       types.OK("ready"),
			Status:    "ready",
			Timestamp: time.Now().UTC(),
		})
	}
}

// NotFound renders unknown routes with the standard error envelope.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "API endpoint not found"))
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w,
			pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "Method not allowed"))
	}
}
