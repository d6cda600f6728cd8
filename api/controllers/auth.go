package controllers

import (
	"net/http"

	"github.com/aasta/aasta-backend/api/responses"
	"github.com/aasta/aasta-backend/api/validators"
	"github.com/aasta/aasta-backend/internal/auth"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/types"
)

type loginResponse struct {
	types.Ack
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expiresIn"`
	User      auth.AdminUser `json:"user"`
}

// AuthLogin exchanges the admin credentials for a bearer token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Username = validators.SanitizeString(body.Username, 100)

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, http.StatusOK, loginResponse{
			Ack:       types.OK("Login successful"),
			Token:     result.Token,
			ExpiresIn: result.ExpiresIn,
			User:      result.User,
		})
	}
}
