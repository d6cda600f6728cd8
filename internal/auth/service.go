package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/aasta/aasta-backend/pkg/auth"
	"github.com/aasta/aasta-backend/pkg/config"
	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	adminSubject              = "admin"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type service struct {
	username     string
	passwordHash string
	jwtCfg       config.JWTConfig
	logg         *logger.Logger
	now          func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Admin     config.AdminConfig
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService builds the single-admin login service. A missing password hash
// is allowed here and reported on each login attempt instead.
func NewService(params ServiceParams) (Service, error) {
	if strings.TrimSpace(params.JWTConfig.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		username:     strings.TrimSpace(params.Admin.Username),
		passwordHash: strings.TrimSpace(params.Admin.PasswordHash),
		jwtCfg:       params.JWTConfig,
		logg:         params.Logger,
		now:          now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if s.passwordHash == "" || s.username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "Admin login is not configured")
	}

	username := strings.TrimSpace(req.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	// The hash is checked even for an unknown username.
	passOK, err := security.VerifyPassword(req.Password, s.passwordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "admin password hash is malformed")
	}
	if !userOK || !passOK {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "username", username), "admin login rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Subject:  adminSubject,
		Username: s.username,
		Role:     pkgAuth.RoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithActor(ctx, adminSubject), "admin login succeeded")
	}
	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(pkgAuth.TTL(s.jwtCfg).Seconds()),
		User:      AdminUser{ID: adminSubject, Username: s.username},
	}, nil
}
