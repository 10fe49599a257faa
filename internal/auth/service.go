package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/pkg/auth"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db/models"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/security"
)

const minPasswordLength = 8

// LoginResult is the issued session for a back-office admin.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Admin     *models.AdminUser `json:"admin"`
}

// Service authenticates back-office admins and seeds accounts.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	EnsureAdmin(ctx context.Context, email, password string) (*models.AdminUser, error)
}

type service struct {
	repo   Repository
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, jwtCfg: jwtCfg, pwCfg: pwCfg, logg: logg, now: time.Now}, nil
}

// Login verifies the password and mints a session token. Unknown emails and
// wrong passwords return the same error so the endpoint does not leak which
// accounts exist.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading admin")
	}

	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	token, err := auth.MintAdminToken(s.jwtCfg, now, auth.AdminTokenPayload{
		AdminID: admin.ID,
		Email:   admin.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	s.logg.Info(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "admin logged in")
	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Admin:     admin,
	}, nil
}

// EnsureAdmin creates the account or rotates its password when it already
// exists. Used by the seeding command, not exposed over HTTP.
func (s *service) EnsureAdmin(ctx context.Context, email, password string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin email is invalid")
	}
	if len(password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	admin, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.UpdatePasswordHash(ctx, admin.ID, hash); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating admin password")
		}
		admin.PasswordHash = hash
		s.logg.Info(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "admin password rotated")
		return admin, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = &models.AdminUser{Email: email, PasswordHash: hash}
		if err := s.repo.Create(ctx, admin); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating admin")
		}
		s.logg.Info(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "admin created")
		return admin, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading admin")
	}
}
