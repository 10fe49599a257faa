package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/megatech/storefront-backend/pkg/config"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
)

// CodeSender delivers a verification code to the customer.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// Service issues short-lived email verification codes and tracks which
// addresses confirmed one recently enough to place an order.
type Service interface {
	RequestCode(ctx context.Context, email string) error
	Confirm(ctx context.Context, email, code string) (bool, error)
	IsVerified(ctx context.Context, email string) (bool, error)
}

type service struct {
	store  Store
	sender CodeSender
	cfg    config.VerificationConfig
	logg   *logger.Logger
}

// NewService builds the verification service with the required dependencies.
func NewService(store Store, sender CodeSender, cfg config.VerificationConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("verification store required")
	}
	if sender == nil {
		return nil, fmt.Errorf("code sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.CodeLength < 4 || cfg.CodeLength > 8 {
		return nil, fmt.Errorf("code length must be between 4 and 8, got %d", cfg.CodeLength)
	}
	return &service{store: store, sender: sender, cfg: cfg, logg: logg}, nil
}

func (s *service) RequestCode(ctx context.Context, email string) error {
	email, err := normalizeAddress(email)
	if err != nil {
		return err
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating verification code")
	}

	if err := s.store.SaveCode(ctx, email, code, s.cfg.CodeTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing verification code")
	}

	if err := s.sender.SendVerificationCode(ctx, email, code); err != nil {
		// drop the code so a retry mints a fresh one
		if delErr := s.store.DeleteCode(ctx, email); delErr != nil {
			s.logg.Warn(ctx, "failed to clean up undelivered verification code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending verification code")
	}

	s.logg.Info(ctx, "verification code issued")
	return nil
}

// Confirm checks the submitted code. Missing, expired and mismatched codes
// all report as not verified rather than as errors; errors are reserved for
// bad input and store failures.
func (s *service) Confirm(ctx context.Context, email, code string) (bool, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return false, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "verification code is required")
	}

	stored, found, err := s.store.GetCode(ctx, email)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading verification code")
	}
	if !found {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if err := s.store.MarkVerified(ctx, email, s.cfg.VerifiedWindow); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking email verified")
	}
	if err := s.store.DeleteCode(ctx, email); err != nil {
		s.logg.Warn(ctx, "failed to delete consumed verification code")
	}

	s.logg.Info(ctx, "email verified")
	return true, nil
}

func (s *service) IsVerified(ctx context.Context, email string) (bool, error) {
	email, err := normalizeAddress(email)
	if err != nil {
		return false, err
	}
	verified, err := s.store.IsVerified(ctx, email)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking verified email")
	}
	return verified, nil
}

func normalizeAddress(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	return email, nil
}

// generateCode returns a random numeric code of the given length with a
// non-zero leading digit, e.g. 1000..9999 for length 4.
func generateCode(length int) (string, error) {
	min := int64(1)
	for i := 1; i < length; i++ {
		min *= 10
	}
	span := min*10 - min
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", min+n.Int64()), nil
}
