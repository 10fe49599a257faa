package verification

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/megatech/storefront-backend/pkg/config"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/rs/zerolog"
)

type stubSender struct {
	email string
	code  string
	err   error
	calls int
}

func (s *stubSender) SendVerificationCode(_ context.Context, email, code string) error {
	s.calls++
	s.email = email
	s.code = code
	return s.err
}

func testVerificationConfig() config.VerificationConfig {
	return config.VerificationConfig{CodeLength: 4, CodeTTL: time.Minute, VerifiedWindow: 5 * time.Minute}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func newTestService(t *testing.T, store Store, sender CodeSender) Service {
	t.Helper()
	svc, err := NewService(store, sender, testVerificationConfig(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRequestCodeStoresAndSends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sender := &stubSender{}
	svc := newTestService(t, store, sender)

	if err := svc.RequestCode(ctx, " Customer@Example.COM "); err != nil {
		t.Fatalf("request code: %v", err)
	}

	if sender.email != "customer@example.com" {
		t.Fatalf("expected normalized email, got %q", sender.email)
	}
	if len(sender.code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", sender.code)
	}
	n, err := strconv.Atoi(sender.code)
	if err != nil || n < 1000 || n > 9999 {
		t.Fatalf("expected code in [1000,9999], got %q", sender.code)
	}

	stored, found, err := store.GetCode(ctx, "customer@example.com")
	if err != nil || !found {
		t.Fatalf("expected stored code, found=%v err=%v", found, err)
	}
	if stored != sender.code {
		t.Fatalf("stored code %q does not match sent code %q", stored, sender.code)
	}
}

func TestRequestCodeCleansUpWhenSendFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sender := &stubSender{err: errors.New("smtp down")}
	svc := newTestService(t, store, sender)

	err := svc.RequestCode(ctx, "customer@example.com")
	if err == nil {
		t.Fatal("expected send failure to surface")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	if _, found, _ := store.GetCode(ctx, "customer@example.com"); found {
		t.Fatal("expected undelivered code to be removed")
	}
}

func TestRequestCodeRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(t, NewMemoryStore(), &stubSender{})

	for _, email := range []string{"", "not-an-email", "missing@"} {
		err := svc.RequestCode(context.Background(), email)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("email %q: expected validation error, got %v", email, err)
		}
	}
}

func TestConfirmMarksVerifiedAndConsumesCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sender := &stubSender{}
	svc := newTestService(t, store, sender)

	if err := svc.RequestCode(ctx, "customer@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	ok, err := svc.Confirm(ctx, "customer@example.com", sender.code)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !ok {
		t.Fatal("expected correct code to confirm")
	}

	verified, err := svc.IsVerified(ctx, "customer@example.com")
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if !verified {
		t.Fatal("expected email to be verified")
	}

	// consumed codes cannot be replayed
	ok, err = svc.Confirm(ctx, "customer@example.com", sender.code)
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if ok {
		t.Fatal("expected consumed code to be rejected")
	}
}

func TestConfirmRejectsWrongCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sender := &stubSender{}
	svc := newTestService(t, store, sender)

	if err := svc.RequestCode(ctx, "customer@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}

	wrong := "0000"
	if wrong == sender.code {
		wrong = "0001"
	}
	ok, err := svc.Confirm(ctx, "customer@example.com", wrong)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if ok {
		t.Fatal("expected wrong code to be rejected")
	}

	if verified, _ := svc.IsVerified(ctx, "customer@example.com"); verified {
		t.Fatal("wrong code must not verify the email")
	}
}

func TestConfirmRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := &memoryStore{
		codes:    map[string]memoryEntry{},
		verified: map[string]memoryEntry{},
		now:      func() time.Time { return now },
	}
	sender := &stubSender{}
	svc := newTestService(t, store, sender)

	if err := svc.RequestCode(ctx, "customer@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}

	now = now.Add(61 * time.Second)

	ok, err := svc.Confirm(ctx, "customer@example.com", sender.code)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if ok {
		t.Fatal("expected expired code to be rejected")
	}
}

func TestVerifiedWindowExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := &memoryStore{
		codes:    map[string]memoryEntry{},
		verified: map[string]memoryEntry{},
		now:      func() time.Time { return now },
	}
	sender := &stubSender{}
	svc := newTestService(t, store, sender)

	if err := svc.RequestCode(ctx, "customer@example.com"); err != nil {
		t.Fatalf("request code: %v", err)
	}
	if ok, err := svc.Confirm(ctx, "customer@example.com", sender.code); err != nil || !ok {
		t.Fatalf("confirm: ok=%v err=%v", ok, err)
	}

	now = now.Add(5*time.Minute + time.Second)

	verified, err := svc.IsVerified(ctx, "customer@example.com")
	if err != nil {
		t.Fatalf("is verified: %v", err)
	}
	if verified {
		t.Fatal("expected verified window to expire")
	}
}

func TestGenerateCodeBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode(4)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestNewServiceValidatesDeps(t *testing.T) {
	cfg := testVerificationConfig()
	logg := testLogger()

	if _, err := NewService(nil, &stubSender{}, cfg, logg); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(NewMemoryStore(), nil, cfg, logg); err == nil {
		t.Fatal("expected error for nil sender")
	}
	if _, err := NewService(NewMemoryStore(), &stubSender{}, config.VerificationConfig{CodeLength: 2}, logg); err == nil {
		t.Fatal("expected error for short code length")
	}
}
