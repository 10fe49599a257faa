package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
)

const (
	webhookStatusSuccess = "success"
	webhookStatusFailed  = "failed"
)

// Service exposes the hosted-checkout init endpoint and the webhook
// reconciliation flow.
type Service interface {
	Initialize(ctx context.Context, orderID uuid.UUID) (string, error)
	HandleNotification(ctx context.Context, raw []byte, signature string) error
}

type service struct {
	repo    Repository
	gateway *Gateway
	cfg     config.UnipayConfig
	logg    *logger.Logger
}

func NewService(repo Repository, gateway *Gateway, cfg config.UnipayConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, gateway: gateway, cfg: cfg, logg: logg}, nil
}

// Initialize returns the hosted checkout URL for a pending order. Orders
// placed through the API already carry a payment reference; the gateway is
// only asked for one when it is missing.
func (s *service) Initialize(ctx context.Context, orderID uuid.UUID) (string, error) {
	if orderID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.Status != enums.OrderStatusPending {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"status": order.Status})
	}

	if order.PaymentReference == nil {
		intentID, reference, err := s.gateway.InitPayment(ctx, order.ID, order.TotalAmount, "GEL")
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initializing payment")
		}
		if err := s.repo.SetPaymentFields(ctx, order.ID, intentID, reference); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing payment reference")
		}
		order.PaymentReference = &reference
	}

	return s.gateway.PaymentURL(*order.PaymentReference), nil
}

type webhookPayload struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// HandleNotification reconciles a provider callback against the order book.
// The signature is checked over the raw bytes before anything is parsed, and
// the settlement itself is a single conditional update, so a replayed
// notification acknowledges without changing anything.
func (s *service) HandleNotification(ctx context.Context, raw []byte, signature string) error {
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing webhook signature")
	}
	if !VerifySignature(s.cfg.WebhookSecret, raw, signature) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if payload.Reference == "" || payload.Status == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference and status are required")
	}

	order, err := s.repo.FindByReference(ctx, payload.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment reference")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order by reference")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	// Orders past pending are already settled; the provider retries until it
	// gets a success, so anything it says about them is acknowledged as-is.
	if order.Status != enums.OrderStatusPending {
		s.logg.Info(s.logg.WithField(ctx, "order_status", string(order.Status)), "webhook for settled order ignored")
		return nil
	}

	var target enums.OrderStatus
	switch payload.Status {
	case webhookStatusSuccess:
		target = enums.OrderStatusPaid
	case webhookStatusFailed:
		target = enums.OrderStatusCancelled
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment status").
			WithDetails(map[string]any{"status": payload.Status})
	}

	applied, err := s.repo.SettleFromPending(ctx, order.ID, target)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settling order")
	}
	if !applied {
		// lost the race to a concurrent notification; the order is settled
		// either way
		s.logg.Info(ctx, "webhook settle raced, acknowledging")
		return nil
	}

	s.logg.Info(s.logg.WithField(ctx, "payment_status", string(target)), "payment reconciled")
	return nil
}
