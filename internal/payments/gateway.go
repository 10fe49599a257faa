package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/config"
)

// Gateway is the UniPay client. The current implementation fabricates payment
// intents locally; swapping in real API calls only touches this file.
type Gateway struct {
	cfg config.UnipayConfig
	now func() time.Time
}

func NewGateway(cfg config.UnipayConfig) *Gateway {
	return &Gateway{cfg: cfg, now: time.Now}
}

// InitPayment registers an order with the gateway and returns the intent id
// and the payment reference the provider will echo back in webhooks. The mock
// ignores amount and currency; a real integration would register both.
func (g *Gateway) InitPayment(_ context.Context, orderID uuid.UUID, _ decimal.Decimal, _ string) (string, string, error) {
	if orderID == uuid.Nil {
		return "", "", fmt.Errorf("order id required")
	}
	intentID := fmt.Sprintf("upi_%d", g.now().UnixNano())
	reference := "REF-" + orderID.String()
	return intentID, reference, nil
}

// PaymentURL is the hosted checkout page for a payment reference.
func (g *Gateway) PaymentURL(reference string) string {
	return fmt.Sprintf("%s/checkout/%s", strings.TrimRight(g.cfg.BaseAPIURL, "/"), reference)
}
