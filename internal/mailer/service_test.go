package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/types"
)

type stubTransport struct {
	sent   []Message
	failTo string
}

func (t *stubTransport) Send(_ context.Context, msg Message) error {
	if t.failTo != "" && len(msg.To) > 0 && msg.To[0] == t.failTo {
		return errors.New("delivery failed")
	}
	t.sent = append(t.sent, msg)
	return nil
}

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		FromAddress:   "orders@megatech.example",
		AdminAddress:  "admin@megatech.example",
		AdminPanelURL: "https://panel.example/",
		ShopURL:       "https://shop.example",
	}
}

func newTestSender(t *testing.T) (*Sender, *stubTransport) {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
	sender, err := NewSender(testMailConfig(), logg)
	require.NoError(t, err)

	stub := &stubTransport{}
	sender.transport = stub
	return sender, stub
}

func testOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		Status:      "pending",
		TotalAmount: decimal.NewFromFloat(55.00),
		Client: models.OrderClient{
			FirstName:   "Nino",
			LastName:    "Beridze",
			Email:       "nino@example.com",
			PhoneNumber: "+995555123456",
		},
		Items: []models.OrderItem{
			{
				Title:    types.LocalizedString{En: "Green Tea"},
				Price:    decimal.NewFromFloat(12.50),
				Quantity: 2,
			},
		},
	}
}

func TestSendVerificationCode(t *testing.T) {
	sender, stub := newTestSender(t)

	require.NoError(t, sender.SendVerificationCode(context.Background(), "nino@example.com", "4821"))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, []string{"nino@example.com"}, stub.sent[0].To)
	assert.Contains(t, stub.sent[0].Text, "4821")
}

func TestNotifyOrderPlacedFansOut(t *testing.T) {
	sender, stub := newTestSender(t)
	order := testOrder()

	require.NoError(t, sender.NotifyOrderPlaced(context.Background(), order))
	require.Len(t, stub.sent, 2)

	admin, client := stub.sent[0], stub.sent[1]
	assert.Equal(t, []string{"admin@megatech.example"}, admin.To)
	assert.Contains(t, admin.Text, "https://panel.example/orders/"+order.ID.String())
	assert.Contains(t, admin.Text, "55.00")
	assert.Contains(t, admin.Text, "Green Tea x2")

	assert.Equal(t, []string{"nino@example.com"}, client.To)
	assert.Contains(t, client.Text, "https://shop.example/orders/"+order.ID.String())
	assert.Contains(t, client.Subject, "received your order")
}

func TestNotifyOrderPlacedAggregatesFailures(t *testing.T) {
	sender, stub := newTestSender(t)
	stub.failTo = "admin@megatech.example"
	order := testOrder()

	err := sender.NotifyOrderPlaced(context.Background(), order)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)

	// the client email still went out
	require.Len(t, stub.sent, 1)
	assert.Equal(t, []string{"nino@example.com"}, stub.sent[0].To)
}

func TestNotifyOrderPlacedSkipsAdminWhenUnconfigured(t *testing.T) {
	sender, stub := newTestSender(t)
	sender.cfg.AdminAddress = ""

	require.NoError(t, sender.NotifyOrderPlaced(context.Background(), testOrder()))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, []string{"nino@example.com"}, stub.sent[0].To)
}

func TestNotifyStatusChanged(t *testing.T) {
	sender, stub := newTestSender(t)
	order := testOrder()
	order.Status = "sent"

	require.NoError(t, sender.NotifyStatusChanged(context.Background(), order))
	require.Len(t, stub.sent, 1)
	assert.Contains(t, stub.sent[0].Subject, "sent")
	assert.Contains(t, stub.sent[0].Text, order.ID.String())
}

func TestNoAPIKeyUsesLogTransport(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
	sender, err := NewSender(testMailConfig(), logg)
	require.NoError(t, err)

	_, ok := sender.transport.(*logTransport)
	assert.True(t, ok)
	require.NoError(t, sender.SendVerificationCode(context.Background(), "nino@example.com", "1234"))
}

func TestSendgridTransportRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/v3/mail/send", r.URL.Path)
		require.Equal(t, "Bearer sg_test", r.Header.Get("Authorization"))
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	transport := newSendgridTransport("sg_test", "orders@megatech.example")
	transport.baseURL = srv.URL

	err := transport.Send(context.Background(), Message{
		To:      []string{"nino@example.com"},
		Subject: "test",
		Text:    "body",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendgridTransportDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"message":"bad payload"}]}`)
	}))
	defer srv.Close()

	transport := newSendgridTransport("sg_test", "orders@megatech.example")
	transport.baseURL = srv.URL

	err := transport.Send(context.Background(), Message{
		To:      []string{"nino@example.com"},
		Subject: "test",
		Text:    "body",
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "bad payload")
}
