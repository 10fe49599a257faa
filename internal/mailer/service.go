package mailer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/logger"
)

// Sender renders and delivers the storefront's transactional emails. It
// satisfies the verification code sender and the order notifier contracts.
type Sender struct {
	cfg       config.MailConfig
	transport transport
	logg      *logger.Logger
}

// NewSender builds the mail sender. Without a SendGrid API key deliveries are
// logged instead of sent, which keeps local development working offline.
func NewSender(cfg config.MailConfig, logg *logger.Logger) (*Sender, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("from address required")
	}

	var t transport
	if cfg.SendgridAPIKey != "" {
		t = newSendgridTransport(cfg.SendgridAPIKey, cfg.FromAddress)
	} else {
		t = &logTransport{logg: logg}
	}
	return &Sender{cfg: cfg, transport: t, logg: logg}, nil
}

func (s *Sender) SendVerificationCode(ctx context.Context, email, code string) error {
	return s.transport.Send(ctx, Message{
		To:      []string{email},
		Subject: "Your verification code",
		Text: fmt.Sprintf(
			"Your verification code is %s.\n\nIt expires in one minute. If you did not request it, ignore this email.",
			code,
		),
	})
}

// NotifyOrderPlaced emails the back office and the customer. Both deliveries
// are attempted; failures are aggregated so one bounce does not hide the other.
func (s *Sender) NotifyOrderPlaced(ctx context.Context, order *models.Order) error {
	var errs error

	if s.cfg.AdminAddress != "" {
		errs = multierr.Append(errs, s.transport.Send(ctx, Message{
			To:      []string{s.cfg.AdminAddress},
			Subject: fmt.Sprintf("New order %s", order.ID),
			Text: fmt.Sprintf(
				"Order %s from %s %s (%s), total %s GEL.\n\n%s\n\nManage it at %s/orders/%s",
				order.ID,
				order.Client.FirstName, order.Client.LastName, order.Client.Email,
				order.TotalAmount.StringFixed(2),
				itemLines(order),
				strings.TrimRight(s.cfg.AdminPanelURL, "/"), order.ID,
			),
		}))
	}

	errs = multierr.Append(errs, s.transport.Send(ctx, Message{
		To:      []string{order.Client.Email},
		Subject: "We received your order",
		Text: fmt.Sprintf(
			"Hi %s,\n\nThank you for your order. Total: %s GEL.\n\n%s\n\nTrack it at %s/orders/%s",
			order.Client.FirstName,
			order.TotalAmount.StringFixed(2),
			itemLines(order),
			strings.TrimRight(s.cfg.ShopURL, "/"), order.ID,
		),
	}))

	return errs
}

func (s *Sender) NotifyStatusChanged(ctx context.Context, order *models.Order) error {
	return s.transport.Send(ctx, Message{
		To:      []string{order.Client.Email},
		Subject: fmt.Sprintf("Your order is now %s", order.Status),
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour order %s is now %s.\n\nTrack it at %s/orders/%s",
			order.Client.FirstName,
			order.ID, order.Status,
			strings.TrimRight(s.cfg.ShopURL, "/"), order.ID,
		),
	})
}

func itemLines(order *models.Order) string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s x%d @ %s", item.Title.Any(), item.Quantity, item.Price.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// logTransport stands in for SendGrid when no API key is configured.
type logTransport struct {
	logg *logger.Logger
}

func (t *logTransport) Send(ctx context.Context, msg Message) error {
	ctx = t.logg.WithField(ctx, "mail_to", strings.Join(msg.To, ","))
	t.logg.Info(t.logg.WithField(ctx, "mail_subject", msg.Subject), "mail delivery skipped, no api key")
	return nil
}
