package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	sendgridBaseURL = "https://api.sendgrid.com"
	sendTimeout     = 10 * time.Second
	maxSendRetries  = 3
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	Text    string
}

type transport interface {
	Send(ctx context.Context, msg Message) error
}

// sendgridTransport delivers through the SendGrid v3 REST API. 5xx responses
// and network errors are retried with exponential backoff; 4xx are permanent.
type sendgridTransport struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func newSendgridTransport(apiKey, from string) *sendgridTransport {
	return &sendgridTransport{
		apiKey:  apiKey,
		from:    from,
		baseURL: sendgridBaseURL,
		client:  &http.Client{Timeout: sendTimeout},
	}
}

type sendgridAddress struct {
	Email string `json:"email"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendgridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (t *sendgridTransport) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	var payload sendgridPayload
	payload.Personalizations = make([]struct {
		To []sendgridAddress `json:"to"`
	}, 1)
	for _, to := range msg.To {
		payload.Personalizations[0].To = append(payload.Personalizations[0].To, sendgridAddress{Email: to})
	}
	payload.From = sendgridAddress{Email: t.from}
	payload.Subject = msg.Subject
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: msg.Text}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v3/mail/send", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("sendgrid responded %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("sendgrid rejected message: %d %s", resp.StatusCode, detail)
		}
		return nil
	})
}
