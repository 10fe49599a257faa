package controllers

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/megatech/storefront-backend/api/responses"
	"github.com/megatech/storefront-backend/api/validators"
	"github.com/megatech/storefront-backend/internal/payments"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
)

const webhookSignatureHeader = "x-unipay-signature"

type initPaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

func InitPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req initPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentURL, err := svc.Initialize(r.Context(), req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"payment_url": paymentURL})
	}
}

// UnipayWebhook receives provider notifications. The gateway only looks at
// the status code, so responses stay bare with no JSON envelope.
func UnipayWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			logg.Error(r.Context(), "webhook body read failed", err)
			responses.WriteBareStatus(w, http.StatusBadRequest)
			return
		}

		if err := svc.HandleNotification(r.Context(), raw, r.Header.Get(webhookSignatureHeader)); err != nil {
			status := http.StatusInternalServerError
			if typed := pkgerrors.As(err); typed != nil {
				status = pkgerrors.MetadataFor(typed.Code()).HTTPStatus
			}
			logg.Warn(logg.WithField(r.Context(), "webhook_status", status), "webhook rejected")
			responses.WriteBareStatus(w, status)
			return
		}

		responses.WriteBareStatus(w, http.StatusOK)
	}
}
