package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/megatech/storefront-backend/api/middleware"
	"github.com/megatech/storefront-backend/api/responses"
	"github.com/megatech/storefront-backend/api/validators"
	"github.com/megatech/storefront-backend/internal/inventory"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
)

type stockMovementRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	Reason    string    `json:"reason"`
}

type stockAdjustRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
	Reason    string    `json:"reason"`
}

func StockAdd(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stockMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Add(r.Context(), nil, inventory.MovementInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Actor:     stockActor(r),
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

func StockRemove(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stockMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Remove(r.Context(), nil, inventory.MovementInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Actor:     stockActor(r),
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

func StockAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Adjust(r.Context(), nil, inventory.AdjustInput{
			ProductID:      req.ProductID,
			TargetQuantity: req.Quantity,
			Actor:          stockActor(r),
			Reason:         req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

func StockList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Stocks(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StockLogs pages the movement log, optionally scoped with ?product_id=.
func StockLogs(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := uuid.Nil
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			productID, err = uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
				return
			}
		}

		page, err := svc.Movements(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func stockActor(r *http.Request) string {
	if email := middleware.AdminEmailFromContext(r.Context()); email != "" {
		return email
	}
	return "admin"
}
