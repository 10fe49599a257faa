package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/api/responses"
	"github.com/megatech/storefront-backend/api/validators"
	"github.com/megatech/storefront-backend/internal/orders"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
)

type placeOrderRequest struct {
	Client struct {
		FirstName   string `json:"first_name" validate:"required"`
		LastName    string `json:"last_name" validate:"required"`
		Email       string `json:"email" validate:"required,email"`
		PhoneNumber string `json:"phone_number" validate:"required"`
	} `json:"client"`
	Items []struct {
		ProductID uuid.UUID `json:"product_id" validate:"required"`
		Quantity  int       `json:"quantity" validate:"required,gt=0"`
		// Accepted for client compatibility; totals are re-priced from the catalog.
		Price decimal.Decimal `json:"price"`
	} `json:"items" validate:"required,min=1"`
}

func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.PlaceOrderInput{
			Client: orders.ClientInput{
				FirstName:   req.Client.FirstName,
				LastName:    req.Client.LastName,
				Email:       req.Client.Email,
				PhoneNumber: req.Client.PhoneNumber,
			},
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.OrderLineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order_id": order.ID,
			"success":  true,
		})
	}
}

// GetOrder is the public order tracking endpoint.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), orders.ListParams{
			Filters: orders.ListFilters{
				Status: enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
				Email:  strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email"))),
			},
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, enums.OrderStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ExportOrders streams the order book as a CSV attachment, optionally scoped
// with ?from=, ?to= (RFC 3339 or YYYY-MM-DD) and ?status=.
func ExportOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := orders.ExportFilters{
			Status: enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		}

		var err error
		if filters.From, err = parseExportTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.To, err = parseExportTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		exported, err := svc.Export(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename=orders.csv`)

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"order_id", "created_at", "status", "client_email", "payment_reference", "total_amount", "items_count"})
		for _, order := range exported {
			reference := ""
			if order.PaymentReference != nil {
				reference = *order.PaymentReference
			}
			_ = cw.Write([]string{
				order.ID.String(),
				order.CreatedAt.UTC().Format(time.RFC3339),
				string(order.Status),
				order.Client.Email,
				reference,
				order.TotalAmount.String(),
				strconv.Itoa(len(order.Items)),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logg.Error(r.Context(), "writing order export", err)
		}
	}
}

func parseExportTime(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid time filter").
		WithDetails(map[string]any{"param": key})
}

func ListFailedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListFailed(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
