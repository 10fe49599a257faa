package orders

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productReader loads catalog rows for order lines.
type productReader interface {
	FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// stockWithdrawer deducts stock inside the order transaction.
type stockWithdrawer interface {
	Remove(ctx context.Context, tx *gorm.DB, input inventory.MovementInput) (*models.StockMovement, error)
}

// verifiedChecker reports whether the customer confirmed their email recently.
type verifiedChecker interface {
	IsVerified(ctx context.Context, email string) (bool, error)
}

// PaymentInitializer registers the order with the payment provider before the
// order row is written.
type PaymentInitializer interface {
	InitPayment(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) (intentID, reference string, err error)
}

// Notifier delivers post-commit order notifications. Failures must not fail
// the order.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order *models.Order) error
	NotifyStatusChanged(ctx context.Context, order *models.Order) error
}

// Service orchestrates order placement and back-office order management.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (pagination.Page[models.Order], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	ListFailed(ctx context.Context, params pagination.Params) (pagination.Page[models.FailedOrder], error)
	Export(ctx context.Context, filters ExportFilters) ([]models.Order, error)
}

type service struct {
	repo     Repository
	products productReader
	stock    stockWithdrawer
	verifier verifiedChecker
	payments PaymentInitializer
	notifier Notifier
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds the orders service with the required dependencies.
func NewService(
	repo Repository,
	products productReader,
	stock stockWithdrawer,
	verifier verifiedChecker,
	payments PaymentInitializer,
	notifier Notifier,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock withdrawer required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verified checker required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment initializer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: products,
		stock:    stock,
		verifier: verifier,
		payments: payments,
		notifier: notifier,
		tx:       tx,
		logg:     logg,
	}, nil
}

// Place creates an order atomically with its stock deductions. The order row
// and every OUT movement either all commit or none do; aborted attempts are
// recorded in the failed order log for operators.
func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	client, err := normalizeClient(input.Client)
	if err != nil {
		return nil, err
	}
	if err := validateLines(input.Items); err != nil {
		return nil, err
	}

	verified, err := s.verifier.IsVerified(ctx, client.Email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email is not verified")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderID := uuid.New()
	now := time.Now().UTC()
	order := &models.Order{
		ID:     orderID,
		Status: enums.OrderStatusPending,
		Client: models.OrderClient{
			FirstName:       client.FirstName,
			LastName:        client.LastName,
			Email:           client.Email,
			PhoneNumber:     client.PhoneNumber,
			EmailVerified:   true,
			EmailVerifiedAt: &now,
		},
	}

	total := decimal.Zero
	currency := ""
	for _, line := range input.Items {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			s.recordFailedOrder(ctx, order, input.Items, byID, "product unavailable: "+line.ProductID.String())
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is unavailable").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		unit := product.Price
		if product.SalePrice != nil {
			unit = *product.SalePrice
		}
		if currency == "" {
			currency = product.Currency
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Title:     product.Name,
			Price:     unit,
			Quantity:  line.Quantity,
		})
	}
	order.TotalAmount = total

	intentID, reference, err := s.payments.InitPayment(ctx, orderID, total, currency)
	if err != nil {
		s.recordFailedOrder(ctx, order, input.Items, byID, "payment init failed: "+err.Error())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initializing payment")
	}
	order.PaymentIntentID = &intentID
	order.PaymentReference = &reference

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range input.Items {
			_, err := s.stock.Remove(ctx, tx, inventory.MovementInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Actor:     "system",
				Reason:    "order " + orderID.String(),
			})
			if err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		s.recordFailedOrder(ctx, order, input.Items, byID, err.Error())
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placing order")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(ctx, "order placed")

	// best effort; the order is already committed
	if err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "notify_error", err.Error()), "order notifications failed")
	}

	return s.GetByID(ctx, orderID)
}

func (s *service) recordFailedOrder(ctx context.Context, order *models.Order, lines []OrderLineInput, byID map[uuid.UUID]models.Product, reason string) {
	failed := &models.FailedOrder{
		ID:     uuid.New(),
		Client: order.Client,
		Reason: reason,
	}
	for _, line := range lines {
		item := models.FailedOrderItem{ProductID: line.ProductID, Quantity: line.Quantity}
		if product, ok := byID[line.ProductID]; ok {
			item.Title = product.Name
			item.Price = product.Price
			if product.SalePrice != nil {
				item.Price = *product.SalePrice
			}
		}
		failed.Items = append(failed.Items, item)
	}
	if err := s.repo.CreateFailedOrder(ctx, failed); err != nil {
		s.logg.Error(ctx, "recording failed order", err)
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[models.Order], error) {
	if params.Filters.Status != "" && !params.Filters.Status.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	orders, err := s.repo.List(ctx, params.Pagination, params.Filters)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return pagination.NewPage(orders, params.Pagination.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}

	ctx = s.logg.WithOrderID(ctx, id.String())
	s.logg.Info(ctx, "order status updated")

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.NotifyStatusChanged(ctx, order); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "notify_error", err.Error()), "status notification failed")
	}
	return order, nil
}

func (s *service) ListFailed(ctx context.Context, params pagination.Params) (pagination.Page[models.FailedOrder], error) {
	failed, err := s.repo.ListFailedOrders(ctx, params)
	if err != nil {
		return pagination.Page[models.FailedOrder]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing failed orders")
	}
	return pagination.NewPage(failed, params.Limit, func(f models.FailedOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID}
	}), nil
}

// Export loads the orders matching the filters for the back-office CSV dump.
func (s *service) Export(ctx context.Context, filters ExportFilters) ([]models.Order, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "export range is inverted")
	}
	orders, err := s.repo.ListForExport(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "exporting orders")
	}
	return orders, nil
}

func normalizeClient(client ClientInput) (ClientInput, error) {
	client.FirstName = strings.TrimSpace(client.FirstName)
	client.LastName = strings.TrimSpace(client.LastName)
	client.Email = strings.ToLower(strings.TrimSpace(client.Email))
	client.PhoneNumber = strings.TrimSpace(client.PhoneNumber)

	if client.FirstName == "" || client.LastName == "" {
		return client, pkgerrors.New(pkgerrors.CodeValidation, "client name is required")
	}
	if client.PhoneNumber == "" {
		return client, pkgerrors.New(pkgerrors.CodeValidation, "client phone number is required")
	}
	if _, err := mail.ParseAddress(client.Email); err != nil {
		return client, pkgerrors.New(pkgerrors.CodeValidation, "client email is invalid")
	}
	return client, nil
}

func validateLines(lines []OrderLineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if seen[line.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		seen[line.ProductID] = true
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
